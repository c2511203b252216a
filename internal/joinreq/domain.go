// Package joinreq implements the school join-request workflow. A user asks
// for a role in a school; a reviewer for that school approves or rejects the
// request. Decisions are terminal.
package joinreq

import (
	"time"

	"github.com/google/uuid"

	"github.com/mektep/mektep/internal/rbac"
)

// Status is the lifecycle state of a join request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// JoinRequest is a user's application for a role in a school.
type JoinRequest struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	SchoolID     uuid.UUID
	Role         rbac.Role
	Status       Status
	Message      string
	RejectReason string
	ReviewerID   *uuid.UUID
	ReviewedAt   *time.Time
	CreatedAt    time.Time
}
