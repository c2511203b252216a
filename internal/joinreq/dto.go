package joinreq

import (
	"time"

	"github.com/google/uuid"
)

// JoinRequestResponse is the join-request wire form.
type JoinRequestResponse struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	SchoolID     uuid.UUID  `json:"school_id"`
	Role         string     `json:"role"`
	Status       Status     `json:"status"`
	Message      string     `json:"message,omitempty"`
	RejectReason string     `json:"reject_reason,omitempty"`
	ReviewerID   *uuid.UUID `json:"reviewer_id,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// CreateRequest files a join request.
type CreateRequest struct {
	SchoolID uuid.UUID `json:"school_id" validate:"required"`
	Role     string    `json:"role" validate:"required"`
	Message  string    `json:"message" validate:"max=500"`
}

// ReviewRequest decides a pending request.
type ReviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Reason   string `json:"reason" validate:"max=500"`
}

func toResponse(req *JoinRequest) JoinRequestResponse {
	return JoinRequestResponse{
		ID:           req.ID,
		UserID:       req.UserID,
		SchoolID:     req.SchoolID,
		Role:         string(req.Role),
		Status:       req.Status,
		Message:      req.Message,
		RejectReason: req.RejectReason,
		ReviewerID:   req.ReviewerID,
		ReviewedAt:   req.ReviewedAt,
		CreatedAt:    req.CreatedAt,
	}
}
