// Package notifications stores per-user notification records.
package notifications

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a message addressed to a single user.
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Kind      string
	Title     string
	Body      string
	IsRead    bool
	CreatedAt time.Time
}
