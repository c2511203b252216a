package notifications

import (
	"time"

	"github.com/google/uuid"
)

// NotificationResponse is the notification wire form.
type NotificationResponse struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func toResponse(n *Notification) NotificationResponse {
	return NotificationResponse{ID: n.ID, Kind: n.Kind, Title: n.Title, Body: n.Body, IsRead: n.IsRead, CreatedAt: n.CreatedAt}
}
