package notifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/mektep/mektep/internal/shared"
)

// listCap bounds how many notifications a single request returns.
const listCap = 50

// RepositoryPort defines data access methods for notifications.
type RepositoryPort interface {
	Create(ctx context.Context, n Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int32) ([]Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
}

// Service handles notification business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Notify stores a notification for the user.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, kind, title, body string) error {
	return s.repo.Create(ctx, Notification{
		ID:     uuid.New(),
		UserID: userID,
		Kind:   kind,
		Title:  title,
		Body:   body,
	})
}

// List returns the identity's most recent notifications, capped.
func (s *Service) List(ctx context.Context, ident shared.Identity) ([]Notification, error) {
	return s.repo.ListByUser(ctx, ident.ID, listCap)
}

// MarkRead marks one of the identity's notifications as read.
func (s *Service) MarkRead(ctx context.Context, ident shared.Identity, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, ident.ID)
}
