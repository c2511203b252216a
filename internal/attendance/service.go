package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mektep/mektep/internal/platform/httpx"
	"github.com/mektep/mektep/internal/rbac"
	"github.com/mektep/mektep/internal/shared"
)

// MarkFilter narrows attendance listings. OnlyStudentIDs is populated from
// the query scoper, never from the caller.
type MarkFilter struct {
	OnlyStudentIDs []uuid.UUID
	StudentID      *uuid.UUID
	SchoolID       *uuid.UUID
	From           *time.Time
	To             *time.Time
	Limit          int32
	Offset         int32
}

// RepositoryPort defines data access methods for attendance marks.
type RepositoryPort interface {
	CreateMark(ctx context.Context, m Mark) error
	ListMarks(ctx context.Context, filter MarkFilter) ([]Mark, error)
}

// Service handles attendance business logic.
type Service struct {
	repo   RepositoryPort
	scoper *rbac.Scoper
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, scoper *rbac.Scoper) *Service {
	return &Service{repo: repo, scoper: scoper}
}

// List returns marks visible to the identity, scope applied before caller
// filters.
func (s *Service) List(ctx context.Context, ident shared.Identity, filter MarkFilter) ([]Mark, error) {
	scope, err := s.scoper.Students(ctx, ident)
	if err != nil {
		return nil, err
	}
	if scope.Empty() {
		return []Mark{}, nil
	}
	if !scope.All {
		filter.OnlyStudentIDs = scope.IDs
	}
	return s.repo.ListMarks(ctx, filter)
}

// Record writes an attendance mark for a lesson.
func (s *Service) Record(ctx context.Context, ident shared.Identity, m Mark) (*Mark, error) {
	if !m.Status.Valid() {
		return nil, httpx.FieldErrors{"status": "must be one of present, absent, late, excused"}
	}
	m.ID = uuid.New()
	m.MarkedBy = ident.ID
	if m.LessonDate.IsZero() {
		m.LessonDate = time.Now()
	}
	if err := s.repo.CreateMark(ctx, m); err != nil {
		return nil, err
	}
	return &m, nil
}
