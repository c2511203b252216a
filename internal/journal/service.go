package journal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mektep/mektep/internal/platform/httpx"
	"github.com/mektep/mektep/internal/rbac"
	"github.com/mektep/mektep/internal/shared"
)

// GradeFilter narrows grade listings. OnlyStudentIDs is populated from the
// query scoper, never from the caller.
type GradeFilter struct {
	OnlyStudentIDs []uuid.UUID
	StudentID      *uuid.UUID
	SchoolID       *uuid.UUID
	From           *time.Time
	To             *time.Time
	Limit          int32
	Offset         int32
}

// RepositoryPort defines data access methods for the journal.
type RepositoryPort interface {
	CreateGrade(ctx context.Context, g Grade) error
	ListGrades(ctx context.Context, filter GradeFilter) ([]Grade, error)
	CreateFeedback(ctx context.Context, f Feedback) error
	ListFeedback(ctx context.Context, studentID uuid.UUID, since time.Time) ([]Feedback, error)
}

// Service handles journal business logic.
type Service struct {
	repo   RepositoryPort
	scoper *rbac.Scoper
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, scoper *rbac.Scoper) *Service {
	return &Service{repo: repo, scoper: scoper}
}

// ListGrades returns grades visible to the identity. The student scope is
// applied before any caller filters, so a student or guardian can never widen
// the result by passing a foreign student_id.
func (s *Service) ListGrades(ctx context.Context, ident shared.Identity, filter GradeFilter) ([]Grade, error) {
	scope, err := s.scoper.Students(ctx, ident)
	if err != nil {
		return nil, err
	}
	if scope.Empty() {
		return []Grade{}, nil
	}
	if !scope.All {
		filter.OnlyStudentIDs = scope.IDs
	}
	return s.repo.ListGrades(ctx, filter)
}

// RecordGrade writes a journal mark. Values follow the five-point scale.
func (s *Service) RecordGrade(ctx context.Context, ident shared.Identity, g Grade) (*Grade, error) {
	if g.Value < 1 || g.Value > 5 {
		return nil, httpx.FieldErrors{"value": "must be between 1 and 5"}
	}
	g.ID = uuid.New()
	g.TeacherID = ident.ID
	if g.LessonDate.IsZero() {
		g.LessonDate = time.Now()
	}
	if err := s.repo.CreateGrade(ctx, g); err != nil {
		return nil, err
	}
	return &g, nil
}

// ListFeedback returns feedback for a student the identity may read.
func (s *Service) ListFeedback(ctx context.Context, ident shared.Identity, studentID uuid.UUID, since time.Time) ([]Feedback, error) {
	scope, err := s.scoper.Students(ctx, ident)
	if err != nil {
		return nil, err
	}
	if !scope.Covers(studentID) {
		return nil, httpx.ErrNotFound
	}
	if since.IsZero() {
		since = time.Now().AddDate(-1, 0, 0)
	}
	return s.repo.ListFeedback(ctx, studentID, since)
}

// RecordFeedback writes a teacher note on a student.
func (s *Service) RecordFeedback(ctx context.Context, ident shared.Identity, studentID uuid.UUID, text string) (*Feedback, error) {
	f := Feedback{ID: uuid.New(), StudentID: studentID, TeacherID: ident.ID, Text: text}
	if err := s.repo.CreateFeedback(ctx, f); err != nil {
		return nil, err
	}
	return &f, nil
}
