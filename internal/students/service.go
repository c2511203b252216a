package students

import (
	"context"

	"github.com/google/uuid"

	"github.com/mektep/mektep/internal/platform/httpx"
	"github.com/mektep/mektep/internal/rbac"
	"github.com/mektep/mektep/internal/shared"
)

// ListFilter narrows student listings. OnlyIDs is populated from the query
// scoper, never from the caller.
type ListFilter struct {
	SchoolID     *uuid.UUID
	OnlyIDs      []uuid.UUID
	ClassGroupID *uuid.UUID
	Limit        int32
	Offset       int32
}

// RepositoryPort defines data access methods for student records.
type RepositoryPort interface {
	Create(ctx context.Context, s Student) error
	Get(ctx context.Context, id uuid.UUID) (*Student, error)
	List(ctx context.Context, filter ListFilter) ([]Student, error)
	StudentIDByUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	ChildIDs(ctx context.Context, guardianUserID uuid.UUID) ([]uuid.UUID, error)
	LinkGuardian(ctx context.Context, link GuardianLink) error
	UnlinkGuardian(ctx context.Context, id uuid.UUID) error
	Guardians(ctx context.Context, studentID uuid.UUID) ([]GuardianLink, error)
	CreateClassGroup(ctx context.Context, g ClassGroup) error
	ListClassGroups(ctx context.Context, schoolID uuid.UUID) ([]ClassGroup, error)
}

// Service handles student roster business logic.
type Service struct {
	repo   RepositoryPort
	scoper *rbac.Scoper
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, scoper *rbac.Scoper) *Service {
	return &Service{repo: repo, scoper: scoper}
}

// List returns the students the identity may see, narrowed by the student
// scope before any caller filters.
func (s *Service) List(ctx context.Context, ident shared.Identity, filter ListFilter) ([]Student, error) {
	scope, err := s.scoper.Students(ctx, ident)
	if err != nil {
		return nil, err
	}
	if scope.Empty() {
		return []Student{}, nil
	}
	if !scope.All {
		filter.OnlyIDs = scope.IDs
	}
	return s.repo.List(ctx, filter)
}

// Get fetches one student if the identity's scope covers it.
func (s *Service) Get(ctx context.Context, ident shared.Identity, id uuid.UUID) (*Student, error) {
	scope, err := s.scoper.Students(ctx, ident)
	if err != nil {
		return nil, err
	}
	if !scope.Covers(id) {
		return nil, httpx.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Enroll creates a student profile.
func (s *Service) Enroll(ctx context.Context, st Student) (*Student, error) {
	st.ID = uuid.New()
	if err := s.repo.Create(ctx, st); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, st.ID)
}

// LinkGuardian ties a guardian user to a student.
func (s *Service) LinkGuardian(ctx context.Context, studentID, guardianID uuid.UUID, relationship string) (*GuardianLink, error) {
	if relationship == "" {
		relationship = "parent"
	}
	link := GuardianLink{ID: uuid.New(), StudentID: studentID, GuardianID: guardianID, Relationship: relationship}
	if err := s.repo.LinkGuardian(ctx, link); err != nil {
		return nil, err
	}
	return &link, nil
}

// UnlinkGuardian removes a guardian link.
func (s *Service) UnlinkGuardian(ctx context.Context, id uuid.UUID) error {
	return s.repo.UnlinkGuardian(ctx, id)
}

// Guardians lists guardian links for a student.
func (s *Service) Guardians(ctx context.Context, studentID uuid.UUID) ([]GuardianLink, error) {
	return s.repo.Guardians(ctx, studentID)
}

// CreateClassGroup adds a class group to a school.
func (s *Service) CreateClassGroup(ctx context.Context, g ClassGroup) (*ClassGroup, error) {
	g.ID = uuid.New()
	if err := s.repo.CreateClassGroup(ctx, g); err != nil {
		return nil, err
	}
	return &g, nil
}

// ListClassGroups returns class groups for a school.
func (s *Service) ListClassGroups(ctx context.Context, schoolID uuid.UUID) ([]ClassGroup, error) {
	return s.repo.ListClassGroups(ctx, schoolID)
}
