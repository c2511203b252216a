package staff

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mektep/mektep/internal/platform/httpx"
)

// MemberFilter narrows staff listings.
type MemberFilter struct {
	SchoolID *uuid.UUID
	Position *string
	Limit    int32
	Offset   int32
}

// RepositoryPort defines data access methods for staff records.
type RepositoryPort interface {
	CreateMember(ctx context.Context, m Member) error
	GetMember(ctx context.Context, id uuid.UUID) (*Member, error)
	ListMembers(ctx context.Context, filter MemberFilter) ([]Member, error)
	UpdateMember(ctx context.Context, m Member) error
	CreateSubject(ctx context.Context, s Subject) error
	ListSubjects(ctx context.Context, schoolID uuid.UUID) ([]Subject, error)
	AssignSubject(ctx context.Context, a SubjectAssignment) error
	SubjectsForMember(ctx context.Context, staffID uuid.UUID) ([]Subject, error)
}

// Service handles staff business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Hire creates an employment record for a user at a school.
func (s *Service) Hire(ctx context.Context, m Member) (*Member, error) {
	if m.Position == "" {
		m.Position = PositionTeacher
	}
	if err := validateMember(m); err != nil {
		return nil, err
	}
	m.ID = uuid.New()
	if m.EmploymentDate.IsZero() {
		m.EmploymentDate = time.Now()
	}
	if err := s.repo.CreateMember(ctx, m); err != nil {
		return nil, err
	}
	return s.repo.GetMember(ctx, m.ID)
}

// Get returns one staff member.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Member, error) {
	return s.repo.GetMember(ctx, id)
}

// List returns staff members matching the filter.
func (s *Service) List(ctx context.Context, filter MemberFilter) ([]Member, error) {
	return s.repo.ListMembers(ctx, filter)
}

// Update rewrites a member's position, employment date and load limit.
func (s *Service) Update(ctx context.Context, id uuid.UUID, position Position, employmentDate time.Time, loadLimitHours int32) (*Member, error) {
	current, err := s.repo.GetMember(ctx, id)
	if err != nil {
		return nil, err
	}
	m := *current
	if position != "" {
		m.Position = position
	}
	if !employmentDate.IsZero() {
		m.EmploymentDate = employmentDate
	}
	m.LoadLimitHours = loadLimitHours
	if err := validateMember(m); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateMember(ctx, m); err != nil {
		return nil, err
	}
	return s.repo.GetMember(ctx, id)
}

// AddSubject creates a subject in the school catalog.
func (s *Service) AddSubject(ctx context.Context, subj Subject) (*Subject, error) {
	subj.ID = uuid.New()
	if subj.DefaultCredits <= 0 {
		subj.DefaultCredits = 1
	}
	if err := s.repo.CreateSubject(ctx, subj); err != nil {
		return nil, err
	}
	return &subj, nil
}

// Subjects lists the subject catalog of a school.
func (s *Service) Subjects(ctx context.Context, schoolID uuid.UUID) ([]Subject, error) {
	return s.repo.ListSubjects(ctx, schoolID)
}

// AssignSubject links a member to a subject they teach.
func (s *Service) AssignSubject(ctx context.Context, staffID, subjectID uuid.UUID) error {
	return s.repo.AssignSubject(ctx, SubjectAssignment{ID: uuid.New(), StaffID: staffID, SubjectID: subjectID})
}

// SubjectsForMember lists the subjects a member teaches.
func (s *Service) SubjectsForMember(ctx context.Context, staffID uuid.UUID) ([]Subject, error) {
	return s.repo.SubjectsForMember(ctx, staffID)
}

func validateMember(m Member) error {
	if !m.Position.Valid() {
		return httpx.FieldErrors{"position": "must be one of teacher, director, admin, registrar, scheduler"}
	}
	if m.LoadLimitHours < 0 || m.LoadLimitHours > maxWeeklyLoadHours {
		return httpx.FieldErrors{"load_limit_hours": "must be between 0 and 40"}
	}
	return nil
}
