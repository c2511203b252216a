package schools

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/google/uuid"

	"github.com/mektep/mektep/internal/rbac"
	"github.com/mektep/mektep/internal/shared"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
	codeRetries  = 10
)

// RepositoryPort defines data access methods for schools.
type RepositoryPort interface {
	ListCities(ctx context.Context) ([]City, error)
	Create(ctx context.Context, s School) error
	Get(ctx context.Context, id uuid.UUID) (*School, error)
	GetByCode(ctx context.Context, code string) (*School, error)
	List(ctx context.Context, onlyIDs []uuid.UUID) ([]School, error)
	Update(ctx context.Context, s School) error
	Delete(ctx context.Context, id uuid.UUID) error
	CreateAcademicYear(ctx context.Context, y AcademicYear) error
	GetAcademicYear(ctx context.Context, id uuid.UUID) (*AcademicYear, error)
	ListAcademicYears(ctx context.Context, schoolID *uuid.UUID, onlySchools []uuid.UUID) ([]AcademicYear, error)
	UpdateAcademicYear(ctx context.Context, y AcademicYear) error
	DeleteAcademicYear(ctx context.Context, id uuid.UUID) error
}

// SchoolLinker sets a user's linked school. Implemented by the users service.
type SchoolLinker interface {
	LinkSchool(ctx context.Context, userID, schoolID uuid.UUID) error
}

// Service handles tenant business logic.
type Service struct {
	repo   RepositoryPort
	rbac   *rbac.Service
	scoper *rbac.Scoper
	linker SchoolLinker
	logger *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, rbacSvc *rbac.Service, scoper *rbac.Scoper, linker SchoolLinker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, rbac: rbacSvc, scoper: scoper, linker: linker, logger: logger}
}

// ListCities returns the city reference.
func (s *Service) ListCities(ctx context.Context) ([]City, error) {
	return s.repo.ListCities(ctx)
}

// Create registers a new school with a fresh connection code. A creator who
// holds the superadmin role anywhere gets that role in the new school and
// has it set as their linked school.
func (s *Service) Create(ctx context.Context, ident shared.Identity, school School) (*School, error) {
	school.ID = uuid.New()
	var err error
	for attempt := 0; attempt < codeRetries; attempt++ {
		school.ConnectionCode, err = generateConnectionCode()
		if err != nil {
			return nil, err
		}
		err = s.repo.Create(ctx, school)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrCodeCollision) {
			return nil, err
		}
	}
	if err != nil {
		return nil, fmt.Errorf("schools: exhausted connection code attempts: %w", err)
	}

	isSuper, roleErr := s.rbac.HasRole(ctx, ident.ID, rbac.RoleSuperAdmin)
	if roleErr != nil {
		return nil, roleErr
	}
	if isSuper || ident.IsSuperuser {
		if _, err := s.rbac.AssignRole(ctx, ident.ID, school.ID, rbac.RoleSuperAdmin); err != nil {
			return nil, err
		}
		if s.linker != nil {
			if err := s.linker.LinkSchool(ctx, ident.ID, school.ID); err != nil {
				s.logger.Warn("link creator to school", slog.Any("error", err))
			}
		}
	}
	return s.repo.Get(ctx, school.ID)
}

// Get fetches one school.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*School, error) {
	return s.repo.Get(ctx, id)
}

// GetByCode resolves a school from its 6-character connection code.
func (s *Service) GetByCode(ctx context.Context, code string) (*School, error) {
	return s.repo.GetByCode(ctx, code)
}

// List returns the schools visible to the identity per the school scope.
func (s *Service) List(ctx context.Context, ident shared.Identity) ([]School, error) {
	scope, err := s.scoper.Schools(ctx, ident)
	if err != nil {
		return nil, err
	}
	if scope.All {
		return s.repo.List(ctx, nil)
	}
	if scope.Empty() {
		return []School{}, nil
	}
	return s.repo.List(ctx, scope.IDs)
}

// Update applies changes to a school.
func (s *Service) Update(ctx context.Context, school School) (*School, error) {
	if err := s.repo.Update(ctx, school); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, school.ID)
}

// Delete removes a school.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// CreateAcademicYear adds a year to a school.
func (s *Service) CreateAcademicYear(ctx context.Context, y AcademicYear) (*AcademicYear, error) {
	y.ID = uuid.New()
	if err := s.repo.CreateAcademicYear(ctx, y); err != nil {
		return nil, err
	}
	return s.repo.GetAcademicYear(ctx, y.ID)
}

// ListAcademicYears returns years visible to the identity, optionally
// filtered by school.
func (s *Service) ListAcademicYears(ctx context.Context, ident shared.Identity, schoolID *uuid.UUID) ([]AcademicYear, error) {
	scope, err := s.scoper.Schools(ctx, ident)
	if err != nil {
		return nil, err
	}
	if scope.All {
		return s.repo.ListAcademicYears(ctx, schoolID, nil)
	}
	if scope.Empty() {
		return []AcademicYear{}, nil
	}
	return s.repo.ListAcademicYears(ctx, schoolID, scope.IDs)
}

// UpdateAcademicYear applies changes to one year.
func (s *Service) UpdateAcademicYear(ctx context.Context, y AcademicYear) (*AcademicYear, error) {
	if err := s.repo.UpdateAcademicYear(ctx, y); err != nil {
		return nil, err
	}
	return s.repo.GetAcademicYear(ctx, y.ID)
}

// DeleteAcademicYear removes one year.
func (s *Service) DeleteAcademicYear(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteAcademicYear(ctx, id)
}

func generateConnectionCode() (string, error) {
	buf := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("schools: generate code: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
