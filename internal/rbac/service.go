package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/mektep/mektep/internal/shared"
)

// RepositoryPort defines data access methods for the permission engine.
type RepositoryPort interface {
	ListPermissions(ctx context.Context) ([]Permission, error)
	PermissionsByCodes(ctx context.Context, codes []string) ([]Permission, error)
	RoleGrantCodes(ctx context.Context, role Role) ([]string, error)
	GrantCodesForRoles(ctx context.Context, roles []Role) ([]string, error)
	ReplaceRoleGrants(ctx context.Context, role Role, permissionIDs []uuid.UUID) error
	DistinctRoles(ctx context.Context, userID uuid.UUID) ([]Role, error)
	HasRole(ctx context.Context, userID uuid.UUID, role Role) (bool, error)
	HasRoleInSchool(ctx context.Context, userID, schoolID uuid.UUID, roles []Role) (bool, error)
	EnsureAssignment(ctx context.Context, userID, schoolID uuid.UUID, role Role) (bool, error)
	RemoveAssignment(ctx context.Context, id uuid.UUID) error
	ListAssignments(ctx context.Context, filter AssignmentFilter) ([]Assignment, error)
	SchoolsWithRoles(ctx context.Context, userID uuid.UUID, roles []Role) ([]uuid.UUID, error)
	AssignedSchools(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// AssignmentFilter narrows assignment listings. Nil fields match everything.
type AssignmentFilter struct {
	UserID   *uuid.UUID
	SchoolID *uuid.UUID
	Limit    int32
	Offset   int32
}

// Service evaluates permissions and manages the role-permission matrix.
// Evaluation is tenant agnostic: holding a role in one school grants its
// permission codes everywhere. Tenant boundaries are enforced by the query
// scoper, not by the evaluator.
type Service struct {
	repo   RepositoryPort
	cache  *Cache
	group  singleflight.Group
	logger *slog.Logger
}

// NewService builds a Service instance. cache may be nil.
func NewService(repo RepositoryPort, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

// ListCatalog returns the full permission catalog.
func (s *Service) ListCatalog(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// RoleGrants returns the permission codes currently granted to a role.
func (s *Service) RoleGrants(ctx context.Context, role Role) ([]string, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return s.repo.RoleGrantCodes(ctx, role)
}

// ReplaceRoleGrants replaces the entire grant set of a role. Every supplied
// code must exist in the catalog; otherwise nothing changes and the unknown
// codes are reported. An empty code list revokes everything.
func (s *Service) ReplaceRoleGrants(ctx context.Context, role Role, codes []string) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	codes = dedupe(codes)
	var ids []uuid.UUID
	if len(codes) > 0 {
		perms, err := s.repo.PermissionsByCodes(ctx, codes)
		if err != nil {
			return err
		}
		known := make(map[string]uuid.UUID, len(perms))
		for _, p := range perms {
			known[p.Code] = p.ID
		}
		var missing []string
		for _, code := range codes {
			id, ok := known[code]
			if !ok {
				missing = append(missing, code)
				continue
			}
			ids = append(ids, id)
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: %s", ErrUnknownPermission, strings.Join(missing, ", "))
		}
	}
	if err := s.repo.ReplaceRoleGrants(ctx, role, ids); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// EffectivePermissions computes the caller's permission codes: superusers get
// the full catalog, everyone else the union of grants over every role they
// hold in any school. Results are cached per user behind the version counter.
func (s *Service) EffectivePermissions(ctx context.Context, ident shared.Identity) ([]string, error) {
	if codes, ok := s.cache.Get(ctx, ident.ID); ok {
		return codes, nil
	}
	v, err, _ := s.group.Do("perms:"+ident.ID.String(), func() (interface{}, error) {
		codes, err := s.computePermissions(ctx, ident)
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, ident.ID, codes)
		return codes, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (s *Service) computePermissions(ctx context.Context, ident shared.Identity) ([]string, error) {
	if ident.IsSuperuser {
		perms, err := s.repo.ListPermissions(ctx)
		if err != nil {
			return nil, err
		}
		codes := make([]string, len(perms))
		for i, p := range perms {
			codes[i] = p.Code
		}
		sort.Strings(codes)
		return codes, nil
	}
	roles, err := s.repo.DistinctRoles(ctx, ident.ID)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return []string{}, nil
	}
	codes, err := s.repo.GrantCodesForRoles(ctx, roles)
	if err != nil {
		return nil, err
	}
	if codes == nil {
		codes = []string{}
	}
	return codes, nil
}

// HasPermission reports whether the identity holds the given code.
func (s *Service) HasPermission(ctx context.Context, ident shared.Identity, code string) (bool, error) {
	if ident.IsSuperuser {
		return true, nil
	}
	codes, err := s.EffectivePermissions(ctx, ident)
	if err != nil {
		return false, err
	}
	for _, c := range codes {
		if c == code {
			return true, nil
		}
	}
	return false, nil
}

// HasRole reports whether the user holds the role in any school.
func (s *Service) HasRole(ctx context.Context, userID uuid.UUID, role Role) (bool, error) {
	return s.repo.HasRole(ctx, userID, role)
}

// Roles returns the distinct roles the user holds across all schools.
func (s *Service) Roles(ctx context.Context, userID uuid.UUID) ([]Role, error) {
	return s.repo.DistinctRoles(ctx, userID)
}

// CanReviewForSchool reports whether the identity may approve or reject join
// requests for the given school. Unlike permission evaluation this check is
// tenant scoped: the reviewer role must be held in that school.
func (s *Service) CanReviewForSchool(ctx context.Context, ident shared.Identity, schoolID uuid.UUID) (bool, error) {
	if ident.IsSuperuser {
		return true, nil
	}
	return s.repo.HasRoleInSchool(ctx, ident.ID, schoolID, ReviewerRoles())
}

// ReviewableSchools returns the schools the identity may review join requests
// for. Superusers get a nil slice with all=true.
func (s *Service) ReviewableSchools(ctx context.Context, ident shared.Identity) (all bool, ids []uuid.UUID, err error) {
	if ident.IsSuperuser {
		return true, nil, nil
	}
	ids, err = s.repo.SchoolsWithRoles(ctx, ident.ID, ReviewerRoles())
	return false, ids, err
}

// AssignRole records that the user holds the role in the school. The call is
// idempotent; created reports whether a new assignment row was written.
func (s *Service) AssignRole(ctx context.Context, userID, schoolID uuid.UUID, role Role) (created bool, err error) {
	if !role.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	created, err = s.repo.EnsureAssignment(ctx, userID, schoolID, role)
	if err != nil {
		return false, err
	}
	if created {
		s.invalidate(ctx)
	}
	return created, nil
}

// RemoveAssignment deletes an assignment row.
func (s *Service) RemoveAssignment(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.RemoveAssignment(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// ListAssignments returns assignments matching the filter.
func (s *Service) ListAssignments(ctx context.Context, filter AssignmentFilter) ([]Assignment, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.repo.ListAssignments(ctx, filter)
}

// AssignedSchools returns every school the user holds any role in.
func (s *Service) AssignedSchools(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.AssignedSchools(ctx, userID)
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("permission cache bump failed", slog.Any("error", err))
	}
}

func dedupe(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := codes[:0]
	for _, code := range codes {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}
