// Package rbactest provides an in-memory rbac repository for tests in
// packages that consume the permission engine.
package rbactest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mektep/mektep/internal/rbac"
)

// Repo is an in-memory implementation of rbac.RepositoryPort.
type Repo struct {
	mu          sync.Mutex
	permissions map[string]rbac.Permission
	grants      map[rbac.Role][]string
	assignments map[uuid.UUID]rbac.Assignment

	// FailEnsureAssignment, when set, is returned by EnsureAssignment so
	// tests can exercise grant failures.
	FailEnsureAssignment error
}

// NewRepo returns an empty repository preloaded with the full permission
// catalog.
func NewRepo() *Repo {
	r := &Repo{
		permissions: make(map[string]rbac.Permission),
		grants:      make(map[rbac.Role][]string),
		assignments: make(map[uuid.UUID]rbac.Assignment),
	}
	for _, entry := range rbac.Catalog() {
		r.permissions[entry.Code] = rbac.Permission{
			ID:       uuid.New(),
			Code:     entry.Code,
			Name:     entry.Name,
			Resource: entry.Resource,
			Action:   entry.Action,
		}
	}
	return r
}

// SeedDefaultGrants loads the default role-permission matrix.
func (r *Repo) SeedDefaultGrants() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for role, codes := range rbac.DefaultRoleGrants() {
		r.grants[role] = append([]string(nil), codes...)
	}
}

// Assign records a role assignment directly.
func (r *Repo) Assign(userID, schoolID uuid.UUID, role rbac.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	r.assignments[id] = rbac.Assignment{ID: id, UserID: userID, SchoolID: schoolID, Role: role, CreatedAt: time.Now()}
}

func (r *Repo) ListPermissions(ctx context.Context) ([]rbac.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]rbac.Permission, 0, len(r.permissions))
	for _, p := range r.permissions {
		out = append(out, p)
	}
	return out, nil
}

func (r *Repo) PermissionsByCodes(ctx context.Context, codes []string) ([]rbac.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []rbac.Permission
	for _, code := range codes {
		if p, ok := r.permissions[code]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *Repo) RoleGrantCodes(ctx context.Context, role rbac.Role) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.grants[role]...), nil
}

func (r *Repo) GrantCodesForRoles(ctx context.Context, roles []rbac.Role) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]struct{})
	var out []string
	for _, role := range roles {
		for _, code := range r.grants[role] {
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			out = append(out, code)
		}
	}
	return out, nil
}

func (r *Repo) ReplaceRoleGrants(ctx context.Context, role rbac.Role, ids []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byID := make(map[uuid.UUID]string)
	for code, p := range r.permissions {
		byID[p.ID] = code
	}
	var codes []string
	for _, id := range ids {
		codes = append(codes, byID[id])
	}
	r.grants[role] = codes
	return nil
}

func (r *Repo) DistinctRoles(ctx context.Context, userID uuid.UUID) ([]rbac.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[rbac.Role]struct{})
	var out []rbac.Role
	for _, a := range r.assignments {
		if a.UserID != userID {
			continue
		}
		if _, ok := seen[a.Role]; ok {
			continue
		}
		seen[a.Role] = struct{}{}
		out = append(out, a.Role)
	}
	return out, nil
}

func (r *Repo) HasRole(ctx context.Context, userID uuid.UUID, role rbac.Role) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assignments {
		if a.UserID == userID && a.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repo) HasRoleInSchool(ctx context.Context, userID, schoolID uuid.UUID, roles []rbac.Role) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assignments {
		if a.UserID != userID || a.SchoolID != schoolID {
			continue
		}
		for _, role := range roles {
			if a.Role == role {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *Repo) EnsureAssignment(ctx context.Context, userID, schoolID uuid.UUID, role rbac.Role) (bool, error) {
	if r.FailEnsureAssignment != nil {
		return false, r.FailEnsureAssignment
	}
	r.mu.Lock()
	for _, a := range r.assignments {
		if a.UserID == userID && a.SchoolID == schoolID && a.Role == role {
			r.mu.Unlock()
			return false, nil
		}
	}
	r.mu.Unlock()
	r.Assign(userID, schoolID, role)
	return true, nil
}

func (r *Repo) RemoveAssignment(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.assignments, id)
	return nil
}

func (r *Repo) ListAssignments(ctx context.Context, filter rbac.AssignmentFilter) ([]rbac.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []rbac.Assignment
	for _, a := range r.assignments {
		if filter.UserID != nil && a.UserID != *filter.UserID {
			continue
		}
		if filter.SchoolID != nil && a.SchoolID != *filter.SchoolID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *Repo) SchoolsWithRoles(ctx context.Context, userID uuid.UUID, roles []rbac.Role) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, a := range r.assignments {
		if a.UserID != userID {
			continue
		}
		for _, role := range roles {
			if a.Role != role {
				continue
			}
			if _, ok := seen[a.SchoolID]; ok {
				continue
			}
			seen[a.SchoolID] = struct{}{}
			out = append(out, a.SchoolID)
		}
	}
	return out, nil
}

func (r *Repo) AssignedSchools(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return r.SchoolsWithRoles(ctx, userID, rbac.AllRoles())
}

var _ rbac.RepositoryPort = (*Repo)(nil)
