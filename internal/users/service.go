package users

import (
	"context"

	"github.com/google/uuid"

	"github.com/mektep/mektep/internal/platform/httpx"
	"github.com/mektep/mektep/internal/rbac"
	"github.com/mektep/mektep/internal/shared"
)

// Profile is a user together with their role assignments, effective
// permissions and school memberships.
type Profile struct {
	User        User
	Roles       []string
	Permissions []string
	Schools     []SchoolMembership
}

// Service handles user directory business logic.
type Service struct {
	repo RepositoryPort
	rbac *rbac.Service
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, rbacSvc *rbac.Service) *Service {
	return &Service{repo: repo, rbac: rbacSvc}
}

// Me assembles the current user's profile view.
func (s *Service) Me(ctx context.Context, ident shared.Identity) (*Profile, error) {
	return s.profileFor(ctx, ident)
}

// Get returns the profile view of any user, for administrators.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Profile, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.profileFor(ctx, shared.Identity{ID: user.ID, Email: user.Email, IsSuperuser: user.IsSuperuser})
}

// List returns users matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]User, error) {
	if filter.Role != "" {
		if _, err := rbac.ParseRole(filter.Role); err != nil {
			return nil, httpx.FieldErrors{"role": "unknown role"}
		}
	}
	return s.repo.List(ctx, filter)
}

// UpdateMe applies a self-service profile change. The linked school may only
// be switched to a school where the user holds a role.
func (s *Service) UpdateMe(ctx context.Context, ident shared.Identity, update ProfileUpdate) (*Profile, error) {
	if update.Language != nil {
		lang, ok := shared.NormalizeLanguage(*update.Language)
		if !ok {
			return nil, httpx.FieldErrors{"language_pref": "unsupported language"}
		}
		update.Language = &lang
	}
	if update.LinkedSchoolID != nil {
		member, err := s.holdsRoleInSchool(ctx, ident.ID, *update.LinkedSchoolID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, httpx.FieldErrors{"linked_school_id": "you do not have a role in this school"}
		}
	}
	if err := s.repo.UpdateProfile(ctx, ident.ID, update); err != nil {
		return nil, err
	}
	return s.profileFor(ctx, ident)
}

// LinkSchool sets the linked school unconditionally. Used by school creation
// to point the creator at the new tenant.
func (s *Service) LinkSchool(ctx context.Context, userID, schoolID uuid.UUID) error {
	return s.repo.UpdateProfile(ctx, userID, ProfileUpdate{LinkedSchoolID: &schoolID})
}

// BackfillLinkedSchool sets the linked school when unset. Used by the join
// request approval flow.
func (s *Service) BackfillLinkedSchool(ctx context.Context, userID, schoolID uuid.UUID) (bool, error) {
	return s.repo.BackfillLinkedSchool(ctx, userID, schoolID)
}

func (s *Service) holdsRoleInSchool(ctx context.Context, userID, schoolID uuid.UUID) (bool, error) {
	memberships, err := s.repo.SchoolMemberships(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, m := range memberships {
		if m.ID == schoolID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) profileFor(ctx context.Context, ident shared.Identity) (*Profile, error) {
	user, err := s.repo.GetByID(ctx, ident.ID)
	if err != nil {
		return nil, err
	}
	roles, err := s.rbac.Roles(ctx, ident.ID)
	if err != nil {
		return nil, err
	}
	perms, err := s.rbac.EffectivePermissions(ctx, shared.Identity{ID: user.ID, Email: user.Email, IsSuperuser: user.IsSuperuser})
	if err != nil {
		return nil, err
	}
	schools, err := s.repo.SchoolMemberships(ctx, ident.ID)
	if err != nil {
		return nil, err
	}
	roleNames := make([]string, len(roles))
	for i, role := range roles {
		roleNames[i] = string(role)
	}
	return &Profile{User: *user, Roles: roleNames, Permissions: perms, Schools: schools}, nil
}
