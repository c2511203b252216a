package rbac

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mektep/mektep/internal/platform/httpx"
	"github.com/mektep/mektep/internal/shared"
)

// StudentScope is the set of student IDs a query may touch. All=true means
// no narrowing. A scope that is neither All nor carries IDs denies everything.
type StudentScope struct {
	All bool
	IDs []uuid.UUID
}

// Empty reports whether the scope matches no rows at all.
func (s StudentScope) Empty() bool { return !s.All && len(s.IDs) == 0 }

// Covers reports whether the scope permits reading the given student.
func (s StudentScope) Covers(id uuid.UUID) bool {
	if s.All {
		return true
	}
	for _, candidate := range s.IDs {
		if candidate == id {
			return true
		}
	}
	return false
}

// SchoolScope is the set of school IDs a query may touch.
type SchoolScope struct {
	All bool
	IDs []uuid.UUID
}

// Empty reports whether the scope matches no rows at all.
func (s SchoolScope) Empty() bool { return !s.All && len(s.IDs) == 0 }

// RelationDirectory resolves identity relationships the scoper narrows by.
// Implemented by the students and users repositories; declared here so the
// scoper does not depend on those packages.
type RelationDirectory interface {
	// StudentIDByUser returns the student profile ID owned by the user, or
	// httpx.ErrNotFound when the user has no profile.
	StudentIDByUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	// ChildIDs returns the student IDs linked to the guardian user.
	ChildIDs(ctx context.Context, guardianUserID uuid.UUID) ([]uuid.UUID, error)
	// LinkedSchoolID returns the user's linked school, if set.
	LinkedSchoolID(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error)
}

// Scoper narrows queries to the rows an identity may see. Repositories apply
// the returned scope before any caller-supplied filters.
type Scoper struct {
	svc       *Service
	directory RelationDirectory
}

// NewScoper constructs a Scoper.
func NewScoper(svc *Service, directory RelationDirectory) *Scoper {
	return &Scoper{svc: svc, directory: directory}
}

// Students resolves which student records the identity may read. Students see
// their own profile, guardians their linked children, staff everything. A
// student without a profile or a guardian without links gets an empty scope:
// a broken relationship must fail closed, never widen.
func (s *Scoper) Students(ctx context.Context, ident shared.Identity) (StudentScope, error) {
	if ident.IsSuperuser {
		return StudentScope{All: true}, nil
	}
	roles, err := s.svc.Roles(ctx, ident.ID)
	if err != nil {
		return StudentScope{}, err
	}
	if len(roles) == 0 {
		return StudentScope{}, nil
	}

	var (
		ids        []uuid.UUID
		restricted bool
	)
	for _, role := range roles {
		switch role {
		case RoleStudent:
			restricted = true
			own, err := s.directory.StudentIDByUser(ctx, ident.ID)
			if errors.Is(err, httpx.ErrNotFound) {
				continue
			}
			if err != nil {
				return StudentScope{}, err
			}
			ids = append(ids, own)
		case RoleParent:
			restricted = true
			children, err := s.directory.ChildIDs(ctx, ident.ID)
			if err != nil {
				return StudentScope{}, err
			}
			ids = append(ids, children...)
		default:
			// Staff roles read unrestricted; resource-level filters still apply.
			return StudentScope{All: true}, nil
		}
	}
	if restricted {
		return StudentScope{IDs: dedupeIDs(ids)}, nil
	}
	return StudentScope{}, nil
}

// Schools resolves which schools the identity may see. Superusers and
// superadmins see all; everyone else the union of their linked school and the
// schools they hold roles in.
func (s *Scoper) Schools(ctx context.Context, ident shared.Identity) (SchoolScope, error) {
	if ident.IsSuperuser {
		return SchoolScope{All: true}, nil
	}
	isSuper, err := s.svc.HasRole(ctx, ident.ID, RoleSuperAdmin)
	if err != nil {
		return SchoolScope{}, err
	}
	if isSuper {
		return SchoolScope{All: true}, nil
	}

	var ids []uuid.UUID
	if linked, ok, err := s.directory.LinkedSchoolID(ctx, ident.ID); err != nil {
		return SchoolScope{}, err
	} else if ok {
		ids = append(ids, linked)
	}
	assigned, err := s.svc.AssignedSchools(ctx, ident.ID)
	if err != nil {
		return SchoolScope{}, err
	}
	ids = append(ids, assigned...)
	return SchoolScope{IDs: dedupeIDs(ids)}, nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
