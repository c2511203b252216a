// Package rbac implements the role and permission engine: the role registry,
// the permission catalog, the role-permission matrix, per-school role
// assignments, the permission evaluator, the access guard and the query
// scoper. Every other module consults this package before touching data.
package rbac

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is a named capability bundle a user can hold in a school. The set of
// roles is closed: anything else is rejected on every input path.
type Role string

const (
	RoleSuperAdmin  Role = "superadmin"
	RoleSchoolAdmin Role = "schooladmin"
	RoleDirector    Role = "director"
	RoleTeacher     Role = "teacher"
	RoleStudent     Role = "student"
	RoleParent      Role = "parent"
	RoleRegistrar   Role = "registrar"
	RoleScheduler   Role = "scheduler"
)

// AllRoles lists every valid role identifier.
func AllRoles() []Role {
	return []Role{
		RoleSuperAdmin,
		RoleSchoolAdmin,
		RoleDirector,
		RoleTeacher,
		RoleStudent,
		RoleParent,
		RoleRegistrar,
		RoleScheduler,
	}
}

// ReviewerRoles are the roles that may approve or reject join requests for a
// school. Unlike the evaluator this set is checked against one school.
func ReviewerRoles() []Role {
	return []Role{RoleDirector, RoleSchoolAdmin, RoleSuperAdmin}
}

// ParseRole validates a raw role identifier.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	for _, known := range AllRoles() {
		if role == known {
			return role, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
}

// Valid reports whether the role is a member of the registry.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Permission represents an atomic capability identified by a stable code.
type Permission struct {
	ID          uuid.UUID
	Code        string
	Name        string
	Description string
	Resource    string
	Action      string
}

// RoleGrant ties a permission to a role. The pair is unique.
type RoleGrant struct {
	ID           uuid.UUID
	Role         Role
	PermissionID uuid.UUID
}

// Assignment states that a user holds a role in a school. The triple
// (user, school, role) is unique; a user may hold several roles in one school
// and the same role in several schools.
type Assignment struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	SchoolID  uuid.UUID
	Role      Role
	CreatedAt time.Time
}
