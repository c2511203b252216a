package rbac

import (
	"time"

	"github.com/google/uuid"
)

// PermissionResponse is the catalog wire representation.
type PermissionResponse struct {
	ID       uuid.UUID `json:"id"`
	Code     string    `json:"code"`
	Name     string    `json:"name"`
	Resource string    `json:"resource"`
	Action   string    `json:"action"`
}

// RoleGrantsResponse lists the codes granted to a role.
type RoleGrantsResponse struct {
	Role            string   `json:"role"`
	PermissionCodes []string `json:"permission_codes"`
}

// ReplaceGrantsRequest carries the full replacement grant set for a role.
type ReplaceGrantsRequest struct {
	PermissionCodes []string `json:"permission_codes" validate:"required,dive,min=1"`
}

// AssignmentResponse is the wire representation of a role assignment.
type AssignmentResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	SchoolID  uuid.UUID `json:"school_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// AssignRoleRequest creates a role assignment.
type AssignRoleRequest struct {
	UserID   uuid.UUID `json:"user_id" validate:"required"`
	SchoolID uuid.UUID `json:"school_id" validate:"required"`
	Role     string    `json:"role" validate:"required"`
}

func toPermissionResponses(perms []Permission) []PermissionResponse {
	out := make([]PermissionResponse, len(perms))
	for i, p := range perms {
		out[i] = PermissionResponse{ID: p.ID, Code: p.Code, Name: p.Name, Resource: p.Resource, Action: p.Action}
	}
	return out
}

func toAssignmentResponses(items []Assignment) []AssignmentResponse {
	out := make([]AssignmentResponse, len(items))
	for i, a := range items {
		out[i] = AssignmentResponse{ID: a.ID, UserID: a.UserID, SchoolID: a.SchoolID, Role: string(a.Role), CreatedAt: a.CreatedAt}
	}
	return out
}
