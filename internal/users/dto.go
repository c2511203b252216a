package users

import (
	"time"

	"github.com/google/uuid"
)

// UserResponse is the wire representation of a user record.
type UserResponse struct {
	ID             uuid.UUID      `json:"id"`
	Email          string         `json:"email"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	MiddleName     string         `json:"middle_name"`
	Phone          string         `json:"phone"`
	Language       string         `json:"language_pref"`
	Profile        map[string]any `json:"profile,omitempty"`
	LinkedSchoolID *uuid.UUID     `json:"linked_school_id"`
	IsActive       bool           `json:"is_active"`
	IsSuperuser    bool           `json:"is_superuser"`
	DateJoined     time.Time      `json:"date_joined"`
}

// SchoolMembershipResponse is one entry of the school switcher list.
type SchoolMembershipResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ProfileResponse is the /users/me payload: the record plus derived role,
// permission and school views.
type ProfileResponse struct {
	UserResponse
	Roles       []string                   `json:"roles"`
	Permissions []string                   `json:"permissions"`
	Schools     []SchoolMembershipResponse `json:"schools"`
}

func toUserResponse(u User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		MiddleName:     u.MiddleName,
		Phone:          u.Phone,
		Language:       u.Language,
		Profile:        u.Profile,
		LinkedSchoolID: u.LinkedSchoolID,
		IsActive:       u.IsActive,
		IsSuperuser:    u.IsSuperuser,
		DateJoined:     u.DateJoined,
	}
}

func toProfileResponse(p *Profile) ProfileResponse {
	schools := make([]SchoolMembershipResponse, len(p.Schools))
	for i, m := range p.Schools {
		schools[i] = SchoolMembershipResponse{ID: m.ID, Name: m.Name}
	}
	roles := p.Roles
	if roles == nil {
		roles = []string{}
	}
	perms := p.Permissions
	if perms == nil {
		perms = []string{}
	}
	return ProfileResponse{
		UserResponse: toUserResponse(p.User),
		Roles:        roles,
		Permissions:  perms,
		Schools:      schools,
	}
}
