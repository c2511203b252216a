package users

import (
	"time"

	"github.com/google/uuid"
)

// User is a full user record including profile fields.
type User struct {
	ID             uuid.UUID
	Email          string
	FirstName      string
	LastName       string
	MiddleName     string
	Phone          string
	Language       string
	Profile        map[string]any
	LinkedSchoolID *uuid.UUID
	IsActive       bool
	IsSuperuser    bool
	DateJoined     time.Time
}

// SchoolMembership is a school the user holds at least one role in. Drives
// the school switcher in the client.
type SchoolMembership struct {
	ID   uuid.UUID
	Name string
}

// ProfileUpdate carries a partial self-service profile change. Nil fields are
// left untouched.
type ProfileUpdate struct {
	FirstName      *string
	LastName       *string
	MiddleName     *string
	Phone          *string
	Language       *string
	Profile        map[string]any
	LinkedSchoolID *uuid.UUID
	ClearLinked    bool
}
