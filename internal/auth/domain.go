package auth

import (
	"time"

	"github.com/google/uuid"
)

// Account is the credential-bearing slice of a user record. Profile fields
// live in the users package; this view is what login and registration touch.
type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	MiddleName   string
	Phone        string
	Language     string
	IsActive     bool
	IsSuperuser  bool
	CreatedAt    time.Time
}
