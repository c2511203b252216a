package users

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows the user directory listing.
type ListFilter struct {
	LinkedSchoolID *uuid.UUID
	Role           string
	Limit          int32
	Offset         int32
}

// RepositoryPort defines data access methods for user records.
type RepositoryPort interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) error
	LinkedSchoolID(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error)
	BackfillLinkedSchool(ctx context.Context, userID, schoolID uuid.UUID) (bool, error)
	SchoolMemberships(ctx context.Context, userID uuid.UUID) ([]SchoolMembership, error)
}
