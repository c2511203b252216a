package shared

import "github.com/google/uuid"

// Identity is the authenticated principal attached to a request. Role
// assignments are deliberately not part of it: they are looked up on demand
// by the rbac package so a stale snapshot can never grant elevated access.
type Identity struct {
	ID          uuid.UUID
	Email       string
	IsSuperuser bool
}
