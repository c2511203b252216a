package rbac

import "errors"

var (
	// ErrUnknownRole is returned when a role identifier is outside the registry.
	ErrUnknownRole = errors.New("rbac: unknown role")
	// ErrUnknownPermission is returned when a permission code is not in the catalog.
	ErrUnknownPermission = errors.New("rbac: unknown permission code")
)
