package rbac

import (
	"context"
	"fmt"

	"github.com/mektep/mektep/internal/platform/httpx"
	"github.com/mektep/mektep/internal/shared"
)

// Predicate is a composable access rule evaluated against an identity.
type Predicate interface {
	kind() string
	allowed(ctx context.Context, svc *Service, ident shared.Identity) (bool, error)
}

type rolePredicate struct {
	roles []Role
}

func (p rolePredicate) kind() string { return "role" }

func (p rolePredicate) allowed(ctx context.Context, svc *Service, ident shared.Identity) (bool, error) {
	for _, role := range p.roles {
		ok, err := svc.HasRole(ctx, ident.ID, role)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

type permissionPredicate struct {
	code string
}

func (p permissionPredicate) kind() string { return "permission" }

func (p permissionPredicate) allowed(ctx context.Context, svc *Service, ident shared.Identity) (bool, error) {
	return svc.HasPermission(ctx, ident, p.code)
}

type anyOfPredicate struct {
	preds []Predicate
}

func (p anyOfPredicate) kind() string { return "any_of" }

func (p anyOfPredicate) allowed(ctx context.Context, svc *Service, ident shared.Identity) (bool, error) {
	for _, pred := range p.preds {
		ok, err := pred.allowed(ctx, svc, ident)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// RoleAny passes when the identity holds at least one of the roles in any
// school.
func RoleAny(roles ...Role) Predicate { return rolePredicate{roles: roles} }

// PermissionCode passes when the identity's effective permissions include the
// code.
func PermissionCode(code string) Predicate { return permissionPredicate{code: code} }

// AnyOf passes when any member predicate passes.
func AnyOf(preds ...Predicate) Predicate { return anyOfPredicate{preds: preds} }

// DenialObserver counts access denials, keyed by predicate kind.
type DenialObserver interface {
	CountDenial(kind string)
}

// Guard enforces predicates against identities. Superusers pass every
// predicate. Denials carry no hint of which role or permission was missing.
type Guard struct {
	svc     *Service
	denials DenialObserver
}

// NewGuard constructs a Guard. observer may be nil.
func NewGuard(svc *Service, observer DenialObserver) *Guard {
	return &Guard{svc: svc, denials: observer}
}

// Require returns nil when the identity satisfies the predicate, otherwise a
// forbidden error. Evaluation errors are surfaced as-is so infrastructure
// failures never silently deny or allow.
func (g *Guard) Require(ctx context.Context, ident shared.Identity, pred Predicate) error {
	if ident.IsSuperuser {
		return nil
	}
	ok, err := pred.allowed(ctx, g.svc, ident)
	if err != nil {
		return fmt.Errorf("rbac: evaluate %s predicate: %w", pred.kind(), err)
	}
	if !ok {
		if g.denials != nil {
			g.denials.CountDenial(pred.kind())
		}
		return httpx.ErrForbidden
	}
	return nil
}
