package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mektep/mektep/internal/platform/httpx"
	"github.com/mektep/mektep/internal/shared"
)

// Middleware wires access-guard checks into HTTP routing.
type Middleware struct {
	Guard  *Guard
	Logger *slog.Logger
}

// RequireAuth rejects requests that carry no authenticated identity.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := shared.IdentityFromContext(r.Context()); !ok {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Require gates the wrapped handlers behind a predicate. Requests without an
// identity are rejected before the predicate runs.
func (m Middleware) Require(pred Predicate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if err := m.Guard.Require(r.Context(), ident, pred); err != nil {
				if !errors.Is(err, httpx.ErrForbidden) && m.Logger != nil {
					m.Logger.Error("access check failed", slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole gates handlers behind role membership in any school.
func (m Middleware) RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return m.Require(RoleAny(roles...))
}

// RequirePermission gates handlers behind a permission code.
func (m Middleware) RequirePermission(code string) func(http.Handler) http.Handler {
	return m.Require(PermissionCode(code))
}
