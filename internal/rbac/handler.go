package rbac

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mektep/mektep/internal/platform/httpx"
)

// Handler exposes permission and role-assignment management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers management routes. Grant mutation sits behind
// permissions.manage, assignment administration behind users.list_edit_roles.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(PermPermissionsManage))
		r.Get("/permissions", h.listPermissions)
		r.Get("/roles/{role}/permissions", h.roleGrants)
		r.Put("/roles/{role}/permissions", h.replaceRoleGrants)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(PermUsersListEditRoles))
		r.Get("/user-roles", h.listAssignments)
		r.Post("/user-roles", h.assignRole)
		r.Delete("/user-roles/{id}", h.removeAssignment)
	})
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListCatalog(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPermissionResponses(perms))
}

func (h *Handler) roleGrants(w http.ResponseWriter, r *http.Request) {
	role, err := ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		httpx.RespondError(w, httpx.FieldErrors{"role": "unknown role"})
		return
	}
	codes, err := h.service.RoleGrants(r.Context(), role)
	if err != nil {
		h.logger.Error("role grants", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if codes == nil {
		codes = []string{}
	}
	httpx.JSON(w, http.StatusOK, RoleGrantsResponse{Role: string(role), PermissionCodes: codes})
}

func (h *Handler) replaceRoleGrants(w http.ResponseWriter, r *http.Request) {
	role, err := ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		httpx.RespondError(w, httpx.FieldErrors{"role": "unknown role"})
		return
	}
	var req ReplaceGrantsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.service.ReplaceRoleGrants(r.Context(), role, req.PermissionCodes); err != nil {
		switch {
		case errors.Is(err, ErrUnknownPermission):
			detail := strings.TrimPrefix(err.Error(), ErrUnknownPermission.Error()+": ")
			httpx.RespondError(w, httpx.FieldErrors{"permission_codes": "unknown codes: " + detail})
		default:
			h.logger.Error("replace role grants", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	codes, err := h.service.RoleGrants(r.Context(), role)
	if err != nil {
		h.logger.Error("role grants after replace", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if codes == nil {
		codes = []string{}
	}
	httpx.JSON(w, http.StatusOK, RoleGrantsResponse{Role: string(role), PermissionCodes: codes})
}

func (h *Handler) listAssignments(w http.ResponseWriter, r *http.Request) {
	var filter AssignmentFilter
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, httpx.FieldErrors{"user_id": "must be a UUID"})
			return
		}
		filter.UserID = &id
	}
	if raw := r.URL.Query().Get("school_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, httpx.FieldErrors{"school_id": "must be a UUID"})
			return
		}
		filter.SchoolID = &id
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.Limit = int32(n)
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.Offset = int32(n)
		}
	}
	items, err := h.service.ListAssignments(r.Context(), filter)
	if err != nil {
		h.logger.Error("list assignments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAssignmentResponses(items))
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	var req AssignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	role, err := ParseRole(req.Role)
	if err != nil {
		httpx.RespondError(w, httpx.FieldErrors{"role": "unknown role"})
		return
	}
	created, err := h.service.AssignRole(r.Context(), req.UserID, req.SchoolID, role)
	if err != nil {
		h.logger.Error("assign role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, map[string]any{"created": created})
}

func (h *Handler) removeAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.FieldErrors{"id": "must be a UUID"})
		return
	}
	if err := h.service.RemoveAssignment(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("remove assignment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
