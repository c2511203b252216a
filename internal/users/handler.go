package users

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mektep/mektep/internal/platform/httpx"
	"github.com/mektep/mektep/internal/rbac"
	"github.com/mektep/mektep/internal/shared"
)

// Handler manages user directory endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers user routes. Self-service endpoints need only a
// session; directory administration needs an admin role.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/me", h.me)
	r.Patch("/me", h.updateMe)
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireRole(rbac.RoleSuperAdmin, rbac.RoleSchoolAdmin))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
}

type updateMeRequest struct {
	FirstName      *string         `json:"first_name"`
	LastName       *string         `json:"last_name"`
	MiddleName     *string         `json:"middle_name"`
	Phone          *string         `json:"phone"`
	LanguagePref   *string         `json:"language_pref"`
	Profile        map[string]any  `json:"profile"`
	LinkedSchoolID json.RawMessage `json:"linked_school_id"`
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	ident, _ := shared.IdentityFromContext(r.Context())
	profile, err := h.service.Me(r.Context(), ident)
	if err != nil {
		h.logger.Error("me", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	ident, _ := shared.IdentityFromContext(r.Context())
	var req updateMeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	update := ProfileUpdate{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		MiddleName: req.MiddleName,
		Phone:      req.Phone,
		Language:   req.LanguagePref,
		Profile:    req.Profile,
	}
	if len(req.LinkedSchoolID) > 0 {
		if string(req.LinkedSchoolID) == "null" {
			update.ClearLinked = true
		} else {
			var id uuid.UUID
			if err := json.Unmarshal(req.LinkedSchoolID, &id); err != nil {
				httpx.RespondError(w, httpx.FieldErrors{"linked_school_id": "must be a UUID or null"})
				return
			}
			update.LinkedSchoolID = &id
		}
	}

	profile, err := h.service.UpdateMe(r.Context(), ident, update)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var filter ListFilter
	if raw := r.URL.Query().Get("school_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, httpx.FieldErrors{"school_id": "must be a UUID"})
			return
		}
		filter.LinkedSchoolID = &id
	}
	filter.Role = r.URL.Query().Get("role")
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

	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]UserResponse, len(list))
	for i, u := range list {
		out[i] = toUserResponse(u)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.FieldErrors{"id": "must be a UUID"})
		return
	}
	profile, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProfileResponse(profile))
}
