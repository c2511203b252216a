package joinreq

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mektep/mektep/internal/platform/httpx"
	"github.com/mektep/mektep/internal/rbac"
	"github.com/mektep/mektep/internal/shared"
)

// Handler manages join-request endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers join-request routes. Any authenticated user may file
// and list; review authorization is per-school inside the service.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Patch("/{id}", h.review)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ident, _ := shared.IdentityFromContext(r.Context())
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.Create(r.Context(), ident, req.SchoolID, req.Role, req.Message)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ident, _ := shared.IdentityFromContext(r.Context())
	query := r.URL.Query()
	var status *string
	if raw := query.Get("status"); raw != "" {
		switch Status(raw) {
		case StatusPending, StatusApproved, StatusRejected:
			status = &raw
		default:
			httpx.RespondError(w, httpx.FieldErrors{"status": "must be one of pending, approved, rejected"})
			return
		}
	}
	var limit, offset int32
	if raw := query.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = int32(n)
		}
	}
	if raw := query.Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			offset = int32(n)
		}
	}

	list, err := h.service.List(r.Context(), ident, status, limit, offset)
	if err != nil {
		h.logger.Error("list join requests", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]JoinRequestResponse, len(list))
	for i := range list {
		out[i] = toResponse(&list[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	ident, _ := shared.IdentityFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.FieldErrors{"id": "must be a UUID"})
		return
	}
	var req ReviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	var decided *JoinRequest
	if req.Decision == "approve" {
		decided, err = h.service.Approve(r.Context(), ident, id)
	} else {
		decided, err = h.service.Reject(r.Context(), ident, id, req.Reason)
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(decided))
}
