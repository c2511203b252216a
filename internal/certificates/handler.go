package certificates

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mektep/mektep/internal/platform/httpx"
	"github.com/mektep/mektep/internal/rbac"
	"github.com/mektep/mektep/internal/shared"
)

// Handler manages certificate endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers certificate routes. Listing is open to any
// authenticated user and narrowed by the query scoper; issuing and template
// management sit behind their permissions.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Get("/", h.list)
		r.Get("/templates", h.listTemplates)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(rbac.PermCertificatesIssue))
		r.Post("/", h.issue)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(rbac.PermCertificatesTemplatesCRUD))
		r.Post("/templates", h.createTemplate)
		r.Put("/templates/{id}", h.updateTemplate)
		r.Delete("/templates/{id}", h.deleteTemplate)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ident, _ := shared.IdentityFromContext(r.Context())
	var filter Filter
	query := r.URL.Query()
	if raw := query.Get("student_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, httpx.FieldErrors{"student_id": "must be a UUID"})
			return
		}
		filter.StudentID = &id
	}
	if raw := query.Get("school_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, httpx.FieldErrors{"school_id": "must be a UUID"})
			return
		}
		filter.SchoolID = &id
	}
	certs, err := h.service.List(r.Context(), ident, filter)
	if err != nil {
		h.logger.Error("list certificates", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]CertificateResponse, len(certs))
	for i := range certs {
		out[i] = toCertificateResponse(&certs[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) {
	ident, _ := shared.IdentityFromContext(r.Context())
	var req IssueRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	cert := Certificate{
		StudentID:  req.StudentID,
		SchoolID:   req.SchoolID,
		Title:      req.Title,
		TemplateID: req.TemplateID,
		Language:   req.Language,
		Meta:       req.Meta,
	}
	if req.IssueDate != "" {
		cert.IssueDate, _ = time.Parse(dateLayout, req.IssueDate)
	}
	if req.Expires != "" {
		expires, _ := time.Parse(dateLayout, req.Expires)
		cert.Expires = &expires
	}
	created, err := h.service.Issue(r.Context(), ident, cert)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toCertificateResponse(created))
}

func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	var schoolID *uuid.UUID
	if raw := r.URL.Query().Get("school_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, httpx.FieldErrors{"school_id": "must be a UUID"})
			return
		}
		schoolID = &id
	}
	templates, err := h.service.ListTemplates(r.Context(), schoolID)
	if err != nil {
		h.logger.Error("list templates", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]TemplateResponse, len(templates))
	for i := range templates {
		out[i] = toTemplateResponse(&templates[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createTemplate(w http.ResponseWriter, r *http.Request) {
	var req CreateTemplateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	tpl, err := h.service.CreateTemplate(r.Context(), Template{
		SchoolID: req.SchoolID,
		Name:     req.Name,
		Body:     req.Body,
	}, req.IsActive)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toTemplateResponse(tpl))
}

func (h *Handler) updateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req UpdateTemplateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	tpl, err := h.service.UpdateTemplate(r.Context(), id, req.Name, req.Body, req.IsActive)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTemplateResponse(tpl))
}

func (h *Handler) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	if err := h.service.DeleteTemplate(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
