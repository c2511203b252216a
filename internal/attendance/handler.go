package attendance

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

// Handler manages attendance endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers attendance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(rbac.PermAttendanceOpenCloseMark))
		r.Post("/marks", h.record)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ident, _ := shared.IdentityFromContext(r.Context())
	var filter MarkFilter
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
	if raw := query.Get("from"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			httpx.RespondError(w, httpx.FieldErrors{"from": "must be YYYY-MM-DD"})
			return
		}
		filter.From = &t
	}
	if raw := query.Get("to"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			httpx.RespondError(w, httpx.FieldErrors{"to": "must be YYYY-MM-DD"})
			return
		}
		filter.To = &t
	}

	marks, err := h.service.List(r.Context(), ident, filter)
	if err != nil {
		h.logger.Error("list attendance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]MarkResponse, len(marks))
	for i := range marks {
		out[i] = toMarkResponse(&marks[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	ident, _ := shared.IdentityFromContext(r.Context())
	var req RecordMarkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	mark := Mark{
		StudentID: req.StudentID,
		SchoolID:  req.SchoolID,
		Subject:   req.Subject,
		Status:    Status(req.Status),
		Comment:   req.Comment,
	}
	if req.LessonDate != "" {
		mark.LessonDate, _ = time.Parse(dateLayout, req.LessonDate)
	}
	created, err := h.service.Record(r.Context(), ident, mark)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toMarkResponse(created))
}
