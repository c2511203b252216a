package journal

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

// Handler manages journal endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers journal routes. Reads are scoped per identity;
// writes need the journal permission.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Get("/grades", h.listGrades)
		r.Get("/feedback/{studentID}", h.listFeedback)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(rbac.PermJournalGradesFeedback))
		r.Post("/grades", h.recordGrade)
		r.Post("/feedback", h.recordFeedback)
	})
}

func (h *Handler) listGrades(w http.ResponseWriter, r *http.Request) {
	ident, _ := shared.IdentityFromContext(r.Context())
	var filter GradeFilter
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

	grades, err := h.service.ListGrades(r.Context(), ident, filter)
	if err != nil {
		h.logger.Error("list grades", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]GradeResponse, len(grades))
	for i := range grades {
		out[i] = toGradeResponse(&grades[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) recordGrade(w http.ResponseWriter, r *http.Request) {
	ident, _ := shared.IdentityFromContext(r.Context())
	var req RecordGradeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	grade := Grade{
		StudentID: req.StudentID,
		SchoolID:  req.SchoolID,
		Subject:   req.Subject,
		Value:     req.Value,
		Comment:   req.Comment,
	}
	if req.LessonDate != "" {
		grade.LessonDate, _ = time.Parse(dateLayout, req.LessonDate)
	}
	created, err := h.service.RecordGrade(r.Context(), ident, grade)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toGradeResponse(created))
}

func (h *Handler) listFeedback(w http.ResponseWriter, r *http.Request) {
	ident, _ := shared.IdentityFromContext(r.Context())
	studentID, err := uuid.Parse(chi.URLParam(r, "studentID"))
	if err != nil {
		httpx.RespondError(w, httpx.FieldErrors{"student_id": "must be a UUID"})
		return
	}
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err = time.Parse(dateLayout, raw)
		if err != nil {
			httpx.RespondError(w, httpx.FieldErrors{"since": "must be YYYY-MM-DD"})
			return
		}
	}
	list, err := h.service.ListFeedback(r.Context(), ident, studentID, since)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]FeedbackResponse, len(list))
	for i := range list {
		out[i] = toFeedbackResponse(&list[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) recordFeedback(w http.ResponseWriter, r *http.Request) {
	ident, _ := shared.IdentityFromContext(r.Context())
	var req RecordFeedbackRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.RecordFeedback(r.Context(), ident, req.StudentID, req.Text)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toFeedbackResponse(created))
}
