package staff

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mektep/mektep/internal/platform/httpx"
	"github.com/mektep/mektep/internal/rbac"
)

// Handler manages staff endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers staff routes. The whole surface is administrative.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(rbac.PermStaffViewCreateEdit))
		r.Get("/", h.list)
		r.Post("/", h.hire)
		r.Get("/subjects", h.listSubjects)
		r.Post("/subjects", h.createSubject)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Get("/{id}/subjects", h.memberSubjects)
		r.Post("/{id}/subjects", h.assignSubject)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var filter MemberFilter
	query := r.URL.Query()
	if raw := query.Get("school_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, httpx.FieldErrors{"school_id": "must be a UUID"})
			return
		}
		filter.SchoolID = &id
	}
	if raw := query.Get("position"); raw != "" {
		if !Position(raw).Valid() {
			httpx.RespondError(w, httpx.FieldErrors{"position": "unknown position"})
			return
		}
		filter.Position = &raw
	}

	members, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list staff", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]MemberResponse, len(members))
	for i := range members {
		out[i] = toMemberResponse(&members[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	member, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toMemberResponse(member))
}

func (h *Handler) hire(w http.ResponseWriter, r *http.Request) {
	var req HireRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	member := Member{
		UserID:         req.UserID,
		SchoolID:       req.SchoolID,
		Position:       Position(req.Position),
		LoadLimitHours: req.LoadLimitHours,
	}
	if req.EmploymentDate != "" {
		member.EmploymentDate, _ = time.Parse(dateLayout, req.EmploymentDate)
	}
	created, err := h.service.Hire(r.Context(), member)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toMemberResponse(created))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req UpdateMemberRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var employmentDate time.Time
	if req.EmploymentDate != "" {
		employmentDate, _ = time.Parse(dateLayout, req.EmploymentDate)
	}
	member, err := h.service.Update(r.Context(), id, Position(req.Position), employmentDate, req.LoadLimitHours)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toMemberResponse(member))
}

func (h *Handler) listSubjects(w http.ResponseWriter, r *http.Request) {
	schoolID, err := uuid.Parse(r.URL.Query().Get("school_id"))
	if err != nil {
		httpx.RespondError(w, httpx.FieldErrors{"school_id": "must be a UUID"})
		return
	}
	subjects, err := h.service.Subjects(r.Context(), schoolID)
	if err != nil {
		h.logger.Error("list subjects", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]SubjectResponse, len(subjects))
	for i := range subjects {
		out[i] = toSubjectResponse(&subjects[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createSubject(w http.ResponseWriter, r *http.Request) {
	var req CreateSubjectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	subject, err := h.service.AddSubject(r.Context(), Subject{
		SchoolID:       req.SchoolID,
		Name:           req.Name,
		Code:           req.Code,
		Description:    req.Description,
		DefaultCredits: req.DefaultCredits,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toSubjectResponse(subject))
}

func (h *Handler) memberSubjects(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	subjects, err := h.service.SubjectsForMember(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]SubjectResponse, len(subjects))
	for i := range subjects {
		out[i] = toSubjectResponse(&subjects[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) assignSubject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req AssignSubjectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.AssignSubject(r.Context(), id, req.SubjectID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
