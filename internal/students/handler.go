package students

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

// Handler manages roster endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers roster routes. Reads pass through the query scoper;
// mutation needs the roster management permission.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(rbac.PermStudentsCreateImportExport))
		r.Post("/", h.enroll)
		r.Post("/guardians", h.linkGuardian)
		r.Delete("/guardians/{id}", h.unlinkGuardian)
		r.Get("/{id}/guardians", h.guardians)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(rbac.PermAcademicYearsCRUD))
		r.Post("/class-groups", h.createClassGroup)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Get("/class-groups", h.listClassGroups)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ident, _ := shared.IdentityFromContext(r.Context())
	var filter ListFilter
	if raw := r.URL.Query().Get("school_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, httpx.FieldErrors{"school_id": "must be a UUID"})
			return
		}
		filter.SchoolID = &id
	}
	if raw := r.URL.Query().Get("class_group_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, httpx.FieldErrors{"class_group_id": "must be a UUID"})
			return
		}
		filter.ClassGroupID = &id
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.Limit = int32(n)
		}
	}

	list, err := h.service.List(r.Context(), ident, filter)
	if err != nil {
		h.logger.Error("list students", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]StudentResponse, len(list))
	for i := range list {
		out[i] = toStudentResponse(&list[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ident, _ := shared.IdentityFromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.FieldErrors{"id": "must be a UUID"})
		return
	}
	student, err := h.service.Get(r.Context(), ident, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toStudentResponse(student))
}

func (h *Handler) enroll(w http.ResponseWriter, r *http.Request) {
	var req EnrollRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	student, err := h.service.Enroll(r.Context(), Student{
		UserID:         req.UserID,
		SchoolID:       req.SchoolID,
		StudentNumber:  req.StudentNumber,
		ClassGroupID:   req.ClassGroupID,
		EnrollmentDate: parseDate(req.EnrollmentDate),
		Gender:         req.Gender,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toStudentResponse(student))
}

func (h *Handler) linkGuardian(w http.ResponseWriter, r *http.Request) {
	var req GuardianLinkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	link, err := h.service.LinkGuardian(r.Context(), req.StudentID, req.GuardianID, req.Relationship)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, GuardianLinkResponse{
		ID: link.ID, StudentID: link.StudentID, GuardianID: link.GuardianID, Relationship: link.Relationship,
	})
}

func (h *Handler) unlinkGuardian(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.FieldErrors{"id": "must be a UUID"})
		return
	}
	if err := h.service.UnlinkGuardian(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) guardians(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.FieldErrors{"id": "must be a UUID"})
		return
	}
	links, err := h.service.Guardians(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]GuardianLinkResponse, len(links))
	for i, l := range links {
		out[i] = GuardianLinkResponse{ID: l.ID, StudentID: l.StudentID, GuardianID: l.GuardianID, Relationship: l.Relationship}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createClassGroup(w http.ResponseWriter, r *http.Request) {
	var req ClassGroupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	group, err := h.service.CreateClassGroup(r.Context(), ClassGroup{
		SchoolID:       req.SchoolID,
		Name:           req.Name,
		GradeLevel:     req.GradeLevel,
		AcademicYearID: req.AcademicYearID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ClassGroupResponse{
		ID: group.ID, SchoolID: group.SchoolID, Name: group.Name,
		GradeLevel: group.GradeLevel, AcademicYearID: group.AcademicYearID,
	})
}

func (h *Handler) listClassGroups(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("school_id")
	id, err := uuid.Parse(raw)
	if err != nil {
		httpx.RespondError(w, httpx.FieldErrors{"school_id": "must be a UUID"})
		return
	}
	groups, err := h.service.ListClassGroups(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]ClassGroupResponse, len(groups))
	for i, g := range groups {
		out[i] = ClassGroupResponse{ID: g.ID, SchoolID: g.SchoolID, Name: g.Name, GradeLevel: g.GradeLevel, AcademicYearID: g.AcademicYearID}
	}
	httpx.JSON(w, http.StatusOK, out)
}
