package schools

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"

	"github.com/mektep/mektep/internal/platform/httpx"
	"github.com/mektep/mektep/internal/rbac"
	"github.com/mektep/mektep/internal/shared"
)

// Handler manages tenant endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers school routes. The by-code lookup is rate limited so
// connection codes cannot be enumerated.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(rbac.PermSchoolsViewList))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/cities", h.listCities)
	})
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(5, time.Minute))
		r.Use(h.mw.RequireAuth)
		r.Get("/by-code/{code}", h.getByCode)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(rbac.PermSchoolsCreateEditDelete))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(rbac.PermAcademicYearsCRUD))
		r.Get("/academic-years", h.listAcademicYears)
		r.Post("/academic-years", h.createAcademicYear)
		r.Put("/academic-years/{id}", h.updateAcademicYear)
		r.Delete("/academic-years/{id}", h.deleteAcademicYear)
	})
}

func (h *Handler) listCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.service.ListCities(r.Context())
	if err != nil {
		h.logger.Error("list cities", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]CityResponse, len(cities))
	for i, c := range cities {
		out[i] = CityResponse{ID: c.ID, Name: c.Name, NameRu: c.NameRu}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ident, _ := shared.IdentityFromContext(r.Context())
	list, err := h.service.List(r.Context(), ident)
	if err != nil {
		h.logger.Error("list schools", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]SchoolResponse, len(list))
	for i := range list {
		out[i] = toSchoolResponse(&list[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.FieldErrors{"id": "must be a UUID"})
		return
	}
	school, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSchoolResponse(school))
}

func (h *Handler) getByCode(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "code")))
	if len(code) != codeLength {
		httpx.RespondError(w, httpx.FieldErrors{"code": "must be 6 characters"})
		return
	}
	school, err := h.service.GetByCode(r.Context(), code)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, SchoolByCodeResponse{ID: school.ID, Name: school.Name, City: school.CityName})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ident, _ := shared.IdentityFromContext(r.Context())
	var req CreateSchoolRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	school, err := h.service.Create(r.Context(), ident, School{
		Name:          req.Name,
		CityID:        req.CityID,
		Address:       req.Address,
		GradingSystem: req.GradingSystem,
		Languages:     req.Languages,
	})
	if err != nil {
		h.logger.Error("create school", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toSchoolResponse(school))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.FieldErrors{"id": "must be a UUID"})
		return
	}
	var req CreateSchoolRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	school, err := h.service.Update(r.Context(), School{
		ID:            id,
		Name:          req.Name,
		CityID:        req.CityID,
		Address:       req.Address,
		GradingSystem: req.GradingSystem,
		Languages:     req.Languages,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSchoolResponse(school))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.FieldErrors{"id": "must be a UUID"})
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listAcademicYears(w http.ResponseWriter, r *http.Request) {
	ident, _ := shared.IdentityFromContext(r.Context())
	var schoolID *uuid.UUID
	if raw := r.URL.Query().Get("school_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, httpx.FieldErrors{"school_id": "must be a UUID"})
			return
		}
		schoolID = &id
	}
	years, err := h.service.ListAcademicYears(r.Context(), ident, schoolID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]AcademicYearResponse, len(years))
	for i := range years {
		out[i] = toAcademicYearResponse(&years[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) decodeAcademicYear(w http.ResponseWriter, r *http.Request) (*AcademicYear, bool) {
	var req AcademicYearRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return nil, false
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return nil, false
	}
	start, _ := time.Parse(dateLayout, req.StartDate)
	end, _ := time.Parse(dateLayout, req.EndDate)
	if !end.After(start) {
		httpx.RespondError(w, httpx.FieldErrors{"end_date": "must be after start_date"})
		return nil, false
	}
	return &AcademicYear{
		SchoolID:  req.SchoolID,
		Name:      req.Name,
		StartDate: start,
		EndDate:   end,
		IsCurrent: req.IsCurrent,
	}, true
}

func (h *Handler) createAcademicYear(w http.ResponseWriter, r *http.Request) {
	year, ok := h.decodeAcademicYear(w, r)
	if !ok {
		return
	}
	created, err := h.service.CreateAcademicYear(r.Context(), *year)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toAcademicYearResponse(created))
}

func (h *Handler) updateAcademicYear(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.FieldErrors{"id": "must be a UUID"})
		return
	}
	year, ok := h.decodeAcademicYear(w, r)
	if !ok {
		return
	}
	year.ID = id
	updated, err := h.service.UpdateAcademicYear(r.Context(), *year)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAcademicYearResponse(updated))
}

func (h *Handler) deleteAcademicYear(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.FieldErrors{"id": "must be a UUID"})
		return
	}
	if err := h.service.DeleteAcademicYear(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
