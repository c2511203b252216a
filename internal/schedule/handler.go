package schedule

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

// Handler manages schedule endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers schedule routes. Timetable building sits behind the
// admin permission; lesson creation is a teacher-or-admin affair; reading is
// open to any authenticated user.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Get("/courses", h.listCourses)
		r.Get("/courses/{id}/slots", h.listSlots)
		r.Get("/lessons", h.listLessons)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(rbac.PermScheduleTeacherView))
		r.Get("/my-lessons", h.myLessons)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(rbac.PermScheduleAdminManage))
		r.Post("/courses", h.createCourse)
		r.Delete("/courses/{id}", h.deleteCourse)
		r.Post("/slots", h.createSlot)
		r.Delete("/slots/{id}", h.deleteSlot)
		r.Get("/conflicts", h.conflicts)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireRole(rbac.RoleTeacher, rbac.RoleSchoolAdmin, rbac.RoleSuperAdmin))
		r.Post("/lessons", h.createLesson)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(rbac.PermAttendanceOpenCloseMark))
		r.Post("/lessons/{id}/open-attendance", h.openAttendance)
		r.Post("/lessons/{id}/close-attendance", h.closeAttendance)
	})
}

func (h *Handler) listCourses(w http.ResponseWriter, r *http.Request) {
	var filter CourseFilter
	query := r.URL.Query()
	if raw := query.Get("school_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, httpx.FieldErrors{"school_id": "must be a UUID"})
			return
		}
		filter.SchoolID = &id
	}
	if raw := query.Get("teacher_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, httpx.FieldErrors{"teacher_id": "must be a UUID"})
			return
		}
		filter.TeacherID = &id
	}
	if raw := query.Get("class_group_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, httpx.FieldErrors{"class_group_id": "must be a UUID"})
			return
		}
		filter.ClassGroupID = &id
	}
	courses, err := h.service.ListCourses(r.Context(), filter)
	if err != nil {
		h.logger.Error("list courses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]CourseResponse, len(courses))
	for i := range courses {
		out[i] = toCourseResponse(&courses[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createCourse(w http.ResponseWriter, r *http.Request) {
	var req CreateCourseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	course, err := h.service.CreateCourse(r.Context(), Course{
		SchoolID:       req.SchoolID,
		Name:           req.Name,
		SubjectID:      req.SubjectID,
		TeacherID:      req.TeacherID,
		ClassGroupID:   req.ClassGroupID,
		AcademicYearID: req.AcademicYearID,
		IsOptional:     req.IsOptional,
		Rules:          req.Rules,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toCourseResponse(course))
}

func (h *Handler) deleteCourse(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	if err := h.service.DeleteCourse(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listSlots(w http.ResponseWriter, r *http.Request) {
	courseID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	slots, err := h.service.Slots(r.Context(), courseID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]SlotResponse, len(slots))
	for i := range slots {
		out[i] = toSlotResponse(&slots[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createSlot(w http.ResponseWriter, r *http.Request) {
	var req CreateSlotRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	slot, err := h.service.AddSlot(r.Context(), Slot{
		CourseID:  req.CourseID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Classroom: req.Classroom,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toSlotResponse(slot))
}

func (h *Handler) deleteSlot(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	if err := h.service.RemoveSlot(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) conflicts(w http.ResponseWriter, r *http.Request) {
	schoolID, err := uuid.Parse(r.URL.Query().Get("school_id"))
	if err != nil {
		httpx.RespondError(w, httpx.FieldErrors{"school_id": "must be a UUID"})
		return
	}
	conflicts, err := h.service.SlotConflicts(r.Context(), schoolID)
	if err != nil {
		h.logger.Error("scan conflicts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]ConflictResponse, len(conflicts))
	for i, c := range conflicts {
		out[i] = ConflictResponse{Kind: c.Kind, A: toSlotResponse(&c.A), B: toSlotResponse(&c.B)}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) listLessons(w http.ResponseWriter, r *http.Request) {
	filter, err := lessonFilterFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	lessons, err := h.service.ListLessons(r.Context(), filter)
	if err != nil {
		h.logger.Error("list lessons", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	respondLessons(w, lessons)
}

func (h *Handler) myLessons(w http.ResponseWriter, r *http.Request) {
	ident, _ := shared.IdentityFromContext(r.Context())
	filter, err := lessonFilterFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	lessons, err := h.service.MyLessons(r.Context(), ident, filter.From, filter.To)
	if err != nil {
		h.logger.Error("my lessons", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	respondLessons(w, lessons)
}

func (h *Handler) createLesson(w http.ResponseWriter, r *http.Request) {
	var req CreateLessonRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, _ := time.Parse(dateLayout, req.Date)
	lesson, err := h.service.CreateLesson(r.Context(), Lesson{
		CourseID:  req.CourseID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Classroom: req.Classroom,
		TeacherID: req.TeacherID,
		Notes:     req.Notes,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toLessonResponse(lesson))
}

func (h *Handler) openAttendance(w http.ResponseWriter, r *http.Request) {
	h.setAttendance(w, r, true)
}

func (h *Handler) closeAttendance(w http.ResponseWriter, r *http.Request) {
	h.setAttendance(w, r, false)
}

func (h *Handler) setAttendance(w http.ResponseWriter, r *http.Request, open bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	lesson, err := h.service.SetAttendanceOpen(r.Context(), id, open)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toLessonResponse(lesson))
}

func lessonFilterFromQuery(r *http.Request) (LessonFilter, error) {
	var filter LessonFilter
	query := r.URL.Query()
	if raw := query.Get("course_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, httpx.FieldErrors{"course_id": "must be a UUID"}
		}
		filter.CourseID = &id
	}
	if raw := query.Get("teacher_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, httpx.FieldErrors{"teacher_id": "must be a UUID"}
		}
		filter.TeacherID = &id
	}
	if raw := query.Get("date"); raw != "" {
		day, err := time.Parse(dateLayout, raw)
		if err != nil {
			return filter, httpx.FieldErrors{"date": "must be YYYY-MM-DD"}
		}
		filter.From, filter.To = &day, &day
	} else if raw := query.Get("week"); raw != "" {
		start, end, err := WeekRange(raw)
		if err != nil {
			return filter, err
		}
		filter.From, filter.To = &start, &end
	}
	return filter, nil
}

func respondLessons(w http.ResponseWriter, lessons []Lesson) {
	out := make([]LessonResponse, len(lessons))
	for i := range lessons {
		out[i] = toLessonResponse(&lessons[i])
	}
	httpx.JSON(w, http.StatusOK, out)
}
