package schedule

import (
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// CourseResponse is the course wire form.
type CourseResponse struct {
	ID             uuid.UUID      `json:"id"`
	SchoolID       uuid.UUID      `json:"school_id"`
	Name           string         `json:"name"`
	SubjectID      uuid.UUID      `json:"subject_id"`
	TeacherID      uuid.UUID      `json:"teacher_id"`
	ClassGroupID   uuid.UUID      `json:"class_group_id"`
	AcademicYearID uuid.UUID      `json:"academic_year_id"`
	IsOptional     bool           `json:"is_optional"`
	Rules          map[string]any `json:"rules"`
	CreatedAt      time.Time      `json:"created_at"`
}

// CreateCourseRequest registers a course.
type CreateCourseRequest struct {
	SchoolID       uuid.UUID      `json:"school_id" validate:"required"`
	Name           string         `json:"name" validate:"required,max=255"`
	SubjectID      uuid.UUID      `json:"subject_id" validate:"required"`
	TeacherID      uuid.UUID      `json:"teacher_id" validate:"required"`
	ClassGroupID   uuid.UUID      `json:"class_group_id" validate:"required"`
	AcademicYearID uuid.UUID      `json:"academic_year_id" validate:"required"`
	IsOptional     bool           `json:"is_optional"`
	Rules          map[string]any `json:"rules"`
}

// SlotResponse is the weekly-cell wire form.
type SlotResponse struct {
	ID        uuid.UUID `json:"id"`
	CourseID  uuid.UUID `json:"course_id"`
	DayOfWeek int32     `json:"day_of_week"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Classroom string    `json:"classroom,omitempty"`
}

// CreateSlotRequest places a weekly cell.
type CreateSlotRequest struct {
	CourseID  uuid.UUID `json:"course_id" validate:"required"`
	DayOfWeek int32     `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string    `json:"start_time" validate:"required"`
	EndTime   string    `json:"end_time" validate:"required"`
	Classroom string    `json:"classroom" validate:"omitempty,max=100"`
}

// ConflictResponse reports one timetable collision.
type ConflictResponse struct {
	Kind ConflictKind `json:"kind"`
	A    SlotResponse `json:"a"`
	B    SlotResponse `json:"b"`
}

// LessonResponse is the lesson wire form.
type LessonResponse struct {
	ID             uuid.UUID `json:"id"`
	CourseID       uuid.UUID `json:"course_id"`
	Date           string    `json:"date"`
	StartTime      string    `json:"start_time"`
	EndTime        string    `json:"end_time"`
	Classroom      string    `json:"classroom,omitempty"`
	TeacherID      uuid.UUID `json:"teacher_id"`
	AttendanceOpen bool      `json:"attendance_open"`
	Notes          string    `json:"notes,omitempty"`
}

// CreateLessonRequest registers a dated session.
type CreateLessonRequest struct {
	CourseID  uuid.UUID `json:"course_id" validate:"required"`
	Date      string    `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string    `json:"start_time" validate:"required"`
	EndTime   string    `json:"end_time" validate:"required"`
	Classroom string    `json:"classroom" validate:"omitempty,max=100"`
	TeacherID uuid.UUID `json:"teacher_id"`
	Notes     string    `json:"notes" validate:"omitempty,max=2000"`
}

func toCourseResponse(c *Course) CourseResponse {
	return CourseResponse{
		ID:             c.ID,
		SchoolID:       c.SchoolID,
		Name:           c.Name,
		SubjectID:      c.SubjectID,
		TeacherID:      c.TeacherID,
		ClassGroupID:   c.ClassGroupID,
		AcademicYearID: c.AcademicYearID,
		IsOptional:     c.IsOptional,
		Rules:          c.Rules,
		CreatedAt:      c.CreatedAt,
	}
}

func toSlotResponse(s *Slot) SlotResponse {
	return SlotResponse{
		ID:        s.ID,
		CourseID:  s.CourseID,
		DayOfWeek: s.DayOfWeek,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Classroom: s.Classroom,
	}
}

func toLessonResponse(l *Lesson) LessonResponse {
	return LessonResponse{
		ID:             l.ID,
		CourseID:       l.CourseID,
		Date:           l.Date.Format(dateLayout),
		StartTime:      l.StartTime,
		EndTime:        l.EndTime,
		Classroom:      l.Classroom,
		TeacherID:      l.TeacherID,
		AttendanceOpen: l.AttendanceOpen,
		Notes:          l.Notes,
	}
}
