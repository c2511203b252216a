// Package schedule manages courses, the weekly slot grid and lesson
// instances.
package schedule

import (
	"time"

	"github.com/google/uuid"
)

// Course binds a subject, a teacher and a class group for an academic year.
type Course struct {
	ID             uuid.UUID
	SchoolID       uuid.UUID
	Name           string
	SubjectID      uuid.UUID
	TeacherID      uuid.UUID
	ClassGroupID   uuid.UUID
	AcademicYearID uuid.UUID
	IsOptional     bool
	Rules          map[string]any
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Slot is one recurring weekly cell of a course's timetable. Times are
// zero-padded "15:04" strings so lexicographic comparison orders them.
type Slot struct {
	ID        uuid.UUID
	CourseID  uuid.UUID
	DayOfWeek int32
	StartTime string
	EndTime   string
	Classroom string
	CreatedAt time.Time
}

// Lesson is a concrete dated session of a course.
type Lesson struct {
	ID             uuid.UUID
	CourseID       uuid.UUID
	Date           time.Time
	StartTime      string
	EndTime        string
	Classroom      string
	TeacherID      uuid.UUID
	AttendanceOpen bool
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ConflictKind distinguishes why two slots collide.
type ConflictKind string

const (
	ConflictTeacher   ConflictKind = "teacher"
	ConflictClassroom ConflictKind = "classroom"
)

// SlotConflict pairs two overlapping slots.
type SlotConflict struct {
	A    Slot
	B    Slot
	Kind ConflictKind
}
