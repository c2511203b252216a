package students

import (
	"time"

	"github.com/google/uuid"
)

// Student is a student profile tied to a user account and a school. It is the
// record the query scoper narrows journal and attendance reads to.
type Student struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	SchoolID       uuid.UUID
	StudentNumber  string
	ClassGroupID   *uuid.UUID
	EnrollmentDate time.Time
	GraduationDate *time.Time
	BirthDate      *time.Time
	Gender         string
	FullName       string
	CreatedAt      time.Time
}

// ClassGroup is a named class within a school and academic year, e.g. 10A.
// (school, name, academic year) is unique.
type ClassGroup struct {
	ID             uuid.UUID
	SchoolID       uuid.UUID
	Name           string
	GradeLevel     int
	AcademicYearID uuid.UUID
	CreatedAt      time.Time
}

// GuardianLink ties a guardian user to a student. (student, guardian) is
// unique; Relationship is free text like "mother" or "guardian".
type GuardianLink struct {
	ID           uuid.UUID
	StudentID    uuid.UUID
	GuardianID   uuid.UUID
	Relationship string
	CreatedAt    time.Time
}
