// Package attendance tracks lesson attendance marks.
package attendance

import (
	"time"

	"github.com/google/uuid"
)

// Status is an attendance outcome for a single lesson.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
)

// Valid reports whether the status is one of the known outcomes.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

// Mark is one student's attendance record for a lesson.
type Mark struct {
	ID         uuid.UUID
	StudentID  uuid.UUID
	SchoolID   uuid.UUID
	LessonDate time.Time
	Subject    string
	Status     Status
	MarkedBy   uuid.UUID
	Comment    string
	CreatedAt  time.Time
}
