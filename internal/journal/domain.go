// Package journal records grades and teacher feedback for students.
package journal

import (
	"time"

	"github.com/google/uuid"
)

// Grade is a single journal mark for a lesson.
type Grade struct {
	ID         uuid.UUID
	StudentID  uuid.UUID
	TeacherID  uuid.UUID
	SchoolID   uuid.UUID
	Subject    string
	LessonDate time.Time
	Value      int
	Comment    string
	CreatedAt  time.Time
}

// Feedback is a free-form teacher note on a student.
type Feedback struct {
	ID        uuid.UUID
	StudentID uuid.UUID
	TeacherID uuid.UUID
	Text      string
	CreatedAt time.Time
}
