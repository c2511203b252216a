package attendance

import (
	"time"

	"github.com/google/uuid"
)

// MarkResponse is the attendance mark wire form.
type MarkResponse struct {
	ID         uuid.UUID `json:"id"`
	StudentID  uuid.UUID `json:"student_id"`
	SchoolID   uuid.UUID `json:"school_id"`
	LessonDate string    `json:"lesson_date"`
	Subject    string    `json:"subject"`
	Status     Status    `json:"status"`
	MarkedBy   uuid.UUID `json:"marked_by"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecordMarkRequest creates an attendance mark.
type RecordMarkRequest struct {
	StudentID  uuid.UUID `json:"student_id" validate:"required"`
	SchoolID   uuid.UUID `json:"school_id" validate:"required"`
	LessonDate string    `json:"lesson_date" validate:"omitempty,datetime=2006-01-02"`
	Subject    string    `json:"subject" validate:"required,max=100"`
	Status     string    `json:"status" validate:"required"`
	Comment    string    `json:"comment" validate:"max=500"`
}

const dateLayout = "2006-01-02"

func toMarkResponse(m *Mark) MarkResponse {
	return MarkResponse{
		ID:         m.ID,
		StudentID:  m.StudentID,
		SchoolID:   m.SchoolID,
		LessonDate: m.LessonDate.Format(dateLayout),
		Subject:    m.Subject,
		Status:     m.Status,
		MarkedBy:   m.MarkedBy,
		Comment:    m.Comment,
		CreatedAt:  m.CreatedAt,
	}
}
