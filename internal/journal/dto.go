package journal

import (
	"time"

	"github.com/google/uuid"
)

// GradeResponse is the grade wire form.
type GradeResponse struct {
	ID         uuid.UUID `json:"id"`
	StudentID  uuid.UUID `json:"student_id"`
	TeacherID  uuid.UUID `json:"teacher_id"`
	SchoolID   uuid.UUID `json:"school_id"`
	Subject    string    `json:"subject"`
	LessonDate string    `json:"lesson_date"`
	Value      int       `json:"value"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecordGradeRequest creates a journal mark.
type RecordGradeRequest struct {
	StudentID  uuid.UUID `json:"student_id" validate:"required"`
	SchoolID   uuid.UUID `json:"school_id" validate:"required"`
	Subject    string    `json:"subject" validate:"required,max=100"`
	LessonDate string    `json:"lesson_date" validate:"omitempty,datetime=2006-01-02"`
	Value      int       `json:"value" validate:"required"`
	Comment    string    `json:"comment" validate:"max=1000"`
}

// FeedbackResponse is the feedback wire form.
type FeedbackResponse struct {
	ID        uuid.UUID `json:"id"`
	StudentID uuid.UUID `json:"student_id"`
	TeacherID uuid.UUID `json:"teacher_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordFeedbackRequest creates a feedback note.
type RecordFeedbackRequest struct {
	StudentID uuid.UUID `json:"student_id" validate:"required"`
	Text      string    `json:"text" validate:"required,max=2000"`
}

const dateLayout = "2006-01-02"

func toGradeResponse(g *Grade) GradeResponse {
	return GradeResponse{
		ID:         g.ID,
		StudentID:  g.StudentID,
		TeacherID:  g.TeacherID,
		SchoolID:   g.SchoolID,
		Subject:    g.Subject,
		LessonDate: g.LessonDate.Format(dateLayout),
		Value:      g.Value,
		Comment:    g.Comment,
		CreatedAt:  g.CreatedAt,
	}
}

func toFeedbackResponse(f *Feedback) FeedbackResponse {
	return FeedbackResponse{ID: f.ID, StudentID: f.StudentID, TeacherID: f.TeacherID, Text: f.Text, CreatedAt: f.CreatedAt}
}
