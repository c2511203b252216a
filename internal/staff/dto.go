package staff

import (
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// MemberResponse is the staff member wire form.
type MemberResponse struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	SchoolID       uuid.UUID `json:"school_id"`
	Position       Position  `json:"position"`
	EmploymentDate string    `json:"employment_date"`
	LoadLimitHours int32     `json:"load_limit_hours"`
	CreatedAt      time.Time `json:"created_at"`
}

// HireRequest creates an employment record.
type HireRequest struct {
	UserID         uuid.UUID `json:"user_id" validate:"required"`
	SchoolID       uuid.UUID `json:"school_id" validate:"required"`
	Position       string    `json:"position" validate:"omitempty,max=20"`
	EmploymentDate string    `json:"employment_date" validate:"omitempty,datetime=2006-01-02"`
	LoadLimitHours int32     `json:"load_limit_hours" validate:"omitempty,min=0,max=40"`
}

// UpdateMemberRequest rewrites an employment record.
type UpdateMemberRequest struct {
	Position       string `json:"position" validate:"omitempty,max=20"`
	EmploymentDate string `json:"employment_date" validate:"omitempty,datetime=2006-01-02"`
	LoadLimitHours int32  `json:"load_limit_hours" validate:"min=0,max=40"`
}

// SubjectResponse is the subject wire form.
type SubjectResponse struct {
	ID             uuid.UUID `json:"id"`
	SchoolID       uuid.UUID `json:"school_id"`
	Name           string    `json:"name"`
	Code           string    `json:"code,omitempty"`
	Description    string    `json:"description,omitempty"`
	DefaultCredits int32     `json:"default_credits"`
}

// CreateSubjectRequest adds a subject to the school catalog.
type CreateSubjectRequest struct {
	SchoolID       uuid.UUID `json:"school_id" validate:"required"`
	Name           string    `json:"name" validate:"required,max=255"`
	Code           string    `json:"code" validate:"omitempty,max=50"`
	Description    string    `json:"description" validate:"omitempty,max=2000"`
	DefaultCredits int32     `json:"default_credits" validate:"omitempty,min=1"`
}

// AssignSubjectRequest links a member to a subject.
type AssignSubjectRequest struct {
	SubjectID uuid.UUID `json:"subject_id" validate:"required"`
}

func toMemberResponse(m *Member) MemberResponse {
	return MemberResponse{
		ID:             m.ID,
		UserID:         m.UserID,
		SchoolID:       m.SchoolID,
		Position:       m.Position,
		EmploymentDate: m.EmploymentDate.Format(dateLayout),
		LoadLimitHours: m.LoadLimitHours,
		CreatedAt:      m.CreatedAt,
	}
}

func toSubjectResponse(s *Subject) SubjectResponse {
	return SubjectResponse{
		ID:             s.ID,
		SchoolID:       s.SchoolID,
		Name:           s.Name,
		Code:           s.Code,
		Description:    s.Description,
		DefaultCredits: s.DefaultCredits,
	}
}
