package students

import (
	"time"

	"github.com/google/uuid"
)

// StudentResponse is the roster wire form.
type StudentResponse struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	SchoolID       uuid.UUID  `json:"school_id"`
	StudentNumber  string     `json:"student_number"`
	ClassGroupID   *uuid.UUID `json:"class_group_id"`
	EnrollmentDate string     `json:"enrollment_date"`
	FullName       string     `json:"full_name"`
}

// EnrollRequest creates a student profile.
type EnrollRequest struct {
	UserID         uuid.UUID  `json:"user_id" validate:"required"`
	SchoolID       uuid.UUID  `json:"school_id" validate:"required"`
	StudentNumber  string     `json:"student_number" validate:"required,max=50"`
	ClassGroupID   *uuid.UUID `json:"class_group_id"`
	EnrollmentDate string     `json:"enrollment_date" validate:"required,datetime=2006-01-02"`
	Gender         string     `json:"gender" validate:"omitempty,oneof=M F O"`
}

// GuardianLinkRequest ties a guardian to a student.
type GuardianLinkRequest struct {
	StudentID    uuid.UUID `json:"student_id" validate:"required"`
	GuardianID   uuid.UUID `json:"guardian_id" validate:"required"`
	Relationship string    `json:"relationship" validate:"max=50"`
}

// GuardianLinkResponse is the guardian link wire form.
type GuardianLinkResponse struct {
	ID           uuid.UUID `json:"id"`
	StudentID    uuid.UUID `json:"student_id"`
	GuardianID   uuid.UUID `json:"guardian_id"`
	Relationship string    `json:"relationship"`
}

// ClassGroupRequest creates a class group.
type ClassGroupRequest struct {
	SchoolID       uuid.UUID `json:"school_id" validate:"required"`
	Name           string    `json:"name" validate:"required,max=50"`
	GradeLevel     int       `json:"grade_level" validate:"required,min=0,max=12"`
	AcademicYearID uuid.UUID `json:"academic_year_id" validate:"required"`
}

// ClassGroupResponse is the class group wire form.
type ClassGroupResponse struct {
	ID             uuid.UUID `json:"id"`
	SchoolID       uuid.UUID `json:"school_id"`
	Name           string    `json:"name"`
	GradeLevel     int       `json:"grade_level"`
	AcademicYearID uuid.UUID `json:"academic_year_id"`
}

const dateLayout = "2006-01-02"

func toStudentResponse(s *Student) StudentResponse {
	return StudentResponse{
		ID:             s.ID,
		UserID:         s.UserID,
		SchoolID:       s.SchoolID,
		StudentNumber:  s.StudentNumber,
		ClassGroupID:   s.ClassGroupID,
		EnrollmentDate: s.EnrollmentDate.Format(dateLayout),
		FullName:       s.FullName,
	}
}

func parseDate(raw string) time.Time {
	t, _ := time.Parse(dateLayout, raw)
	return t
}
