package schools

import (
	"time"

	"github.com/google/uuid"
)

// CityResponse is the city reference wire form.
type CityResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	NameRu string    `json:"name_ru,omitempty"`
}

// SchoolResponse is the school wire form.
type SchoolResponse struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"`
	ConnectionCode string         `json:"connection_code,omitempty"`
	CityID         *uuid.UUID     `json:"city_id"`
	City           string         `json:"city,omitempty"`
	Address        string         `json:"address,omitempty"`
	GradingSystem  map[string]any `json:"grading_system,omitempty"`
	Languages      []string       `json:"languages_supported,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// SchoolByCodeResponse is the reduced lookup payload for guests connecting to
// a school.
type SchoolByCodeResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	City string    `json:"city,omitempty"`
}

// CreateSchoolRequest creates or updates a school.
type CreateSchoolRequest struct {
	Name          string         `json:"name" validate:"required,max=255"`
	CityID        *uuid.UUID     `json:"city_id"`
	Address       string         `json:"address"`
	GradingSystem map[string]any `json:"grading_system"`
	Languages     []string       `json:"languages_supported"`
}

// AcademicYearResponse is the academic year wire form.
type AcademicYearResponse struct {
	ID        uuid.UUID `json:"id"`
	SchoolID  uuid.UUID `json:"school_id"`
	Name      string    `json:"name"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	IsCurrent bool      `json:"is_current"`
}

// AcademicYearRequest creates or updates an academic year.
type AcademicYearRequest struct {
	SchoolID  uuid.UUID `json:"school_id" validate:"required"`
	Name      string    `json:"name" validate:"required,max=50"`
	StartDate string    `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string    `json:"end_date" validate:"required,datetime=2006-01-02"`
	IsCurrent bool      `json:"is_current"`
}

const dateLayout = "2006-01-02"

func toSchoolResponse(s *School) SchoolResponse {
	return SchoolResponse{
		ID:             s.ID,
		Name:           s.Name,
		ConnectionCode: s.ConnectionCode,
		CityID:         s.CityID,
		City:           s.CityName,
		Address:        s.Address,
		GradingSystem:  s.GradingSystem,
		Languages:      s.Languages,
		CreatedAt:      s.CreatedAt,
	}
}

func toAcademicYearResponse(y *AcademicYear) AcademicYearResponse {
	return AcademicYearResponse{
		ID:        y.ID,
		SchoolID:  y.SchoolID,
		Name:      y.Name,
		StartDate: y.StartDate.Format(dateLayout),
		EndDate:   y.EndDate.Format(dateLayout),
		IsCurrent: y.IsCurrent,
	}
}
