package schools

import (
	"time"

	"github.com/google/uuid"
)

// City is a reference record schools point at.
type City struct {
	ID        uuid.UUID
	Name      string
	NameRu    string
	CreatedAt time.Time
}

// School is a tenant. Every scoped record in the system hangs off one school.
type School struct {
	ID             uuid.UUID
	Name           string
	ConnectionCode string
	CityID         *uuid.UUID
	CityName       string
	Address        string
	GradingSystem  map[string]any
	Languages      []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AcademicYear is a named date range within a school. (school, name) is
// unique.
type AcademicYear struct {
	ID        uuid.UUID
	SchoolID  uuid.UUID
	Name      string
	StartDate time.Time
	EndDate   time.Time
	IsCurrent bool
	CreatedAt time.Time
}
