// Package staff manages staff member profiles and the subject catalog.
package staff

import (
	"time"

	"github.com/google/uuid"
)

// Position is a staff member's function within a school.
type Position string

const (
	PositionTeacher   Position = "teacher"
	PositionDirector  Position = "director"
	PositionAdmin     Position = "admin"
	PositionRegistrar Position = "registrar"
	PositionScheduler Position = "scheduler"
)

// Valid reports whether the position is one of the known functions.
func (p Position) Valid() bool {
	switch p {
	case PositionTeacher, PositionDirector, PositionAdmin, PositionRegistrar, PositionScheduler:
		return true
	}
	return false
}

// maxWeeklyLoadHours caps a member's teaching load.
const maxWeeklyLoadHours = 40

// Member is one user's employment record at a school.
type Member struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	SchoolID       uuid.UUID
	Position       Position
	EmploymentDate time.Time
	LoadLimitHours int32
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Subject is a taught discipline within a school.
type Subject struct {
	ID             uuid.UUID
	SchoolID       uuid.UUID
	Name           string
	Code           string
	Description    string
	DefaultCredits int32
	CreatedAt      time.Time
}

// SubjectAssignment links a staff member to a subject they teach.
type SubjectAssignment struct {
	ID        uuid.UUID
	StaffID   uuid.UUID
	SubjectID uuid.UUID
	CreatedAt time.Time
}
