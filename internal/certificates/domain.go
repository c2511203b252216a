// Package certificates issues and lists student certificates from reusable
// templates. Rendering to PDF is left to a separate pipeline; this package
// owns the records.
package certificates

import (
	"time"

	"github.com/google/uuid"
)

// Template is a reusable certificate body with placeholder markup.
type Template struct {
	ID        uuid.UUID
	SchoolID  uuid.UUID
	Name      string
	Body      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Certificate is one issued record for a student.
type Certificate struct {
	ID         uuid.UUID
	StudentID  uuid.UUID
	SchoolID   uuid.UUID
	Title      string
	IssueDate  time.Time
	Expires    *time.Time
	TemplateID *uuid.UUID
	Language   string
	Meta       map[string]any
	IssuedBy   uuid.UUID
	CreatedAt  time.Time
}
