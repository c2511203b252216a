package certificates

import (
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// TemplateResponse is the template wire form.
type TemplateResponse struct {
	ID        uuid.UUID `json:"id"`
	SchoolID  uuid.UUID `json:"school_id"`
	Name      string    `json:"name"`
	Body      string    `json:"body"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateTemplateRequest registers a template.
type CreateTemplateRequest struct {
	SchoolID uuid.UUID `json:"school_id" validate:"required"`
	Name     string    `json:"name" validate:"required,max=255"`
	Body     string    `json:"body" validate:"required"`
	IsActive *bool     `json:"is_active"`
}

// UpdateTemplateRequest rewrites parts of a template.
type UpdateTemplateRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	Body     *string `json:"body"`
	IsActive *bool   `json:"is_active"`
}

// CertificateResponse is the certificate wire form.
type CertificateResponse struct {
	ID         uuid.UUID      `json:"id"`
	StudentID  uuid.UUID      `json:"student_id"`
	SchoolID   uuid.UUID      `json:"school_id"`
	Title      string         `json:"title"`
	IssueDate  string         `json:"issue_date"`
	Expires    *string        `json:"expires,omitempty"`
	TemplateID *uuid.UUID     `json:"template_id,omitempty"`
	Language   string         `json:"language"`
	Meta       map[string]any `json:"meta"`
	IssuedBy   uuid.UUID      `json:"issued_by"`
	CreatedAt  time.Time      `json:"created_at"`
}

// IssueRequest records a certificate.
type IssueRequest struct {
	StudentID  uuid.UUID      `json:"student_id" validate:"required"`
	SchoolID   uuid.UUID      `json:"school_id" validate:"required"`
	Title      string         `json:"title" validate:"required,max=255"`
	IssueDate  string         `json:"issue_date" validate:"omitempty,datetime=2006-01-02"`
	Expires    string         `json:"expires" validate:"omitempty,datetime=2006-01-02"`
	TemplateID *uuid.UUID     `json:"template_id"`
	Language   string         `json:"language" validate:"omitempty,max=10"`
	Meta       map[string]any `json:"meta"`
}

func toTemplateResponse(t *Template) TemplateResponse {
	return TemplateResponse{
		ID:        t.ID,
		SchoolID:  t.SchoolID,
		Name:      t.Name,
		Body:      t.Body,
		IsActive:  t.IsActive,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func toCertificateResponse(c *Certificate) CertificateResponse {
	resp := CertificateResponse{
		ID:         c.ID,
		StudentID:  c.StudentID,
		SchoolID:   c.SchoolID,
		Title:      c.Title,
		IssueDate:  c.IssueDate.Format(dateLayout),
		TemplateID: c.TemplateID,
		Language:   c.Language,
		Meta:       c.Meta,
		IssuedBy:   c.IssuedBy,
		CreatedAt:  c.CreatedAt,
	}
	if c.Expires != nil {
		expires := c.Expires.Format(dateLayout)
		resp.Expires = &expires
	}
	return resp
}
