package certificates

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mektep/mektep/internal/platform/httpx"
	"github.com/mektep/mektep/internal/rbac"
	"github.com/mektep/mektep/internal/shared"
)

// Filter narrows certificate listings. OnlyStudentIDs is populated from the
// query scoper, never from the caller.
type Filter struct {
	OnlyStudentIDs []uuid.UUID
	StudentID      *uuid.UUID
	SchoolID       *uuid.UUID
	Limit          int32
	Offset         int32
}

// RepositoryPort defines data access methods for certificates.
type RepositoryPort interface {
	CreateTemplate(ctx context.Context, t Template) error
	GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error)
	ListTemplates(ctx context.Context, schoolID *uuid.UUID) ([]Template, error)
	UpdateTemplate(ctx context.Context, t Template) error
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
	CreateCertificate(ctx context.Context, c Certificate) error
	ListCertificates(ctx context.Context, filter Filter) ([]Certificate, error)
}

// Service handles certificate business logic.
type Service struct {
	repo   RepositoryPort
	scoper *rbac.Scoper
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, scoper *rbac.Scoper) *Service {
	return &Service{repo: repo, scoper: scoper}
}

// CreateTemplate registers a template. New templates start active unless the
// caller says otherwise.
func (s *Service) CreateTemplate(ctx context.Context, t Template, active *bool) (*Template, error) {
	t.ID = uuid.New()
	t.IsActive = true
	if active != nil {
		t.IsActive = *active
	}
	if err := s.repo.CreateTemplate(ctx, t); err != nil {
		return nil, err
	}
	return s.repo.GetTemplate(ctx, t.ID)
}

// UpdateTemplate rewrites a template's name, body and active flag. Unset
// fields keep their stored values.
func (s *Service) UpdateTemplate(ctx context.Context, id uuid.UUID, name, body *string, active *bool) (*Template, error) {
	t, err := s.repo.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != nil {
		t.Name = *name
	}
	if body != nil {
		t.Body = *body
	}
	if active != nil {
		t.IsActive = *active
	}
	if err := s.repo.UpdateTemplate(ctx, *t); err != nil {
		return nil, err
	}
	return s.repo.GetTemplate(ctx, id)
}

// ListTemplates returns templates, optionally narrowed to one school.
func (s *Service) ListTemplates(ctx context.Context, schoolID *uuid.UUID) ([]Template, error) {
	return s.repo.ListTemplates(ctx, schoolID)
}

// DeleteTemplate removes a template. Issued certificates keep their copy of
// the template reference.
func (s *Service) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteTemplate(ctx, id)
}

// Issue records a certificate for a student. The language is normalized to
// one of the stored codes and the template, when given, must exist and be
// active.
func (s *Service) Issue(ctx context.Context, ident shared.Identity, c Certificate) (*Certificate, error) {
	lang, ok := shared.NormalizeLanguage(c.Language)
	if !ok {
		return nil, httpx.FieldErrors{"language": "must be one of ru, kz, en"}
	}
	c.Language = lang
	if c.TemplateID != nil {
		tpl, err := s.repo.GetTemplate(ctx, *c.TemplateID)
		if err != nil {
			if errors.Is(err, httpx.ErrNotFound) {
				return nil, httpx.FieldErrors{"template_id": "unknown template"}
			}
			return nil, err
		}
		if !tpl.IsActive {
			return nil, httpx.FieldErrors{"template_id": "template is inactive"}
		}
	}
	if c.IssueDate.IsZero() {
		c.IssueDate = time.Now()
	}
	if c.Meta == nil {
		c.Meta = map[string]any{}
	}
	c.ID = uuid.New()
	c.IssuedBy = ident.ID
	if err := s.repo.CreateCertificate(ctx, c); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns certificates visible to the identity, scope applied before
// caller filters.
func (s *Service) List(ctx context.Context, ident shared.Identity, filter Filter) ([]Certificate, error) {
	scope, err := s.scoper.Students(ctx, ident)
	if err != nil {
		return nil, err
	}
	if scope.Empty() {
		return []Certificate{}, nil
	}
	if !scope.All {
		filter.OnlyStudentIDs = scope.IDs
	}
	return s.repo.ListCertificates(ctx, filter)
}
