package certificates

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mektep/mektep/internal/platform/httpx"
	"github.com/mektep/mektep/internal/rbac"
	"github.com/mektep/mektep/internal/rbac/rbactest"
	"github.com/mektep/mektep/internal/shared"
)

type mockCertRepo struct {
	templates map[uuid.UUID]*Template
	certs     []Certificate
}

func newMockCertRepo() *mockCertRepo {
	return &mockCertRepo{templates: make(map[uuid.UUID]*Template)}
}

func (m *mockCertRepo) CreateTemplate(ctx context.Context, t Template) error {
	for _, existing := range m.templates {
		if existing.SchoolID == t.SchoolID && existing.Name == t.Name {
			return httpx.FieldErrors{"name": "already used in this school"}
		}
	}
	stored := t
	stored.CreatedAt = time.Now()
	m.templates[t.ID] = &stored
	return nil
}

func (m *mockCertRepo) GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error) {
	t, ok := m.templates[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (m *mockCertRepo) ListTemplates(ctx context.Context, schoolID *uuid.UUID) ([]Template, error) {
	var out []Template
	for _, t := range m.templates {
		if schoolID != nil && t.SchoolID != *schoolID {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (m *mockCertRepo) UpdateTemplate(ctx context.Context, t Template) error {
	stored, ok := m.templates[t.ID]
	if !ok {
		return httpx.ErrNotFound
	}
	stored.Name, stored.Body, stored.IsActive = t.Name, t.Body, t.IsActive
	return nil
}

func (m *mockCertRepo) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.templates[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.templates, id)
	return nil
}

func (m *mockCertRepo) CreateCertificate(ctx context.Context, c Certificate) error {
	m.certs = append(m.certs, c)
	return nil
}

func (m *mockCertRepo) ListCertificates(ctx context.Context, filter Filter) ([]Certificate, error) {
	var out []Certificate
	for _, c := range m.certs {
		if filter.OnlyStudentIDs != nil {
			found := false
			for _, id := range filter.OnlyStudentIDs {
				if id == c.StudentID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if filter.StudentID != nil && c.StudentID != *filter.StudentID {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

type staticRelations struct {
	profiles map[uuid.UUID]uuid.UUID
	children map[uuid.UUID][]uuid.UUID
}

func (r staticRelations) StudentIDByUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, ok := r.profiles[userID]
	if !ok {
		return uuid.Nil, httpx.ErrNotFound
	}
	return id, nil
}

func (r staticRelations) ChildIDs(ctx context.Context, guardianUserID uuid.UUID) ([]uuid.UUID, error) {
	return r.children[guardianUserID], nil
}

func (r staticRelations) LinkedSchoolID(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	return uuid.Nil, false, nil
}

func newTestService(t *testing.T) (*Service, *mockCertRepo, *rbactest.Repo, staticRelations) {
	t.Helper()
	repo := newMockCertRepo()
	rbacRepo := rbactest.NewRepo()
	rbacRepo.SeedDefaultGrants()
	rel := staticRelations{profiles: make(map[uuid.UUID]uuid.UUID), children: make(map[uuid.UUID][]uuid.UUID)}
	scoper := rbac.NewScoper(rbac.NewService(rbacRepo, nil, nil), rel)
	return NewService(repo, scoper), repo, rbacRepo, rel
}

func (m *mockCertRepo) seedTemplate(schoolID uuid.UUID, active bool) *Template {
	t := &Template{ID: uuid.New(), SchoolID: schoolID, Name: "Merit " + uuid.NewString()[:8], Body: "{{student}} excelled", IsActive: active}
	m.templates[t.ID] = t
	return t
}

func TestIssueDefaultsLanguageAndDate(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()
	issuer := shared.Identity{ID: uuid.New()}

	cert, err := svc.Issue(ctx, issuer, Certificate{StudentID: uuid.New(), SchoolID: uuid.New(), Title: "Olympiad winner"})
	require.NoError(t, err)
	assert.Equal(t, shared.DefaultLanguage, cert.Language)
	assert.False(t, cert.IssueDate.IsZero())
	assert.Equal(t, issuer.ID, cert.IssuedBy)
	assert.NotNil(t, cert.Meta)
	assert.Len(t, repo.certs, 1)
}

func TestIssueNormalizesLanguage(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	cert, err := svc.Issue(ctx, shared.Identity{ID: uuid.New()}, Certificate{
		StudentID: uuid.New(), SchoolID: uuid.New(), Title: "Honor roll", Language: "en-US",
	})
	require.NoError(t, err)
	assert.Equal(t, "en", cert.Language)
}

func TestIssueRejectsUnknownLanguage(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Issue(ctx, shared.Identity{ID: uuid.New()}, Certificate{
		StudentID: uuid.New(), SchoolID: uuid.New(), Title: "Honor roll", Language: "klingon",
	})
	require.Error(t, err)
	var fields httpx.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "language")
}

func TestIssueRejectsInactiveTemplate(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()
	tpl := repo.seedTemplate(uuid.New(), false)

	_, err := svc.Issue(ctx, shared.Identity{ID: uuid.New()}, Certificate{
		StudentID: uuid.New(), SchoolID: tpl.SchoolID, Title: "Honor roll", TemplateID: &tpl.ID,
	})
	require.Error(t, err)
	var fields httpx.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "template_id")
}

func TestIssueRejectsUnknownTemplate(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	unknown := uuid.New()

	_, err := svc.Issue(ctx, shared.Identity{ID: uuid.New()}, Certificate{
		StudentID: uuid.New(), SchoolID: uuid.New(), Title: "Honor roll", TemplateID: &unknown,
	})
	require.Error(t, err)
	var fields httpx.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "template_id")
}

func TestIssueAcceptsActiveTemplate(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()
	tpl := repo.seedTemplate(uuid.New(), true)

	cert, err := svc.Issue(ctx, shared.Identity{ID: uuid.New()}, Certificate{
		StudentID: uuid.New(), SchoolID: tpl.SchoolID, Title: "Honor roll", TemplateID: &tpl.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, cert.TemplateID)
	assert.Equal(t, tpl.ID, *cert.TemplateID)
}

func TestStudentSeesOwnCertificatesOnly(t *testing.T) {
	svc, repo, rbacRepo, rel := newTestService(t)
	ctx := context.Background()
	schoolID := uuid.New()

	studentUser := uuid.New()
	profile := uuid.New()
	rel.profiles[studentUser] = profile
	rbacRepo.Assign(studentUser, schoolID, rbac.RoleStudent)

	repo.certs = []Certificate{
		{ID: uuid.New(), StudentID: profile, Title: "Mine"},
		{ID: uuid.New(), StudentID: uuid.New(), Title: "Someone else's"},
	}

	certs, err := svc.List(ctx, shared.Identity{ID: studentUser}, Filter{})
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, "Mine", certs[0].Title)
}

func TestGuardianSeesChildrenCertificates(t *testing.T) {
	svc, repo, rbacRepo, rel := newTestService(t)
	ctx := context.Background()
	schoolID := uuid.New()

	guardian := uuid.New()
	child := uuid.New()
	rel.children[guardian] = []uuid.UUID{child}
	rbacRepo.Assign(guardian, schoolID, rbac.RoleParent)

	repo.certs = []Certificate{
		{ID: uuid.New(), StudentID: child, Title: "Child's"},
		{ID: uuid.New(), StudentID: uuid.New(), Title: "Stranger's"},
	}

	certs, err := svc.List(ctx, shared.Identity{ID: guardian}, Filter{})
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, "Child's", certs[0].Title)
}

func TestUnaffiliatedUserSeesNoCertificates(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	repo.certs = []Certificate{{ID: uuid.New(), StudentID: uuid.New(), Title: "Hidden"}}

	certs, err := svc.List(ctx, shared.Identity{ID: uuid.New()}, Filter{})
	require.NoError(t, err)
	assert.Empty(t, certs)
}

func TestTemplateLifecycle(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	schoolID := uuid.New()

	tpl, err := svc.CreateTemplate(ctx, Template{SchoolID: schoolID, Name: "Merit", Body: "{{student}}"}, nil)
	require.NoError(t, err)
	assert.True(t, tpl.IsActive)

	inactive := false
	updated, err := svc.UpdateTemplate(ctx, tpl.ID, nil, nil, &inactive)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "Merit", updated.Name)

	require.NoError(t, svc.DeleteTemplate(ctx, tpl.ID))
	_, err = svc.UpdateTemplate(ctx, tpl.ID, nil, nil, &inactive)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}
