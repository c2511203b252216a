package journal

import (
	"context"
	"errors"
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

type mockJournalRepo struct {
	grades   []Grade
	feedback []Feedback
}

func (m *mockJournalRepo) CreateGrade(ctx context.Context, g Grade) error {
	g.CreatedAt = time.Now()
	m.grades = append(m.grades, g)
	return nil
}

func (m *mockJournalRepo) ListGrades(ctx context.Context, filter GradeFilter) ([]Grade, error) {
	var out []Grade
	for _, g := range m.grades {
		if filter.OnlyStudentIDs != nil && !containsID(filter.OnlyStudentIDs, g.StudentID) {
			continue
		}
		if filter.StudentID != nil && g.StudentID != *filter.StudentID {
			continue
		}
		if filter.SchoolID != nil && g.SchoolID != *filter.SchoolID {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

func (m *mockJournalRepo) CreateFeedback(ctx context.Context, f Feedback) error {
	f.CreatedAt = time.Now()
	m.feedback = append(m.feedback, f)
	return nil
}

func (m *mockJournalRepo) ListFeedback(ctx context.Context, studentID uuid.UUID, since time.Time) ([]Feedback, error) {
	var out []Feedback
	for _, f := range m.feedback {
		if f.StudentID == studentID {
			out = append(out, f)
		}
	}
	return out, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// relationMap is a static rbac.RelationDirectory.
type relationMap struct {
	profiles map[uuid.UUID]uuid.UUID
	children map[uuid.UUID][]uuid.UUID
}

func (r relationMap) StudentIDByUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, ok := r.profiles[userID]
	if !ok {
		return uuid.Nil, httpx.ErrNotFound
	}
	return id, nil
}

func (r relationMap) ChildIDs(ctx context.Context, guardianUserID uuid.UUID) ([]uuid.UUID, error) {
	return r.children[guardianUserID], nil
}

func (r relationMap) LinkedSchoolID(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	return uuid.Nil, false, nil
}

type fixture struct {
	svc      *Service
	repo     *mockJournalRepo
	rbacRepo *rbactest.Repo
	rel      relationMap
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := &mockJournalRepo{}
	rbacRepo := rbactest.NewRepo()
	rbacRepo.SeedDefaultGrants()
	rel := relationMap{profiles: make(map[uuid.UUID]uuid.UUID), children: make(map[uuid.UUID][]uuid.UUID)}
	svc := rbac.NewService(rbacRepo, nil, nil)
	return &fixture{
		svc:      NewService(repo, rbac.NewScoper(svc, rel)),
		repo:     repo,
		rbacRepo: rbacRepo,
		rel:      rel,
	}
}

func TestStudentSeesOnlyOwnGrades(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	schoolID := uuid.New()

	studentUser := uuid.New()
	ownProfile := uuid.New()
	otherProfile := uuid.New()
	fx.rel.profiles[studentUser] = ownProfile
	fx.rbacRepo.Assign(studentUser, schoolID, rbac.RoleStudent)

	fx.repo.grades = []Grade{
		{ID: uuid.New(), StudentID: ownProfile, SchoolID: schoolID, Subject: "Algebra", Value: 5},
		{ID: uuid.New(), StudentID: otherProfile, SchoolID: schoolID, Subject: "Algebra", Value: 3},
	}

	grades, err := fx.svc.ListGrades(ctx, shared.Identity{ID: studentUser}, GradeFilter{})
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, ownProfile, grades[0].StudentID)
}

func TestStudentCannotWidenScopeWithStudentFilter(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	schoolID := uuid.New()

	studentUser := uuid.New()
	ownProfile := uuid.New()
	otherProfile := uuid.New()
	fx.rel.profiles[studentUser] = ownProfile
	fx.rbacRepo.Assign(studentUser, schoolID, rbac.RoleStudent)

	fx.repo.grades = []Grade{
		{ID: uuid.New(), StudentID: otherProfile, SchoolID: schoolID, Subject: "History", Value: 4},
	}

	grades, err := fx.svc.ListGrades(ctx, shared.Identity{ID: studentUser}, GradeFilter{StudentID: &otherProfile})
	require.NoError(t, err)
	assert.Empty(t, grades)
}

func TestGuardianSeesChildrenGrades(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	schoolID := uuid.New()

	guardian := uuid.New()
	childA := uuid.New()
	childB := uuid.New()
	stranger := uuid.New()
	fx.rel.children[guardian] = []uuid.UUID{childA, childB}
	fx.rbacRepo.Assign(guardian, schoolID, rbac.RoleParent)

	fx.repo.grades = []Grade{
		{ID: uuid.New(), StudentID: childA, Value: 5},
		{ID: uuid.New(), StudentID: childB, Value: 4},
		{ID: uuid.New(), StudentID: stranger, Value: 2},
	}

	grades, err := fx.svc.ListGrades(ctx, shared.Identity{ID: guardian}, GradeFilter{})
	require.NoError(t, err)
	assert.Len(t, grades, 2)
}

func TestTeacherSeesAllGrades(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	schoolID := uuid.New()

	teacher := uuid.New()
	fx.rbacRepo.Assign(teacher, schoolID, rbac.RoleTeacher)

	fx.repo.grades = []Grade{
		{ID: uuid.New(), StudentID: uuid.New(), Value: 5},
		{ID: uuid.New(), StudentID: uuid.New(), Value: 3},
	}

	grades, err := fx.svc.ListGrades(ctx, shared.Identity{ID: teacher}, GradeFilter{})
	require.NoError(t, err)
	assert.Len(t, grades, 2)
}

func TestRecordGradeValidatesScale(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	teacher := shared.Identity{ID: uuid.New()}

	_, err := fx.svc.RecordGrade(ctx, teacher, Grade{StudentID: uuid.New(), Value: 6})
	require.Error(t, err)
	var fields httpx.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "value")

	created, err := fx.svc.RecordGrade(ctx, teacher, Grade{StudentID: uuid.New(), Value: 5})
	require.NoError(t, err)
	assert.Equal(t, teacher.ID, created.TeacherID)
	assert.False(t, created.LessonDate.IsZero())
}

func TestFeedbackReadScoped(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	schoolID := uuid.New()

	studentUser := uuid.New()
	ownProfile := uuid.New()
	foreign := uuid.New()
	fx.rel.profiles[studentUser] = ownProfile
	fx.rbacRepo.Assign(studentUser, schoolID, rbac.RoleStudent)

	fx.repo.feedback = []Feedback{{ID: uuid.New(), StudentID: ownProfile, Text: "Improving steadily"}}

	list, err := fx.svc.ListFeedback(ctx, shared.Identity{ID: studentUser}, ownProfile, time.Time{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = fx.svc.ListFeedback(ctx, shared.Identity{ID: studentUser}, foreign, time.Time{})
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}
