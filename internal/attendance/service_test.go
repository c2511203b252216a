package attendance

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

type mockMarkRepo struct {
	marks []Mark
}

func (m *mockMarkRepo) CreateMark(ctx context.Context, mark Mark) error {
	for _, existing := range m.marks {
		if existing.StudentID == mark.StudentID && existing.Subject == mark.Subject &&
			existing.LessonDate.Format("2006-01-02") == mark.LessonDate.Format("2006-01-02") {
			return httpx.ErrConflict
		}
	}
	m.marks = append(m.marks, mark)
	return nil
}

func (m *mockMarkRepo) ListMarks(ctx context.Context, filter MarkFilter) ([]Mark, error) {
	var out []Mark
	for _, mark := range m.marks {
		if filter.OnlyStudentIDs != nil {
			found := false
			for _, id := range filter.OnlyStudentIDs {
				if id == mark.StudentID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if filter.StudentID != nil && mark.StudentID != *filter.StudentID {
			continue
		}
		out = append(out, mark)
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

func newTestService(t *testing.T) (*Service, *mockMarkRepo, *rbactest.Repo, staticRelations) {
	t.Helper()
	repo := &mockMarkRepo{}
	rbacRepo := rbactest.NewRepo()
	rbacRepo.SeedDefaultGrants()
	rel := staticRelations{profiles: make(map[uuid.UUID]uuid.UUID), children: make(map[uuid.UUID][]uuid.UUID)}
	scoper := rbac.NewScoper(rbac.NewService(rbacRepo, nil, nil), rel)
	return NewService(repo, scoper), repo, rbacRepo, rel
}

func TestGuardianSeesChildrenMarksOnly(t *testing.T) {
	svc, repo, rbacRepo, rel := newTestService(t)
	ctx := context.Background()
	schoolID := uuid.New()

	guardian := uuid.New()
	child := uuid.New()
	stranger := uuid.New()
	rel.children[guardian] = []uuid.UUID{child}
	rbacRepo.Assign(guardian, schoolID, rbac.RoleParent)

	repo.marks = []Mark{
		{ID: uuid.New(), StudentID: child, Status: StatusAbsent},
		{ID: uuid.New(), StudentID: stranger, Status: StatusPresent},
	}

	marks, err := svc.List(ctx, shared.Identity{ID: guardian}, MarkFilter{})
	require.NoError(t, err)
	require.Len(t, marks, 1)
	assert.Equal(t, child, marks[0].StudentID)
}

func TestStudentSeesOwnMarks(t *testing.T) {
	svc, repo, rbacRepo, rel := newTestService(t)
	ctx := context.Background()
	schoolID := uuid.New()

	studentUser := uuid.New()
	profile := uuid.New()
	rel.profiles[studentUser] = profile
	rbacRepo.Assign(studentUser, schoolID, rbac.RoleStudent)

	repo.marks = []Mark{
		{ID: uuid.New(), StudentID: profile, Status: StatusLate},
		{ID: uuid.New(), StudentID: uuid.New(), Status: StatusPresent},
	}

	marks, err := svc.List(ctx, shared.Identity{ID: studentUser}, MarkFilter{})
	require.NoError(t, err)
	require.Len(t, marks, 1)
	assert.Equal(t, StatusLate, marks[0].Status)
}

func TestUnaffiliatedUserSeesNothing(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()

	repo.marks = []Mark{{ID: uuid.New(), StudentID: uuid.New(), Status: StatusPresent}}

	marks, err := svc.List(ctx, shared.Identity{ID: uuid.New()}, MarkFilter{})
	require.NoError(t, err)
	assert.Empty(t, marks)
}

func TestRecordRejectsUnknownStatus(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Record(ctx, shared.Identity{ID: uuid.New()}, Mark{StudentID: uuid.New(), Status: "vanished"})
	require.Error(t, err)
	var fields httpx.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "status")
}

func TestRecordStampsMarkerAndDate(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	ctx := context.Background()
	teacher := shared.Identity{ID: uuid.New()}

	mark, err := svc.Record(ctx, teacher, Mark{StudentID: uuid.New(), SchoolID: uuid.New(), Subject: "Physics", Status: StatusExcused})
	require.NoError(t, err)
	assert.Equal(t, teacher.ID, mark.MarkedBy)
	assert.False(t, mark.LessonDate.IsZero())
	assert.Len(t, repo.marks, 1)
}

func TestRecordDuplicateConflicts(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	teacher := shared.Identity{ID: uuid.New()}
	studentID := uuid.New()
	day := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.Record(ctx, teacher, Mark{StudentID: studentID, Subject: "Physics", Status: StatusPresent, LessonDate: day})
	require.NoError(t, err)

	_, err = svc.Record(ctx, teacher, Mark{StudentID: studentID, Subject: "Physics", Status: StatusLate, LessonDate: day})
	assert.True(t, errors.Is(err, httpx.ErrConflict))
}
