package students

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mektep/mektep/internal/platform/httpx"
	"github.com/mektep/mektep/internal/rbac"
	"github.com/mektep/mektep/internal/rbac/rbactest"
	"github.com/mektep/mektep/internal/shared"
)

// ============================================================================
// MOCKS
// ============================================================================

type mockStudentRepo struct {
	students  map[uuid.UUID]*Student
	byUser    map[uuid.UUID]uuid.UUID
	guardians map[uuid.UUID]*GuardianLink
	groups    map[uuid.UUID]*ClassGroup
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{
		students:  make(map[uuid.UUID]*Student),
		byUser:    make(map[uuid.UUID]uuid.UUID),
		guardians: make(map[uuid.UUID]*GuardianLink),
		groups:    make(map[uuid.UUID]*ClassGroup),
	}
}

func (m *mockStudentRepo) Create(ctx context.Context, s Student) error {
	for _, existing := range m.students {
		if existing.SchoolID == s.SchoolID && existing.StudentNumber == s.StudentNumber {
			return httpx.ErrConflict
		}
	}
	stored := s
	m.students[s.ID] = &stored
	m.byUser[s.UserID] = s.ID
	return nil
}

func (m *mockStudentRepo) Get(ctx context.Context, id uuid.UUID) (*Student, error) {
	s, ok := m.students[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (m *mockStudentRepo) List(ctx context.Context, filter ListFilter) ([]Student, error) {
	var out []Student
	for _, s := range m.students {
		if filter.SchoolID != nil && s.SchoolID != *filter.SchoolID {
			continue
		}
		if filter.ClassGroupID != nil {
			if s.ClassGroupID == nil || *s.ClassGroupID != *filter.ClassGroupID {
				continue
			}
		}
		if filter.OnlyIDs != nil {
			found := false
			for _, id := range filter.OnlyIDs {
				if id == s.ID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockStudentRepo) StudentIDByUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, ok := m.byUser[userID]
	if !ok {
		return uuid.Nil, httpx.ErrNotFound
	}
	return id, nil
}

func (m *mockStudentRepo) ChildIDs(ctx context.Context, guardianUserID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, link := range m.guardians {
		if link.GuardianID == guardianUserID {
			out = append(out, link.StudentID)
		}
	}
	return out, nil
}

func (m *mockStudentRepo) LinkGuardian(ctx context.Context, link GuardianLink) error {
	for _, existing := range m.guardians {
		if existing.StudentID == link.StudentID && existing.GuardianID == link.GuardianID {
			return httpx.ErrConflict
		}
	}
	stored := link
	m.guardians[link.ID] = &stored
	return nil
}

func (m *mockStudentRepo) UnlinkGuardian(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.guardians[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.guardians, id)
	return nil
}

func (m *mockStudentRepo) Guardians(ctx context.Context, studentID uuid.UUID) ([]GuardianLink, error) {
	var out []GuardianLink
	for _, link := range m.guardians {
		if link.StudentID == studentID {
			out = append(out, *link)
		}
	}
	return out, nil
}

func (m *mockStudentRepo) CreateClassGroup(ctx context.Context, g ClassGroup) error {
	for _, existing := range m.groups {
		if existing.SchoolID == g.SchoolID && existing.Name == g.Name && existing.AcademicYearID == g.AcademicYearID {
			return httpx.ErrConflict
		}
	}
	stored := g
	m.groups[g.ID] = &stored
	return nil
}

func (m *mockStudentRepo) ListClassGroups(ctx context.Context, schoolID uuid.UUID) ([]ClassGroup, error) {
	var out []ClassGroup
	for _, g := range m.groups {
		if g.SchoolID == schoolID {
			out = append(out, *g)
		}
	}
	return out, nil
}

// stubDirectory routes relationship lookups to the student repo and leaves
// linked schools unset.
type stubDirectory struct {
	repo *mockStudentRepo
}

func (s stubDirectory) StudentIDByUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	return s.repo.StudentIDByUser(ctx, userID)
}

func (s stubDirectory) ChildIDs(ctx context.Context, guardianUserID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.ChildIDs(ctx, guardianUserID)
}

func (s stubDirectory) LinkedSchoolID(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	return uuid.Nil, false, nil
}

// ============================================================================
// TESTS
// ============================================================================

func newTestService(t *testing.T) (*Service, *mockStudentRepo, *rbactest.Repo) {
	t.Helper()
	repo := newMockStudentRepo()
	rbacRepo := rbactest.NewRepo()
	rbacRepo.SeedDefaultGrants()
	svc := rbac.NewService(rbacRepo, nil, nil)
	scoper := rbac.NewScoper(svc, stubDirectory{repo: repo})
	return NewService(repo, scoper), repo, rbacRepo
}

func enroll(t *testing.T, repo *mockStudentRepo, userID, schoolID uuid.UUID, number string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, repo.Create(context.Background(), Student{
		ID: id, UserID: userID, SchoolID: schoolID, StudentNumber: number,
	}))
	return id
}

func TestListScopedToOwnProfileForStudent(t *testing.T) {
	svc, repo, rbacRepo := newTestService(t)
	ctx := context.Background()
	schoolID := uuid.New()

	ownUser := uuid.New()
	ownID := enroll(t, repo, ownUser, schoolID, "S-001")
	enroll(t, repo, uuid.New(), schoolID, "S-002")
	rbacRepo.Assign(ownUser, schoolID, rbac.RoleStudent)

	list, err := svc.List(ctx, shared.Identity{ID: ownUser}, ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ownID, list[0].ID)
}

func TestListScopedToChildrenForGuardian(t *testing.T) {
	svc, repo, rbacRepo := newTestService(t)
	ctx := context.Background()
	schoolID := uuid.New()

	childA := enroll(t, repo, uuid.New(), schoolID, "S-001")
	childB := enroll(t, repo, uuid.New(), schoolID, "S-002")
	enroll(t, repo, uuid.New(), schoolID, "S-003")

	guardian := uuid.New()
	rbacRepo.Assign(guardian, schoolID, rbac.RoleParent)
	require.NoError(t, repo.LinkGuardian(ctx, GuardianLink{ID: uuid.New(), StudentID: childA, GuardianID: guardian, Relationship: "parent"}))
	require.NoError(t, repo.LinkGuardian(ctx, GuardianLink{ID: uuid.New(), StudentID: childB, GuardianID: guardian, Relationship: "parent"}))

	list, err := svc.List(ctx, shared.Identity{ID: guardian}, ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestListUnrestrictedForStaff(t *testing.T) {
	svc, repo, rbacRepo := newTestService(t)
	ctx := context.Background()
	schoolID := uuid.New()

	enroll(t, repo, uuid.New(), schoolID, "S-001")
	enroll(t, repo, uuid.New(), schoolID, "S-002")

	teacher := uuid.New()
	rbacRepo.Assign(teacher, schoolID, rbac.RoleTeacher)

	list, err := svc.List(ctx, shared.Identity{ID: teacher}, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestListEmptyForUnaffiliatedUser(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	enroll(t, repo, uuid.New(), uuid.New(), "S-001")

	list, err := svc.List(ctx, shared.Identity{ID: uuid.New()}, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGetDeniedOutsideScope(t *testing.T) {
	svc, repo, rbacRepo := newTestService(t)
	ctx := context.Background()
	schoolID := uuid.New()

	ownUser := uuid.New()
	ownID := enroll(t, repo, ownUser, schoolID, "S-001")
	otherID := enroll(t, repo, uuid.New(), schoolID, "S-002")
	rbacRepo.Assign(ownUser, schoolID, rbac.RoleStudent)

	got, err := svc.Get(ctx, shared.Identity{ID: ownUser}, ownID)
	require.NoError(t, err)
	assert.Equal(t, ownID, got.ID)

	_, err = svc.Get(ctx, shared.Identity{ID: ownUser}, otherID)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestStudentWithoutProfileFailsClosed(t *testing.T) {
	svc, repo, rbacRepo := newTestService(t)
	ctx := context.Background()
	schoolID := uuid.New()

	enroll(t, repo, uuid.New(), schoolID, "S-001")

	orphan := uuid.New()
	rbacRepo.Assign(orphan, schoolID, rbac.RoleStudent)

	list, err := svc.List(ctx, shared.Identity{ID: orphan}, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDuplicateGuardianLinkConflicts(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	studentID := enroll(t, repo, uuid.New(), uuid.New(), "S-001")
	guardian := uuid.New()

	link, err := svc.LinkGuardian(ctx, studentID, guardian, "")
	require.NoError(t, err)
	assert.Equal(t, "parent", link.Relationship)

	_, err = svc.LinkGuardian(ctx, studentID, guardian, "mother")
	assert.True(t, errors.Is(err, httpx.ErrConflict))
}

func TestDuplicateStudentNumberConflicts(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	schoolID := uuid.New()

	enroll(t, repo, uuid.New(), schoolID, "S-001")

	_, err := svc.Enroll(ctx, Student{UserID: uuid.New(), SchoolID: schoolID, StudentNumber: "S-001"})
	assert.True(t, errors.Is(err, httpx.ErrConflict))
}
