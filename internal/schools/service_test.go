package schools

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mektep/mektep/internal/platform/httpx"
	"github.com/mektep/mektep/internal/rbac"
	"github.com/mektep/mektep/internal/shared"
)

// ============================================================================
// MOCKS
// ============================================================================

type mockSchoolRepo struct {
	schools map[uuid.UUID]*School
	years   map[uuid.UUID]*AcademicYear

	codeCollisions int
}

func newMockSchoolRepo() *mockSchoolRepo {
	return &mockSchoolRepo{
		schools: make(map[uuid.UUID]*School),
		years:   make(map[uuid.UUID]*AcademicYear),
	}
}

func (m *mockSchoolRepo) ListCities(ctx context.Context) ([]City, error) { return nil, nil }

func (m *mockSchoolRepo) Create(ctx context.Context, s School) error {
	if m.codeCollisions > 0 {
		m.codeCollisions--
		return ErrCodeCollision
	}
	stored := s
	m.schools[s.ID] = &stored
	return nil
}

func (m *mockSchoolRepo) Get(ctx context.Context, id uuid.UUID) (*School, error) {
	s, ok := m.schools[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (m *mockSchoolRepo) GetByCode(ctx context.Context, code string) (*School, error) {
	for _, s := range m.schools {
		if s.ConnectionCode == code {
			clone := *s
			return &clone, nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (m *mockSchoolRepo) List(ctx context.Context, onlyIDs []uuid.UUID) ([]School, error) {
	var out []School
	for _, s := range m.schools {
		if onlyIDs != nil && !containsID(onlyIDs, s.ID) {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockSchoolRepo) Update(ctx context.Context, s School) error {
	if _, ok := m.schools[s.ID]; !ok {
		return httpx.ErrNotFound
	}
	stored := s
	m.schools[s.ID] = &stored
	return nil
}

func (m *mockSchoolRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.schools[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.schools, id)
	return nil
}

func (m *mockSchoolRepo) CreateAcademicYear(ctx context.Context, y AcademicYear) error {
	for _, existing := range m.years {
		if existing.SchoolID == y.SchoolID && existing.Name == y.Name {
			return httpx.ErrConflict
		}
	}
	stored := y
	m.years[y.ID] = &stored
	return nil
}

func (m *mockSchoolRepo) GetAcademicYear(ctx context.Context, id uuid.UUID) (*AcademicYear, error) {
	y, ok := m.years[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	clone := *y
	return &clone, nil
}

func (m *mockSchoolRepo) ListAcademicYears(ctx context.Context, schoolID *uuid.UUID, onlySchools []uuid.UUID) ([]AcademicYear, error) {
	var out []AcademicYear
	for _, y := range m.years {
		if schoolID != nil && y.SchoolID != *schoolID {
			continue
		}
		if onlySchools != nil && !containsID(onlySchools, y.SchoolID) {
			continue
		}
		out = append(out, *y)
	}
	return out, nil
}

func (m *mockSchoolRepo) UpdateAcademicYear(ctx context.Context, y AcademicYear) error {
	if _, ok := m.years[y.ID]; !ok {
		return httpx.ErrNotFound
	}
	stored := y
	m.years[y.ID] = &stored
	return nil
}

func (m *mockSchoolRepo) DeleteAcademicYear(ctx context.Context, id uuid.UUID) error {
	delete(m.years, id)
	return nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

type mockLinker struct {
	linked map[uuid.UUID]uuid.UUID
}

func (m *mockLinker) LinkSchool(ctx context.Context, userID, schoolID uuid.UUID) error {
	if m.linked == nil {
		m.linked = make(map[uuid.UUID]uuid.UUID)
	}
	m.linked[userID] = schoolID
	return nil
}

type stubDirectory struct {
	linked map[uuid.UUID]uuid.UUID
}

func (s *stubDirectory) StudentIDByUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	return uuid.Nil, httpx.ErrNotFound
}

func (s *stubDirectory) ChildIDs(ctx context.Context, guardianUserID uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (s *stubDirectory) LinkedSchoolID(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	id, ok := s.linked[userID]
	return id, ok, nil
}

// rbacFixture wires an in-memory rbac service and scoper for school tests.
type rbacFixture struct {
	svc    *rbac.Service
	scoper *rbac.Scoper
	repo   *stubAssignments
	dir    *stubDirectory
}

type stubAssignments struct {
	assignments map[uuid.UUID][]struct {
		school uuid.UUID
		role   rbac.Role
	}
}

func (s *stubAssignments) add(userID, schoolID uuid.UUID, role rbac.Role) {
	if s.assignments == nil {
		s.assignments = make(map[uuid.UUID][]struct {
			school uuid.UUID
			role   rbac.Role
		})
	}
	s.assignments[userID] = append(s.assignments[userID], struct {
		school uuid.UUID
		role   rbac.Role
	}{schoolID, role})
}

func (s *stubAssignments) ListPermissions(ctx context.Context) ([]rbac.Permission, error) {
	return nil, nil
}

func (s *stubAssignments) PermissionsByCodes(ctx context.Context, codes []string) ([]rbac.Permission, error) {
	return nil, nil
}

func (s *stubAssignments) RoleGrantCodes(ctx context.Context, role rbac.Role) ([]string, error) {
	return nil, nil
}

func (s *stubAssignments) GrantCodesForRoles(ctx context.Context, roles []rbac.Role) ([]string, error) {
	return nil, nil
}

func (s *stubAssignments) ReplaceRoleGrants(ctx context.Context, role rbac.Role, ids []uuid.UUID) error {
	return nil
}

func (s *stubAssignments) DistinctRoles(ctx context.Context, userID uuid.UUID) ([]rbac.Role, error) {
	seen := make(map[rbac.Role]struct{})
	var out []rbac.Role
	for _, a := range s.assignments[userID] {
		if _, ok := seen[a.role]; ok {
			continue
		}
		seen[a.role] = struct{}{}
		out = append(out, a.role)
	}
	return out, nil
}

func (s *stubAssignments) HasRole(ctx context.Context, userID uuid.UUID, role rbac.Role) (bool, error) {
	for _, a := range s.assignments[userID] {
		if a.role == role {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubAssignments) HasRoleInSchool(ctx context.Context, userID, schoolID uuid.UUID, roles []rbac.Role) (bool, error) {
	for _, a := range s.assignments[userID] {
		if a.school != schoolID {
			continue
		}
		for _, role := range roles {
			if a.role == role {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *stubAssignments) EnsureAssignment(ctx context.Context, userID, schoolID uuid.UUID, role rbac.Role) (bool, error) {
	for _, a := range s.assignments[userID] {
		if a.school == schoolID && a.role == role {
			return false, nil
		}
	}
	s.add(userID, schoolID, role)
	return true, nil
}

func (s *stubAssignments) RemoveAssignment(ctx context.Context, id uuid.UUID) error { return nil }

func (s *stubAssignments) ListAssignments(ctx context.Context, filter rbac.AssignmentFilter) ([]rbac.Assignment, error) {
	return nil, nil
}

func (s *stubAssignments) SchoolsWithRoles(ctx context.Context, userID uuid.UUID, roles []rbac.Role) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, a := range s.assignments[userID] {
		for _, role := range roles {
			if a.role != role {
				continue
			}
			if _, ok := seen[a.school]; ok {
				continue
			}
			seen[a.school] = struct{}{}
			out = append(out, a.school)
		}
	}
	return out, nil
}

func (s *stubAssignments) AssignedSchools(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.SchoolsWithRoles(ctx, userID, rbac.AllRoles())
}

func newRBACFixture() *rbacFixture {
	repo := &stubAssignments{}
	dir := &stubDirectory{linked: make(map[uuid.UUID]uuid.UUID)}
	svc := rbac.NewService(repo, nil, nil)
	return &rbacFixture{svc: svc, scoper: rbac.NewScoper(svc, dir), repo: repo, dir: dir}
}

// ============================================================================
// TESTS
// ============================================================================

func TestCreateSchoolSelfAssignsSuperadmin(t *testing.T) {
	repo := newMockSchoolRepo()
	fx := newRBACFixture()
	linker := &mockLinker{}
	svc := NewService(repo, fx.svc, fx.scoper, linker, nil)
	ctx := context.Background()

	creator := uuid.New()
	existingSchool := uuid.New()
	fx.repo.add(creator, existingSchool, rbac.RoleSuperAdmin)

	school, err := svc.Create(ctx, shared.Identity{ID: creator}, School{Name: "Lyceum 2"})
	require.NoError(t, err)
	require.NotNil(t, school)
	assert.Len(t, school.ConnectionCode, 6)

	ok, err := fx.svc.HasRole(ctx, creator, rbac.RoleSuperAdmin)
	require.NoError(t, err)
	assert.True(t, ok)

	held, err := fx.repo.HasRoleInSchool(ctx, creator, school.ID, []rbac.Role{rbac.RoleSuperAdmin})
	require.NoError(t, err)
	assert.True(t, held)
	assert.Equal(t, school.ID, linker.linked[creator])
}

func TestCreateSchoolPlainUserGetsNoRole(t *testing.T) {
	repo := newMockSchoolRepo()
	fx := newRBACFixture()
	linker := &mockLinker{}
	svc := NewService(repo, fx.svc, fx.scoper, linker, nil)

	creator := uuid.New()
	school, err := svc.Create(context.Background(), shared.Identity{ID: creator}, School{Name: "Gymnasium 5"})
	require.NoError(t, err)
	assert.Empty(t, fx.repo.assignments[creator])
	assert.NotContains(t, linker.linked, creator)
	assert.NotNil(t, school)
}

func TestCreateSchoolRetriesCodeCollision(t *testing.T) {
	repo := newMockSchoolRepo()
	repo.codeCollisions = 3
	fx := newRBACFixture()
	svc := NewService(repo, fx.svc, fx.scoper, nil, nil)

	school, err := svc.Create(context.Background(), shared.Identity{ID: uuid.New()}, School{Name: "School 12"})
	require.NoError(t, err)
	assert.Len(t, school.ConnectionCode, 6)
}

func TestListScopedToMemberSchools(t *testing.T) {
	repo := newMockSchoolRepo()
	fx := newRBACFixture()
	svc := NewService(repo, fx.svc, fx.scoper, nil, nil)
	ctx := context.Background()

	mine := uuid.New()
	other := uuid.New()
	repo.schools[mine] = &School{ID: mine, Name: "Mine"}
	repo.schools[other] = &School{ID: other, Name: "Other"}

	userID := uuid.New()
	fx.repo.add(userID, mine, rbac.RoleTeacher)

	list, err := svc.List(ctx, shared.Identity{ID: userID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine, list[0].ID)
}

func TestListEmptyForUnaffiliatedUser(t *testing.T) {
	repo := newMockSchoolRepo()
	repo.schools[uuid.New()] = &School{ID: uuid.New(), Name: "Any"}
	fx := newRBACFixture()
	svc := NewService(repo, fx.svc, fx.scoper, nil, nil)

	list, err := svc.List(context.Background(), shared.Identity{ID: uuid.New()})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListAllForSuperuser(t *testing.T) {
	repo := newMockSchoolRepo()
	a, b := uuid.New(), uuid.New()
	repo.schools[a] = &School{ID: a}
	repo.schools[b] = &School{ID: b}
	fx := newRBACFixture()
	svc := NewService(repo, fx.svc, fx.scoper, nil, nil)

	list, err := svc.List(context.Background(), shared.Identity{ID: uuid.New(), IsSuperuser: true})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestDuplicateAcademicYearConflicts(t *testing.T) {
	repo := newMockSchoolRepo()
	fx := newRBACFixture()
	svc := NewService(repo, fx.svc, fx.scoper, nil, nil)
	ctx := context.Background()

	schoolID := uuid.New()
	_, err := svc.CreateAcademicYear(ctx, AcademicYear{SchoolID: schoolID, Name: "2024-2025"})
	require.NoError(t, err)

	_, err = svc.CreateAcademicYear(ctx, AcademicYear{SchoolID: schoolID, Name: "2024-2025"})
	assert.ErrorIs(t, err, httpx.ErrConflict)
}
