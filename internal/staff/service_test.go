package staff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mektep/mektep/internal/platform/httpx"
)

type mockStaffRepo struct {
	members     map[uuid.UUID]*Member
	subjects    map[uuid.UUID]*Subject
	assignments []SubjectAssignment
}

func newMockStaffRepo() *mockStaffRepo {
	return &mockStaffRepo{
		members:  make(map[uuid.UUID]*Member),
		subjects: make(map[uuid.UUID]*Subject),
	}
}

func (m *mockStaffRepo) CreateMember(ctx context.Context, member Member) error {
	for _, existing := range m.members {
		if existing.UserID == member.UserID {
			return httpx.ErrConflict
		}
	}
	member.CreatedAt = time.Now()
	stored := member
	m.members[member.ID] = &stored
	return nil
}

func (m *mockStaffRepo) GetMember(ctx context.Context, id uuid.UUID) (*Member, error) {
	member, ok := m.members[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	clone := *member
	return &clone, nil
}

func (m *mockStaffRepo) ListMembers(ctx context.Context, filter MemberFilter) ([]Member, error) {
	var out []Member
	for _, member := range m.members {
		if filter.SchoolID != nil && member.SchoolID != *filter.SchoolID {
			continue
		}
		if filter.Position != nil && string(member.Position) != *filter.Position {
			continue
		}
		out = append(out, *member)
	}
	return out, nil
}

func (m *mockStaffRepo) UpdateMember(ctx context.Context, member Member) error {
	existing, ok := m.members[member.ID]
	if !ok {
		return httpx.ErrNotFound
	}
	member.CreatedAt = existing.CreatedAt
	*existing = member
	return nil
}

func (m *mockStaffRepo) CreateSubject(ctx context.Context, s Subject) error {
	for _, existing := range m.subjects {
		if existing.SchoolID == s.SchoolID && existing.Code != "" && existing.Code == s.Code {
			return httpx.FieldErrors{"code": "already used in this school"}
		}
	}
	stored := s
	m.subjects[s.ID] = &stored
	return nil
}

func (m *mockStaffRepo) ListSubjects(ctx context.Context, schoolID uuid.UUID) ([]Subject, error) {
	var out []Subject
	for _, s := range m.subjects {
		if s.SchoolID == schoolID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockStaffRepo) AssignSubject(ctx context.Context, a SubjectAssignment) error {
	for _, existing := range m.assignments {
		if existing.StaffID == a.StaffID && existing.SubjectID == a.SubjectID {
			return httpx.ErrConflict
		}
	}
	m.assignments = append(m.assignments, a)
	return nil
}

func (m *mockStaffRepo) SubjectsForMember(ctx context.Context, staffID uuid.UUID) ([]Subject, error) {
	var out []Subject
	for _, a := range m.assignments {
		if a.StaffID != staffID {
			continue
		}
		if s, ok := m.subjects[a.SubjectID]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func TestHireDefaultsPositionAndDate(t *testing.T) {
	repo := newMockStaffRepo()
	svc := NewService(repo)
	ctx := context.Background()

	member, err := svc.Hire(ctx, Member{UserID: uuid.New(), SchoolID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, PositionTeacher, member.Position)
	assert.False(t, member.EmploymentDate.IsZero())
}

func TestHireRejectsUnknownPosition(t *testing.T) {
	svc := NewService(newMockStaffRepo())
	ctx := context.Background()

	_, err := svc.Hire(ctx, Member{UserID: uuid.New(), SchoolID: uuid.New(), Position: "janitor"})
	require.Error(t, err)
	var fields httpx.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "position")
}

func TestHireRejectsExcessiveLoad(t *testing.T) {
	svc := NewService(newMockStaffRepo())
	ctx := context.Background()

	_, err := svc.Hire(ctx, Member{UserID: uuid.New(), SchoolID: uuid.New(), LoadLimitHours: 41})
	require.Error(t, err)
	var fields httpx.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "load_limit_hours")
}

func TestHireSecondProfileConflicts(t *testing.T) {
	svc := NewService(newMockStaffRepo())
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Hire(ctx, Member{UserID: userID, SchoolID: uuid.New()})
	require.NoError(t, err)

	_, err = svc.Hire(ctx, Member{UserID: userID, SchoolID: uuid.New()})
	assert.True(t, errors.Is(err, httpx.ErrConflict))
}

func TestUpdateKeepsUnsetFields(t *testing.T) {
	repo := newMockStaffRepo()
	svc := NewService(repo)
	ctx := context.Background()
	hired := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	member, err := svc.Hire(ctx, Member{UserID: uuid.New(), SchoolID: uuid.New(), Position: PositionRegistrar, EmploymentDate: hired, LoadLimitHours: 20})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, member.ID, "", time.Time{}, 30)
	require.NoError(t, err)
	assert.Equal(t, PositionRegistrar, updated.Position)
	assert.True(t, updated.EmploymentDate.Equal(hired))
	assert.Equal(t, int32(30), updated.LoadLimitHours)
}

func TestAddSubjectDefaultsCredits(t *testing.T) {
	svc := NewService(newMockStaffRepo())
	ctx := context.Background()

	subject, err := svc.AddSubject(ctx, Subject{SchoolID: uuid.New(), Name: "Algebra"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), subject.DefaultCredits)
}

func TestAddSubjectDuplicateCodeRejected(t *testing.T) {
	svc := NewService(newMockStaffRepo())
	ctx := context.Background()
	schoolID := uuid.New()

	_, err := svc.AddSubject(ctx, Subject{SchoolID: schoolID, Name: "Algebra", Code: "MATH-1"})
	require.NoError(t, err)

	_, err = svc.AddSubject(ctx, Subject{SchoolID: schoolID, Name: "Geometry", Code: "MATH-1"})
	require.Error(t, err)
	var fields httpx.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "code")
}

func TestAssignSubjectOncePerPair(t *testing.T) {
	repo := newMockStaffRepo()
	svc := NewService(repo)
	ctx := context.Background()

	member, err := svc.Hire(ctx, Member{UserID: uuid.New(), SchoolID: uuid.New()})
	require.NoError(t, err)
	subject, err := svc.AddSubject(ctx, Subject{SchoolID: member.SchoolID, Name: "Physics"})
	require.NoError(t, err)

	require.NoError(t, svc.AssignSubject(ctx, member.ID, subject.ID))
	err = svc.AssignSubject(ctx, member.ID, subject.ID)
	assert.True(t, errors.Is(err, httpx.ErrConflict))

	taught, err := svc.SubjectsForMember(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, taught, 1)
	assert.Equal(t, "Physics", taught[0].Name)
}
