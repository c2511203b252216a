package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mektep/mektep/internal/platform/httpx"
	"github.com/mektep/mektep/internal/shared"
)

type mockScheduleRepo struct {
	courses map[uuid.UUID]*Course
	slots   map[uuid.UUID]*SlotWithTeacher
	lessons map[uuid.UUID]*Lesson
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{
		courses: make(map[uuid.UUID]*Course),
		slots:   make(map[uuid.UUID]*SlotWithTeacher),
		lessons: make(map[uuid.UUID]*Lesson),
	}
}

func (m *mockScheduleRepo) CreateCourse(ctx context.Context, c Course) error {
	c.CreatedAt = time.Now()
	stored := c
	m.courses[c.ID] = &stored
	return nil
}

func (m *mockScheduleRepo) GetCourse(ctx context.Context, id uuid.UUID) (*Course, error) {
	c, ok := m.courses[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (m *mockScheduleRepo) ListCourses(ctx context.Context, filter CourseFilter) ([]Course, error) {
	var out []Course
	for _, c := range m.courses {
		if filter.SchoolID != nil && c.SchoolID != *filter.SchoolID {
			continue
		}
		if filter.TeacherID != nil && c.TeacherID != *filter.TeacherID {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockScheduleRepo) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.courses[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.courses, id)
	return nil
}

func (m *mockScheduleRepo) CreateSlot(ctx context.Context, s Slot) error {
	teacherID := uuid.Nil
	if c, ok := m.courses[s.CourseID]; ok {
		teacherID = c.TeacherID
	}
	m.slots[s.ID] = &SlotWithTeacher{Slot: s, TeacherID: teacherID}
	return nil
}

func (m *mockScheduleRepo) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.slots[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(m.slots, id)
	return nil
}

func (m *mockScheduleRepo) ListSlots(ctx context.Context, courseID uuid.UUID) ([]Slot, error) {
	var out []Slot
	for _, s := range m.slots {
		if s.CourseID == courseID {
			out = append(out, s.Slot)
		}
	}
	return out, nil
}

func (m *mockScheduleRepo) SlotsBySchool(ctx context.Context, schoolID uuid.UUID) ([]SlotWithTeacher, error) {
	var out []SlotWithTeacher
	for _, s := range m.slots {
		course, ok := m.courses[s.CourseID]
		if !ok || course.SchoolID != schoolID {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockScheduleRepo) CreateLesson(ctx context.Context, l Lesson) error {
	stored := l
	m.lessons[l.ID] = &stored
	return nil
}

func (m *mockScheduleRepo) GetLesson(ctx context.Context, id uuid.UUID) (*Lesson, error) {
	l, ok := m.lessons[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	clone := *l
	return &clone, nil
}

func (m *mockScheduleRepo) ListLessons(ctx context.Context, filter LessonFilter) ([]Lesson, error) {
	var out []Lesson
	for _, l := range m.lessons {
		if filter.CourseID != nil && l.CourseID != *filter.CourseID {
			continue
		}
		if filter.TeacherID != nil && l.TeacherID != *filter.TeacherID {
			continue
		}
		if filter.From != nil && l.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && l.Date.After(filter.To.AddDate(0, 0, 1)) {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

func (m *mockScheduleRepo) SetAttendanceOpen(ctx context.Context, id uuid.UUID, open bool) error {
	l, ok := m.lessons[id]
	if !ok {
		return httpx.ErrNotFound
	}
	l.AttendanceOpen = open
	return nil
}

type staticStaffDirectory struct {
	byUser map[uuid.UUID]uuid.UUID
}

func (d staticStaffDirectory) MemberIDByUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, ok := d.byUser[userID]
	if !ok {
		return uuid.Nil, httpx.ErrNotFound
	}
	return id, nil
}

func newTestService() (*Service, *mockScheduleRepo, staticStaffDirectory) {
	repo := newMockScheduleRepo()
	dir := staticStaffDirectory{byUser: make(map[uuid.UUID]uuid.UUID)}
	return NewService(repo, dir), repo, dir
}

func (m *mockScheduleRepo) seedCourse(schoolID, teacherID uuid.UUID) *Course {
	c := &Course{ID: uuid.New(), SchoolID: schoolID, TeacherID: teacherID, Name: "Algebra"}
	m.courses[c.ID] = c
	return c
}

func TestAddSlotRejectsBadDay(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	course := repo.seedCourse(uuid.New(), uuid.New())

	_, err := svc.AddSlot(ctx, Slot{CourseID: course.ID, DayOfWeek: 7, StartTime: "09:00", EndTime: "09:45"})
	require.Error(t, err)
	var fields httpx.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "day_of_week")
}

func TestAddSlotRejectsInvertedTimes(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	course := repo.seedCourse(uuid.New(), uuid.New())

	_, err := svc.AddSlot(ctx, Slot{CourseID: course.ID, DayOfWeek: 1, StartTime: "10:00", EndTime: "09:00"})
	require.Error(t, err)
	var fields httpx.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "end_time")
}

func TestSlotConflictsFindsTeacherOverlap(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	schoolID := uuid.New()
	teacherID := uuid.New()

	a := repo.seedCourse(schoolID, teacherID)
	b := repo.seedCourse(schoolID, teacherID)

	_, err := svc.AddSlot(ctx, Slot{CourseID: a.ID, DayOfWeek: 1, StartTime: "09:00", EndTime: "09:45", Classroom: "101"})
	require.NoError(t, err)
	_, err = svc.AddSlot(ctx, Slot{CourseID: b.ID, DayOfWeek: 1, StartTime: "09:30", EndTime: "10:15", Classroom: "202"})
	require.NoError(t, err)

	conflicts, err := svc.SlotConflicts(ctx, schoolID)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, ConflictTeacher, conflicts[0].Kind)
}

func TestSlotConflictsFindsClassroomOverlap(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	schoolID := uuid.New()

	a := repo.seedCourse(schoolID, uuid.New())
	b := repo.seedCourse(schoolID, uuid.New())

	_, err := svc.AddSlot(ctx, Slot{CourseID: a.ID, DayOfWeek: 2, StartTime: "11:00", EndTime: "11:45", Classroom: "101"})
	require.NoError(t, err)
	_, err = svc.AddSlot(ctx, Slot{CourseID: b.ID, DayOfWeek: 2, StartTime: "11:30", EndTime: "12:15", Classroom: "101"})
	require.NoError(t, err)

	conflicts, err := svc.SlotConflicts(ctx, schoolID)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, ConflictClassroom, conflicts[0].Kind)
}

func TestSlotConflictsIgnoresDifferentDays(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	schoolID := uuid.New()
	teacherID := uuid.New()

	a := repo.seedCourse(schoolID, teacherID)
	b := repo.seedCourse(schoolID, teacherID)

	_, err := svc.AddSlot(ctx, Slot{CourseID: a.ID, DayOfWeek: 1, StartTime: "09:00", EndTime: "09:45"})
	require.NoError(t, err)
	_, err = svc.AddSlot(ctx, Slot{CourseID: b.ID, DayOfWeek: 2, StartTime: "09:00", EndTime: "09:45"})
	require.NoError(t, err)

	conflicts, err := svc.SlotConflicts(ctx, schoolID)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestSlotConflictsIgnoresBackToBack(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	schoolID := uuid.New()
	teacherID := uuid.New()

	a := repo.seedCourse(schoolID, teacherID)
	b := repo.seedCourse(schoolID, teacherID)

	_, err := svc.AddSlot(ctx, Slot{CourseID: a.ID, DayOfWeek: 1, StartTime: "09:00", EndTime: "09:45"})
	require.NoError(t, err)
	_, err = svc.AddSlot(ctx, Slot{CourseID: b.ID, DayOfWeek: 1, StartTime: "09:45", EndTime: "10:30"})
	require.NoError(t, err)

	conflicts, err := svc.SlotConflicts(ctx, schoolID)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestCreateLessonDefaultsTeacherFromCourse(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	teacherID := uuid.New()
	course := repo.seedCourse(uuid.New(), teacherID)

	lesson, err := svc.CreateLesson(ctx, Lesson{
		CourseID:  course.ID,
		Date:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime: "09:00",
		EndTime:   "09:45",
	})
	require.NoError(t, err)
	assert.Equal(t, teacherID, lesson.TeacherID)
}

func TestCreateLessonUnknownCourseRejected(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateLesson(ctx, Lesson{
		CourseID:  uuid.New(),
		Date:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime: "09:00",
		EndTime:   "09:45",
	})
	require.Error(t, err)
	var fields httpx.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "course_id")
}

func TestOpenAndCloseAttendance(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	course := repo.seedCourse(uuid.New(), uuid.New())

	lesson, err := svc.CreateLesson(ctx, Lesson{
		CourseID:  course.ID,
		Date:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime: "09:00",
		EndTime:   "09:45",
	})
	require.NoError(t, err)

	opened, err := svc.SetAttendanceOpen(ctx, lesson.ID, true)
	require.NoError(t, err)
	assert.True(t, opened.AttendanceOpen)

	closed, err := svc.SetAttendanceOpen(ctx, lesson.ID, false)
	require.NoError(t, err)
	assert.False(t, closed.AttendanceOpen)

	_, err = svc.SetAttendanceOpen(ctx, uuid.New(), true)
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestMyLessonsFailsClosedWithoutProfile(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	course := repo.seedCourse(uuid.New(), uuid.New())

	_, err := svc.CreateLesson(ctx, Lesson{
		CourseID:  course.ID,
		Date:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime: "09:00",
		EndTime:   "09:45",
	})
	require.NoError(t, err)

	lessons, err := svc.MyLessons(ctx, shared.Identity{ID: uuid.New()}, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, lessons)
}

func TestMyLessonsReturnsOwnTeachingOnly(t *testing.T) {
	svc, repo, dir := newTestService()
	ctx := context.Background()
	userID := uuid.New()
	staffID := uuid.New()
	dir.byUser[userID] = staffID

	mine := repo.seedCourse(uuid.New(), staffID)
	other := repo.seedCourse(uuid.New(), uuid.New())

	for _, c := range []*Course{mine, other} {
		_, err := svc.CreateLesson(ctx, Lesson{
			CourseID:  c.ID,
			Date:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			StartTime: "09:00",
			EndTime:   "09:45",
		})
		require.NoError(t, err)
	}

	lessons, err := svc.MyLessons(ctx, shared.Identity{ID: userID}, nil, nil)
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, mine.ID, lessons[0].CourseID)
}

func TestWeekRange(t *testing.T) {
	start, end, err := WeekRange("2026-W10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, time.Monday, start.Weekday())

	_, _, err = WeekRange("next week")
	require.Error(t, err)
	var fields httpx.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "week")
}
