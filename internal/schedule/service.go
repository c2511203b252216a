package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mektep/mektep/internal/platform/httpx"
	"github.com/mektep/mektep/internal/shared"
)

// CourseFilter narrows course listings.
type CourseFilter struct {
	SchoolID     *uuid.UUID
	TeacherID    *uuid.UUID
	ClassGroupID *uuid.UUID
}

// LessonFilter narrows lesson listings.
type LessonFilter struct {
	CourseID  *uuid.UUID
	TeacherID *uuid.UUID
	From      *time.Time
	To        *time.Time
	Limit     int32
	Offset    int32
}

// SlotWithTeacher is a slot joined with its course's teacher, the unit the
// conflict scan compares.
type SlotWithTeacher struct {
	Slot
	TeacherID uuid.UUID
}

// RepositoryPort defines data access methods for the schedule.
type RepositoryPort interface {
	CreateCourse(ctx context.Context, c Course) error
	GetCourse(ctx context.Context, id uuid.UUID) (*Course, error)
	ListCourses(ctx context.Context, filter CourseFilter) ([]Course, error)
	DeleteCourse(ctx context.Context, id uuid.UUID) error
	CreateSlot(ctx context.Context, s Slot) error
	DeleteSlot(ctx context.Context, id uuid.UUID) error
	ListSlots(ctx context.Context, courseID uuid.UUID) ([]Slot, error)
	SlotsBySchool(ctx context.Context, schoolID uuid.UUID) ([]SlotWithTeacher, error)
	CreateLesson(ctx context.Context, l Lesson) error
	GetLesson(ctx context.Context, id uuid.UUID) (*Lesson, error)
	ListLessons(ctx context.Context, filter LessonFilter) ([]Lesson, error)
	SetAttendanceOpen(ctx context.Context, id uuid.UUID, open bool) error
}

// StaffDirectory resolves a user to their staff profile. Implemented by the
// staff repository.
type StaffDirectory interface {
	MemberIDByUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

// Service handles schedule business logic.
type Service struct {
	repo  RepositoryPort
	staff StaffDirectory
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, staff StaffDirectory) *Service {
	return &Service{repo: repo, staff: staff}
}

const timeLayout = "15:04"

// CreateCourse registers a course.
func (s *Service) CreateCourse(ctx context.Context, c Course) (*Course, error) {
	c.ID = uuid.New()
	if c.Rules == nil {
		c.Rules = map[string]any{}
	}
	if err := s.repo.CreateCourse(ctx, c); err != nil {
		return nil, err
	}
	return s.repo.GetCourse(ctx, c.ID)
}

// ListCourses returns courses matching the filter.
func (s *Service) ListCourses(ctx context.Context, filter CourseFilter) ([]Course, error) {
	return s.repo.ListCourses(ctx, filter)
}

// DeleteCourse removes a course and, via cascade, its slots and lessons.
func (s *Service) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteCourse(ctx, id)
}

// AddSlot places a weekly cell on the timetable.
func (s *Service) AddSlot(ctx context.Context, slot Slot) (*Slot, error) {
	if slot.DayOfWeek < 0 || slot.DayOfWeek > 6 {
		return nil, httpx.FieldErrors{"day_of_week": "must be between 0 (Monday) and 6 (Sunday)"}
	}
	if err := validateTimeRange(slot.StartTime, slot.EndTime); err != nil {
		return nil, err
	}
	slot.ID = uuid.New()
	if err := s.repo.CreateSlot(ctx, slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

// RemoveSlot deletes a weekly cell.
func (s *Service) RemoveSlot(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteSlot(ctx, id)
}

// Slots lists the weekly cells of a course.
func (s *Service) Slots(ctx context.Context, courseID uuid.UUID) ([]Slot, error) {
	return s.repo.ListSlots(ctx, courseID)
}

// SlotConflicts scans a school's timetable for overlapping cells that share
// a teacher or a classroom.
func (s *Service) SlotConflicts(ctx context.Context, schoolID uuid.UUID) ([]SlotConflict, error) {
	slots, err := s.repo.SlotsBySchool(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	var conflicts []SlotConflict
	for i := 0; i < len(slots); i++ {
		for j := i + 1; j < len(slots); j++ {
			a, b := slots[i], slots[j]
			if a.DayOfWeek != b.DayOfWeek {
				continue
			}
			if a.StartTime >= b.EndTime || a.EndTime <= b.StartTime {
				continue
			}
			switch {
			case a.TeacherID == b.TeacherID:
				conflicts = append(conflicts, SlotConflict{A: a.Slot, B: b.Slot, Kind: ConflictTeacher})
			case a.Classroom != "" && a.Classroom == b.Classroom:
				conflicts = append(conflicts, SlotConflict{A: a.Slot, B: b.Slot, Kind: ConflictClassroom})
			}
		}
	}
	return conflicts, nil
}

// CreateLesson registers a dated session. The teacher defaults to the
// course's teacher.
func (s *Service) CreateLesson(ctx context.Context, l Lesson) (*Lesson, error) {
	if l.Date.IsZero() {
		return nil, httpx.FieldErrors{"date": "is required"}
	}
	if err := validateTimeRange(l.StartTime, l.EndTime); err != nil {
		return nil, err
	}
	if l.TeacherID == uuid.Nil {
		course, err := s.repo.GetCourse(ctx, l.CourseID)
		if err != nil {
			if errors.Is(err, httpx.ErrNotFound) {
				return nil, httpx.FieldErrors{"course_id": "unknown course"}
			}
			return nil, err
		}
		l.TeacherID = course.TeacherID
	}
	l.ID = uuid.New()
	if err := s.repo.CreateLesson(ctx, l); err != nil {
		return nil, err
	}
	return s.repo.GetLesson(ctx, l.ID)
}

// ListLessons returns lessons matching the filter.
func (s *Service) ListLessons(ctx context.Context, filter LessonFilter) ([]Lesson, error) {
	return s.repo.ListLessons(ctx, filter)
}

// MyLessons returns the identity's own teaching schedule. Users without a
// staff profile get an empty schedule, not an error.
func (s *Service) MyLessons(ctx context.Context, ident shared.Identity, from, to *time.Time) ([]Lesson, error) {
	staffID, err := s.staff.MemberIDByUser(ctx, ident.ID)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return []Lesson{}, nil
		}
		return nil, err
	}
	return s.repo.ListLessons(ctx, LessonFilter{TeacherID: &staffID, From: from, To: to})
}

// SetAttendanceOpen opens or closes a lesson for attendance marking.
func (s *Service) SetAttendanceOpen(ctx context.Context, id uuid.UUID, open bool) (*Lesson, error) {
	if err := s.repo.SetAttendanceOpen(ctx, id, open); err != nil {
		return nil, err
	}
	return s.repo.GetLesson(ctx, id)
}

// WeekRange resolves an ISO "YYYY-Www" spec to its Monday and Sunday.
func WeekRange(raw string) (time.Time, time.Time, error) {
	var year, week int
	if _, err := fmt.Sscanf(raw, "%d-W%d", &year, &week); err != nil || week < 1 || week > 53 {
		return time.Time{}, time.Time{}, httpx.FieldErrors{"week": "must look like 2026-W09"}
	}
	// ISO 8601: week 1 is the week containing January 4th.
	jan4 := time.Date(year, 1, 4, 0, 0, 0, 0, time.UTC)
	monday := jan4.AddDate(0, 0, -((int(jan4.Weekday()) + 6) % 7))
	start := monday.AddDate(0, 0, (week-1)*7)
	return start, start.AddDate(0, 0, 6), nil
}

func validateTimeRange(start, end string) error {
	if _, err := time.Parse(timeLayout, start); err != nil {
		return httpx.FieldErrors{"start_time": "must be HH:MM"}
	}
	if _, err := time.Parse(timeLayout, end); err != nil {
		return httpx.FieldErrors{"end_time": "must be HH:MM"}
	}
	if start >= end {
		return httpx.FieldErrors{"end_time": "must be after start_time"}
	}
	return nil
}
