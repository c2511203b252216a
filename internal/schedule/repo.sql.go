package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mektep/mektep/internal/platform/httpx"
)

// Repository implements schedule persistence over PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const courseColumns = `id, school_id, name, subject_id, teacher_id, class_group_id, academic_year_id, is_optional, rules, created_at, updated_at`

func (r *Repository) CreateCourse(ctx context.Context, c Course) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO courses (id, school_id, name, subject_id, teacher_id, class_group_id, academic_year_id, is_optional, rules)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.SchoolID, c.Name, c.SubjectID, c.TeacherID, c.ClassGroupID, c.AcademicYearID, c.IsOptional, c.Rules,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return httpx.FieldErrors{"course": "unknown subject, teacher, class group or academic year"}
		}
		return fmt.Errorf("schedule: create course: %w", err)
	}
	return nil
}

func (r *Repository) GetCourse(ctx context.Context, id uuid.UUID) (*Course, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id)
	c, err := scanCourse(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("schedule: get course: %w", err)
	}
	return c, nil
}

func (r *Repository) ListCourses(ctx context.Context, filter CourseFilter) ([]Course, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+courseColumns+`
		FROM courses
		WHERE ($1::uuid IS NULL OR school_id = $1)
		  AND ($2::uuid IS NULL OR teacher_id = $2)
		  AND ($3::uuid IS NULL OR class_group_id = $3)
		ORDER BY name`,
		filter.SchoolID, filter.TeacherID, filter.ClassGroupID,
	)
	if err != nil {
		return nil, fmt.Errorf("schedule: list courses: %w", err)
	}
	defer rows.Close()
	var out []Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("schedule: scan course: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("schedule: delete course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *Repository) CreateSlot(ctx context.Context, s Slot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO schedule_slots (id, course_id, day_of_week, start_time, end_time, classroom)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.CourseID, s.DayOfWeek, s.StartTime, s.EndTime, s.Classroom,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return httpx.FieldErrors{"course_id": "unknown course"}
		}
		return fmt.Errorf("schedule: create slot: %w", err)
	}
	return nil
}

func (r *Repository) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM schedule_slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("schedule: delete slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// SlotsBySchool loads every slot of a school's courses together with the
// course teacher, the unit the conflict scan works on.
func (r *Repository) SlotsBySchool(ctx context.Context, schoolID uuid.UUID) ([]SlotWithTeacher, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.course_id, s.day_of_week, s.start_time, s.end_time, s.classroom, s.created_at, c.teacher_id
		FROM schedule_slots s
		JOIN courses c ON c.id = s.course_id
		WHERE c.school_id = $1
		ORDER BY s.day_of_week, s.start_time`,
		schoolID,
	)
	if err != nil {
		return nil, fmt.Errorf("schedule: slots by school: %w", err)
	}
	defer rows.Close()
	var out []SlotWithTeacher
	for rows.Next() {
		var s SlotWithTeacher
		if err := rows.Scan(&s.ID, &s.CourseID, &s.DayOfWeek, &s.StartTime, &s.EndTime, &s.Classroom, &s.CreatedAt, &s.TeacherID); err != nil {
			return nil, fmt.Errorf("schedule: scan slot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) ListSlots(ctx context.Context, courseID uuid.UUID) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, course_id, day_of_week, start_time, end_time, classroom, created_at
		FROM schedule_slots
		WHERE course_id = $1
		ORDER BY day_of_week, start_time`,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("schedule: list slots: %w", err)
	}
	defer rows.Close()
	var out []Slot
	for rows.Next() {
		var s Slot
		if err := rows.Scan(&s.ID, &s.CourseID, &s.DayOfWeek, &s.StartTime, &s.EndTime, &s.Classroom, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("schedule: scan slot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const lessonColumns = `id, course_id, date, start_time, end_time, classroom, teacher_id, attendance_open, notes, created_at, updated_at`

func (r *Repository) CreateLesson(ctx context.Context, l Lesson) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lessons (id, course_id, date, start_time, end_time, classroom, teacher_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.ID, l.CourseID, l.Date, l.StartTime, l.EndTime, l.Classroom, l.TeacherID, l.Notes,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return httpx.FieldErrors{"course_id": "unknown course or teacher"}
		}
		return fmt.Errorf("schedule: create lesson: %w", err)
	}
	return nil
}

func (r *Repository) GetLesson(ctx context.Context, id uuid.UUID) (*Lesson, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id)
	l, err := scanLesson(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("schedule: get lesson: %w", err)
	}
	return l, nil
}

func (r *Repository) ListLessons(ctx context.Context, filter LessonFilter) ([]Lesson, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+lessonColumns+`
		FROM lessons
		WHERE ($1::uuid IS NULL OR course_id = $1)
		  AND ($2::uuid IS NULL OR teacher_id = $2)
		  AND ($3::date IS NULL OR date >= $3)
		  AND ($4::date IS NULL OR date <= $4)
		ORDER BY date, start_time
		LIMIT $5 OFFSET $6`,
		filter.CourseID, filter.TeacherID, filter.From, filter.To, limit, filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("schedule: list lessons: %w", err)
	}
	defer rows.Close()
	var out []Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("schedule: scan lesson: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// SetAttendanceOpen flips the attendance flag of a lesson.
func (r *Repository) SetAttendanceOpen(ctx context.Context, id uuid.UUID, open bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lessons SET attendance_open = $2, updated_at = NOW() WHERE id = $1`,
		id, open,
	)
	if err != nil {
		return fmt.Errorf("schedule: set attendance open: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanCourse(row pgx.Row) (*Course, error) {
	var c Course
	err := row.Scan(&c.ID, &c.SchoolID, &c.Name, &c.SubjectID, &c.TeacherID, &c.ClassGroupID,
		&c.AcademicYearID, &c.IsOptional, &c.Rules, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanLesson(row pgx.Row) (*Lesson, error) {
	var l Lesson
	err := row.Scan(&l.ID, &l.CourseID, &l.Date, &l.StartTime, &l.EndTime, &l.Classroom,
		&l.TeacherID, &l.AttendanceOpen, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
