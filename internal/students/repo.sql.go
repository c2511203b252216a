package students

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

// Repository provides PostgreSQL backed persistence for student records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const studentColumns = `st.id, st.user_id, st.school_id, st.student_number, st.class_group_id,
	st.enrollment_date, st.graduation_date, st.birth_date, st.gender,
	TRIM(CONCAT(u.first_name, ' ', u.middle_name, ' ', u.last_name)), st.created_at`

const studentFrom = ` FROM students st JOIN users u ON u.id = st.user_id `

func scanStudent(row pgx.Row) (*Student, error) {
	var s Student
	err := row.Scan(&s.ID, &s.UserID, &s.SchoolID, &s.StudentNumber, &s.ClassGroupID,
		&s.EnrollmentDate, &s.GraduationDate, &s.BirthDate, &s.Gender, &s.FullName, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Create inserts a student profile.
func (r *Repository) Create(ctx context.Context, s Student) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO students (id, user_id, school_id, student_number, class_group_id,
		                      enrollment_date, graduation_date, birth_date, gender, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`,
		s.ID, s.UserID, s.SchoolID, s.StudentNumber, s.ClassGroupID,
		s.EnrollmentDate, s.GraduationDate, s.BirthDate, s.Gender)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return httpx.ErrConflict
		}
		return fmt.Errorf("students: create: %w", err)
	}
	return nil
}

// Get fetches one student.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Student, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+studentColumns+studentFrom+`WHERE st.id = $1`, id)
	s, err := scanStudent(row)
	if err != nil && !errors.Is(err, httpx.ErrNotFound) {
		return nil, fmt.Errorf("students: get: %w", err)
	}
	return s, err
}

// List returns students in a school, optionally narrowed to specific IDs by
// the query scoper and to a class group by the caller.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Student, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+studentColumns+studentFrom+`
		WHERE ($1::uuid IS NULL OR st.school_id = $1)
		  AND ($2::uuid[] IS NULL OR st.id = ANY($2))
		  AND ($3::uuid IS NULL OR st.class_group_id = $3)
		ORDER BY u.last_name, u.first_name
		LIMIT $4 OFFSET $5`,
		filter.SchoolID, filter.OnlyIDs, filter.ClassGroupID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("students: list: %w", err)
	}
	defer rows.Close()
	var out []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.UserID, &s.SchoolID, &s.StudentNumber, &s.ClassGroupID,
			&s.EnrollmentDate, &s.GraduationDate, &s.BirthDate, &s.Gender, &s.FullName, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// StudentIDByUser resolves the student profile owned by a user account.
func (r *Repository) StudentIDByUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id FROM students WHERE user_id = $1`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, httpx.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("students: student by user: %w", err)
	}
	return id, nil
}

// ChildIDs returns the student IDs linked to a guardian user.
func (r *Repository) ChildIDs(ctx context.Context, guardianUserID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT student_id FROM student_parents WHERE parent_id = $1`, guardianUserID)
	if err != nil {
		return nil, fmt.Errorf("students: child ids: %w", err)
	}
	defer rows.Close()
	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// LinkGuardian ties a guardian user to a student. (student, guardian) unique.
func (r *Repository) LinkGuardian(ctx context.Context, link GuardianLink) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO student_parents (id, student_id, parent_id, relationship, created_at)
		VALUES ($1, $2, $3, $4, NOW())`,
		link.ID, link.StudentID, link.GuardianID, link.Relationship)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return httpx.ErrConflict
		}
		return fmt.Errorf("students: link guardian: %w", err)
	}
	return nil
}

// UnlinkGuardian removes a guardian link.
func (r *Repository) UnlinkGuardian(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM student_parents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("students: unlink guardian: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Guardians lists guardian links for a student.
func (r *Repository) Guardians(ctx context.Context, studentID uuid.UUID) ([]GuardianLink, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, student_id, parent_id, relationship, created_at
		FROM student_parents WHERE student_id = $1`, studentID)
	if err != nil {
		return nil, fmt.Errorf("students: guardians: %w", err)
	}
	defer rows.Close()
	var out []GuardianLink
	for rows.Next() {
		var l GuardianLink
		if err := rows.Scan(&l.ID, &l.StudentID, &l.GuardianID, &l.Relationship, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// CreateClassGroup inserts a class group. (school, name, academic year) unique.
func (r *Repository) CreateClassGroup(ctx context.Context, g ClassGroup) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO class_groups (id, school_id, name, grade_level, academic_year_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`,
		g.ID, g.SchoolID, g.Name, g.GradeLevel, g.AcademicYearID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return httpx.ErrConflict
		}
		return fmt.Errorf("students: create class group: %w", err)
	}
	return nil
}

// ListClassGroups returns class groups for a school.
func (r *Repository) ListClassGroups(ctx context.Context, schoolID uuid.UUID) ([]ClassGroup, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, school_id, name, grade_level, academic_year_id, created_at
		FROM class_groups WHERE school_id = $1
		ORDER BY grade_level, name`, schoolID)
	if err != nil {
		return nil, fmt.Errorf("students: list class groups: %w", err)
	}
	defer rows.Close()
	var out []ClassGroup
	for rows.Next() {
		var g ClassGroup
		if err := rows.Scan(&g.ID, &g.SchoolID, &g.Name, &g.GradeLevel, &g.AcademicYearID, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
