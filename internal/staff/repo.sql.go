package staff

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

// Repository implements staff persistence over PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const memberColumns = `id, user_id, school_id, position, employment_date, load_limit_hours, created_at, updated_at`

// CreateMember inserts an employment record. One profile per user; the
// unique index on user_id makes a second hire surface as a conflict.
func (r *Repository) CreateMember(ctx context.Context, m Member) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO staff (id, user_id, school_id, position, employment_date, load_limit_hours)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.UserID, m.SchoolID, m.Position, m.EmploymentDate, m.LoadLimitHours,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return httpx.ErrConflict
		}
		return fmt.Errorf("staff: create member: %w", err)
	}
	return nil
}

func (r *Repository) GetMember(ctx context.Context, id uuid.UUID) (*Member, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM staff WHERE id = $1`, id)
	m, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("staff: get member: %w", err)
	}
	return m, nil
}

// MemberIDByUser resolves a user to their staff profile.
func (r *Repository) MemberIDByUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id FROM staff WHERE user_id = $1`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, httpx.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("staff: member by user: %w", err)
	}
	return id, nil
}

func (r *Repository) ListMembers(ctx context.Context, filter MemberFilter) ([]Member, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+memberColumns+`
		FROM staff
		WHERE ($1::uuid IS NULL OR school_id = $1)
		  AND ($2::text IS NULL OR position = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		filter.SchoolID, filter.Position, limit, filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("staff: list members: %w", err)
	}
	defer rows.Close()
	var out []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("staff: scan member: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateMember(ctx context.Context, m Member) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE staff
		SET position = $2, employment_date = $3, load_limit_hours = $4, updated_at = NOW()
		WHERE id = $1`,
		m.ID, m.Position, m.EmploymentDate, m.LoadLimitHours,
	)
	if err != nil {
		return fmt.Errorf("staff: update member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// CreateSubject inserts a subject. Codes are unique per school.
func (r *Repository) CreateSubject(ctx context.Context, s Subject) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO subjects (id, school_id, name, code, description, default_credits)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.SchoolID, s.Name, s.Code, s.Description, s.DefaultCredits,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return httpx.FieldErrors{"code": "already used in this school"}
		}
		return fmt.Errorf("staff: create subject: %w", err)
	}
	return nil
}

func (r *Repository) ListSubjects(ctx context.Context, schoolID uuid.UUID) ([]Subject, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, school_id, name, code, description, default_credits, created_at
		FROM subjects
		WHERE school_id = $1
		ORDER BY name`,
		schoolID,
	)
	if err != nil {
		return nil, fmt.Errorf("staff: list subjects: %w", err)
	}
	defer rows.Close()
	var out []Subject
	for rows.Next() {
		var s Subject
		if err := rows.Scan(&s.ID, &s.SchoolID, &s.Name, &s.Code, &s.Description, &s.DefaultCredits, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("staff: scan subject: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AssignSubject links a member to a subject, once per pair.
func (r *Repository) AssignSubject(ctx context.Context, a SubjectAssignment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO staff_subjects (id, staff_id, subject_id)
		VALUES ($1, $2, $3)`,
		a.ID, a.StaffID, a.SubjectID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return httpx.ErrConflict
			case "23503":
				return httpx.FieldErrors{"subject_id": "unknown staff member or subject"}
			}
		}
		return fmt.Errorf("staff: assign subject: %w", err)
	}
	return nil
}

func (r *Repository) SubjectsForMember(ctx context.Context, staffID uuid.UUID) ([]Subject, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.school_id, s.name, s.code, s.description, s.default_credits, s.created_at
		FROM subjects s
		JOIN staff_subjects ss ON ss.subject_id = s.id
		WHERE ss.staff_id = $1
		ORDER BY s.name`,
		staffID,
	)
	if err != nil {
		return nil, fmt.Errorf("staff: subjects for member: %w", err)
	}
	defer rows.Close()
	var out []Subject
	for rows.Next() {
		var s Subject
		if err := rows.Scan(&s.ID, &s.SchoolID, &s.Name, &s.Code, &s.Description, &s.DefaultCredits, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("staff: scan subject: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanMember(row pgx.Row) (*Member, error) {
	var (
		m        Member
		position string
	)
	err := row.Scan(&m.ID, &m.UserID, &m.SchoolID, &position, &m.EmploymentDate, &m.LoadLimitHours, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Position = Position(position)
	return &m, nil
}
