package attendance

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mektep/mektep/internal/platform/httpx"
)

// Repository implements attendance persistence over PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateMark inserts a mark. One mark per student, subject and lesson date;
// a duplicate surfaces as a conflict.
func (r *Repository) CreateMark(ctx context.Context, m Mark) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO attendance_marks (id, student_id, school_id, lesson_date, subject, status, marked_by, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.StudentID, m.SchoolID, m.LessonDate, m.Subject, m.Status, m.MarkedBy, m.Comment,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return httpx.ErrConflict
		}
		return fmt.Errorf("attendance: create mark: %w", err)
	}
	return nil
}

func (r *Repository) ListMarks(ctx context.Context, filter MarkFilter) ([]Mark, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, student_id, school_id, lesson_date, subject, status, marked_by, comment, created_at
		FROM attendance_marks
		WHERE ($1::uuid[] IS NULL OR student_id = ANY($1))
		  AND ($2::uuid IS NULL OR student_id = $2)
		  AND ($3::uuid IS NULL OR school_id = $3)
		  AND ($4::date IS NULL OR lesson_date >= $4)
		  AND ($5::date IS NULL OR lesson_date <= $5)
		ORDER BY lesson_date DESC, created_at DESC
		LIMIT $6 OFFSET $7`,
		filter.OnlyStudentIDs, filter.StudentID, filter.SchoolID, filter.From, filter.To, limit, filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("attendance: list marks: %w", err)
	}
	defer rows.Close()
	var out []Mark
	for rows.Next() {
		var m Mark
		if err := rows.Scan(&m.ID, &m.StudentID, &m.SchoolID, &m.LessonDate, &m.Subject, &m.Status, &m.MarkedBy, &m.Comment, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("attendance: scan mark: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
