package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements journal persistence over PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const gradeColumns = `id, student_id, teacher_id, school_id, subject, lesson_date, value, comment, created_at`

func (r *Repository) CreateGrade(ctx context.Context, g Grade) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO journal_grades (id, student_id, teacher_id, school_id, subject, lesson_date, value, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		g.ID, g.StudentID, g.TeacherID, g.SchoolID, g.Subject, g.LessonDate, g.Value, g.Comment,
	)
	if err != nil {
		return fmt.Errorf("journal: create grade: %w", err)
	}
	return nil
}

func (r *Repository) ListGrades(ctx context.Context, filter GradeFilter) ([]Grade, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+gradeColumns+`
		FROM journal_grades
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
		return nil, fmt.Errorf("journal: list grades: %w", err)
	}
	defer rows.Close()
	return scanGrades(rows)
}

func scanGrades(rows pgx.Rows) ([]Grade, error) {
	var out []Grade
	for rows.Next() {
		var g Grade
		if err := rows.Scan(&g.ID, &g.StudentID, &g.TeacherID, &g.SchoolID, &g.Subject, &g.LessonDate, &g.Value, &g.Comment, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("journal: scan grade: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repository) CreateFeedback(ctx context.Context, f Feedback) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO journal_feedback (id, student_id, teacher_id, text)
		VALUES ($1, $2, $3, $4)`,
		f.ID, f.StudentID, f.TeacherID, f.Text,
	)
	if err != nil {
		return fmt.Errorf("journal: create feedback: %w", err)
	}
	return nil
}

func (r *Repository) ListFeedback(ctx context.Context, studentID uuid.UUID, since time.Time) ([]Feedback, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, student_id, teacher_id, text, created_at
		FROM journal_feedback
		WHERE student_id = $1 AND created_at >= $2
		ORDER BY created_at DESC`,
		studentID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("journal: list feedback: %w", err)
	}
	defer rows.Close()
	var out []Feedback
	for rows.Next() {
		var f Feedback
		if err := rows.Scan(&f.ID, &f.StudentID, &f.TeacherID, &f.Text, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("journal: scan feedback: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
