package certificates

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

// Repository implements certificate persistence over PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const templateColumns = `id, school_id, name, body, is_active, created_at, updated_at`

func (r *Repository) CreateTemplate(ctx context.Context, t Template) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO certificate_templates (id, school_id, name, body, is_active)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.SchoolID, t.Name, t.Body, t.IsActive,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return httpx.FieldErrors{"name": "already used in this school"}
			case "23503":
				return httpx.FieldErrors{"school_id": "unknown school"}
			}
		}
		return fmt.Errorf("certificates: create template: %w", err)
	}
	return nil
}

func (r *Repository) GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM certificate_templates WHERE id = $1`, id)
	t, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("certificates: get template: %w", err)
	}
	return t, nil
}

func (r *Repository) ListTemplates(ctx context.Context, schoolID *uuid.UUID) ([]Template, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+templateColumns+`
		FROM certificate_templates
		WHERE ($1::uuid IS NULL OR school_id = $1)
		ORDER BY name`,
		schoolID,
	)
	if err != nil {
		return nil, fmt.Errorf("certificates: list templates: %w", err)
	}
	defer rows.Close()
	var out []Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("certificates: scan template: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateTemplate(ctx context.Context, t Template) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE certificate_templates
		SET name = $2, body = $3, is_active = $4, updated_at = NOW()
		WHERE id = $1`,
		t.ID, t.Name, t.Body, t.IsActive,
	)
	if err != nil {
		return fmt.Errorf("certificates: update template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM certificate_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("certificates: delete template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

const certificateColumns = `id, student_id, school_id, title, issue_date, expires, template_id, language, meta, issued_by, created_at`

func (r *Repository) CreateCertificate(ctx context.Context, c Certificate) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO certificates (id, student_id, school_id, title, issue_date, expires, template_id, language, meta, issued_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.StudentID, c.SchoolID, c.Title, c.IssueDate, c.Expires, c.TemplateID, c.Language, c.Meta, c.IssuedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return httpx.FieldErrors{"student_id": "unknown student or school"}
		}
		return fmt.Errorf("certificates: create certificate: %w", err)
	}
	return nil
}

func (r *Repository) ListCertificates(ctx context.Context, filter Filter) ([]Certificate, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+certificateColumns+`
		FROM certificates
		WHERE ($1::uuid[] IS NULL OR student_id = ANY($1))
		  AND ($2::uuid IS NULL OR student_id = $2)
		  AND ($3::uuid IS NULL OR school_id = $3)
		ORDER BY issue_date DESC, created_at DESC
		LIMIT $4 OFFSET $5`,
		filter.OnlyStudentIDs, filter.StudentID, filter.SchoolID, limit, filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("certificates: list certificates: %w", err)
	}
	defer rows.Close()
	var out []Certificate
	for rows.Next() {
		var c Certificate
		if err := rows.Scan(&c.ID, &c.StudentID, &c.SchoolID, &c.Title, &c.IssueDate, &c.Expires,
			&c.TemplateID, &c.Language, &c.Meta, &c.IssuedBy, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("certificates: scan certificate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanTemplate(row pgx.Row) (*Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.SchoolID, &t.Name, &t.Body, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
