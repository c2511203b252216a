package schools

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

// ErrCodeCollision reports a connection code uniqueness violation, retried by
// the service.
var ErrCodeCollision = errors.New("schools: connection code collision")

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const schoolColumns = `s.id, s.name, s.connection_code, s.city_id, COALESCE(NULLIF(c.name_ru, ''), c.name, ''),
	s.address, s.grading_system, s.languages_supported, s.created_at, s.updated_at`

const schoolFrom = ` FROM schools s LEFT JOIN cities c ON c.id = s.city_id `

func scanSchool(row pgx.Row) (*School, error) {
	var s School
	err := row.Scan(&s.ID, &s.Name, &s.ConnectionCode, &s.CityID, &s.CityName,
		&s.Address, &s.GradingSystem, &s.Languages, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListCities returns the city reference ordered by name.
func (r *Repository) ListCities(ctx context.Context) ([]City, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, name_ru, created_at FROM cities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("schools: list cities: %w", err)
	}
	defer rows.Close()
	var out []City
	for rows.Next() {
		var c City
		if err := rows.Scan(&c.ID, &c.Name, &c.NameRu, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create inserts a school.
func (r *Repository) Create(ctx context.Context, s School) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO schools (id, name, connection_code, city_id, address, grading_system, languages_supported, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`,
		s.ID, s.Name, s.ConnectionCode, s.CityID, s.Address, s.GradingSystem, s.Languages)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrCodeCollision
		}
		return fmt.Errorf("schools: create: %w", err)
	}
	return nil
}

// Get fetches one school.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*School, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+schoolColumns+schoolFrom+`WHERE s.id = $1`, id)
	s, err := scanSchool(row)
	if err != nil && !errors.Is(err, httpx.ErrNotFound) {
		return nil, fmt.Errorf("schools: get: %w", err)
	}
	return s, err
}

// GetByCode fetches a school by its connection code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*School, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+schoolColumns+schoolFrom+`WHERE s.connection_code = $1`, code)
	s, err := scanSchool(row)
	if err != nil && !errors.Is(err, httpx.ErrNotFound) {
		return nil, fmt.Errorf("schools: get by code: %w", err)
	}
	return s, err
}

// List returns schools, optionally restricted to the given IDs.
func (r *Repository) List(ctx context.Context, onlyIDs []uuid.UUID) ([]School, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+schoolColumns+schoolFrom+`
		WHERE ($1::uuid[] IS NULL OR s.id = ANY($1))
		ORDER BY s.name`, onlyIDs)
	if err != nil {
		return nil, fmt.Errorf("schools: list: %w", err)
	}
	defer rows.Close()
	var out []School
	for rows.Next() {
		var s School
		if err := rows.Scan(&s.ID, &s.Name, &s.ConnectionCode, &s.CityID, &s.CityName,
			&s.Address, &s.GradingSystem, &s.Languages, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update applies name/city/address/settings changes.
func (r *Repository) Update(ctx context.Context, s School) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE schools SET name = $2, city_id = $3, address = $4,
		       grading_system = $5, languages_supported = $6, updated_at = NOW()
		WHERE id = $1`,
		s.ID, s.Name, s.CityID, s.Address, s.GradingSystem, s.Languages)
	if err != nil {
		return fmt.Errorf("schools: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Delete removes a school.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM schools WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("schools: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// CreateAcademicYear inserts an academic year. (school, name) is unique.
func (r *Repository) CreateAcademicYear(ctx context.Context, y AcademicYear) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO academic_years (id, school_id, name, start_date, end_date, is_current, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		y.ID, y.SchoolID, y.Name, y.StartDate, y.EndDate, y.IsCurrent)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return httpx.ErrConflict
		}
		return fmt.Errorf("schools: create academic year: %w", err)
	}
	return nil
}

// ListAcademicYears returns years, optionally filtered by school.
func (r *Repository) ListAcademicYears(ctx context.Context, schoolID *uuid.UUID, onlySchools []uuid.UUID) ([]AcademicYear, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, school_id, name, start_date, end_date, is_current, created_at
		FROM academic_years
		WHERE ($1::uuid IS NULL OR school_id = $1)
		  AND ($2::uuid[] IS NULL OR school_id = ANY($2))
		ORDER BY start_date DESC`, schoolID, onlySchools)
	if err != nil {
		return nil, fmt.Errorf("schools: list academic years: %w", err)
	}
	defer rows.Close()
	var out []AcademicYear
	for rows.Next() {
		var y AcademicYear
		if err := rows.Scan(&y.ID, &y.SchoolID, &y.Name, &y.StartDate, &y.EndDate, &y.IsCurrent, &y.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, y)
	}
	return out, rows.Err()
}

// UpdateAcademicYear applies changes to one year.
func (r *Repository) UpdateAcademicYear(ctx context.Context, y AcademicYear) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE academic_years SET name = $2, start_date = $3, end_date = $4, is_current = $5
		WHERE id = $1`, y.ID, y.Name, y.StartDate, y.EndDate, y.IsCurrent)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return httpx.ErrConflict
		}
		return fmt.Errorf("schools: update academic year: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// DeleteAcademicYear removes one year.
func (r *Repository) DeleteAcademicYear(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM academic_years WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("schools: delete academic year: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// GetAcademicYear fetches one year.
func (r *Repository) GetAcademicYear(ctx context.Context, id uuid.UUID) (*AcademicYear, error) {
	var y AcademicYear
	err := r.pool.QueryRow(ctx, `
		SELECT id, school_id, name, start_date, end_date, is_current, created_at
		FROM academic_years WHERE id = $1`, id).
		Scan(&y.ID, &y.SchoolID, &y.Name, &y.StartDate, &y.EndDate, &y.IsCurrent, &y.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("schools: get academic year: %w", err)
	}
	return &y, nil
}
