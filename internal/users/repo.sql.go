package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mektep/mektep/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for user records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, first_name, last_name, middle_name, phone,
	language_pref, profile, linked_school_id, is_active, is_superuser, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.MiddleName,
		&u.Phone, &u.Language, &u.Profile, &u.LinkedSchoolID, &u.IsActive,
		&u.IsSuperuser, &u.DateJoined)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a single user.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil && !errors.Is(err, httpx.ErrNotFound) {
		return nil, fmt.Errorf("users: get by id: %w", err)
	}
	return u, err
}

// List returns users filtered by linked school and role.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]User, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT u.id, u.email, u.first_name, u.last_name, u.middle_name, u.phone,
		       u.language_pref, u.profile, u.linked_school_id, u.is_active, u.is_superuser, u.created_at
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		WHERE ($1::uuid IS NULL OR u.linked_school_id = $1)
		  AND ($2::text = '' OR ur.role = $2)
		ORDER BY u.created_at DESC
		LIMIT $3 OFFSET $4`,
		filter.LinkedSchoolID, filter.Role, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.MiddleName,
			&u.Phone, &u.Language, &u.Profile, &u.LinkedSchoolID, &u.IsActive,
			&u.IsSuperuser, &u.DateJoined); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateProfile applies a partial profile change.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) error {
	linked := update.LinkedSchoolID
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET
			first_name      = COALESCE($2, first_name),
			last_name       = COALESCE($3, last_name),
			middle_name     = COALESCE($4, middle_name),
			phone           = COALESCE($5, phone),
			language_pref   = COALESCE($6, language_pref),
			profile         = COALESCE($7, profile),
			linked_school_id = CASE WHEN $9 THEN NULL ELSE COALESCE($8, linked_school_id) END
		WHERE id = $1`,
		id, update.FirstName, update.LastName, update.MiddleName, update.Phone,
		update.Language, update.Profile, linked, update.ClearLinked)
	if err != nil {
		return fmt.Errorf("users: update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// LinkedSchoolID returns the user's linked school, if set.
func (r *Repository) LinkedSchoolID(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	var linked *uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT linked_school_id FROM users WHERE id = $1`, userID).Scan(&linked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("users: linked school: %w", err)
	}
	if linked == nil {
		return uuid.Nil, false, nil
	}
	return *linked, true, nil
}

// BackfillLinkedSchool sets the linked school only when none is set yet.
func (r *Repository) BackfillLinkedSchool(ctx context.Context, userID, schoolID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET linked_school_id = $2
		WHERE id = $1 AND linked_school_id IS NULL`, userID, schoolID)
	if err != nil {
		return false, fmt.Errorf("users: backfill linked school: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SchoolMemberships lists schools the user holds at least one role in.
func (r *Repository) SchoolMemberships(ctx context.Context, userID uuid.UUID) ([]SchoolMembership, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT s.id, s.name
		FROM user_roles ur
		JOIN schools s ON s.id = ur.school_id
		WHERE ur.user_id = $1
		ORDER BY s.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("users: school memberships: %w", err)
	}
	defer rows.Close()
	var out []SchoolMembership
	for rows.Next() {
		var m SchoolMembership
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
