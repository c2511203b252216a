package rbac

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mektep/mektep/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for the permission
// catalog, the role-permission matrix and role assignments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListPermissions returns the whole catalog ordered by code.
func (r *Repository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, code, name, description, resource, action
		FROM permissions
		ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("rbac: list permissions: %w", err)
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// PermissionsByCodes resolves catalog entries for the given codes. Codes
// absent from the catalog are simply not returned; the caller decides whether
// that is an error.
func (r *Repository) PermissionsByCodes(ctx context.Context, codes []string) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, code, name, description, resource, action
		FROM permissions
		WHERE code = ANY($1)
		ORDER BY code`, codes)
	if err != nil {
		return nil, fmt.Errorf("rbac: permissions by codes: %w", err)
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// RoleGrantCodes returns the permission codes granted to a single role.
func (r *Repository) RoleGrantCodes(ctx context.Context, role Role) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.code
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role = $1
		ORDER BY p.code`, string(role))
	if err != nil {
		return nil, fmt.Errorf("rbac: role grant codes: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// GrantCodesForRoles returns the deduplicated union of permission codes
// granted to any of the given roles.
func (r *Repository) GrantCodesForRoles(ctx context.Context, roles []Role) ([]string, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT p.code
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role = ANY($1)
		ORDER BY p.code`, names)
	if err != nil {
		return nil, fmt.Errorf("rbac: grant codes for roles: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// ReplaceRoleGrants swaps the full grant set of a role in one transaction.
func (r *Repository) ReplaceRoleGrants(ctx context.Context, role Role, permissionIDs []uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role = $1`, string(role)); err != nil {
			return fmt.Errorf("rbac: clear role grants: %w", err)
		}
		for _, id := range permissionIDs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO role_permissions (id, role, permission_id)
				VALUES ($1, $2, $3)`, uuid.New(), string(role), id); err != nil {
				return fmt.Errorf("rbac: insert role grant: %w", err)
			}
		}
		return nil
	})
}

// DistinctRoles returns every role the user holds in any school.
func (r *Repository) DistinctRoles(ctx context.Context, userID uuid.UUID) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT role FROM user_roles WHERE user_id = $1 ORDER BY role`, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: distinct roles: %w", err)
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		roles = append(roles, Role(raw))
	}
	return roles, rows.Err()
}

// HasRole reports whether the user holds the role in any school.
func (r *Repository) HasRole(ctx context.Context, userID uuid.UUID, role Role) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`,
		userID, string(role)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("rbac: has role: %w", err)
	}
	return exists, nil
}

// HasRoleInSchool reports whether the user holds any of the roles in the
// given school. Used where authority is tenant scoped, such as join-request
// review.
func (r *Repository) HasRoleInSchool(ctx context.Context, userID, schoolID uuid.UUID, roles []Role) (bool, error) {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM user_roles
			WHERE user_id = $1 AND school_id = $2 AND role = ANY($3)
		)`, userID, schoolID, names).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("rbac: has role in school: %w", err)
	}
	return exists, nil
}

// EnsureAssignment creates the (user, school, role) assignment if it does not
// exist. Safe to call repeatedly; the unique triple absorbs races.
func (r *Repository) EnsureAssignment(ctx context.Context, userID, schoolID uuid.UUID, role Role) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO user_roles (id, user_id, school_id, role, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id, school_id, role) DO NOTHING`,
		uuid.New(), userID, schoolID, string(role))
	if err != nil {
		return false, fmt.Errorf("rbac: ensure assignment: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveAssignment deletes a single assignment by ID.
func (r *Repository) RemoveAssignment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_roles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("rbac: remove assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListAssignments returns assignments filtered by optional user and school.
func (r *Repository) ListAssignments(ctx context.Context, filter AssignmentFilter) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, school_id, role, created_at
		FROM user_roles
		WHERE ($1::uuid IS NULL OR user_id = $1)
		  AND ($2::uuid IS NULL OR school_id = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		filter.UserID, filter.SchoolID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("rbac: list assignments: %w", err)
	}
	defer rows.Close()
	var out []Assignment
	for rows.Next() {
		var a Assignment
		var raw string
		if err := rows.Scan(&a.ID, &a.UserID, &a.SchoolID, &raw, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Role = Role(raw)
		out = append(out, a)
	}
	return out, rows.Err()
}

// SchoolsWithRoles returns the IDs of schools where the user holds any of the
// given roles.
func (r *Repository) SchoolsWithRoles(ctx context.Context, userID uuid.UUID, roles []Role) ([]uuid.UUID, error) {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT school_id FROM user_roles
		WHERE user_id = $1 AND role = ANY($2)`, userID, names)
	if err != nil {
		return nil, fmt.Errorf("rbac: schools with roles: %w", err)
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AssignedSchools returns every school the user holds any role in.
func (r *Repository) AssignedSchools(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return r.SchoolsWithRoles(ctx, userID, AllRoles())
}

// UpsertPermission inserts a catalog entry or refreshes its metadata. Used by
// the seeder; codes are immutable once created.
func (r *Repository) UpsertPermission(ctx context.Context, entry CatalogEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO permissions (id, code, name, description, resource, action)
		VALUES ($1, $2, $3, '', $4, $5)
		ON CONFLICT (code) DO UPDATE
		SET name = EXCLUDED.name, resource = EXCLUDED.resource, action = EXCLUDED.action`,
		uuid.New(), entry.Code, entry.Name, entry.Resource, entry.Action)
	if err != nil {
		return fmt.Errorf("rbac: upsert permission: %w", err)
	}
	return nil
}

func scanPermissions(rows pgx.Rows) ([]Permission, error) {
	var out []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.Resource, &p.Action); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanStrings(rows pgx.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
