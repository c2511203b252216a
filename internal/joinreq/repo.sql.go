package joinreq

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mektep/mektep/internal/platform/httpx"
	"github.com/mektep/mektep/internal/rbac"
)

// Repository implements join-request persistence over PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const requestColumns = `id, user_id, school_id, role, status, message, reject_reason, reviewer_id, reviewed_at, created_at`

// Create inserts a pending request. A partial unique index on
// (user_id, school_id) WHERE status = 'pending' makes a duplicate pending
// request surface as 23505; the foreign key on school_id rejects unknown
// schools.
func (r *Repository) Create(ctx context.Context, req JoinRequest) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO join_requests (id, user_id, school_id, role, status, message)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		req.ID, req.UserID, req.SchoolID, req.Role, req.Status, req.Message,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return httpx.ErrConflict
			case "23503":
				return httpx.FieldErrors{"school_id": "unknown school"}
			}
		}
		return fmt.Errorf("joinreq: create: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*JoinRequest, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM join_requests WHERE id = $1`, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, fmt.Errorf("joinreq: get: %w", err)
	}
	return req, nil
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]JoinRequest, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+requestColumns+`
		FROM join_requests
		WHERE ($1::uuid IS NULL OR user_id = $1)
		  AND ($2::uuid[] IS NULL OR school_id = ANY($2))
		  AND ($3::text IS NULL OR status = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`,
		filter.UserID, filter.SchoolIDs, filter.Status, limit, filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("joinreq: list: %w", err)
	}
	defer rows.Close()
	var out []JoinRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("joinreq: scan: %w", err)
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

// Decide flips a pending request into a terminal state, stamping reviewer and
// review time in the same statement. Zero rows means the request was already
// decided (or never existed); the service distinguishes the two via Get.
func (r *Repository) Decide(ctx context.Context, id uuid.UUID, status Status, reviewerID uuid.UUID, reason string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE join_requests
		SET status = $2, reviewer_id = $3, reviewed_at = NOW(), reject_reason = $4
		WHERE id = $1 AND status = 'pending'`,
		id, status, reviewerID, reason,
	)
	if err != nil {
		return false, fmt.Errorf("joinreq: decide: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Reopen returns an approved request to pending after a failed role grant,
// clearing the reviewer stamp so the approval can be retried.
func (r *Repository) Reopen(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE join_requests
		SET status = 'pending', reviewer_id = NULL, reviewed_at = NULL, reject_reason = ''
		WHERE id = $1 AND status = 'approved'`,
		id,
	)
	if err != nil {
		return fmt.Errorf("joinreq: reopen: %w", err)
	}
	return nil
}

func scanRequest(row pgx.Row) (*JoinRequest, error) {
	var (
		req  JoinRequest
		role string
	)
	err := row.Scan(&req.ID, &req.UserID, &req.SchoolID, &role, &req.Status, &req.Message,
		&req.RejectReason, &req.ReviewerID, &req.ReviewedAt, &req.CreatedAt)
	if err != nil {
		return nil, err
	}
	req.Role = rbac.Role(role)
	return &req, nil
}
