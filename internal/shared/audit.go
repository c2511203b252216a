package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog represents a record stored in audit_logs. Entries are append-only:
// nothing in the application updates or deletes them.
type AuditLog struct {
	ActorID  uuid.UUID
	Action   string
	Target   string
	TargetID uuid.UUID
	Payload  map[string]any
	At       time.Time
}

// AuditRecorder writes records into audit_logs.
type AuditRecorder struct {
	pool *pgxpool.Pool
}

// NewAuditRecorder returns a new AuditRecorder.
func NewAuditRecorder(pool *pgxpool.Pool) *AuditRecorder {
	return &AuditRecorder{pool: pool}
}

// Record persists the log entry.
func (l *AuditRecorder) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit recorder not initialised")
	}
	if log.Action == "" || log.Target == "" {
		return errors.New("audit log requires action/target")
	}
	payloadJSON, err := json.Marshal(log.Payload)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_logs (id, actor_id, action, target, target_id, payload, created_at)
VALUES ($1, $2, $3, $4, $5, $6, COALESCE(NULLIF($7, '0001-01-01 00:00:00'::timestamptz), NOW()))`,
		uuid.New(), log.ActorID, log.Action, log.Target, log.TargetID, payloadJSON, log.At)
	return err
}
