package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// OperationLog is one audited back-office mutation
type OperationLog struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	AdminID    uuid.UUID       `db:"admin_id" json:"admin_id"`
	AdminEmail string          `db:"admin_email" json:"admin_email"`
	Operation  string          `db:"operation" json:"operation"`
	TargetType string          `db:"target_type" json:"target_type"`
	TargetID   string          `db:"target_id" json:"target_id"`
	Detail     json.RawMessage `db:"detail" json:"detail"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// OpLogRepository persists the admin audit trail
type OpLogRepository struct {
	db *sqlx.DB
}

func NewOpLogRepository(db *sqlx.DB) *OpLogRepository {
	return &OpLogRepository{db: db}
}

// Record writes one audit row. Failures are logged, never propagated:
// the guarded mutation already happened.
func (r *OpLogRepository) Record(ctx context.Context, identity *AdminIdentity, operation, targetType, targetID string, detail interface{}) {
	raw, err := json.Marshal(detail)
	if err != nil {
		raw = []byte("{}")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO admin_operation_logs (id, admin_id, admin_email, operation, target_type, target_id, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.New(), identity.UserID, identity.Email, operation, targetType, targetID, raw)
	if err != nil {
		log.Error().Err(err).Str("operation", operation).Msg("Failed to write admin operation log")
	}
}

// RecordTx writes the audit row inside the mutation's own transaction
func (r *OpLogRepository) RecordTx(ctx context.Context, tx *sqlx.Tx, identity *AdminIdentity, operation, targetType, targetID string, detail interface{}) error {
	raw, err := json.Marshal(detail)
	if err != nil {
		raw = []byte("{}")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO admin_operation_logs (id, admin_id, admin_email, operation, target_type, target_id, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.New(), identity.UserID, identity.Email, operation, targetType, targetID, raw)
	if err != nil {
		return fmt.Errorf("%w: insert operation log", ErrInternal)
	}

	return nil
}

// List returns recent audit rows
func (r *OpLogRepository) List(ctx context.Context, limit, offset int) ([]OperationLog, error) {
	if limit <= 0 {
		limit = 50
	}

	logs := make([]OperationLog, 0)
	err := r.db.SelectContext(ctx, &logs, `
		SELECT id, admin_id, admin_email, operation, target_type, target_id, detail, created_at
		FROM admin_operation_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list operation logs", ErrInternal)
	}

	return logs, nil
}
