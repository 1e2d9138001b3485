package redemption

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	Begin(ctx context.Context) (*sqlx.Tx, error)
	CreateBatch(ctx context.Context, codes []Code) error
	GetByCode(ctx context.Context, code string) (*Code, error)
	RedeemTx(ctx context.Context, tx *sqlx.Tx, code string, userID uuid.UUID) (*Code, error)
	Void(ctx context.Context, code string) error
	List(ctx context.Context, status *Status, batchID *string, limit, offset int) ([]Code, int, error)
}

// CodeRepository persists redemption codes
type CodeRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *CodeRepository {
	return &CodeRepository{db: db}
}

func (r *CodeRepository) Begin(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	return tx, nil
}

const codeColumns = `
	id, code, credits, status, expires_at, created_by, redeemed_by, redeemed_at, batch_id, created_at`

// CreateBatch inserts a generated batch in one transaction
func (r *CodeRepository) CreateBatch(ctx context.Context, codes []Code) error {
	ctx2, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	for i := range codes {
		c := &codes[i]
		_, err := tx.ExecContext(ctx2, `
			INSERT INTO redemption_codes (id, code, credits, status, expires_at, created_by, batch_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, c.ID, c.Code, c.Credits, c.Status, c.ExpiresAt, c.CreatedBy, c.BatchID)
		if err != nil {
			return fmt.Errorf("%w: insert code", ErrInternal)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return nil
}

func (r *CodeRepository) GetByCode(ctx context.Context, code string) (*Code, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var c Code
	err := r.db.GetContext(ctx2, &c, `SELECT `+codeColumns+` FROM redemption_codes WHERE code = $1`, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get code", ErrInternal)
	}

	return &c, nil
}

// RedeemTx flips an ACTIVE, unexpired code to REDEEMED inside the
// caller's transaction. The status guard in the UPDATE is the
// compare-and-swap: the loser of a concurrent race updates zero rows.
func (r *CodeRepository) RedeemTx(ctx context.Context, tx *sqlx.Tx, code string, userID uuid.UUID) (*Code, error) {
	var c Code
	err := tx.QueryRowxContext(ctx, `
		UPDATE redemption_codes
		SET status = $3, redeemed_by = $2, redeemed_at = NOW()
		WHERE code = $1
		  AND status = $4
		  AND (expires_at IS NULL OR expires_at > NOW())
		RETURNING `+codeColumns+`
	`, code, userID, StatusRedeemed, StatusActive).StructScan(&c)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.classifyRedeemMiss(ctx, tx, code)
		}
		return nil, fmt.Errorf("%w: redeem code", ErrInternal)
	}

	return &c, nil
}

// classifyRedeemMiss distinguishes unknown, raced and expired codes
// after the CAS update matched nothing.
func (r *CodeRepository) classifyRedeemMiss(ctx context.Context, tx *sqlx.Tx, code string) error {
	var c Code
	err := tx.GetContext(ctx, &c, `SELECT `+codeColumns+` FROM redemption_codes WHERE code = $1`, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: inspect code", ErrInternal)
	}

	if c.Status != StatusActive {
		return ErrAlreadyRedeemed
	}
	return ErrExpired
}

// Void retires an ACTIVE code. Terminal codes conflict.
func (r *CodeRepository) Void(ctx context.Context, code string) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		UPDATE redemption_codes
		SET status = $2
		WHERE code = $1 AND status = $3
	`, code, StatusVoided, StatusActive)
	if err != nil {
		return fmt.Errorf("%w: void code", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		if _, err := r.GetByCode(ctx, code); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrNotActive
	}

	return nil
}

func (r *CodeRepository) List(ctx context.Context, status *Status, batchID *string, limit, offset int) ([]Code, int, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	where := " WHERE 1=1"
	args := []interface{}{}
	idx := 1
	if status != nil {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, *status)
		idx++
	}
	if batchID != nil && *batchID != "" {
		where += fmt.Sprintf(" AND batch_id = $%d", idx)
		args = append(args, *batchID)
		idx++
	}

	var total int
	if err := r.db.GetContext(ctx2, &total, `SELECT COUNT(*) FROM redemption_codes`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("%w: count codes", ErrInternal)
	}

	listQuery := `SELECT ` + codeColumns + ` FROM redemption_codes` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	codes := make([]Code, 0)
	if err := r.db.SelectContext(ctx2, &codes, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("%w: list codes", ErrInternal)
	}

	return codes, total, nil
}
