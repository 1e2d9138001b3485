package credit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	EnsureAccount(ctx context.Context, userID uuid.UUID) error
	GetAccount(ctx context.Context, userID uuid.UUID) (*Account, error)
	ApplyDelta(ctx context.Context, userID uuid.UUID, amount int64, txType TxType, meta TxMeta) (*Transaction, error)
	ApplyDeltaTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, txType TxType, meta TxMeta) (*Transaction, error)
	Freeze(ctx context.Context, userID uuid.UUID, amount int64) error
	Unfreeze(ctx context.Context, userID uuid.UUID, amount int64) error
	HasReference(ctx context.Context, txType TxType, refType, refID string) (bool, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, pagination Pagination) ([]Transaction, error)
	SearchTransactions(ctx context.Context, filters SearchFilters) ([]Transaction, error)
	Begin(ctx context.Context) (*sqlx.Tx, error)
}

// CreditRepository provides credit account and ledger operations.
type CreditRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

// Begin opens a transaction for callers that pair a ledger write
// with another operation.
func (r *CreditRepository) Begin(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	return tx, nil
}

// EnsureAccount creates a zero-balance account if one does not exist
func (r *CreditRepository) EnsureAccount(ctx context.Context, userID uuid.UUID) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO user_credit_accounts (user_id, available, frozen, total_earned, total_used)
		VALUES ($1, 0, 0, 0, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return fmt.Errorf("%w: ensure account", ErrInternal)
	}

	return nil
}

func (r *CreditRepository) GetAccount(ctx context.Context, userID uuid.UUID) (*Account, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var acc Account
	err := r.db.GetContext(ctx2, &acc, `
		SELECT user_id, available, frozen, total_earned, total_used, created_at, updated_at
		FROM user_credit_accounts
		WHERE user_id = $1
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if err := r.EnsureAccount(ctx, userID); err != nil {
				return nil, err
			}
			return &Account{UserID: userID}, nil
		}
		return nil, fmt.Errorf("%w: get account", ErrInternal)
	}

	return &acc, nil
}

// ApplyDelta moves the available balance and writes the ledger row in
// one transaction. Positive amounts credit, negative amounts debit.
// A debit that would overdraw fails with ErrInsufficientCredits: the
// guard lives in the UPDATE itself, so concurrent debits cannot race
// past the balance.
func (r *CreditRepository) ApplyDelta(ctx context.Context, userID uuid.UUID, amount int64, txType TxType, meta TxMeta) (*Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	txn, err := r.ApplyDeltaTx(ctx2, tx, userID, amount, txType, meta)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return txn, nil
}

// ApplyDeltaTx applies a balance delta within an external transaction.
// Does NOT commit or rollback; the caller owns the transaction.
func (r *CreditRepository) ApplyDeltaTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, txType TxType, meta TxMeta) (*Transaction, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	if !txType.Valid() {
		return nil, ErrInvalidTxType
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_credit_accounts (user_id, available, frozen, total_earned, total_used)
		VALUES ($1, 0, 0, 0, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return nil, fmt.Errorf("%w: ensure account", ErrInternal)
	}

	earnedDelta := int64(0)
	usedDelta := int64(0)
	if amount > 0 {
		earnedDelta = amount
	} else {
		usedDelta = -amount
	}

	// Balance guard and update in one statement. RETURNING gives the
	// post-update balance for the ledger row.
	var after int64
	err := tx.QueryRowContext(ctx, `
		UPDATE user_credit_accounts
		SET available = available + $2,
			total_earned = total_earned + $3,
			total_used = total_used + $4,
			updated_at = NOW()
		WHERE user_id = $1 AND available + $2 >= 0
		RETURNING available
	`, userID, amount, earnedDelta, usedDelta).Scan(&after)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInsufficientCredits
		}
		return nil, fmt.Errorf("%w: update account", ErrInternal)
	}

	txn := &Transaction{
		ID:            uuid.New(),
		UserID:        userID,
		Amount:        amount,
		TxType:        txType,
		BalanceBefore: after - amount,
		BalanceAfter:  after,
		Description:   meta.Description,
	}
	if meta.RefType != "" {
		txn.RefType = &meta.RefType
	}
	if meta.RefID != "" {
		txn.RefID = &meta.RefID
	}

	if err := r.insertLedger(ctx, tx, txn); err != nil {
		return nil, err
	}

	return txn, nil
}

// Freeze moves credits from available to frozen
func (r *CreditRepository) Freeze(ctx context.Context, userID uuid.UUID, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		UPDATE user_credit_accounts
		SET available = available - $2, frozen = frozen + $2, updated_at = NOW()
		WHERE user_id = $1 AND available >= $2
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("%w: freeze", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrInsufficientCredits
	}

	return nil
}

// Unfreeze moves credits from frozen back to available
func (r *CreditRepository) Unfreeze(ctx context.Context, userID uuid.UUID, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		UPDATE user_credit_accounts
		SET available = available + $2, frozen = frozen - $2, updated_at = NOW()
		WHERE user_id = $1 AND frozen >= $2
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("%w: unfreeze", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrInsufficientFrozen
	}

	return nil
}

// HasReference reports whether a ledger row of the given type already
// references the operation. Used to keep refunds and grants idempotent.
func (r *CreditRepository) HasReference(ctx context.Context, txType TxType, refType, refID string) (bool, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	err := r.db.GetContext(ctx2, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM credit_transactions
			WHERE tx_type = $1 AND ref_type = $2 AND ref_id = $3
		)
	`, txType, refType, refID)
	if err != nil {
		return false, fmt.Errorf("%w: check reference", ErrInternal)
	}

	return exists, nil
}

func (r *CreditRepository) ListTransactions(ctx context.Context, userID uuid.UUID, pagination Pagination) ([]Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	limit := pagination.Limit
	if limit <= 0 {
		limit = 20
	}

	transactions := make([]Transaction, 0)
	err := r.db.SelectContext(ctx2, &transactions, `
		SELECT id, user_id, amount, tx_type, balance_before, balance_after, ref_type, ref_id, description, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, pagination.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions", ErrInternal)
	}

	return transactions, nil
}

func (r *CreditRepository) SearchTransactions(ctx context.Context, filters SearchFilters) ([]Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	base := `
		SELECT id, user_id, amount, tx_type, balance_before, balance_after, ref_type, ref_id, description, created_at
		FROM credit_transactions
		WHERE 1=1`
	args := make([]interface{}, 0, 8)
	idx := 1

	if filters.UserID != nil && *filters.UserID != "" {
		base += fmt.Sprintf(" AND user_id = $%d", idx)
		args = append(args, *filters.UserID)
		idx++
	}
	if filters.TxType != nil && *filters.TxType != "" {
		base += fmt.Sprintf(" AND tx_type = $%d", idx)
		args = append(args, *filters.TxType)
		idx++
	}
	if filters.DateFrom != nil {
		base += fmt.Sprintf(" AND created_at >= $%d", idx)
		args = append(args, *filters.DateFrom)
		idx++
	}
	if filters.DateTo != nil {
		base += fmt.Sprintf(" AND created_at <= $%d", idx)
		args = append(args, *filters.DateTo)
		idx++
	}
	if filters.RefType != nil && *filters.RefType != "" {
		base += fmt.Sprintf(" AND ref_type = $%d", idx)
		args = append(args, *filters.RefType)
		idx++
	}
	if filters.RefID != nil && *filters.RefID != "" {
		base += fmt.Sprintf(" AND ref_id = $%d", idx)
		args = append(args, *filters.RefID)
		idx++
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	base = strings.TrimSpace(base) + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, filters.Offset)

	transactions := make([]Transaction, 0)
	if err := r.db.SelectContext(ctx2, &transactions, base, args...); err != nil {
		return nil, fmt.Errorf("%w: search transactions", ErrInternal)
	}

	return transactions, nil
}

func (r *CreditRepository) insertLedger(ctx context.Context, tx *sqlx.Tx, txn *Transaction) error {
	if strings.TrimSpace(txn.Description) == "" {
		txn.Description = "credit balance adjustment"
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO credit_transactions (
			id, user_id, amount, tx_type, balance_before, balance_after, ref_type, ref_id, description
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, txn.ID, txn.UserID, txn.Amount, txn.TxType, txn.BalanceBefore, txn.BalanceAfter,
		txn.RefType, txn.RefID, txn.Description)
	if err != nil {
		return fmt.Errorf("%w: insert transaction", ErrInternal)
	}

	return nil
}
