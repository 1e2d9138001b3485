package credit

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/reelforge/reelforge-api/internal/pkg/metrics"
)

// Service exposes credit account operations to the rest of the API
type Service interface {
	GetAccount(ctx context.Context, userID uuid.UUID) (*Account, error)
	Grant(ctx context.Context, userID uuid.UUID, amount int64, txType TxType, meta TxMeta) (*Transaction, error)
	GrantTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, txType TxType, meta TxMeta) (*Transaction, error)
	Consume(ctx context.Context, userID uuid.UUID, amount int64, meta TxMeta) (*Transaction, error)
	ConsumeTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, meta TxMeta) (*Transaction, error)
	Refund(ctx context.Context, userID uuid.UUID, amount int64, meta TxMeta) (*Transaction, error)
	HasRefund(ctx context.Context, refType, refID string) (bool, error)
	Freeze(ctx context.Context, userID uuid.UUID, amount int64) error
	Unfreeze(ctx context.Context, userID uuid.UUID, amount int64) error
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error)
	SearchTransactions(ctx context.Context, filters SearchFilters) ([]Transaction, error)
	Begin(ctx context.Context) (*sqlx.Tx, error)
}

type service struct {
	repo    Repository
	metrics *metrics.Metrics
}

// NewService creates a new credit service
func NewService(db *sqlx.DB, m *metrics.Metrics) Service {
	return &service{
		repo:    NewRepository(db),
		metrics: m,
	}
}

func (s *service) GetAccount(ctx context.Context, userID uuid.UUID) (*Account, error) {
	return s.repo.GetAccount(ctx, userID)
}

func (s *service) Begin(ctx context.Context) (*sqlx.Tx, error) {
	return s.repo.Begin(ctx)
}

// Grant credits an account with a positive ledger row
func (s *service) Grant(ctx context.Context, userID uuid.UUID, amount int64, txType TxType, meta TxMeta) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !txType.IsCredit() {
		return nil, ErrInvalidTxType
	}

	txn, err := s.repo.ApplyDelta(ctx, userID, amount, txType, meta)
	if err == nil {
		s.metrics.CreditMovements.WithLabelValues(string(txType)).Inc()
	}
	return txn, err
}

// GrantTx credits an account within an external transaction
func (s *service) GrantTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, txType TxType, meta TxMeta) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !txType.IsCredit() {
		return nil, ErrInvalidTxType
	}

	txn, err := s.repo.ApplyDeltaTx(ctx, tx, userID, amount, txType, meta)
	if err == nil {
		s.metrics.CreditMovements.WithLabelValues(string(txType)).Inc()
	}
	return txn, err
}

// Consume debits an account, failing with ErrInsufficientCredits
// when the available balance cannot cover the amount
func (s *service) Consume(ctx context.Context, userID uuid.UUID, amount int64, meta TxMeta) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	txn, err := s.repo.ApplyDelta(ctx, userID, -amount, TxTypeConsume, meta)
	if err == nil {
		s.metrics.CreditMovements.WithLabelValues(string(TxTypeConsume)).Inc()
	}
	return txn, err
}

// ConsumeTx debits within an external transaction. Used when the debit
// must be atomic with another write, like creating a generation job.
func (s *service) ConsumeTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, meta TxMeta) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	txn, err := s.repo.ApplyDeltaTx(ctx, tx, userID, -amount, TxTypeConsume, meta)
	if err == nil {
		s.metrics.CreditMovements.WithLabelValues(string(TxTypeConsume)).Inc()
	}
	return txn, err
}

// Refund returns consumed credits. Callers pair it with HasRefund to
// keep webhook retries idempotent.
func (s *service) Refund(ctx context.Context, userID uuid.UUID, amount int64, meta TxMeta) (*Transaction, error) {
	return s.Grant(ctx, userID, amount, TxTypeRefund, meta)
}

// HasRefund checks whether a refund for the reference was already written
func (s *service) HasRefund(ctx context.Context, refType, refID string) (bool, error) {
	return s.repo.HasReference(ctx, TxTypeRefund, refType, refID)
}

func (s *service) Freeze(ctx context.Context, userID uuid.UUID, amount int64) error {
	return s.repo.Freeze(ctx, userID, amount)
}

func (s *service) Unfreeze(ctx context.Context, userID uuid.UUID, amount int64) error {
	return s.repo.Unfreeze(ctx, userID, amount)
}

func (s *service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListTransactions(ctx, userID, Pagination{Limit: limit, Offset: offset})
}

func (s *service) SearchTransactions(ctx context.Context, filters SearchFilters) ([]Transaction, error) {
	return s.repo.SearchTransactions(ctx, filters)
}
