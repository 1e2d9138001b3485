package credit

import (
	"time"

	"github.com/google/uuid"
)

// TxType defines supported ledger transaction types.
type TxType string

const (
	TxTypePurchase TxType = "PURCHASE"
	TxTypeConsume  TxType = "CONSUME"
	TxTypeRefund   TxType = "REFUND"
	TxTypeExpire   TxType = "EXPIRE"
	TxTypeBonus    TxType = "BONUS"
)

// IsCredit reports whether the type increases the available balance
func (t TxType) IsCredit() bool {
	return t == TxTypePurchase || t == TxTypeRefund || t == TxTypeBonus
}

// Valid reports whether the type is a known ledger type
func (t TxType) Valid() bool {
	switch t {
	case TxTypePurchase, TxTypeConsume, TxTypeRefund, TxTypeExpire, TxTypeBonus:
		return true
	}
	return false
}

// Account is the per-user credit balance row
type Account struct {
	UserID      uuid.UUID `db:"user_id"`
	Available   int64     `db:"available"`
	Frozen      int64     `db:"frozen"`
	TotalEarned int64     `db:"total_earned"`
	TotalUsed   int64     `db:"total_used"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// TxMeta links a ledger row to the operation that caused it.
// RefType plus RefID make refunds and grants idempotent.
type TxMeta struct {
	RefType     string
	RefID       string
	Description string
}

// Transaction is an immutable ledger row
type Transaction struct {
	ID            uuid.UUID `db:"id"`
	UserID        uuid.UUID `db:"user_id"`
	Amount        int64     `db:"amount"`
	TxType        TxType    `db:"tx_type"`
	BalanceBefore int64     `db:"balance_before"`
	BalanceAfter  int64     `db:"balance_after"`
	RefType       *string   `db:"ref_type"`
	RefID         *string   `db:"ref_id"`
	Description   string    `db:"description"`
	CreatedAt     time.Time `db:"created_at"`
}

// Pagination controls simple list pagination.
type Pagination struct {
	Limit  int
	Offset int
}

// SearchFilters provides admin-facing transaction filtering.
type SearchFilters struct {
	UserID   *string
	TxType   *string
	DateFrom *time.Time
	DateTo   *time.Time
	RefType  *string
	RefID    *string
	Limit    int
	Offset   int
}
