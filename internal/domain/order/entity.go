package order

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status is the order lifecycle state. PENDING -> COMPLETED | FAILED |
// CANCELLED; terminal states are final.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether the status accepts no further transitions
func (s Status) Terminal() bool {
	return s != StatusPending
}

// Package is a purchasable credit bundle
type Package struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Credits    int64     `db:"credits" json:"credits"`
	PriceCents int64     `db:"price_cents" json:"price_cents"`
	Active     bool      `db:"active" json:"active"`
	SortOrder  int       `db:"sort_order" json:"sort_order"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Order is a purchase intent. InvoiceID is the numeric id the payment
// gateway echoes back in its result callback.
type Order struct {
	ID          uuid.UUID    `db:"id"`
	InvoiceID   int64        `db:"invoice_id"`
	UserID      uuid.UUID    `db:"user_id"`
	PackageID   uuid.UUID    `db:"package_id"`
	PackageName string       `db:"package_name"`
	Credits     int64        `db:"credits"`
	AmountCents int64        `db:"amount_cents"`
	Status      Status       `db:"status"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
	CompletedAt sql.NullTime `db:"completed_at"`
}
