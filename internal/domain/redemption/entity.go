package redemption

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status is the code lifecycle state. ACTIVE -> REDEEMED | VOIDED,
// both terminal and mutually exclusive.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusRedeemed Status = "REDEEMED"
	StatusVoided   Status = "VOIDED"
)

// Code is a single-use redemption code row
type Code struct {
	ID         uuid.UUID      `db:"id"`
	Code       string         `db:"code"`
	Credits    int64          `db:"credits"`
	Status     Status         `db:"status"`
	ExpiresAt  sql.NullTime   `db:"expires_at"`
	CreatedBy  uuid.UUID      `db:"created_by"`
	RedeemedBy uuid.NullUUID  `db:"redeemed_by"`
	RedeemedAt sql.NullTime   `db:"redeemed_at"`
	BatchID    sql.NullString `db:"batch_id"`
	CreatedAt  time.Time      `db:"created_at"`
}

// Expired reports whether the code's expiry has passed
func (c *Code) Expired(now time.Time) bool {
	return c.ExpiresAt.Valid && now.After(c.ExpiresAt.Time)
}
