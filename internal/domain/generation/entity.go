package generation

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Status is the job lifecycle state. Transitions are one-way:
// PENDING -> PROCESSING -> COMPLETED | FAILED.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Terminal reports whether the status accepts no further transitions
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Generation is a video generation job row
type Generation struct {
	ID              uuid.UUID      `db:"id"`
	UserID          uuid.UUID      `db:"user_id"`
	Prompt          string         `db:"prompt"`
	DurationSeconds int            `db:"duration_seconds"`
	AspectRatio     string         `db:"aspect_ratio"`
	ReferenceImages pq.StringArray `db:"reference_images"`
	Status          Status         `db:"status"`
	TaskID          sql.NullString `db:"task_id"`
	ResultURLs      pq.StringArray `db:"result_urls"`
	CostCredits     int64          `db:"cost_credits"`
	ErrorMessage    sql.NullString `db:"error_message"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	CompletedAt     sql.NullTime   `db:"completed_at"`
}
