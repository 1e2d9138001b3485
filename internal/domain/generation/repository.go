package generation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	Begin(ctx context.Context) (*sqlx.Tx, error)
	CreateTx(ctx context.Context, tx *sqlx.Tx, g *Generation) error
	InsertCostTx(ctx context.Context, tx *sqlx.Tx, generationID, userID uuid.UUID, credits int64) error
	GetByID(ctx context.Context, id uuid.UUID) (*Generation, error)
	GetByTaskID(ctx context.Context, taskID string) (*Generation, error)
	SetTaskID(ctx context.Context, id uuid.UUID, taskID string, status Status) error
	MarkCompleted(ctx context.Context, id uuid.UUID, resultURLs []string) (bool, error)
	MarkFailedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, errorMessage string) (bool, error)
	DeleteCostTx(ctx context.Context, tx *sqlx.Tx, generationID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Generation, int, error)
}

// GenerationRepository persists video generation jobs
type GenerationRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *GenerationRepository {
	return &GenerationRepository{db: db}
}

func (r *GenerationRepository) Begin(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	return tx, nil
}

const generationColumns = `
	id, user_id, prompt, duration_seconds, aspect_ratio, reference_images,
	status, task_id, result_urls, cost_credits, error_message,
	created_at, updated_at, completed_at`

// CreateTx inserts the job row inside the caller's transaction so the
// credit debit and the job become visible together.
func (r *GenerationRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, g *Generation) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO video_generations (
			id, user_id, prompt, duration_seconds, aspect_ratio, reference_images,
			status, cost_credits
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, g.ID, g.UserID, g.Prompt, g.DurationSeconds, g.AspectRatio,
		g.ReferenceImages, g.Status, g.CostCredits)
	if err != nil {
		return fmt.Errorf("%w: insert generation", ErrInternal)
	}

	return nil
}

// InsertCostTx records the cost-accounting row alongside the job
func (r *GenerationRepository) InsertCostTx(ctx context.Context, tx *sqlx.Tx, generationID, userID uuid.UUID, credits int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO generation_costs (generation_id, user_id, credits)
		VALUES ($1, $2, $3)
	`, generationID, userID, credits)
	if err != nil {
		return fmt.Errorf("%w: insert generation cost", ErrInternal)
	}

	return nil
}

func (r *GenerationRepository) GetByID(ctx context.Context, id uuid.UUID) (*Generation, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *GenerationRepository) GetByTaskID(ctx context.Context, taskID string) (*Generation, error) {
	return r.getBy(ctx, "task_id = $1", taskID)
}

func (r *GenerationRepository) getBy(ctx context.Context, where string, arg interface{}) (*Generation, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var g Generation
	err := r.db.GetContext(ctx2, &g, `SELECT `+generationColumns+` FROM video_generations WHERE `+where, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get generation", ErrInternal)
	}

	return &g, nil
}

// SetTaskID stores the provider task id and advances the status
func (r *GenerationRepository) SetTaskID(ctx context.Context, id uuid.UUID, taskID string, status Status) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		UPDATE video_generations
		SET task_id = $2, status = $3, updated_at = NOW()
		WHERE id = $1
	`, id, taskID, status)
	if err != nil {
		return fmt.Errorf("%w: set task id", ErrInternal)
	}

	return nil
}

// MarkCompleted transitions a non-terminal job to COMPLETED. Returns
// false when the job was already terminal, making duplicate callbacks
// no-ops.
func (r *GenerationRepository) MarkCompleted(ctx context.Context, id uuid.UUID, resultURLs []string) (bool, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		UPDATE video_generations
		SET status = $2, result_urls = $3, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ($4, $5)
	`, id, StatusCompleted, pq.StringArray(resultURLs), StatusPending, StatusProcessing)
	if err != nil {
		return false, fmt.Errorf("%w: mark completed", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected", ErrInternal)
	}

	return rows > 0, nil
}

// MarkFailedTx transitions a non-terminal job to FAILED inside the
// caller's transaction, pairing the state change with the refund.
func (r *GenerationRepository) MarkFailedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, errorMessage string) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		UPDATE video_generations
		SET status = $2, error_message = $3, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ($4, $5)
	`, id, StatusFailed, errorMessage, StatusPending, StatusProcessing)
	if err != nil {
		return false, fmt.Errorf("%w: mark failed", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected", ErrInternal)
	}

	return rows > 0, nil
}

// DeleteCostTx removes the cost-accounting row for a failed job
func (r *GenerationRepository) DeleteCostTx(ctx context.Context, tx *sqlx.Tx, generationID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM generation_costs WHERE generation_id = $1`, generationID)
	if err != nil {
		return fmt.Errorf("%w: delete generation cost", ErrInternal)
	}

	return nil
}

func (r *GenerationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Generation, int, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	generations := make([]Generation, 0)
	err := r.db.SelectContext(ctx2, &generations, `
		SELECT `+generationColumns+` FROM video_generations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list generations", ErrInternal)
	}

	var total int
	err = r.db.GetContext(ctx2, &total, `SELECT COUNT(*) FROM video_generations WHERE user_id = $1`, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: count generations", ErrInternal)
	}

	return generations, total, nil
}
