package redemption

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/reelforge/reelforge-api/internal/domain/credit"
)

const refTypeRedemption = "redemption_code"

// Service issues and redeems single-use credit codes
type Service struct {
	repo    Repository
	credits credit.Service
}

// NewService creates the redemption service
func NewService(db *sqlx.DB, credits credit.Service) *Service {
	return &Service{
		repo:    NewRepository(db),
		credits: credits,
	}
}

// Generate creates a batch of distinct codes bound to a credit amount.
// Count outside [1,1000] or non-positive credits are rejected.
func (s *Service) Generate(ctx context.Context, createdBy uuid.UUID, count int, credits int64, expiryDays int) ([]Code, error) {
	if count < 1 || count > 1000 {
		return nil, ErrInvalidCount
	}
	if credits <= 0 {
		return nil, ErrInvalidCredits
	}

	batchID := uuid.New().String()
	var expiresAt sql.NullTime
	if expiryDays > 0 {
		expiresAt = sql.NullTime{Time: time.Now().AddDate(0, 0, expiryDays), Valid: true}
	}

	codes := make([]Code, 0, count)
	for i := 0; i < count; i++ {
		codes = append(codes, Code{
			ID:        uuid.New(),
			Code:      newCode(),
			Credits:   credits,
			Status:    StatusActive,
			ExpiresAt: expiresAt,
			CreatedBy: createdBy,
			BatchID:   sql.NullString{String: batchID, Valid: true},
		})
	}

	if err := s.repo.CreateBatch(ctx, codes); err != nil {
		return nil, err
	}

	log.Info().
		Str("batch_id", batchID).
		Int("count", count).
		Int64("credits", credits).
		Msg("Redemption codes generated")

	return codes, nil
}

// Redeem consumes a code and grants its credits in one transaction.
// Exactly one concurrent caller wins; the rest see ErrAlreadyRedeemed.
func (s *Service) Redeem(ctx context.Context, userID uuid.UUID, rawCode string) (*Code, *credit.Transaction, error) {
	code := NormalizeCode(rawCode)

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	c, err := s.repo.RedeemTx(ctx, tx, code, userID)
	if err != nil {
		return nil, nil, err
	}

	txn, err := s.credits.GrantTx(ctx, tx, userID, c.Credits, credit.TxTypeBonus, credit.TxMeta{
		RefType:     refTypeRedemption,
		RefID:       c.ID.String(),
		Description: "redemption code " + c.Code,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return c, txn, nil
}

// Void retires an active code, admin only
func (s *Service) Void(ctx context.Context, rawCode string) error {
	return s.repo.Void(ctx, NormalizeCode(rawCode))
}

// List returns codes for the back office, optionally filtered
func (s *Service) List(ctx context.Context, status *Status, batchID *string, limit, offset int) ([]Code, int, error) {
	return s.repo.List(ctx, status, batchID, limit, offset)
}
