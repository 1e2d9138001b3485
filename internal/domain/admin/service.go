package admin

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/reelforge/reelforge-api/internal/domain/credit"
	"github.com/reelforge/reelforge-api/internal/domain/user"
)

// Stats is the platform overview for the back office dashboard
type Stats struct {
	TotalUsers         int   `db:"total_users" json:"total_users"`
	BannedUsers        int   `db:"banned_users" json:"banned_users"`
	TotalGenerations   int   `db:"total_generations" json:"total_generations"`
	FailedGenerations  int   `db:"failed_generations" json:"failed_generations"`
	CompletedOrders    int   `db:"completed_orders" json:"completed_orders"`
	RevenueCents       int64 `db:"revenue_cents" json:"revenue_cents"`
	CreditsOutstanding int64 `db:"credits_outstanding" json:"credits_outstanding"`
}

// Service performs guarded back-office mutations
type Service struct {
	db       *sqlx.DB
	userRepo user.Repository
	credits  credit.Service
	oplog    *OpLogRepository
}

// NewService creates the admin service
func NewService(db *sqlx.DB, userRepo user.Repository, credits credit.Service) *Service {
	return &Service{
		db:       db,
		userRepo: userRepo,
		credits:  credits,
		oplog:    NewOpLogRepository(db),
	}
}

// OpLog exposes the audit repository for the handler's listing endpoint
func (s *Service) OpLog() *OpLogRepository {
	return s.oplog
}

// ListUsers searches accounts for the back office
func (s *Service) ListUsers(ctx context.Context, search string, limit, offset int) ([]user.User, int, error) {
	return s.userRepo.List(ctx, search, limit, offset)
}

// SetUserBanned toggles the ban flag and audits the change
func (s *Service) SetUserBanned(ctx context.Context, identity *AdminIdentity, userID uuid.UUID, banned bool) error {
	if err := s.userRepo.SetBanned(ctx, userID, banned); err != nil {
		return err
	}

	op := "user.ban"
	if !banned {
		op = "user.unban"
	}
	s.oplog.Record(ctx, identity, op, "user", userID.String(), nil)
	return nil
}

// DeleteUser removes the account and everything it owns in one
// transaction, audit row included.
func (s *Service) DeleteUser(ctx context.Context, identity *AdminIdentity, userID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	// Dependent rows first, then the account row
	for _, stmt := range []string{
		`DELETE FROM generation_costs WHERE user_id = $1`,
		`DELETE FROM video_generations WHERE user_id = $1`,
		`DELETE FROM credit_transactions WHERE user_id = $1`,
		`DELETE FROM user_credit_accounts WHERE user_id = $1`,
		`DELETE FROM credit_orders WHERE user_id = $1`,
		`DELETE FROM uploads WHERE user_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, userID); err != nil {
			return fmt.Errorf("%w: cascade delete", ErrInternal)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("%w: delete user", ErrInternal)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return user.ErrNotFound
	}

	if err := s.oplog.RecordTx(ctx, tx, identity, "user.delete", "user", userID.String(), nil); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}

	log.Warn().
		Str("user_id", userID.String()).
		Str("admin", identity.Email).
		Msg("User deleted with cascade")

	return nil
}

// GrantCredits adds BONUS credits to an account and audits the grant
func (s *Service) GrantCredits(ctx context.Context, identity *AdminIdentity, userID uuid.UUID, amount int64, reason string) (*credit.Transaction, error) {
	if reason == "" {
		reason = "admin grant"
	}

	txn, err := s.credits.Grant(ctx, userID, amount, credit.TxTypeBonus, credit.TxMeta{
		RefType:     "admin",
		RefID:       identity.UserID.String(),
		Description: reason,
	})
	if err != nil {
		return nil, err
	}

	s.oplog.Record(ctx, identity, "credits.grant", "user", userID.String(),
		map[string]interface{}{"amount": amount, "reason": reason})
	return txn, nil
}

// FreezeCredits moves a user's credits between available and frozen
func (s *Service) FreezeCredits(ctx context.Context, identity *AdminIdentity, userID uuid.UUID, amount int64, freeze bool) error {
	var err error
	op := "credits.freeze"
	if freeze {
		err = s.credits.Freeze(ctx, userID, amount)
	} else {
		op = "credits.unfreeze"
		err = s.credits.Unfreeze(ctx, userID, amount)
	}
	if err != nil {
		return err
	}

	s.oplog.Record(ctx, identity, op, "user", userID.String(),
		map[string]interface{}{"amount": amount})
	return nil
}

// GetStats aggregates the platform overview
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := s.db.GetContext(ctx, &stats, `
		SELECT
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM users WHERE is_banned) AS banned_users,
			(SELECT COUNT(*) FROM video_generations) AS total_generations,
			(SELECT COUNT(*) FROM video_generations WHERE status = 'FAILED') AS failed_generations,
			(SELECT COUNT(*) FROM credit_orders WHERE status = 'COMPLETED') AS completed_orders,
			(SELECT COALESCE(SUM(amount_cents), 0) FROM credit_orders WHERE status = 'COMPLETED') AS revenue_cents,
			(SELECT COALESCE(SUM(available), 0) FROM user_credit_accounts) AS credits_outstanding
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: get stats", ErrInternal)
	}

	return &stats, nil
}
