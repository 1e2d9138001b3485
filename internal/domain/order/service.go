package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/reelforge/reelforge-api/internal/domain/credit"
	"github.com/reelforge/reelforge-api/internal/domain/user"
	"github.com/reelforge/reelforge-api/internal/pkg/email"
	"github.com/reelforge/reelforge-api/internal/pkg/paygate"
)

const refTypeOrder = "order"

// Service handles credit package purchases
type Service struct {
	repo     Repository
	credits  credit.Service
	userRepo user.Repository
	gateway  *paygate.Client
	mail     *email.Service
}

// NewService creates the order service
func NewService(db *sqlx.DB, credits credit.Service, userRepo user.Repository,
	gateway *paygate.Client, mail *email.Service) *Service {
	return &Service{
		repo:     NewRepository(db),
		credits:  credits,
		userRepo: userRepo,
		gateway:  gateway,
		mail:     mail,
	}
}

// ListPackages returns purchasable bundles
func (s *Service) ListPackages(ctx context.Context) ([]Package, error) {
	return s.repo.ListPackages(ctx, true)
}

// InitPurchase creates a PENDING order and returns the signed checkout URL
func (s *Service) InitPurchase(ctx context.Context, userID, packageID uuid.UUID) (*Order, string, error) {
	pkg, err := s.repo.GetPackage(ctx, packageID)
	if err != nil {
		return nil, "", err
	}
	if !pkg.Active {
		return nil, "", ErrPackageNotFound
	}

	o := &Order{
		ID:          uuid.New(),
		UserID:      userID,
		PackageID:   pkg.ID,
		PackageName: pkg.Name,
		Credits:     pkg.Credits,
		AmountCents: pkg.PriceCents,
		Status:      StatusPending,
	}
	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, "", err
	}

	var userEmail string
	if u, err := s.userRepo.GetByID(ctx, userID); err == nil && u.Email.Valid {
		userEmail = u.Email.String
	}

	paymentURL := s.gateway.PaymentURL(paygate.PaymentRequest{
		InvoiceID:   o.InvoiceID,
		AmountCents: o.AmountCents,
		Description: fmt.Sprintf("ReelForge: %s (%d credits)", pkg.Name, pkg.Credits),
		UserEmail:   userEmail,
		ShpParams:   map[string]string{"shp_order": o.ID.String()},
	})

	return o, paymentURL, nil
}

// HandlePaymentResult completes the order referenced by a verified
// gateway callback and grants its credits atomically. Duplicate
// callbacks find the order already terminal and are no-ops.
func (s *Service) HandlePaymentResult(ctx context.Context, n *paygate.ResultNotification) (*Order, error) {
	o, err := s.repo.GetOrderByInvoiceID(ctx, n.InvoiceID)
	if err != nil {
		return nil, err
	}
	if o.Status.Terminal() {
		return o, nil
	}
	if n.AmountCents != o.AmountCents {
		log.Error().
			Int64("invoice_id", n.InvoiceID).
			Int64("expected", o.AmountCents).
			Int64("received", n.AmountCents).
			Msg("Payment amount mismatch")
		return nil, ErrAmountMismatch
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	completed, err := s.repo.CompleteOrderTx(ctx, tx, o.ID)
	if err != nil {
		return nil, err
	}
	if !completed {
		// Raced with another callback; credits were granted by the winner
		return o, nil
	}

	if _, err := s.credits.GrantTx(ctx, tx, o.UserID, o.Credits, credit.TxTypePurchase, credit.TxMeta{
		RefType:     refTypeOrder,
		RefID:       o.ID.String(),
		Description: "purchase: " + o.PackageName,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	o.Status = StatusCompleted
	log.Info().
		Str("order_id", o.ID.String()).
		Int64("credits", o.Credits).
		Msg("Order completed, credits granted")

	s.notifyPurchase(o)
	return o, nil
}

// Cancel moves the user's own pending order to CANCELLED
func (s *Service) Cancel(ctx context.Context, userID, orderID uuid.UUID) error {
	o, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.UserID != userID {
		return ErrOrderNotFound
	}
	return s.repo.SetStatus(ctx, orderID, StatusCancelled)
}

// ListByUser returns the user's orders newest first
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Order, int, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) notifyPurchase(o *Order) {
	u, err := s.userRepo.GetByID(context.Background(), o.UserID)
	if err != nil || !u.Email.Valid {
		return
	}
	s.mail.Queue(u.Email.String, u.Nickname, "purchase_completed", "Your ReelForge purchase",
		map[string]interface{}{
			"UserName":    u.Nickname,
			"PackageName": o.PackageName,
			"Credits":     o.Credits,
		})
}
