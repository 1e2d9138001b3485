package generation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/reelforge/reelforge-api/internal/domain/credit"
	"github.com/reelforge/reelforge-api/internal/domain/user"
	"github.com/reelforge/reelforge-api/internal/pkg/email"
	"github.com/reelforge/reelforge-api/internal/pkg/metrics"
	"github.com/reelforge/reelforge-api/internal/pkg/veo"
)

const refTypeGeneration = "generation"

// SubmitInput carries a validated generation request
type SubmitInput struct {
	Prompt          string
	DurationSeconds int
	AspectRatio     string
	ReferenceImages []string
}

// Service orchestrates the generation job lifecycle
type Service struct {
	repo     Repository
	credits  credit.Service
	userRepo user.Repository
	provider *veo.Client
	mail     *email.Service
	metrics  *metrics.Metrics
}

// NewService creates the generation service
func NewService(db *sqlx.DB, credits credit.Service, userRepo user.Repository,
	provider *veo.Client, mail *email.Service, m *metrics.Metrics) *Service {
	return &Service{
		repo:     NewRepository(db),
		credits:  credits,
		userRepo: userRepo,
		provider: provider,
		mail:     mail,
		metrics:  m,
	}
}

// Submit validates the request, debits the cost and creates the job in
// one DB transaction, then hands the job to the provider. An overdraw
// leaves no job row behind. A provider failure after commit keeps the
// debit; reconciliation settles it later.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, in SubmitInput) (*Generation, error) {
	if !ValidDuration(in.DurationSeconds) {
		return nil, ErrInvalidDuration
	}
	if len(in.ReferenceImages) > MaxReferenceImages {
		return nil, ErrTooManyImages
	}

	cost := Price(in.DurationSeconds, len(in.ReferenceImages))

	g := &Generation{
		ID:              uuid.New(),
		UserID:          userID,
		Prompt:          in.Prompt,
		DurationSeconds: in.DurationSeconds,
		AspectRatio:     in.AspectRatio,
		ReferenceImages: pq.StringArray(in.ReferenceImages),
		Status:          StatusPending,
		CostCredits:     cost,
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.repo.CreateTx(ctx, tx, g); err != nil {
		return nil, err
	}
	if err := s.repo.InsertCostTx(ctx, tx, g.ID, userID, cost); err != nil {
		return nil, err
	}
	if _, err := s.credits.ConsumeTx(ctx, tx, userID, cost, credit.TxMeta{
		RefType:     refTypeGeneration,
		RefID:       g.ID.String(),
		Description: fmt.Sprintf("video generation %ds", in.DurationSeconds),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	taskID, err := s.provider.CreateTask(ctx, veo.CreateTaskRequest{
		Prompt:          in.Prompt,
		DurationSeconds: in.DurationSeconds,
		AspectRatio:     in.AspectRatio,
		ImageURLs:       in.ReferenceImages,
	})
	if err != nil {
		// Debit stands; a later poll or operator resolves the job
		log.Error().Err(err).Str("generation_id", g.ID.String()).Msg("Provider task creation failed")
		s.metrics.Errors.WithLabelValues("provider").Inc()
		return nil, ErrProvider
	}

	if err := s.repo.SetTaskID(ctx, g.ID, taskID, StatusProcessing); err != nil {
		return nil, err
	}
	g.Status = StatusProcessing
	g.TaskID.String = taskID
	g.TaskID.Valid = true

	s.metrics.GenerationsCreated.WithLabelValues("veo-3").Inc()
	return g, nil
}

// Reconcile applies a canonical provider event to the referenced job.
// Idempotent: terminal jobs ignore further events, refunds are
// reference-checked.
func (s *Service) Reconcile(ctx context.Context, event *veo.TaskEvent) error {
	s.metrics.WebhookEvents.WithLabelValues(string(event.Outcome)).Inc()

	if event.Outcome == veo.OutcomePending {
		return nil
	}

	g, err := s.repo.GetByTaskID(ctx, event.TaskID)
	if err != nil {
		return err
	}
	if g.Status.Terminal() {
		return nil
	}

	switch event.Outcome {
	case veo.OutcomeSuccess:
		updated, err := s.repo.MarkCompleted(ctx, g.ID, event.ResultURLs)
		if err != nil {
			return err
		}
		if updated {
			log.Info().Str("generation_id", g.ID.String()).Msg("Generation completed")
		}
		return nil

	case veo.OutcomeFailure:
		return s.reconcileFailure(ctx, g, event.ErrorMessage)
	}

	return nil
}

// reconcileFailure marks the job FAILED, drops its cost row and refunds
// the exact debited amount, all in one transaction.
func (s *Service) reconcileFailure(ctx context.Context, g *Generation, errorMessage string) error {
	refunded, err := s.credits.HasRefund(ctx, refTypeGeneration, g.ID.String())
	if err != nil {
		return err
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	updated, err := s.repo.MarkFailedTx(ctx, tx, g.ID, errorMessage)
	if err != nil {
		return err
	}
	if !updated {
		// Lost the race to another callback
		return nil
	}

	if err := s.repo.DeleteCostTx(ctx, tx, g.ID); err != nil {
		return err
	}

	if !refunded {
		if _, err := s.credits.GrantTx(ctx, tx, g.UserID, g.CostCredits, credit.TxTypeRefund, credit.TxMeta{
			RefType:     refTypeGeneration,
			RefID:       g.ID.String(),
			Description: "refund for failed generation",
		}); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}

	log.Warn().
		Str("generation_id", g.ID.String()).
		Str("error", errorMessage).
		Int64("refunded", g.CostCredits).
		Msg("Generation failed, credits refunded")

	s.notifyFailure(g)
	return nil
}

// Sync polls the provider for the job's current state and runs the
// same reconciliation as the webhook path.
func (s *Service) Sync(ctx context.Context, userID, id uuid.UUID) (*Generation, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.UserID != userID {
		return nil, ErrNotOwner
	}
	if g.Status.Terminal() || !g.TaskID.Valid {
		return g, nil
	}

	status, err := s.provider.QueryTask(ctx, g.TaskID.String)
	if err != nil {
		s.metrics.Errors.WithLabelValues("provider").Inc()
		return nil, ErrProvider
	}

	if err := s.Reconcile(ctx, veo.FromStatus(status)); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

// Get returns a job owned by the user
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Generation, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.UserID != userID {
		return nil, ErrNotOwner
	}
	return g, nil
}

// List returns the user's jobs newest first
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Generation, int, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) notifyFailure(g *Generation) {
	u, err := s.userRepo.GetByID(context.Background(), g.UserID)
	if err != nil || !u.Email.Valid {
		return
	}
	s.mail.Queue(u.Email.String, u.Nickname, "generation_failed", "Your generation was refunded",
		map[string]interface{}{"UserName": u.Nickname, "Credits": g.CostCredits})
}
