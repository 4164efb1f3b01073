package reconcile

import (
	"context"
	"time"

	"coursemart/internal/config"
	"coursemart/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Reconciler is the part of the checkout service the worker drives.
type Reconciler interface {
	ListPending(ctx context.Context, olderThan time.Duration, limit int) ([]model.Purchase, error)
	Reconcile(ctx context.Context, p *model.Purchase) (*model.Purchase, error)
}

// Worker periodically asks the gateways about purchases whose webhook never arrived.
type Worker struct {
	reconciler Reconciler
	interval   time.Duration
	minAge     time.Duration
	batchSize  int
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

func NewWorker(cfg *config.Config, reconciler Reconciler, logger zerolog.Logger) *Worker {
	perSec := cfg.ReconcileRatePerSec
	if perSec <= 0 {
		perSec = 1
	}
	return &Worker{
		reconciler: reconciler,
		interval:   time.Duration(max(cfg.ReconcileIntervalSec, 1)) * time.Second,
		minAge:     time.Duration(cfg.ReconcileMinAgeSec) * time.Second,
		batchSize:  max(cfg.ReconcileBatchSize, 1),
		limiter:    rate.NewLimiter(rate.Limit(perSec), 1),
		logger:     logger.With().Str("orchestrator", "reconcile").Logger(),
	}
}

// Run starts the reconcile orchestrator and blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Dur("interval", w.interval).Dur("min_age", w.minAge).Msg("Starting reconcile orchestrator")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.Sweep(ctx)
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Shutting down reconcile orchestrator")
			return nil
		case <-ticker.C:
		}
	}
}

// Sweep reconciles one batch of stale PENDING purchases and returns how many left PENDING.
func (w *Worker) Sweep(ctx context.Context) int {
	pending, err := w.reconciler.ListPending(ctx, w.minAge, w.batchSize)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error().Err(err).Msg("Error listing pending purchases")
		}
		return 0
	}
	if len(pending) == 0 {
		return 0
	}

	settled := 0
	for i := range pending {
		p := &pending[i]
		if err := w.limiter.Wait(ctx); err != nil {
			return settled
		}
		log := w.logger.With().Str("merchant_order_id", p.MerchantOrderID).Str("gateway", p.Gateway).Logger()
		updated, err := w.reconciler.Reconcile(ctx, p)
		if err != nil {
			log.Warn().Err(err).Msg("Reconcile failed")
			continue
		}
		if updated.State != model.PurchaseStatePending {
			settled++
			log.Info().Str("state", updated.State).Str("reason", updated.FailureReason).Msg("Purchase settled by reconciliation")
		}
	}
	w.logger.Debug().Int("checked", len(pending)).Int("settled", settled).Msg("Reconcile sweep finished")
	return settled
}
