package workers

import (
	"context"
	"time"

	"coachhub_backend/internal/logger"
	"coachhub_backend/internal/services"
)

// SubscriptionWorker runs the lifecycle sweeps: marking lapsed
// subscriptions expired and garbage-collecting stale inactive rows.
type SubscriptionWorker struct {
	subscriptionService services.SubscriptionService
}

func NewSubscriptionWorker(subscriptionService services.SubscriptionService) *SubscriptionWorker {
	return &SubscriptionWorker{subscriptionService: subscriptionService}
}

func (w *SubscriptionWorker) Start(ctx context.Context) {
	go w.expireLapsed(ctx)
	go w.cleanupStaleInactive(ctx)
}

// expireLapsed flips active and trial rows past their effective expiry
// to expired. Reads reconcile lazily in the meantime, so a longer
// interval only delays the persisted status, not actual access.
func (w *SubscriptionWorker) expireLapsed(ctx context.Context) {
	ticker := time.NewTicker(6 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("subscription expiry worker stopped")
			return
		case <-ticker.C:
			expired, err := w.subscriptionService.ExpireLapsed(time.Now())
			if err != nil {
				logger.Error("subscription expiry sweep failed", "error", err)
				continue
			}
			if expired > 0 {
				logger.Info("subscription expiry sweep done", "expired", expired)
			}
		}
	}
}

// cleanupStaleInactive removes inactive rows that never saw a payment.
func (w *SubscriptionWorker) cleanupStaleInactive(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("subscription cleanup worker stopped")
			return
		case <-ticker.C:
			deleted, err := w.subscriptionService.CleanupStaleInactive(time.Now())
			if err != nil {
				logger.Error("stale subscription cleanup failed", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("stale subscription cleanup done", "deleted", deleted)
			}
		}
	}
}
