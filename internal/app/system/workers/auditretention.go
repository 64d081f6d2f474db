// internal/app/system/workers/auditretention.go
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// AuditPruner deletes audit events older than a cutoff.
type AuditPruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditRetention is a background worker that drops audit events older than
// the retention window on a cron schedule.
type AuditRetention struct {
	store     AuditPruner
	log       *zap.Logger
	schedule  string
	retention time.Duration
	now       func() time.Time
	cron      *cron.Cron
}

// NewAuditRetention creates a new audit retention worker.
//
// Parameters:
//   - store: the audit store
//   - logger: zap logger for logging
//   - schedule: cron expression for pruning runs (e.g., "@every 1h", "15 3 * * *")
//   - retention: how long events are kept (e.g., 90 days)
func NewAuditRetention(store AuditPruner, logger *zap.Logger, schedule string, retention time.Duration) (*AuditRetention, error) {
	w := &AuditRetention{
		store:     store,
		log:       logger,
		schedule:  schedule,
		retention: retention,
		now:       time.Now,
		cron:      cron.New(cron.WithLocation(time.UTC)),
	}
	if _, err := w.cron.AddFunc(schedule, func() { w.Prune() }); err != nil {
		return nil, fmt.Errorf("schedule audit pruning %q: %w", schedule, err)
	}
	return w, nil
}

// Start begins the cron scheduler.
func (w *AuditRetention) Start() {
	w.cron.Start()
	w.log.Info("audit retention worker started",
		zap.String("schedule", w.schedule),
		zap.Duration("retention", w.retention))
}

// Stop halts the scheduler and waits for a running prune to finish.
func (w *AuditRetention) Stop() {
	<-w.cron.Stop().Done()
	w.log.Info("audit retention worker stopped")
}

// Prune deletes everything older than the retention window and returns the
// number of events removed.
func (w *AuditRetention) Prune() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := w.now().UTC().Add(-w.retention)
	count, err := w.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		w.log.Error("failed to prune audit events", zap.Error(err))
		return 0
	}

	if count > 0 {
		w.log.Info("pruned audit events", zap.Int64("count", count), zap.Time("cutoff", cutoff))
	}
	return count
}
