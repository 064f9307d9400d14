package jobs

import (
	"context"
	"time"

	"hseqaudit/cmd/internal/config"
	"hseqaudit/cmd/internal/domain/entity"
	"hseqaudit/cmd/internal/domain/events"
	"hseqaudit/cmd/internal/infrastructure/webhook"
	"hseqaudit/cmd/internal/utils"
)

const (
	overdueBatchSize = 100
	dayMillis        = int64(24 * time.Hour / time.Millisecond)
)

type NCRepository interface {
	FindOverdueUnnotified(now int64, limit int) ([]*entity.NonConformity, error)
	MarkOverdueNotified(id int64, at int64) error
}

type Notifier interface {
	Notify(ctx context.Context, event webhook.Event, data any) bool
	Enabled() bool
}

// OverdueWatcher posts one nc.overdue notification per NC that passed its due
// date while still open. NCs whose notification failed are retried on the
// next sweep.
type OverdueWatcher struct {
	ncRepo   NCRepository
	notifier Notifier
	interval time.Duration
}

func NewOverdueWatcher(ncRepo NCRepository, notifier Notifier, interval time.Duration) *OverdueWatcher {
	return &OverdueWatcher{ncRepo: ncRepo, notifier: notifier, interval: interval}
}

func (w *OverdueWatcher) Start(ctx context.Context) {
	log := config.GetLogger()
	if w.interval <= 0 {
		log.Info("Overdue NC watcher disabled")
		return
	}
	if !w.notifier.Enabled() {
		log.Warn("Overdue NC watcher not started, webhook url is not configured")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Infof("Overdue NC watcher started, sweeping every %s", w.interval)

	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping overdue NC watcher...")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep notifies the current batch of overdue NCs and returns how many were
// delivered.
func (w *OverdueWatcher) Sweep(ctx context.Context) int {
	log := config.GetLogger()
	now := utils.NowUTC()

	ncs, err := w.ncRepo.FindOverdueUnnotified(now, overdueBatchSize)
	if err != nil {
		config.LogError(log, "jobs", "Sweep", "Fetching overdue non-conformities", now, err)
		return 0
	}

	if len(ncs) == 0 {
		return 0
	}

	log.Infof("Watcher: found %d overdue non-conformities", len(ncs))

	delivered := 0
	for _, nc := range ncs {
		if ctx.Err() != nil {
			break
		}

		event := &events.NCOverdue{
			NCID:        nc.ID,
			Code:        nc.Code,
			Severity:    string(nc.Severity),
			Status:      string(nc.Status),
			DueDate:     utils.FormatEpoch(nc.DueDate),
			DaysOverdue: int((now - nc.DueDate) / dayMillis),
			AuditCode:   nc.Finding.Audit.Code,
		}
		if !w.notifier.Notify(ctx, event.GetType(), event) {
			continue
		}

		if err := w.ncRepo.MarkOverdueNotified(nc.ID, now); err != nil {
			config.LogError(log, "jobs", "Sweep", "Marking overdue notification", nc.Code, err)
			continue
		}
		delivered++
	}
	return delivered
}
