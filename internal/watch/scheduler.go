package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"fsql/internal/catalog"
)

// Scheduler runs a periodic full catalog refresh on a cron schedule. It is
// a safety net for changes the filesystem watcher misses, such as edits on
// network shares.
type Scheduler struct {
	cron *cron.Cron
	cat  *catalog.Catalog
	log  *slog.Logger
}

// NewScheduler creates a scheduler that refreshes all attached databases on
// the given cron spec.
func NewScheduler(cat *catalog.Catalog, spec string, log *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{cron: cron.New(), cat: cat, log: log}
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.cat.RefreshAll(ctx); err != nil {
			s.log.Warn("scheduled refresh failed", "error", err)
			return
		}
		s.log.Info("scheduled refresh complete")
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("refresh scheduler started")
}

// Stop stops the cron loop, waiting for a running refresh to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("refresh scheduler stopped")
}
