package core

// scheduler.go runs background maintenance.
//
// Currently implements dataset retention: uploads older than the configured
// age are removed from the store and from the in-memory cache. The scheduler
// is long-running and stops with its context. A failed cycle is logged and
// retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultRetentionInterval is used when RetentionConfig.CheckInterval is not positive.
const DefaultRetentionInterval = time.Hour

// RetentionConfig holds configuration for the retention scheduler.
type RetentionConfig struct {
	MaxAge        time.Duration // Uploads older than this are removed
	CheckInterval time.Duration // How often to run (default: 1h)
}

// StartRetentionScheduler removes expired datasets immediately and then
// every CheckInterval until ctx is cancelled. A non-positive MaxAge disables it.
func (s *Service) StartRetentionScheduler(ctx context.Context, cfg RetentionConfig) {
	if cfg.MaxAge <= 0 {
		return
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultRetentionInterval
	}

	slog.Info("retention scheduler started",
		"max_age", cfg.MaxAge.String(),
		"interval", cfg.CheckInterval.String(),
	)

	s.runRetentionJob(ctx, cfg.MaxAge)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention scheduler stopped")
			return
		case <-ticker.C:
			s.runRetentionJob(ctx, cfg.MaxAge)
		}
	}
}

// runRetentionJob performs one retention cycle and returns the number of
// stored datasets removed.
func (s *Service) runRetentionJob(ctx context.Context, maxAge time.Duration) int64 {
	start := time.Now()
	cutoff := start.Add(-maxAge)

	removed, err := s.store.DeleteDatasetsBefore(ctx, cutoff)
	if err != nil {
		slog.Error("retention failed", "error", err)
		return 0
	}
	evicted := s.forgetBefore(cutoff)

	slog.Info("retention job completed",
		"datasets_removed", removed,
		"cache_evicted", evicted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return removed
}

// forgetBefore drops cached datasets uploaded before cutoff.
func (s *Service) forgetBefore(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	kept := s.order[:0]
	for _, id := range s.order {
		if s.datasets[id].UploadedAt.Before(cutoff) {
			delete(s.datasets, id)
			evicted++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return evicted
}
