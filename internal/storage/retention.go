package storage

import (
	"context"
	"log/slog"
	"time"
)

// SweepConfig holds retention configuration for ranked snapshots.
type SweepConfig struct {
	// Retention is how long a ranked snapshot is kept after it was cached.
	// Zero disables the sweeper.
	Retention time.Duration
	Interval  time.Duration
}

// SweepResult contains the outcome of a sweep run.
type SweepResult struct {
	Timestamp     time.Time
	Duration      time.Duration
	RankedDeleted int64
}

// StartSweeper runs Sweep periodically until ctx is cancelled.
// Returns immediately if retention is disabled.
func (s *Storage) StartSweeper(ctx context.Context, cfg SweepConfig, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Retention <= 0 {
		logger.Info("ranked retention disabled, sweeper not started")
		return
	}
	if cfg.Interval < time.Minute {
		cfg.Interval = time.Minute
	}

	logger.Info("sweeper started", "retention", cfg.Retention, "interval", cfg.Interval)

	// Run once at startup
	s.Sweep(ctx, cfg.Retention, logger)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx, cfg.Retention, logger)
		}
	}
}

// Sweep deletes ranked snapshots cached longer ago than retention.
// It returns nil when another sweep is already running or the delete fails.
func (s *Storage) Sweep(ctx context.Context, retention time.Duration, logger *slog.Logger) *SweepResult {
	if logger == nil {
		logger = slog.Default()
	}

	// Try to acquire semaphore (non-blocking)
	select {
	case s.sweepRunning <- struct{}{}:
		defer func() { <-s.sweepRunning }()
	default:
		logger.Debug("sweep already in progress, skipping")
		return nil
	}

	start := time.Now()
	cutoff := s.unixNow() - int64(retention.Seconds())

	res, err := s.db.ExecContext(ctx, `DELETE FROM ranked_cache WHERE cached_at < ?`, cutoff)
	if err != nil {
		logger.Error("sweep failed", "error", err)
		return nil
	}

	result := &SweepResult{Timestamp: start}
	result.RankedDeleted, _ = res.RowsAffected()
	result.Duration = time.Since(start)

	s.sweepMu.Lock()
	s.lastSweep = result
	s.sweepMu.Unlock()

	if result.RankedDeleted > 0 {
		logger.Info("sweep completed", "duration", result.Duration.Round(time.Millisecond), "ranked_deleted", result.RankedDeleted)
	} else {
		logger.Debug("sweep completed, nothing to delete", "duration", result.Duration.Round(time.Millisecond))
	}
	return result
}

// LastSweep returns the most recent completed sweep, or nil.
func (s *Storage) LastSweep() *SweepResult {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()
	return s.lastSweep
}
