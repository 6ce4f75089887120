// Package sweeper runs the optional background loop that quarantines pending
// updates which never received their confirming webhook.
package sweeper

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/seasonalbox/boxsync/config"
	"github.com/seasonalbox/boxsync/internal/service"
)

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Reconciliation *service.ReconciliationService
	Config         config.SweeperConfig
	Logger         *slog.Logger
}

// Runner periodically sweeps stale pending updates into the faulty store. It
// is disabled by default; operators opt in because it converts "still
// waiting" into "gave up" on a timer.
type Runner struct {
	reconciliation *service.ReconciliationService
	config         config.SweeperConfig
	logger         *slog.Logger
}

// NewRunner creates a sweeper runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Reconciliation == nil {
		return nil, errors.New("reconciliation service is required")
	}
	if opts.Config.Interval <= 0 {
		return nil, fmt.Errorf("invalid sweep interval: %s", opts.Config.Interval)
	}
	if opts.Config.MaxAge <= 0 {
		return nil, fmt.Errorf("invalid sweep max age: %s", opts.Config.MaxAge)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		reconciliation: opts.Reconciliation,
		config:         opts.Config,
		logger:         logger.With("component", "sweeper"),
	}, nil
}

// Run starts the sweep loop and runs until the context is cancelled.
// Returns nil on graceful shutdown.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting sweeper",
		"interval", r.config.Interval, "max_age", r.config.MaxAge)

	// Jitter so multiple instances starting together do not sweep in lockstep.
	r.waitWithJitter(ctx)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	r.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "sweeper stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Runner) waitWithJitter(ctx context.Context) {
	maxJitter := int64(r.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		r.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}
	jitter := time.Duration(int64(binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter))) // #nosec G115 - bounded by maxJitter

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}

func (r *Runner) sweep(ctx context.Context) {
	moved, err := r.reconciliation.SweepStale(ctx, r.config.MaxAge)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		// Keep running; the next tick retries.
		r.logger.ErrorContext(ctx, "sweep failed", "error", err, "moved_before_failure", moved)
	}
}
