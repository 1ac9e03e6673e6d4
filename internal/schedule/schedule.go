// Package schedule runs the collector repeatedly on a cron schedule.
package schedule

import (
	"context"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"stockbatch/internal/logging"
)

// CollectFunc is one collection run. The error is the run-level failure,
// already logged by the caller's pipeline; the scheduler only records it.
type CollectFunc func(ctx context.Context) error

// Runner triggers a CollectFunc on a cron schedule. A tick that arrives
// while the previous run is still in flight is skipped, never queued:
// back-to-back runs against the same dataset would just repeat work.
type Runner struct {
	spec    string
	collect CollectFunc
	logger  zerolog.Logger
	running atomic.Bool
}

// NewRunner creates a scheduler for the given cron spec.
func NewRunner(spec string, collect CollectFunc) *Runner {
	return &Runner{
		spec:    spec,
		collect: collect,
		logger:  logging.NewLogger("schedule"),
	}
}

// Run blocks until ctx is canceled, firing the collect func on every
// cron tick.
func (r *Runner) Run(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(r.spec, func() { r.tick(ctx) })
	if err != nil {
		return err
	}

	r.logger.Info().Str("spec", r.spec).Msg("scheduler started")
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	r.logger.Info().Msg("scheduler stopped")
	return nil
}

func (r *Runner) tick(ctx context.Context) {
	if !r.running.CompareAndSwap(false, true) {
		r.logger.Warn().Msg("previous run still in flight, skipping tick")
		return
	}
	defer r.running.Store(false)

	if err := r.collect(ctx); err != nil {
		r.logger.Error().Err(err).Msg("scheduled run failed")
	}
}
