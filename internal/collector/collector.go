// Package collector drives one collection run: load the universe, derive
// the remaining work from the persisted dataset, fetch the planned batch,
// and merge the results back into the dataset.
//
// A run moves strictly forward through its states; resumability happens
// across runs, never within one. One identifier's failure never aborts
// the batch: the next run retries it automatically because it is still
// absent from the dataset.
package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"stockbatch/internal/dataset"
	"stockbatch/internal/fetcher"
	"stockbatch/internal/logging"
	"stockbatch/internal/planner"
	"stockbatch/internal/progress"
	"stockbatch/internal/universe"
)

// EmptyPolicy decides what a zero-row fetch means for resumability.
type EmptyPolicy string

const (
	// EmptyPolicyDone records a marker row for the identifier, so it is
	// present in the dataset and never refetched.
	EmptyPolicyDone EmptyPolicy = "done"

	// EmptyPolicyRetry records nothing; the next run fetches the
	// identifier again.
	EmptyPolicyRetry EmptyPolicy = "retry"
)

// Run states, in the order a run passes through them.
const (
	stateInit       = "init"
	statePlanning   = "planning"
	stateFetching   = "fetching"
	statePersisting = "persisting"
	stateDone       = "done"
)

// Config holds one run's settings.
type Config struct {
	// OutputPath is the persisted dataset file.
	OutputPath string

	// BatchSize caps how many identifiers one run attempts.
	BatchSize int

	// StartOffset skips that many pending identifiers from the front of
	// the work queue.
	StartOffset int

	// Workers is the number of concurrent fetchers. The default of 1
	// keeps the sequential single-worker discipline.
	Workers int

	// RateLimit is the aggregate request rate across all workers, in
	// requests per second. Zero or negative disables limiting.
	RateLimit float64

	// FailureDelay is an extra pause a worker takes after a failed
	// fetch, to let transient rate-limit conditions clear.
	FailureDelay time.Duration

	// EmptyPolicy decides whether zero-row results count as done.
	EmptyPolicy EmptyPolicy
}

// Collector runs the batch collection pipeline.
type Collector struct {
	loader  universe.Loader
	fetcher fetcher.Fetcher
	cfg     Config
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// New creates a Collector over the given universe loader and source
// fetcher.
func New(loader universe.Loader, f fetcher.Fetcher, cfg Config) *Collector {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.EmptyPolicy == "" {
		cfg.EmptyPolicy = EmptyPolicyDone
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &Collector{
		loader:  loader,
		fetcher: f,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logging.NewLogger("collector"),
	}
}

// Run executes one full collection run. It returns a Summary in every
// non-fatal outcome, including interruption; the error is non-nil only
// for the two run-level failures (universe unavailable, persist failed).
func (c *Collector) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	// INIT: load universe and progress.
	c.logger.Debug().Str("state", stateInit).Msg("loading universe")
	codes, err := c.loader.Load(ctx)
	if err != nil {
		runsTotal.WithLabelValues(resultSourceUnavailable).Inc()
		return nil, err
	}
	done := progress.Inspect(c.cfg.OutputPath)
	c.logger.Info().
		Int("universe", len(codes)).
		Int("done", len(done)).
		Msg("universe loaded")

	// PLANNING: compute this run's work slice.
	c.logger.Debug().Str("state", statePlanning).Msg("planning batch")
	plan := planner.Plan(codes, done, c.cfg.BatchSize, c.cfg.StartOffset)
	if len(plan) == 0 {
		runsTotal.WithLabelValues(resultComplete).Inc()
		runDuration.Observe(time.Since(start).Seconds())
		return &Summary{
			Source:      c.fetcher.Source(),
			OutputPath:  c.cfg.OutputPath,
			AllComplete: true,
			Duration:    time.Since(start),
		}, nil
	}
	c.logger.Info().
		Int("planned", len(plan)).
		Int("workers", c.cfg.Workers).
		Msg("batch planned")

	// FETCHING: workers fetch, one aggregator accumulates.
	c.logger.Debug().Str("state", stateFetching).Msg("fetching batch")
	acc := c.fetchBatch(ctx, plan)

	// PERSISTING: merge accumulated rows into the dataset. Runs even
	// after an interrupt; partial progress beats none and the merge is
	// idempotent per identifier.
	c.logger.Debug().Str("state", statePersisting).Msg("merging dataset")
	totalRows := len(acc.Rows)
	if len(acc.Rows) > 0 {
		existing, err := dataset.Read(c.cfg.OutputPath)
		if err != nil {
			// Same degradation as the progress inspector: a corrupt prior
			// dataset costs repeated work, never the run.
			c.logger.Warn().Err(err).Msg("existing dataset unreadable, replacing it")
			existing = &dataset.Table{}
		}
		merged := dataset.Merge(existing, acc.Rows, c.fetcher.KeyColumn())
		if err := dataset.WriteAtomic(c.cfg.OutputPath, merged); err != nil {
			runsTotal.WithLabelValues(resultPersistFailed).Inc()
			return nil, err
		}
		totalRows = len(merged.Rows)
	}

	// DONE.
	c.logger.Debug().Str("state", stateDone).Msg("run finished")
	runsTotal.WithLabelValues(resultComplete).Inc()
	runDuration.Observe(time.Since(start).Seconds())
	return &Summary{
		Source:      c.fetcher.Source(),
		OutputPath:  c.cfg.OutputPath,
		Attempted:   acc.Succeeded + acc.Failed + acc.Empty,
		Succeeded:   acc.Succeeded,
		Failed:      acc.Failed,
		Empty:       acc.Empty,
		FailedCodes: acc.FailedCodes,
		RowsWritten: len(acc.Rows),
		TotalRows:   totalRows,
		Duration:    time.Since(start),
		Interrupted: ctx.Err() != nil,
	}, nil
}

// fetchBatch runs the planned identifiers through the worker pool and
// drains all results into the accumulator. Cancellation stops dispatching
// new work but in-flight results are still collected.
func (c *Collector) fetchBatch(ctx context.Context, plan []string) *Accumulator {
	jobs := make(chan string)
	results := make(chan fetcher.Result, len(plan))

	var g errgroup.Group
	for i := 0; i < c.cfg.Workers; i++ {
		g.Go(func() error {
			c.worker(ctx, jobs, results)
			return nil
		})
	}

	go func() {
		defer close(jobs)
		for _, code := range plan {
			select {
			case jobs <- code:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		g.Wait()
		close(results)
	}()

	acc := &Accumulator{}
	for result := range results {
		c.accumulate(acc, result)
	}
	return acc
}

// worker fetches one identifier at a time from jobs, respecting the
// shared aggregate rate limit, and pauses extra after failures.
func (c *Collector) worker(ctx context.Context, jobs <-chan string, results chan<- fetcher.Result) {
	for code := range jobs {
		if err := c.limiter.Wait(ctx); err != nil {
			return
		}

		start := time.Now()
		rows, err := c.fetcher.Fetch(ctx, code)
		results <- fetcher.Result{
			Code:     code,
			Rows:     rows,
			Error:    err,
			Duration: time.Since(start),
		}

		if err != nil && c.cfg.FailureDelay > 0 {
			timer := time.NewTimer(c.cfg.FailureDelay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}
	}
}

// accumulate applies one fetch result to the accumulator: stamps the
// collection-time columns, updates counters, and emits the per-identifier
// progress line.
func (c *Collector) accumulate(acc *Accumulator, result fetcher.Result) {
	source := c.fetcher.Source()
	fetchDuration.WithLabelValues(source).Observe(result.Duration.Seconds())

	if result.Error != nil {
		acc.Failed++
		acc.FailedCodes = append(acc.FailedCodes, result.Code)
		fetchesTotal.WithLabelValues(source, outcomeFailure).Inc()
		c.logger.Warn().
			Str("code", result.Code).
			Dur("duration", result.Duration).
			Err(result.Error).
			Msg("fetch failed")
		return
	}

	now := time.Now().Format(time.RFC3339)
	if len(result.Rows) == 0 {
		acc.Empty++
		fetchesTotal.WithLabelValues(source, outcomeEmpty).Inc()
		if c.cfg.EmptyPolicy == EmptyPolicyDone {
			// Marker row: presence in the dataset is what marks the
			// identifier done, so an empty result must leave a trace.
			acc.Rows = append(acc.Rows, fetcher.Row{
				dataset.ColCode:      result.Code,
				dataset.ColFetchTime: now,
			})
		}
		c.logger.Info().
			Str("code", result.Code).
			Dur("duration", result.Duration).
			Msg("fetched, no data")
		return
	}

	for _, row := range result.Rows {
		row[dataset.ColCode] = result.Code
		row[dataset.ColFetchTime] = now
		acc.Rows = append(acc.Rows, row)
	}
	acc.Succeeded++
	fetchesTotal.WithLabelValues(source, outcomeSuccess).Inc()
	c.logger.Info().
		Str("code", result.Code).
		Int("rows", len(result.Rows)).
		Dur("duration", result.Duration).
		Msg("fetched")
}
