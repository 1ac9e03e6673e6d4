package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for collector runs.
var (
	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockbatch_fetches_total",
		Help: "Total identifier fetches by source and outcome",
	}, []string{"source", "outcome"})

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockbatch_fetch_duration_seconds",
		Help:    "Per-identifier fetch duration in seconds by source",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"source"})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockbatch_runs_total",
		Help: "Total collector runs by result",
	}, []string{"result"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stockbatch_run_duration_seconds",
		Help:    "Collector run duration in seconds",
		Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
	})
)

// Metric label values.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeEmpty   = "empty"

	resultComplete          = "complete"
	resultSourceUnavailable = "source_unavailable"
	resultPersistFailed     = "persist_failed"
)
