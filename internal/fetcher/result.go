package fetcher

import "time"

// Result represents the outcome of fetching one identifier.
// It's designed to be sent through a channel from worker goroutines
// to a single aggregator that accumulates rows and counters.
type Result struct {
	// Code is the identifier this result belongs to.
	Code string

	// Rows is the fetched record set. Empty with a nil Error means the
	// source has no data for this identifier.
	Rows []Row

	// Error contains any error that occurred during the fetch.
	// If Error is not nil, Rows should be considered invalid.
	Error error

	// Duration is how long the fetch took, including retries.
	Duration time.Duration
}
