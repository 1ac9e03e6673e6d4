package collector

import (
	"fmt"
	"strings"
	"time"

	"stockbatch/internal/fetcher"
)

// Accumulator collects this run's rows and counters. It is owned by the
// single aggregator goroutine; workers never touch it directly.
type Accumulator struct {
	Rows        []fetcher.Row
	Succeeded   int
	Failed      int
	Empty       int
	FailedCodes []string
}

// Summary is the machine-readable outcome of one run.
type Summary struct {
	Source      string        `json:"source"`
	OutputPath  string        `json:"output_path"`
	Attempted   int           `json:"attempted"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	Empty       int           `json:"empty"`
	FailedCodes []string      `json:"failed_codes,omitempty"`
	RowsWritten int           `json:"rows_written"`
	TotalRows   int           `json:"total_rows"`
	Duration    time.Duration `json:"duration"`
	Interrupted bool          `json:"interrupted"`
	AllComplete bool          `json:"all_complete"`
}

// String renders the human-readable summary block printed at run end.
func (s *Summary) String() string {
	var b strings.Builder
	rule := strings.Repeat("=", 48)

	fmt.Fprintln(&b, rule)
	switch {
	case s.AllComplete:
		fmt.Fprintf(&b, "all work complete: nothing left to fetch from %s\n", s.Source)
	case s.Interrupted:
		fmt.Fprintf(&b, "run interrupted: partial progress saved to %s\n", s.OutputPath)
	default:
		fmt.Fprintf(&b, "run complete: %s -> %s\n", s.Source, s.OutputPath)
	}
	fmt.Fprintf(&b, "attempted: %d  succeeded: %d  failed: %d  empty: %d\n",
		s.Attempted, s.Succeeded, s.Failed, s.Empty)
	if len(s.FailedCodes) > 0 {
		fmt.Fprintf(&b, "failed codes: %s\n", strings.Join(s.FailedCodes, ", "))
	}
	if !s.AllComplete {
		fmt.Fprintf(&b, "rows written: %d (dataset total %d)\n", s.RowsWritten, s.TotalRows)
	}
	fmt.Fprintf(&b, "duration: %s\n", s.Duration.Round(time.Millisecond))
	fmt.Fprint(&b, rule)
	return b.String()
}
