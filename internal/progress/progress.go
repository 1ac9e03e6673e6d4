// Package progress derives the set of already-collected identifiers from
// the persisted dataset. There is no separate checkpoint file: presence in
// the output is the only notion of "done".
package progress

import (
	"stockbatch/internal/dataset"
	"stockbatch/internal/logging"
)

// Inspect returns the set of identifiers with at least one row in the
// dataset at path. This is a coarse completeness check: it reports
// presence, not freshness; callers wanting period-level completeness must
// apply that policy themselves.
//
// A missing dataset yields an empty set. A present but unreadable dataset
// also yields an empty set, with a warning: a corrupt progress file must
// never fail the run, only cost it some repeated work.
func Inspect(path string) map[string]bool {
	done := make(map[string]bool)

	table, err := dataset.Read(path)
	if err != nil {
		logger := logging.NewLogger("progress")
		logger.Warn().
			Str("path", path).
			Err(err).
			Msg("persisted dataset unreadable, treating all work as pending")
		return done
	}

	for _, row := range table.Rows {
		if code := row[dataset.ColCode]; code != "" {
			done[code] = true
		}
	}
	return done
}
