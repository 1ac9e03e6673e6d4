// Package planner computes the work slice for one run: the universe minus
// what the dataset already covers, capped at the configured batch size.
package planner

// Plan returns the ordered identifiers to fetch this run. Universe order
// is preserved, done identifiers are excluded, startOffset skips that many
// not-done identifiers from the front, and the result is capped at
// batchSize. An empty result means all work is complete, which is a normal
// terminal state for the run, not an error.
func Plan(universe []string, done map[string]bool, batchSize, startOffset int) []string {
	if batchSize <= 0 {
		return nil
	}

	var pending []string
	for _, code := range universe {
		if !done[code] {
			pending = append(pending, code)
		}
	}

	if startOffset >= len(pending) {
		return nil
	}
	if startOffset > 0 {
		pending = pending[startOffset:]
	}
	if len(pending) > batchSize {
		pending = pending[:batchSize]
	}
	return pending
}
