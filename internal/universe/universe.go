// Package universe produces the full ordered list of identifiers a run
// may process.
package universe

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"stockbatch/internal/fetcher"
)

// Loader produces the full, ordered, de-duplicated identifier universe.
// A Loader failure aborts the run before any fetching begins: fetching
// against a stale or empty universe is worse than doing nothing.
type Loader interface {
	Load(ctx context.Context) ([]string, error)
}

// FileLoader reads identifiers from a local list file, one per line.
// Blank lines and lines starting with '#' are skipped.
type FileLoader struct {
	Path string
}

// Load implements the Loader interface.
func (l *FileLoader) Load(ctx context.Context) ([]string, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fetcher.ErrSourceUnavailable, err)
	}
	defer f.Close()

	var codes []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		codes = append(codes, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", fetcher.ErrSourceUnavailable, err)
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("%w: %s contains no identifiers", fetcher.ErrSourceUnavailable, l.Path)
	}
	return Dedupe(codes), nil
}

// Dedupe removes repeated identifiers while preserving first-seen order.
func Dedupe(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := codes[:0:0]
	for _, code := range codes {
		if !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	return out
}
