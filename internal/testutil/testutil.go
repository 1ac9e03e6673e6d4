package testutil

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"stockbatch/internal/fetcher"
)

// MockFetcher is a mock implementation of the Fetcher interface for testing
type MockFetcher struct {
	FetchFunc     func(ctx context.Context, code string) ([]fetcher.Row, error)
	SourceName    string
	KeyColumnName string
}

// Fetch implements the Fetcher interface
func (m *MockFetcher) Fetch(ctx context.Context, code string) ([]fetcher.Row, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, code)
	}
	return nil, nil
}

// Source implements the Fetcher interface
func (m *MockFetcher) Source() string {
	if m.SourceName != "" {
		return m.SourceName
	}
	return "mock"
}

// KeyColumn implements the Fetcher interface
func (m *MockFetcher) KeyColumn() string {
	return m.KeyColumnName
}

// DatasetPath returns a dataset path inside a fresh temp directory.
func DatasetPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "dataset.csv")
}

// WriteCSV writes a raw CSV file at path, header first.
func WriteCSV(t *testing.T, path string, records [][]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// WriteUniverse writes an identifier list file, one code per line.
func WriteUniverse(t *testing.T, dir string, codes []string) string {
	t.Helper()
	path := filepath.Join(dir, "universe.txt")
	var data []byte
	for _, code := range codes {
		data = append(data, code...)
		data = append(data, '\n')
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write universe file: %v", err)
	}
	return path
}
