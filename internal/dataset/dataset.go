// Package dataset implements the persisted output table: a flat CSV file
// keyed by (code, optional secondary column), de-duplicated on write.
// The file is the sole durable state of the collector; resumability works
// by re-reading it at the start of the next run.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"stockbatch/internal/fetcher"
)

// Reserved column names added by the collector to every row.
const (
	ColCode      = "code"
	ColFetchTime = "fetch_time"
)

// Table is an in-memory view of the persisted dataset.
type Table struct {
	// Columns is the header, in file order.
	Columns []string

	// Rows holds one map per record. Fields absent from a row are
	// written as empty strings.
	Rows []fetcher.Row
}

// Empty reports whether the table holds no rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// Read loads the dataset at path. A missing file yields an empty table
// and no error; a present but unparseable file yields an error the
// caller may choose to ignore.
func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Table{}, nil
		}
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return &Table{}, nil
		}
		return nil, fmt.Errorf("failed to read dataset header: %w", err)
	}

	table := &Table{Columns: header}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read dataset row: %w", err)
		}
		row := make(fetcher.Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// mergeKey builds the de-duplication key for one row.
// keyColumn may be empty, in which case rows are keyed by code alone.
func mergeKey(row fetcher.Row, keyColumn string) string {
	if keyColumn == "" {
		return row[ColCode]
	}
	return row[ColCode] + "\x1f" + row[keyColumn]
}

// Merge combines an existing table with this run's rows. The just-fetched
// row replaces any prior row sharing the same (code, keyColumn) pair;
// non-overlapping existing rows keep their position, new keys append in
// fetch order. The column set is the union of all fields, with code first
// and fetch_time last.
func Merge(existing *Table, batch []fetcher.Row, keyColumn string) *Table {
	merged := &Table{}

	index := make(map[string]int)
	if existing != nil {
		for _, row := range existing.Rows {
			index[mergeKey(row, keyColumn)] = len(merged.Rows)
			merged.Rows = append(merged.Rows, row)
		}
	}
	for _, row := range batch {
		key := mergeKey(row, keyColumn)
		if i, ok := index[key]; ok {
			merged.Rows[i] = row
		} else {
			index[key] = len(merged.Rows)
			merged.Rows = append(merged.Rows, row)
		}
	}

	merged.Columns = unionColumns(existing, batch)
	return merged
}

// unionColumns computes the header: code, then domain columns in
// first-seen order, then fetch_time.
func unionColumns(existing *Table, batch []fetcher.Row) []string {
	seen := map[string]bool{ColCode: true, ColFetchTime: true}
	columns := []string{ColCode}

	add := func(col string) {
		if !seen[col] {
			seen[col] = true
			columns = append(columns, col)
		}
	}

	if existing != nil {
		for _, col := range existing.Columns {
			add(col)
		}
	}

	// Row fields are maps, so fields new to this run are sorted to keep
	// the header deterministic across runs.
	var fresh []string
	for _, row := range batch {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				fresh = append(fresh, col)
			}
		}
	}
	sort.Strings(fresh)
	columns = append(columns, fresh...)

	return append(columns, ColFetchTime)
}

// WriteAtomic persists the table to path via a temporary file in the same
// directory followed by a rename, so a crash mid-write never leaves a
// truncated dataset behind.
func WriteAtomic(path string, table *Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", fetcher.ErrPersistFailed, err)
	}

	tmp, err := os.CreateTemp(dir, ".dataset-*.csv")
	if err != nil {
		return fmt.Errorf("%w: %v", fetcher.ErrPersistFailed, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(table.Columns); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", fetcher.ErrPersistFailed, err)
	}
	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, col := range table.Columns {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			tmp.Close()
			return fmt.Errorf("%w: %v", fetcher.ErrPersistFailed, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", fetcher.ErrPersistFailed, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", fetcher.ErrPersistFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", fetcher.ErrPersistFailed, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %v", fetcher.ErrPersistFailed, err)
	}
	return nil
}
