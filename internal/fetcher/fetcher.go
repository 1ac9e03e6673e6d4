package fetcher

import "context"

// Row is one record returned by an external source: named fields, all
// string-encoded. Sources do not share a schema; the dataset layer takes
// the union of field names across rows.
type Row map[string]string

// Fetcher is the core interface every data source must implement.
// One Fetch call retrieves the record set for one identifier; zero rows
// is a valid "no data for this identifier" outcome, not an error.
type Fetcher interface {
	// Fetch retrieves all rows for the given identifier.
	Fetch(ctx context.Context, code string) ([]Row, error)

	// Source returns a short name for the external source, used in
	// logs and metrics.
	Source() string

	// KeyColumn returns the name of the field that acts as the
	// secondary merge key within one identifier (e.g. "report_date").
	// Empty means rows are keyed by identifier alone.
	KeyColumn() string
}
