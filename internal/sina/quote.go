// Package sina fetches daily quote rows from the Sina realtime quote API.
// The payload is GBK-encoded Javascript, not JSON.
package sina

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
	"resty.dev/v3"

	"stockbatch/internal/fetcher"
)

// DefaultBaseURL is the quote endpoint used when no override is
// configured.
const DefaultBaseURL = "https://hq.sinajs.cn"

// QuoteFetcher fetches the current daily quote for one stock.
type QuoteFetcher struct {
	client *resty.Client
}

// NewQuoteFetcher creates a quote fetcher against the given base URL.
func NewQuoteFetcher(baseURL string, timeout time.Duration) *QuoteFetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := fetcher.NewHTTPClient(baseURL, timeout).
		// The quote host rejects requests without a finance referer.
		SetHeader("Referer", "https://finance.sina.com.cn")
	return &QuoteFetcher{client: client}
}

// Fetch retrieves the daily quote row for one stock code. A delisted or
// unknown code yields zero rows, not an error.
func (f *QuoteFetcher) Fetch(ctx context.Context, code string) ([]fetcher.Row, error) {
	// The endpoint is path-style: /list=sz000001
	resp, err := f.client.R().
		SetContext(ctx).
		Get("/list=" + symbolFor(code))

	if err != nil {
		return nil, fetcher.NewNetworkError(fmt.Errorf("failed to fetch quote for %s: %w", code, err))
	}
	if !resp.IsSuccess() {
		return nil, fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	decoded, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), resp.Bytes())
	if err != nil {
		return nil, fetcher.NewValidationError(fmt.Sprintf("quote payload for %s is not valid GBK: %v", code, err))
	}

	return parseQuote(code, string(decoded))
}

// Source implements the Fetcher interface.
func (f *QuoteFetcher) Source() string {
	return "sina"
}

// KeyColumn implements the Fetcher interface. One row per trading day.
func (f *QuoteFetcher) KeyColumn() string {
	return "date"
}

// symbolFor maps a bare A-share code to the exchange-prefixed symbol the
// quote API expects. 6xx codes trade in Shanghai, the rest in Shenzhen.
func symbolFor(code string) string {
	if strings.HasPrefix(code, "6") {
		return "sh" + code
	}
	return "sz" + code
}

// Positions of the fields we keep within the comma-separated quote line.
var quoteFields = map[int]string{
	0:  "name",
	1:  "open",
	2:  "prev_close",
	3:  "price",
	4:  "high",
	5:  "low",
	8:  "volume",
	9:  "amount",
	30: "date",
	31: "time",
}

// parseQuote extracts the quote row from the decoded payload, which looks
// like: var hq_str_sz000001="平安银行,11.00,...,2024-01-15,15:00:00,00";
func parseQuote(code, payload string) ([]fetcher.Row, error) {
	_, quoted, found := strings.Cut(payload, `="`)
	if !found {
		return nil, fetcher.NewValidationError(fmt.Sprintf("unexpected quote payload for %s", code))
	}
	quoted, _, found = strings.Cut(quoted, `"`)
	if !found {
		return nil, fetcher.NewValidationError(fmt.Sprintf("unterminated quote payload for %s", code))
	}
	if quoted == "" {
		// No data for this symbol.
		return nil, nil
	}

	parts := strings.Split(quoted, ",")
	row := fetcher.Row{}
	for i, field := range quoteFields {
		if i < len(parts) {
			row[field] = parts[i]
		}
	}
	if row["date"] == "" {
		return nil, fetcher.NewValidationError(fmt.Sprintf("quote for %s is missing its trading date", code))
	}
	return []fetcher.Row{row}, nil
}
