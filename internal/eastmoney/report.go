// Package eastmoney fetches per-stock financial report rows from the
// Eastmoney data center API.
package eastmoney

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"resty.dev/v3"

	"stockbatch/internal/fetcher"
)

// DefaultBaseURL is the data center endpoint used when no override is
// configured.
const DefaultBaseURL = "https://datacenter-web.eastmoney.com/api/data/v1/get"

// reportResponse is the financial report payload for one stock.
type reportResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Data []struct {
			SecurityCode string  `json:"SECURITY_CODE"`
			ReportDate   string  `json:"REPORTDATE"`
			Revenue      float64 `json:"TOTAL_OPERATE_INCOME"`
			NetProfit    float64 `json:"PARENT_NETPROFIT"`
			BasicEPS     float64 `json:"BASIC_EPS"`
			ROE          float64 `json:"WEIGHTAVG_ROE"`
			BVPS         float64 `json:"BPS"`
		} `json:"data"`
	} `json:"result"`
}

// ReportFetcher fetches financial report rows, one per reporting period.
type ReportFetcher struct {
	client *resty.Client
}

// NewReportFetcher creates a report fetcher against the given base URL.
func NewReportFetcher(baseURL string, timeout time.Duration) *ReportFetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &ReportFetcher{
		client: fetcher.NewHTTPClient(baseURL, timeout),
	}
}

// Fetch retrieves all available report periods for one stock code.
// A stock with no published reports yields zero rows, not an error.
func (f *ReportFetcher) Fetch(ctx context.Context, code string) ([]fetcher.Row, error) {
	var result reportResponse

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"reportName":  "RPT_LICO_FN_CPD",
			"columns":     "ALL",
			"filter":      fmt.Sprintf(`(SECURITY_CODE="%s")`, code),
			"sortTypes":   "-1",
			"sortColumns": "REPORTDATE",
			"pageSize":    "200",
		}).
		SetResult(&result).
		Get("")

	if err != nil {
		return nil, fetcher.NewNetworkError(fmt.Errorf("failed to fetch reports for %s: %w", code, err))
	}
	if !resp.IsSuccess() {
		return nil, fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	rows := make([]fetcher.Row, 0, len(result.Result.Data))
	for _, item := range result.Result.Data {
		if item.ReportDate == "" {
			return nil, fetcher.NewValidationError(fmt.Sprintf("report row for %s is missing its report date", code))
		}
		rows = append(rows, fetcher.Row{
			"report_date": item.ReportDate,
			"revenue":     formatFloat(item.Revenue),
			"net_profit":  formatFloat(item.NetProfit),
			"basic_eps":   formatFloat(item.BasicEPS),
			"roe":         formatFloat(item.ROE),
			"bvps":        formatFloat(item.BVPS),
		})
	}
	return rows, nil
}

// Source implements the Fetcher interface.
func (f *ReportFetcher) Source() string {
	return "eastmoney"
}

// KeyColumn implements the Fetcher interface. Reports are keyed by the
// period they cover, so refetching a stock replaces each period in place.
func (f *ReportFetcher) KeyColumn() string {
	return "report_date"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
