package universe

import (
	"context"
	"fmt"
	"time"

	"resty.dev/v3"

	"stockbatch/internal/fetcher"
)

// DefaultEastmoneyListURL is the exchange list endpoint used when no
// override is configured.
const DefaultEastmoneyListURL = "https://push2.eastmoney.com/api/qt/clist/get"

const listPageSize = 500

// listResponse is the paged stock-list payload. f12 is the ticker code,
// f14 the display name.
type listResponse struct {
	Data struct {
		Total int `json:"total"`
		Diff  []struct {
			Code string `json:"f12"`
			Name string `json:"f14"`
		} `json:"diff"`
	} `json:"data"`
}

// EastmoneyLoader fetches the identifier universe from the exchange list
// API instead of a local file.
type EastmoneyLoader struct {
	client *resty.Client
}

// NewEastmoneyLoader creates a universe loader against the given list
// endpoint.
func NewEastmoneyLoader(baseURL string, timeout time.Duration) *EastmoneyLoader {
	if baseURL == "" {
		baseURL = DefaultEastmoneyListURL
	}
	return &EastmoneyLoader{
		client: fetcher.NewHTTPClient(baseURL, timeout),
	}
}

// Load pages through the exchange list until the reported total is
// reached. Any page failure makes the whole universe unavailable; a
// partial universe would silently shrink the work queue.
func (l *EastmoneyLoader) Load(ctx context.Context) ([]string, error) {
	var codes []string

	for page := 1; ; page++ {
		var result listResponse
		resp, err := l.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"pn":  fmt.Sprintf("%d", page),
				"pz":  fmt.Sprintf("%d", listPageSize),
				"po":  "0",
				"fid": "f12",
				// A-share equities on both exchanges.
				"fs":     "m:0 t:6,m:0 t:80,m:1 t:2,m:1 t:23",
				"fields": "f12,f14",
			}).
			SetResult(&result).
			Get("")
		if err != nil {
			return nil, fmt.Errorf("%w: list page %d: %v", fetcher.ErrSourceUnavailable, page, err)
		}
		if !resp.IsSuccess() {
			return nil, fmt.Errorf("%w: list page %d returned status %d", fetcher.ErrSourceUnavailable, page, resp.StatusCode())
		}
		if len(result.Data.Diff) == 0 {
			break
		}
		for _, item := range result.Data.Diff {
			codes = append(codes, item.Code)
		}
		if len(codes) >= result.Data.Total {
			break
		}
	}

	if len(codes) == 0 {
		return nil, fmt.Errorf("%w: exchange list returned no identifiers", fetcher.ErrSourceUnavailable)
	}
	return Dedupe(codes), nil
}
