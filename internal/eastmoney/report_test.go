package eastmoney

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stockbatch/internal/fetcher"
)

func TestReportFetcher_Fetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("reportName"); got != "RPT_LICO_FN_CPD" {
			t.Errorf("reportName = %q, want RPT_LICO_FN_CPD", got)
		}
		if got := r.URL.Query().Get("filter"); got != `(SECURITY_CODE="000001")` {
			t.Errorf("filter = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"result": {
				"data": [
					{
						"SECURITY_CODE": "000001",
						"REPORTDATE": "2026-06-30 00:00:00",
						"TOTAL_OPERATE_INCOME": 82510000000,
						"PARENT_NETPROFIT": 24870000000,
						"BASIC_EPS": 1.28,
						"WEIGHTAVG_ROE": 10.1,
						"BPS": 21.77
					},
					{
						"SECURITY_CODE": "000001",
						"REPORTDATE": "2026-03-31 00:00:00",
						"TOTAL_OPERATE_INCOME": 41210000000,
						"PARENT_NETPROFIT": 14030000000,
						"BASIC_EPS": 0.72,
						"WEIGHTAVG_ROE": 5.3,
						"BPS": 21.05
					}
				]
			}
		}`))
	}))
	defer server.Close()

	f := NewReportFetcher(server.URL, 5*time.Second)
	rows, err := f.Fetch(context.Background(), "000001")
	if err != nil {
		t.Fatalf("Fetch() returned unexpected error: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if got := rows[0]["report_date"]; got != "2026-06-30 00:00:00" {
		t.Errorf("report_date = %q", got)
	}
	if got := rows[0]["basic_eps"]; got != "1.28" {
		t.Errorf("basic_eps = %q, want 1.28", got)
	}
	if got := rows[1]["roe"]; got != "5.3" {
		t.Errorf("roe = %q, want 5.3", got)
	}
}

func TestReportFetcher_Fetch_NoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": false, "result": null}`))
	}))
	defer server.Close()

	f := NewReportFetcher(server.URL, 5*time.Second)
	rows, err := f.Fetch(context.Background(), "000999")
	if err != nil {
		t.Fatalf("Fetch() returned unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %d, want 0", len(rows))
	}
}

func TestReportFetcher_Fetch_ClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	f := NewReportFetcher(server.URL, 5*time.Second)
	_, err := f.Fetch(context.Background(), "000001")
	if err == nil {
		t.Fatal("Fetch() returned nil error for HTTP 403")
	}

	var fetchErr *fetcher.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error %v is not a FetchError", err)
	}
	if fetchErr.Type != fetcher.ErrorTypeClient {
		t.Errorf("error type = %q, want client", fetchErr.Type)
	}
	if fetchErr.Retryable {
		t.Error("client error should not be retryable")
	}
}

func TestReportFetcher_Fetch_MissingReportDate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "result": {"data": [{"SECURITY_CODE": "000001"}]}}`))
	}))
	defer server.Close()

	f := NewReportFetcher(server.URL, 5*time.Second)
	_, err := f.Fetch(context.Background(), "000001")

	var fetchErr *fetcher.FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Type != fetcher.ErrorTypeValidation {
		t.Errorf("error = %v, want validation FetchError", err)
	}
}

func TestReportFetcher_Identity(t *testing.T) {
	f := NewReportFetcher("http://localhost", 5*time.Second)
	if got := f.Source(); got != "eastmoney" {
		t.Errorf("Source() = %q, want eastmoney", got)
	}
	if got := f.KeyColumn(); got != "report_date" {
		t.Errorf("KeyColumn() = %q, want report_date", got)
	}
}
