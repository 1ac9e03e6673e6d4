package universe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"stockbatch/internal/fetcher"
)

func TestEastmoneyLoader_Paged(t *testing.T) {
	pages := map[string]string{
		"1": `{"data":{"total":4,"diff":[{"f12":"000001","f14":"平安银行"},{"f12":"000002","f14":"万科A"}]}}`,
		"2": `{"data":{"total":4,"diff":[{"f12":"600519","f14":"贵州茅台"},{"f12":"600036","f14":"招商银行"}]}}`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Query().Get("pn")]
		if !ok {
			body = `{"data":{"total":4,"diff":[]}}`
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	defer server.Close()

	loader := NewEastmoneyLoader(server.URL, 5*time.Second)
	got, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	want := []string{"000001", "000002", "600519", "600036"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load() = %v, want %v", got, want)
	}
}

func TestEastmoneyLoader_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	loader := NewEastmoneyLoader(server.URL, 5*time.Second)
	_, err := loader.Load(context.Background())
	if !errors.Is(err, fetcher.ErrSourceUnavailable) {
		t.Errorf("Load() error = %v, want ErrSourceUnavailable", err)
	}
}

func TestEastmoneyLoader_EmptyList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"total":0,"diff":[]}}`)
	}))
	defer server.Close()

	loader := NewEastmoneyLoader(server.URL, 5*time.Second)
	_, err := loader.Load(context.Background())
	if !errors.Is(err, fetcher.ErrSourceUnavailable) {
		t.Errorf("Load() error = %v, want ErrSourceUnavailable", err)
	}
}
