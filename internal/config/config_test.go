package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingRequired(t *testing.T) {
	_, err := Load(nil)
	if err == nil {
		t.Fatal("Load() with no output_path returned nil error")
	}
	if !strings.Contains(err.Error(), "output_path") {
		t.Errorf("error %q should name output_path", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STOCKBATCH_OUTPUT_PATH", "/tmp/reports.csv")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.Fetcher != FetcherEastmoney {
		t.Errorf("fetcher = %q, want %q", cfg.Fetcher, FetcherEastmoney)
	}
	if cfg.UniverseSource != UniverseEastmoney {
		t.Errorf("universe_source = %q, want %q", cfg.UniverseSource, UniverseEastmoney)
	}
	if cfg.BatchSize != 200 {
		t.Errorf("batch_size = %d, want 200", cfg.BatchSize)
	}
	if cfg.Workers != 1 {
		t.Errorf("workers = %d, want 1", cfg.Workers)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Errorf("request_timeout = %v, want 15s", cfg.RequestTimeout)
	}
	if cfg.FailureDelay != time.Second {
		t.Errorf("failure_delay = %v, want 1s", cfg.FailureDelay)
	}
	if cfg.EmptyPolicy != "done" {
		t.Errorf("empty_policy = %q, want done", cfg.EmptyPolicy)
	}
	if cfg.Schedule != "" {
		t.Errorf("schedule = %q, want empty", cfg.Schedule)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STOCKBATCH_OUTPUT_PATH", "/tmp/quotes.csv")
	t.Setenv("STOCKBATCH_FETCHER", "sina")
	t.Setenv("STOCKBATCH_BATCH_SIZE", "50")
	t.Setenv("STOCKBATCH_EMPTY_POLICY", "retry")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.Fetcher != FetcherSina {
		t.Errorf("fetcher = %q, want sina", cfg.Fetcher)
	}
	if cfg.BatchSize != 50 {
		t.Errorf("batch_size = %d, want 50", cfg.BatchSize)
	}
	if cfg.EmptyPolicy != "retry" {
		t.Errorf("empty_policy = %q, want retry", cfg.EmptyPolicy)
	}
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("STOCKBATCH_OUTPUT_PATH", "/tmp/env.csv")
	t.Setenv("STOCKBATCH_BATCH_SIZE", "50")

	flags := NewFlagSet()
	if err := flags.Parse([]string{"--batch-size", "7", "--output", "/tmp/flag.csv"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.BatchSize != 7 {
		t.Errorf("batch_size = %d, want 7", cfg.BatchSize)
	}
	if cfg.OutputPath != "/tmp/flag.csv" {
		t.Errorf("output_path = %q, want /tmp/flag.csv", cfg.OutputPath)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "unknown fetcher",
			env:  map[string]string{"STOCKBATCH_FETCHER": "bloomberg"},
			want: "unknown fetcher",
		},
		{
			name: "zero batch size",
			env:  map[string]string{"STOCKBATCH_BATCH_SIZE": "0"},
			want: "batch_size",
		},
		{
			name: "negative offset",
			env:  map[string]string{"STOCKBATCH_START_OFFSET": "-3"},
			want: "start_offset",
		},
		{
			name: "bad empty policy",
			env:  map[string]string{"STOCKBATCH_EMPTY_POLICY": "maybe"},
			want: "empty_policy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STOCKBATCH_OUTPUT_PATH", "/tmp/out.csv")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(nil)
			if err == nil {
				t.Fatal("Load() returned nil error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}
