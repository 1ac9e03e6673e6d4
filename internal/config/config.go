package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Recognized fetcher implementation names.
const (
	FetcherEastmoney = "eastmoney"
	FetcherSina      = "sina"
)

// UniverseEastmoney selects the remote exchange list as the universe
// source; any other universe_source value is a path to a local list file.
const UniverseEastmoney = "eastmoney"

// Config holds all configuration for one collector process.
type Config struct {
	// UniverseSource is either "eastmoney" (fetch the exchange list) or
	// a path to a local identifier list file.
	UniverseSource string `mapstructure:"universe_source"`

	// UniverseURL overrides the exchange list endpoint (for testing).
	UniverseURL string `mapstructure:"universe_url"`

	// OutputPath is the persisted dataset file.
	OutputPath string `mapstructure:"output_path"`

	// Fetcher names the source implementation: "eastmoney" or "sina".
	Fetcher string `mapstructure:"fetcher"`

	// BaseURL overrides the source endpoint (for testing).
	BaseURL string `mapstructure:"base_url"`

	// Batch shaping.
	BatchSize   int `mapstructure:"batch_size"`
	StartOffset int `mapstructure:"start_offset"`
	Workers     int `mapstructure:"workers"`

	// Timing.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	FailureDelay   time.Duration `mapstructure:"failure_delay"`

	// EmptyPolicy decides whether zero-row results count as done:
	// "done" or "retry".
	EmptyPolicy string `mapstructure:"empty_policy"`

	// Schedule is a cron expression for repeated runs; empty runs once.
	Schedule string `mapstructure:"schedule"`

	// Logging.
	LogLevel  string `mapstructure:"log_level"`
	LogPretty bool   `mapstructure:"log_pretty"`
}

// Load reads configuration from, in increasing precedence: built-in
// defaults, an optional yaml config file, STOCKBATCH_* environment
// variables, and the given command-line flags.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Defaults. Rate and delay values are tunables, not requirements;
	// these are conservative enough for the public endpoints.
	v.SetDefault("universe_source", UniverseEastmoney)
	v.SetDefault("fetcher", FetcherEastmoney)
	v.SetDefault("batch_size", 200)
	v.SetDefault("start_offset", 0)
	v.SetDefault("workers", 1)
	v.SetDefault("request_timeout", 15*time.Second)
	v.SetDefault("rate_limit", 3.0)
	v.SetDefault("failure_delay", time.Second)
	v.SetDefault("empty_policy", "done")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", true)

	v.SetEnvPrefix("STOCKBATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults are invisible to Unmarshal unless bound.
	for _, key := range []string{"universe_url", "output_path", "base_url", "schedule"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.stockbatch")

	// An explicitly named config file must exist; the default search
	// paths are optional.
	var explicit string
	if flags != nil {
		explicit, _ = flags.GetString("config")
	}
	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		_ = v.ReadInConfig()
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// bindFlags lets explicitly-set flags override file and env values.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"batch-size":   "batch_size",
		"start-offset": "start_offset",
		"output":       "output_path",
		"fetcher":      "fetcher",
		"workers":      "workers",
		"schedule":     "schedule",
	}
	var err error
	flags.Visit(func(f *pflag.Flag) {
		if key, ok := bindings[f.Name]; ok && err == nil {
			err = v.BindPFlag(key, f)
		}
	})
	return err
}

// NewFlagSet declares the command-line flags the collector recognizes.
func NewFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("stockbatch", pflag.ContinueOnError)
	flags.String("config", "", "path to config file")
	flags.Int("batch-size", 0, "max identifiers to fetch this run")
	flags.Int("start-offset", 0, "skip this many pending identifiers")
	flags.String("output", "", "persisted dataset path")
	flags.String("fetcher", "", "source implementation (eastmoney|sina)")
	flags.Int("workers", 0, "concurrent fetch workers")
	flags.String("schedule", "", "cron expression for repeated runs")
	return flags
}

func (c *Config) validate() error {
	var missing []string
	if c.OutputPath == "" {
		missing = append(missing, "output_path")
	}
	if c.Fetcher == "" {
		missing = append(missing, "fetcher")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.Fetcher != FetcherEastmoney && c.Fetcher != FetcherSina {
		return fmt.Errorf("unknown fetcher %q (want %s or %s)", c.Fetcher, FetcherEastmoney, FetcherSina)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.StartOffset < 0 {
		return fmt.Errorf("start_offset must not be negative, got %d", c.StartOffset)
	}
	if c.EmptyPolicy != "done" && c.EmptyPolicy != "retry" {
		return fmt.Errorf("empty_policy must be done or retry, got %q", c.EmptyPolicy)
	}
	return nil
}
