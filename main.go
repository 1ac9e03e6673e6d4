package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"stockbatch/internal/collector"
	"stockbatch/internal/config"
	"stockbatch/internal/eastmoney"
	"stockbatch/internal/fetcher"
	"stockbatch/internal/logging"
	"stockbatch/internal/schedule"
	"stockbatch/internal/sina"
	"stockbatch/internal/universe"
)

func main() {
	flags := config.NewFlagSet()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("Failed to parse flags: %v", err)
	}

	// Load configuration
	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown. The collector
	// persists whatever it has accumulated before exiting.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info().Msg("received interrupt signal, saving partial progress")
		cancel()
	}()

	coll := collector.New(buildLoader(cfg), buildFetcher(cfg), collector.Config{
		OutputPath:   cfg.OutputPath,
		BatchSize:    cfg.BatchSize,
		StartOffset:  cfg.StartOffset,
		Workers:      cfg.Workers,
		RateLimit:    cfg.RateLimit,
		FailureDelay: cfg.FailureDelay,
		EmptyPolicy:  collector.EmptyPolicy(cfg.EmptyPolicy),
	})

	run := func(ctx context.Context) error {
		summary, err := coll.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Println(summary)
		return nil
	}

	if cfg.Schedule != "" {
		if err := schedule.NewRunner(cfg.Schedule, run).Run(ctx); err != nil {
			logger.Fatal().Err(err).Msg("scheduler failed")
		}
		return
	}

	if err := run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("run failed")
	}
}

// buildLoader selects the universe source from configuration.
func buildLoader(cfg *config.Config) universe.Loader {
	if cfg.UniverseSource == config.UniverseEastmoney {
		return universe.NewEastmoneyLoader(cfg.UniverseURL, cfg.RequestTimeout)
	}
	return &universe.FileLoader{Path: cfg.UniverseSource}
}

// buildFetcher selects the source implementation from configuration.
// The config layer has already validated the name.
func buildFetcher(cfg *config.Config) fetcher.Fetcher {
	switch cfg.Fetcher {
	case config.FetcherSina:
		return sina.NewQuoteFetcher(cfg.BaseURL, cfg.RequestTimeout)
	default:
		return eastmoney.NewReportFetcher(cfg.BaseURL, cfg.RequestTimeout)
	}
}
