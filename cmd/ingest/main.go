// Command ingest runs a one-shot bulk analysis of a local audio directory
// against the extraction service, writing results into the catalog database.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/Shima-Rai/melixa/internal/adapters/extractor"
	"github.com/Shima-Rai/melixa/internal/adapters/localfs"
	"github.com/Shima-Rai/melixa/internal/adapters/sqlite"
	"github.com/Shima-Rai/melixa/internal/config"
	"github.com/Shima-Rai/melixa/internal/logging"
	"github.com/Shima-Rai/melixa/internal/reanalyze"
)

func main() {
	configPath := flag.String("config", "melixa.yaml", "path to the YAML config file (optional)")
	dir := flag.String("dir", "", "audio directory to ingest (overrides library.path)")
	maxFiles := flag.Int("max-files", 0, "cap on files to process, 0 means all")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("FATAL: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *dir != "" {
		cfg.Library.Path = *dir
	}
	if *maxFiles > 0 {
		cfg.Reanalyze.MaxFiles = *maxFiles
	}

	logger := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	store, err := sqlite.NewAdapter(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("failed to open database")
	}
	defer store.Close()

	client := extractor.NewClient(nil, cfg.Extractor.URL, logger).
		WithTimeout(cfg.Extractor.Timeout)
	retrying := reanalyze.NewRetryExtractor(client,
		cfg.Reanalyze.RetryAttempts, cfg.Reanalyze.RetryBackoff, logger)

	orchestrator := reanalyze.New(retrying, store, localfs.New(), cfg.Library.Path, reanalyze.Config{
		BatchSize:       cfg.Reanalyze.BatchSize,
		InterBatchDelay: cfg.Reanalyze.InterBatchDelay,
		InterItemDelay:  cfg.Reanalyze.InterItemDelay,
		MaxFiles:        cfg.Reanalyze.MaxFiles,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := client.Health(ctx); err != nil {
		logger.Fatal().Err(err).Str("url", cfg.Extractor.URL).Msg("extraction service is unreachable")
	}

	snapshots, err := orchestrator.Stream(ctx)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.Library.Path).Msg("failed to start ingest")
	}

	var last reanalyze.Snapshot
	for snap := range snapshots {
		last = snap
		logger.Info().
			Int("processed", snap.Processed).
			Int("total", snap.Total).
			Int("succeeded", snap.Succeeded).
			Int("failed", snap.Failed).
			Msg("ingest progress")
	}
	if err := ctx.Err(); err != nil {
		logger.Fatal().Err(err).Msg("ingest interrupted")
	}

	for _, f := range last.Failures {
		logger.Warn().Str("file", f.Name).Str("reason", f.Reason).Msg("file failed")
	}
	logger.Info().
		Int("succeeded", last.Succeeded).
		Int("failed", last.Failed).
		Msg("ingest complete")
	if last.Failed > 0 {
		os.Exit(1)
	}
}
