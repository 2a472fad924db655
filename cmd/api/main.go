package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shima-Rai/melixa/internal/adapters/extractor"
	"github.com/Shima-Rai/melixa/internal/adapters/localfs"
	"github.com/Shima-Rai/melixa/internal/adapters/rest"
	"github.com/Shima-Rai/melixa/internal/adapters/sqlite"
	"github.com/Shima-Rai/melixa/internal/config"
	"github.com/Shima-Rai/melixa/internal/core/services"
	"github.com/Shima-Rai/melixa/internal/logging"
	"github.com/Shima-Rai/melixa/internal/reanalyze"
)

func main() {
	configPath := flag.String("config", "melixa.yaml", "path to the YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Logger config lives in the file we failed to read, so use stderr.
		os.Stderr.WriteString("FATAL: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	// Driven adapters.
	store, err := sqlite.NewAdapter(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("failed to open database")
	}
	defer store.Close()

	client := extractor.NewClient(nil, cfg.Extractor.URL, logger).
		WithTimeout(cfg.Extractor.Timeout)
	retrying := reanalyze.NewRetryExtractor(client,
		cfg.Reanalyze.RetryAttempts, cfg.Reanalyze.RetryBackoff, logger)

	// Core services.
	catalog := services.NewCatalog(store, logger)
	orchestrator := reanalyze.New(retrying, store, localfs.New(), cfg.Library.Path, reanalyze.Config{
		BatchSize:       cfg.Reanalyze.BatchSize,
		InterBatchDelay: cfg.Reanalyze.InterBatchDelay,
		InterItemDelay:  cfg.Reanalyze.InterItemDelay,
		MaxFiles:        cfg.Reanalyze.MaxFiles,
	}, logger)

	// Driving adapter.
	handler := rest.NewHandler(catalog, orchestrator, client, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	logger.Info().Str("addr", cfg.Server.Addr).Msg("melixa API is running")

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Fatal().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("shutdown error")
		}
	}
}
