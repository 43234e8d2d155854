package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cafe-etl/config"
	"cafe-etl/metrics"
	"cafe-etl/services"
	"cafe-etl/source"
	"cafe-etl/storage"
	"cafe-etl/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.NewLogger().Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	logger := utils.NewLoggerWithOptions(utils.LoggerOptions{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	paths := os.Args[1:]
	if len(paths) == 0 {
		logger.Warn("No input files given. Usage: cafe-etl <file.csv | gs://bucket/object.csv> ...")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, paths); err != nil {
		logger.Error("Pipeline failed: %v", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *utils.Logger, paths []string) error {
	logger.Info("=== Cafe ETL pipeline starting ===")
	logger.Info("Config: sinks=%v | output=%s | dry-run=%t | inputs=%d",
		cfg.Sinks, cfg.OutputDir, cfg.DryRun, len(paths))

	var writer storage.BundleWriter
	if len(cfg.ActiveSinks()) == 0 {
		logger.Warn("No sinks configured; running without a load stage.")
	}
	if !cfg.DryRun && len(cfg.ActiveSinks()) > 0 {
		mw, err := buildSinks(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := mw.Close(); err != nil {
				logger.Warn("Failed to close sinks: %v", err)
			}
		}()
		writer = mw
	}

	gcs := source.NewGCSOpener()
	defer gcs.Close()

	runner := services.NewRunner(services.RunnerOptions{
		Transform:       cfg.Transform,
		Opener:          source.NewResolver(gcs),
		Writer:          writer,
		DryRun:          cfg.DryRun,
		Metrics:         metrics.NewBatchMetrics(),
		MetricsTextfile: cfg.MetricsTextfile,
		PrintSummary:    true,
		Logger:          logger,
	})

	loaded, err := runner.Run(ctx, paths)
	if err != nil {
		return err
	}
	if !loaded {
		logger.Warn("Nothing was loaded.")
		return nil
	}

	fmt.Printf("  Done. Sinks → %v | Output dir → %s\n\n", cfg.Sinks, cfg.OutputDir)
	return nil
}

// buildSinks opens every configured sink. On failure the sinks opened so far
// are closed again.
func buildSinks(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*storage.MultiWriter, error) {
	var writers []storage.NamedWriter
	closeAll := func() {
		_ = storage.NewMultiWriter(writers...).Close()
	}

	if cfg.HasSink("postgres") {
		retry := &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   time.Second,
			Logger:      logger,
		}
		pg, err := storage.NewPostgresWriter(ctx, cfg.DSN(), retry, logger.With("sink", "postgres"))
		if err != nil {
			logger.Error("Make sure PostgreSQL is running: docker compose up -d")
			closeAll()
			return nil, fmt.Errorf("connect to PostgreSQL: %w", err)
		}
		writers = append(writers, storage.NamedWriter{Name: "postgres", Writer: pg})
	}

	if cfg.HasSink("sqlite") {
		lite, err := storage.NewSQLiteWriter(cfg.SQLitePath, logger.With("sink", "sqlite"))
		if err != nil {
			closeAll()
			return nil, err
		}
		writers = append(writers, storage.NamedWriter{Name: "sqlite", Writer: lite})
	}

	if cfg.HasSink("csv") {
		cw, err := storage.NewCSVWriter(cfg.OutputDir, logger.With("sink", "csv"))
		if err != nil {
			closeAll()
			return nil, err
		}
		writers = append(writers, storage.NamedWriter{Name: "csv", Writer: cw})
	}

	logger.Info("Sinks ready: %d configured", len(writers))
	return storage.NewMultiWriter(writers...), nil
}
