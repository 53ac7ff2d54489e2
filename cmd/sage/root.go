package main

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/sage/config"
	"github.com/Ramsey-B/sage/pkg/database"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

const version = "0.1.0"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sage",
		Short:         "Provider roster deduplication and verification",
		Long:          "sage ingests provider rosters, finds duplicate records, verifies rows against ground-truth registries, and serves a review dashboard.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newIngestCmd())
	rootCmd.AddCommand(newDedupeCmd())
	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newQueryCmd())

	return rootCmd
}

// app holds the wiring every command shares.
type app struct {
	cfg    *config.Config
	logger ectologger.Logger
	db     database.DB
	tracer *sdktrace.TracerProvider
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return nil, err
	}

	tracer, err := tracing.Init(ctx, cfg.AppName, cfg.OTLPEndpoint, cfg.OTLPProtocol)
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(cfg.DatabasePath, logger)
	if err != nil {
		return nil, err
	}

	driver, err := database.NewSQLiteDriver(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.MigrationFolderPath,
		Version:             uint(cfg.MigrationVersion),
		Force:               cfg.MigrationForce,
		AutoRollback:        cfg.MigrationAutoRollback,
	})
	if err := migrations.Migrate("sage", driver); err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		tracer: tracer,
	}, nil
}

func (a *app) close(ctx context.Context) {
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Warn("failed to close database")
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.WithError(err).Warn("failed to shut down tracer")
		}
	}
}

func buildLogger(cfg *config.Config) (ectologger.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}
