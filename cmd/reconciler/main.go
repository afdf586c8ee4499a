package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/skypoint/socialfeed/internal/clock"
	"github.com/skypoint/socialfeed/internal/db"
	"github.com/skypoint/socialfeed/internal/votes"
	"github.com/skypoint/socialfeed/pkg/config"
	"github.com/skypoint/socialfeed/pkg/logging"
	"github.com/skypoint/socialfeed/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting score reconciler")

	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	voteRepo := db.NewVoteRepository(db.NewRepository(database.DB))
	report, err := votes.NewReconciler(voteRepo, clock.System{}, cfg.Reconciler.Repair).Run(ctx)
	if err != nil {
		logger.Error("Reconciliation failed", zap.Error(err))
		os.Exit(1)
	}

	if report.Drifted > report.Repaired {
		// drift left in place is a failure for schedulers
		logger.Warn("Scores out of sync", zap.Int("drifted", report.Drifted), zap.Int("repaired", report.Repaired))
		os.Exit(2)
	}
	logger.Info("Reconciler exited")
}
