package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mikey/fraud-sentinel/internal/core"
	"github.com/mikey/fraud-sentinel/internal/di"
	"github.com/mikey/fraud-sentinel/internal/metrics"
	"github.com/mikey/fraud-sentinel/internal/ports"
)

func main() {
	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()

	metrics.Init()

	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	entryServer ports.EntryServer,
	tracker core.DuplicateTracker,
	repCache core.ReputationCache,
	scorer core.ConfidenceScorer,
) error {
	defer logger.Sync()

	// Start the entry server
	if err := entryServer.Start(); err != nil {
		logger.Fatal("Failed to start entry server", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	// Stop the entry server
	if err := entryServer.Stop(); err != nil {
		logger.Error("Failed to stop entry server", zap.Error(err))
	}

	// Stop components that own background tasks or connections
	if stopper, ok := tracker.(interface{ Stop() }); ok {
		stopper.Stop()
	}
	if stopper, ok := repCache.(interface{ Stop() }); ok {
		stopper.Stop()
	}
	if closer, ok := scorer.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close confidence scorer", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
