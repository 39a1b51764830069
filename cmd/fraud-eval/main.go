package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mikey/fraud-sentinel/internal/core"
	"github.com/mikey/fraud-sentinel/internal/di"
	"github.com/mikey/fraud-sentinel/internal/ports"
)

func main() {
	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()

	flags := di.ParseFlags()

	// Build the dependency injection container
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the one-shot evaluation
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Evaluation error: %v\n", err)
		os.Exit(1)
	}
}

// run evaluates the input entries and tears the components down
func run(
	logger *zap.Logger,
	entryServer ports.EntryServer,
	tracker core.DuplicateTracker,
	repCache core.ReputationCache,
	scorer core.ConfidenceScorer,
) error {
	defer logger.Sync()

	runErr := entryServer.Start()

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

	return runErr
}
