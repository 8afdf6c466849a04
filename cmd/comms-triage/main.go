package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/finsurv/comms-triage/internal/core"
	"github.com/finsurv/comms-triage/internal/di"
	"github.com/finsurv/comms-triage/internal/ports"
	"go.uber.org/zap"
)

func main() {
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
	messageIntake ports.MessageIntake,
	provider core.EmbeddingProvider,
	analyzer core.DeepAnalyzer,
	store core.VerdictStore,
	index core.SimilarityIndex,
	cache core.EmbeddingCache,
) error {
	defer logger.Sync()

	// Start the intake
	if err := messageIntake.Start(); err != nil {
		logger.Fatal("Failed to start message intake", zap.Error(err))
		return err
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	// Stop the intake
	if err := messageIntake.Stop(); err != nil {
		logger.Error("Failed to stop message intake", zap.Error(err))
	}

	// Close any resources that need closing
	if closer, ok := provider.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close embedding provider", zap.Error(err))
		}
	}
	if closer, ok := analyzer.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close deep analyzer", zap.Error(err))
		}
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close verdict store", zap.Error(err))
		}
	}
	if closer, ok := index.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close similarity index", zap.Error(err))
		}
	}

	// Stop the cache if needed
	if stopper, ok := cache.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	logger.Info("Shutdown complete")
	return nil
}
