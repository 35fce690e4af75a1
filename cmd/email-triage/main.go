package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/di"
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
	svc *core.TriageService,
	snapshots *core.SnapshotHolder,
	approvals *core.ApprovalManager,
	stores core.Stores,
) error {
	defer logger.Sync()

	// Start the background tasks: periodic list/policy snapshot refresh
	// and the approval expiry sweep
	snapshots.Start()
	approvals.Start()
	logger.Info("Email triage engine started")

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	approvals.Stop()
	snapshots.Stop()

	// Close any resources that need closing
	if closer, ok := stores.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close stores", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
