package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/email-triage/internal/adapters/signal"
	"github.com/mikey/email-triage/internal/config"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/factory"
	"github.com/mikey/email-triage/internal/logging"
	"github.com/mikey/email-triage/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration, validated once at startup
	if err := container.Provide(func() (*config.Config, error) {
		cfg, err := config.New()
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewNotifierFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewExecutorFactory); err != nil {
		return nil, err
	}

	// Register stores
	if err := container.Provide(func(f *factory.StoreFactory) (core.Stores, error) {
		return f.CreateStores()
	}); err != nil {
		return nil, err
	}

	// Register notifier and action executor
	if err := container.Provide(func(f *factory.NotifierFactory) (core.NotificationSender, error) {
		return f.CreateNotifier()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.ExecutorFactory) (core.ActionExecutor, error) {
		return f.CreateExecutor()
	}); err != nil {
		return nil, err
	}

	// Register signal producers. Real deployments replace these with
	// their own producers before invoking the service.
	if err := container.Provide(func(cfg *config.Config) []core.SignalProducer {
		return signal.NewStaticProducers(cfg.GetStaticScores())
	}); err != nil {
		return nil, err
	}

	// Register list/policy snapshot holder
	if err := container.Provide(func(cfg *config.Config, stores core.Stores, logger *zap.Logger) (*core.SnapshotHolder, error) {
		engineCfg, err := cfg.GetEngine()
		if err != nil {
			return nil, err
		}
		return core.NewSnapshotHolder(context.Background(), stores, logger, engineCfg.SnapshotRefresh)
	}); err != nil {
		return nil, err
	}

	// Register approval manager
	if err := container.Provide(func(cfg *config.Config, stores core.Stores, notifier core.NotificationSender, logger *zap.Logger) (*core.ApprovalManager, error) {
		approvalCfg, err := cfg.GetApproval()
		if err != nil {
			return nil, err
		}
		return core.NewApprovalManager(stores, notifier, logger, approvalCfg.TTL, approvalCfg.SweepFrequency), nil
	}); err != nil {
		return nil, err
	}

	// Register triage service
	if err := container.Provide(func(
		cfg *config.Config,
		producers []core.SignalProducer,
		snapshots *core.SnapshotHolder,
		approvals *core.ApprovalManager,
		executor core.ActionExecutor,
		notifier core.NotificationSender,
		stores core.Stores,
		logger *zap.Logger,
	) (*core.TriageService, error) {
		engineCfg, err := cfg.GetEngine()
		if err != nil {
			return nil, err
		}
		approvalCfg, err := cfg.GetApproval()
		if err != nil {
			return nil, err
		}
		return core.NewTriageService(
			producers,
			snapshots,
			approvals,
			executor,
			notifier,
			stores,
			stores,
			cfg.GetWeights(),
			cfg.GetThresholds(),
			engineCfg.VolumeWindow,
			approvalCfg.DefaultApprover,
			logger,
		)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
