package di

import (
	"context"
	"flag"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/email-triage/internal/adapters/notify"
	"github.com/mikey/email-triage/internal/adapters/signal"
	"github.com/mikey/email-triage/internal/adapters/store"
	"github.com/mikey/email-triage/internal/adapters/ticket"
	"github.com/mikey/email-triage/internal/config"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Component scores standing in for the external signal producers
	DomainScore  float64
	ContentScore float64
	SenderScore  float64
	RulesScore   float64

	// Threshold overrides
	AutoReleaseMin float64
	ApprovalMin    float64
	EscalateMax    float64

	// Input flags
	InputFile  string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	flag.Float64Var(&flags.DomainScore, "domain-score", 0.5, "Domain validation score in [0,1]")
	flag.Float64Var(&flags.ContentScore, "content-score", 0.5, "Content analysis score in [0,1]")
	flag.Float64Var(&flags.SenderScore, "sender-score", 0.5, "Sender check score in [0,1]")
	flag.Float64Var(&flags.RulesScore, "rules-score", 0.5, "Rules evaluation score in [0,1]")

	flag.Float64Var(&flags.AutoReleaseMin, "auto-release-min", 0.85, "Minimum score for automatic release")
	flag.Float64Var(&flags.ApprovalMin, "approval-min", 0.60, "Minimum score for human approval")
	flag.Float64Var(&flags.EscalateMax, "escalate-max", 0.60, "Scores below this escalate")

	flag.StringVar(&flags.InputFile, "file", "", "Candidate email JSON file (use stdin if not specified)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	flag.Parse()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		var cfg *config.Config
		if flags.ConfigFile != "" {
			loaded, err := config.New()
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", loaded.GetViper().ConfigFileUsed()))
			cfg = loaded
		} else {
			cfg = createConfigFromFlags(flags)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	// Register in-memory stores; the CLI persists nothing across runs
	if err := container.Provide(func(logger *zap.Logger) core.Stores {
		return store.NewMemoryStore(logger)
	}); err != nil {
		return nil, err
	}

	// Register log-only notifier and executor
	if err := container.Provide(func(logger *zap.Logger) core.NotificationSender {
		return notify.NewLogNotifier(logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(logger *zap.Logger) core.ActionExecutor {
		return ticket.NewLogExecutor(logger)
	}); err != nil {
		return nil, err
	}

	// Register fixed-score producers from flags
	if err := container.Provide(func(flags *CLIFlags) []core.SignalProducer {
		return signal.NewStaticProducers(map[core.Component]float64{
			core.ComponentDomain:  flags.DomainScore,
			core.ComponentContent: flags.ContentScore,
			core.ComponentSender:  flags.SenderScore,
			core.ComponentRules:   flags.RulesScore,
		})
	}); err != nil {
		return nil, err
	}

	// Register snapshot holder over the empty in-memory store
	if err := container.Provide(func(stores core.Stores, logger *zap.Logger) (*core.SnapshotHolder, error) {
		return core.NewSnapshotHolder(context.Background(), stores, logger, time.Hour)
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
			"",
			logger,
		)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	v.Set("store.type", "memory")
	v.Set("notifier.type", "log")
	v.Set("ticket.type", "log")

	v.Set("thresholds.auto_release_min", flags.AutoReleaseMin)
	v.Set("thresholds.approval_min", flags.ApprovalMin)
	v.Set("thresholds.escalate_max", flags.EscalateMax)

	return config.NewFromViper(v)
}
