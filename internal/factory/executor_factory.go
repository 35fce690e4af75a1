package factory

import (
	"fmt"

	"github.com/mikey/email-triage/internal/adapters/ticket"
	"github.com/mikey/email-triage/internal/config"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/utils"
	"go.uber.org/zap"
)

// ExecutorFactory creates ticket action executors based on configuration
type ExecutorFactory struct {
	cfg    *config.Config
	text   *utils.TextProcessor
	logger *zap.Logger
}

// NewExecutorFactory creates a new executor factory
func NewExecutorFactory(cfg *config.Config, text *utils.TextProcessor, logger *zap.Logger) *ExecutorFactory {
	return &ExecutorFactory{
		cfg:    cfg,
		text:   text,
		logger: logger,
	}
}

// CreateExecutor creates an action executor based on the configuration
func (f *ExecutorFactory) CreateExecutor() (core.ActionExecutor, error) {
	ticketCfg, err := f.cfg.GetTicket()
	if err != nil {
		return nil, err
	}

	switch ticketCfg.Type {
	case "log":
		return ticket.NewLogExecutor(f.logger), nil
	case "http":
		return ticket.NewHTTPExecutor(ticket.Config{
			BaseURL:        ticketCfg.BaseURL,
			APIKey:         ticketCfg.APIKey,
			ReleasedStatus: ticketCfg.ReleasedStatus,
			OnHoldStatus:   ticketCfg.OnHoldStatus,
			Timeout:        ticketCfg.Timeout,
		}, f.text, f.logger)
	default:
		return nil, fmt.Errorf("unsupported ticket executor type: %s", ticketCfg.Type)
	}
}
