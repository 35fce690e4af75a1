package factory

import (
	"fmt"

	"github.com/mikey/email-triage/internal/adapters/notify"
	"github.com/mikey/email-triage/internal/config"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/utils"
	"go.uber.org/zap"
)

// NotifierFactory creates notification senders based on configuration
type NotifierFactory struct {
	cfg    *config.Config
	text   *utils.TextProcessor
	logger *zap.Logger
}

// NewNotifierFactory creates a new notifier factory
func NewNotifierFactory(cfg *config.Config, text *utils.TextProcessor, logger *zap.Logger) *NotifierFactory {
	return &NotifierFactory{
		cfg:    cfg,
		text:   text,
		logger: logger,
	}
}

// CreateNotifier creates a notification sender based on the configuration
func (f *NotifierFactory) CreateNotifier() (core.NotificationSender, error) {
	switch f.cfg.GetString("notifier.type") {
	case "log":
		return notify.NewLogNotifier(f.logger), nil
	case "smtp":
		smtpCfg := f.cfg.GetSMTP()
		return notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:                 smtpCfg.Host,
			Port:                 smtpCfg.Port,
			Username:             smtpCfg.Username,
			Password:             smtpCfg.Password,
			FromAddress:          smtpCfg.FromAddress,
			FromName:             smtpCfg.FromName,
			UseTLS:               smtpCfg.UseTLS,
			ApprovalRecipients:   smtpCfg.ApprovalRecipients,
			EscalationRecipients: smtpCfg.EscalationRecipients,
		}, f.text, f.logger)
	default:
		return nil, fmt.Errorf("unsupported notifier type: %s", f.cfg.GetString("notifier.type"))
	}
}
