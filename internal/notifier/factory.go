package notifier

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"ComplaintDesk/internal/config"
	"ComplaintDesk/internal/pkg/logger"
)

// New builds the Dispatcher from configuration.
func New(cfg *config.Config) (*Dispatcher, error) {
	var email EmailSender
	switch cfg.Email.Provider {
	case config.EmailProviderResend:
		s, err := NewResendSender(cfg.Resend.APIKey, cfg.Resend.APIURL, cfg.Email.From)
		if err != nil {
			return nil, err
		}
		email = s
	case config.EmailProviderSMTP:
		email = NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Pass, cfg.Email.From)
	case config.EmailProviderLog, "":
		email = LogEmailSender{}
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Email.Provider)
	}

	var sms SMSSender = LogSMSSender{}
	if cfg.SMS.GatewayURL != "" {
		sms = NewGatewaySMSSender(cfg.SMS.GatewayURL, cfg.SMS.APIKey, &http.Client{Timeout: cfg.Notify.SendTimeout})
	}

	logger.Info("notifier ready",
		zap.String("email", email.Name()),
		zap.String("sms", sms.Name()),
		zap.Duration("timeout", cfg.Notify.SendTimeout),
	)
	return NewDispatcher(email, sms, cfg.Notify.SendTimeout), nil
}
