package notifier

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"ComplaintDesk/internal/pkg/logger"
)

// ResendSender delivers email through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a Resend backend. apiURL overrides the API base
// URL and may be empty.
func NewResendSender(apiKey, apiURL, from string) (*ResendSender, error) {
	client := resend.NewClient(apiKey)
	if apiURL != "" {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		base, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("parse resend api url: %w", err)
		}
		client.BaseURL = base
	}
	return &ResendSender{client: client, from: from}, nil
}

func (s *ResendSender) Name() string { return "resend" }

func (s *ResendSender) Send(ctx context.Context, to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	logger.Debug("resend accepted email", zap.String("id", sent.Id), zap.String("to", to))
	return nil
}

// SMTPSender delivers email over SMTP.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates an SMTP backend.
func NewSMTPSender(host string, port int, user, pass, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   from,
	}
}

func (s *SMTPSender) Name() string { return "smtp" }

// Send dials per message. gomail has no context support; the Dispatcher
// timeout bounds the caller.
func (s *SMTPSender) Send(ctx context.Context, to, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	return nil
}

// LogEmailSender only logs the message. It is used when no provider is
// configured.
type LogEmailSender struct{}

func (LogEmailSender) Name() string { return "log" }

func (LogEmailSender) Send(_ context.Context, to, subject, _ string) error {
	logger.Info("email not sent, no provider configured",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
