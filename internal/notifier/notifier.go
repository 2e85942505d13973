// Package notifier sends email and SMS. Callers get an Outcome for every
// send; failures and panics in a backend never escape as errors.
package notifier

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ComplaintDesk/internal/pkg/logger"
)

// Channel is an outbound delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Outcome is the result of one send.
type Outcome struct {
	Channel   Channel
	Recipient string
	Provider  string
	Duration  time.Duration
	Err       error
}

// OK reports whether the send succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Notifier is what the notification fanout talks to.
type Notifier interface {
	SendEmail(ctx context.Context, address, subject, html string) Outcome
	SendSMS(ctx context.Context, phone, text string) Outcome
}

// EmailSender is one email backend.
type EmailSender interface {
	Name() string
	Send(ctx context.Context, to, subject, html string) error
}

// SMSSender is one SMS backend.
type SMSSender interface {
	Name() string
	Send(ctx context.Context, phone, text string) error
}

// Dispatcher is the Notifier used in production. It bounds every send by
// timeout and converts backend errors into outcomes.
type Dispatcher struct {
	email   EmailSender
	sms     SMSSender
	timeout time.Duration
}

// NewDispatcher composes an email and an SMS backend.
func NewDispatcher(email EmailSender, sms SMSSender, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{email: email, sms: sms, timeout: timeout}
}

func (d *Dispatcher) SendEmail(ctx context.Context, address, subject, html string) Outcome {
	return d.send(ctx, ChannelEmail, address, d.email.Name(), func(ctx context.Context) error {
		return d.email.Send(ctx, address, subject, html)
	})
}

func (d *Dispatcher) SendSMS(ctx context.Context, phone, text string) Outcome {
	return d.send(ctx, ChannelSMS, phone, d.sms.Name(), func(ctx context.Context) error {
		return d.sms.Send(ctx, phone, text)
	})
}

func (d *Dispatcher) send(ctx context.Context, ch Channel, to, provider string, fn func(context.Context) error) (out Outcome) {
	out = Outcome{Channel: ch, Recipient: to, Provider: provider}
	if to == "" {
		out.Err = fmt.Errorf("%s: empty recipient", ch)
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		out.Duration = time.Since(start)
		d.log(out)
	}()

	// The backend runs on its own goroutine so a sender that ignores ctx
	// cannot hold the caller past the timeout.
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%s backend %s panicked: %v", ch, provider, r)
			}
		}()
		done <- fn(ctx)
	}()

	select {
	case err := <-done:
		out.Err = err
	case <-ctx.Done():
		out.Err = fmt.Errorf("%s via %s: %w", ch, provider, ctx.Err())
	}
	return out
}

func (d *Dispatcher) log(out Outcome) {
	fields := []zap.Field{
		zap.String("channel", string(out.Channel)),
		zap.String("provider", out.Provider),
		zap.String("recipient", out.Recipient),
		zap.Duration("duration", out.Duration),
	}
	if out.Err != nil {
		logger.Warn("notification send failed", append(fields, zap.Error(out.Err))...)
		return
	}
	logger.Debug("notification sent", fields...)
}
