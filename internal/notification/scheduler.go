package notification

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"ComplaintDesk/internal/notifier"
	"ComplaintDesk/internal/pkg/logger"
	"ComplaintDesk/internal/pkg/worker"
)

const (
	retryBatchSize = 100
	maxBackoff     = time.Hour
)

// RetryScheduler periodically resends failed deliveries. The wait before
// attempt n+1 doubles with every failure; after maxAttempts the delivery
// is abandoned.
type RetryScheduler struct {
	deliveries  DeliveryStore
	inbox       Inbox
	notifier    notifier.Notifier
	runner      Runner
	interval    time.Duration
	maxAttempts int
	now         func() time.Time
}

// NewRetryScheduler creates a new scheduler for failed deliveries.
func NewRetryScheduler(deliveries DeliveryStore, inbox Inbox, n notifier.Notifier, runner Runner, interval time.Duration, maxAttempts int) *RetryScheduler {
	return &RetryScheduler{
		deliveries:  deliveries,
		inbox:       inbox,
		notifier:    n,
		runner:      runner,
		interval:    interval,
		maxAttempts: maxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Start runs the retry loop for the lifetime of the fx app.
func (s *RetryScheduler) Start(lc fx.Lifecycle) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("starting delivery retry scheduler", zap.Duration("interval", s.interval))
			go func() {
				defer close(done)
				ticker := time.NewTicker(s.interval)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
							logger.Error("delivery retry pass failed", zap.Error(err))
						}
					case <-ctx.Done():
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			logger.Info("stopping delivery retry scheduler")
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}

// RunOnce retries every due delivery and returns how many were sent.
func (s *RetryScheduler) RunOnce(ctx context.Context) (int, error) {
	due, err := s.deliveries.Due(ctx, s.now(), retryBatchSize)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	sent := make([]bool, len(due))
	tasks := make([]worker.Task, len(due))
	for i, d := range due {
		i, d := i, d
		tasks[i] = func(ctx context.Context) {
			sent[i] = s.retry(ctx, d)
		}
	}
	if err := s.runner.RunAll(ctx, tasks); err != nil {
		logger.Warn("delivery retry batch incomplete", zap.Error(err))
	}

	n := 0
	for _, ok := range sent {
		if ok {
			n++
		}
	}
	logger.Info("delivery retry pass", zap.Int("due", len(due)), zap.Int("sent", n))
	return n, nil
}

func (s *RetryScheduler) retry(ctx context.Context, d *Delivery) bool {
	err := s.send(ctx, d)
	now := s.now()
	d.Attempts++
	d.UpdatedAt = now

	switch {
	case err == nil:
		d.Status = DeliverySent
		d.LastError = ""
	case d.Attempts >= s.maxAttempts:
		d.Status = DeliveryAbandoned
		d.LastError = err.Error()
		logger.Warn("delivery abandoned",
			zap.String("delivery_id", d.ID.Hex()),
			zap.String("channel", string(d.Channel)),
			zap.Int("attempts", d.Attempts),
			zap.Error(err),
		)
	default:
		d.LastError = err.Error()
		d.NextAttemptAt = now.Add(Backoff(s.interval, d.Attempts))
	}

	if uerr := s.deliveries.Update(ctx, d); uerr != nil {
		logger.Error("delivery state not saved", zap.String("delivery_id", d.ID.Hex()), zap.Error(uerr))
	}
	return err == nil
}

func (s *RetryScheduler) send(ctx context.Context, d *Delivery) error {
	switch d.Channel {
	case ChannelEmail:
		return s.notifier.SendEmail(ctx, d.Recipient, d.Subject, d.Body).Err
	case ChannelSMS:
		return s.notifier.SendSMS(ctx, d.Recipient, d.Body).Err
	case ChannelInApp:
		return s.inbox.Insert(ctx, &Notification{
			UserID:      d.UserID,
			ComplaintID: d.ComplaintID,
			Message:     d.Body,
			Type:        d.Type,
			CreatedAt:   s.now(),
		})
	default:
		return errors.New("unknown delivery channel " + string(d.Channel))
	}
}

// Backoff returns the wait after the given number of attempts:
// base, 2*base, 4*base, ... capped at one hour.
func Backoff(base time.Duration, attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := base
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
