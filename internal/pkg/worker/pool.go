// Package worker provides the goroutine pools used for post-commit side
// effects. Notification work never runs on a naked goroutine; it goes
// through a pool with context propagation and panic recovery.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"ComplaintDesk/internal/pkg/logger"
)

// ErrPoolClosed is returned when submitting to a closed pool.
var ErrPoolClosed = errors.New("worker pool is closed")

// Task is a context-aware task function.
type Task func(ctx context.Context)

// Pool wraps ants.Pool with context-aware submission.
type Pool struct {
	pool *ants.Pool
	name string
}

// Pools is the worker pool collection.
//
// Events runs one task per complaint lifecycle event, detached from the
// request. Delivery runs one task per recipient/channel. They are separate
// so an event task waiting on its deliveries can never starve them.
type Pools struct {
	Events   *Pool
	Delivery *Pool

	serviceCtx    context.Context
	serviceCancel context.CancelFunc
}

// PoolConfig contains worker pool configuration.
type PoolConfig struct {
	EventPoolSize    int
	DeliveryPoolSize int
}

// DefaultPoolConfig returns default configuration.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		EventPoolSize:    32,
		DeliveryPoolSize: 16,
	}
}

func newPool(name string, size int, expiry time.Duration) (*Pool, error) {
	panicHandler := func(p interface{}) {
		logger.Error("worker panic recovered",
			zap.String("pool", name),
			zap.Any("panic", p),
			zap.Stack("stack"),
		)
	}

	p, err := ants.NewPool(size,
		ants.WithPanicHandler(panicHandler),
		ants.WithNonblocking(false),
		ants.WithExpiryDuration(expiry),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s pool: %w", name, err)
	}
	return &Pool{pool: p, name: name}, nil
}

// NewPools creates the worker pool collection. ctx bounds the lifetime of
// detached tasks.
func NewPools(ctx context.Context, cfg PoolConfig) (*Pools, error) {
	if cfg.EventPoolSize <= 0 || cfg.DeliveryPoolSize <= 0 {
		return nil, fmt.Errorf("pool sizes must be positive, got events=%d delivery=%d",
			cfg.EventPoolSize, cfg.DeliveryPoolSize)
	}

	serviceCtx, serviceCancel := context.WithCancel(ctx)

	events, err := newPool("events", cfg.EventPoolSize, 10*time.Second)
	if err != nil {
		serviceCancel()
		return nil, err
	}
	delivery, err := newPool("delivery", cfg.DeliveryPoolSize, 30*time.Second)
	if err != nil {
		events.pool.Release()
		serviceCancel()
		return nil, err
	}

	return &Pools{
		Events:        events,
		Delivery:      delivery,
		serviceCtx:    serviceCtx,
		serviceCancel: serviceCancel,
	}, nil
}

// Submit submits a context-aware task.
// If ctx is already cancelled, returns ctx.Err() without submitting.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	err := p.pool.Submit(func() {
		select {
		case <-ctx.Done():
			logger.Debug("task skipped: context cancelled",
				zap.String("pool", p.name),
				zap.Error(ctx.Err()),
			)
			return
		default:
		}
		task(ctx)
	})
	if errors.Is(err, ants.ErrPoolClosed) {
		return ErrPoolClosed
	}
	return err
}

// RunAll runs every task on the pool and blocks until all submitted tasks
// have returned. A panicking or slow task does not affect the others.
// Tasks that could not be submitted are reported in the returned error.
func (p *Pool) RunAll(ctx context.Context, tasks []Task) error {
	var (
		wg   sync.WaitGroup
		errs []error
	)
	for _, task := range tasks {
		task := task
		wg.Add(1)
		err := p.Submit(ctx, func(ctx context.Context) {
			defer wg.Done()
			task(ctx)
		})
		if err != nil {
			wg.Done()
			errs = append(errs, err)
		}
	}
	wg.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("%s pool: %d/%d tasks not run: %w", p.name, len(errs), len(tasks), errors.Join(errs...))
	}
	return nil
}

// Dispatch submits a detached event task. The task receives the service
// lifecycle context instead of the request context, so it survives the
// response being written but still stops on shutdown.
func (p *Pools) Dispatch(task Task) error {
	err := p.Events.pool.Submit(func() {
		select {
		case <-p.serviceCtx.Done():
			logger.Debug("detached task skipped: service shutting down",
				zap.String("pool", p.Events.name),
			)
			return
		default:
		}
		task(p.serviceCtx)
	})
	if errors.Is(err, ants.ErrPoolClosed) {
		return ErrPoolClosed
	}
	return err
}

// Shutdown cancels detached work and waits for running tasks (max timeout).
func (p *Pools) Shutdown(timeout time.Duration) {
	p.serviceCancel()

	if err := p.Events.pool.ReleaseTimeout(timeout); err != nil {
		logger.Warn("events pool shutdown timeout", zap.Error(err))
	}
	if err := p.Delivery.pool.ReleaseTimeout(timeout); err != nil {
		logger.Warn("delivery pool shutdown timeout", zap.Error(err))
	}
}

// Metrics returns pool metrics for observability.
func (p *Pools) Metrics() map[string]interface{} {
	return map[string]interface{}{
		"events": map[string]int{
			"running": p.Events.pool.Running(),
			"free":    p.Events.pool.Free(),
			"cap":     p.Events.pool.Cap(),
		},
		"delivery": map[string]int{
			"running": p.Delivery.pool.Running(),
			"free":    p.Delivery.pool.Free(),
			"cap":     p.Delivery.pool.Cap(),
		},
	}
}
