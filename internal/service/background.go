package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bitwisdom/site-assistant/pkg/logger"
	"github.com/bitwisdom/site-assistant/pkg/metrics"
)

// Background task names.
const (
	TaskIncrementViews = "increment_views"
	TaskRecordSession  = "record_session"
	TaskPublishTurn    = "publish_turn"
)

const defaultTaskTimeout = 10 * time.Second

// Dispatcher runs best-effort writes off the request path. A task never
// affects the caller: errors and panics are logged and counted.
type Dispatcher struct {
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *logger.Logger
}

// NewDispatcher creates a new background dispatcher.
func NewDispatcher(log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		timeout: defaultTaskTimeout,
		logger:  log.Named("background"),
	}
}

// Go runs fn in its own goroutine. The task keeps the values of ctx (trace
// and request ids) but not its cancellation, and is bounded by the
// dispatcher timeout.
func (d *Dispatcher) Go(ctx context.Context, task string, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if err := d.run(taskCtx, fn); err != nil {
			metrics.RecordBackgroundFailure(task)
			d.logger.Warn("background task failed", zap.String("task", task), zap.Error(err))
		}
	}()
}

func (d *Dispatcher) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// Wait blocks until all dispatched tasks finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
