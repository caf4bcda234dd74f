package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stockledger-backend/internal/logger"
)

// Dispatcher runs post-commit work without blocking the caller.
type Dispatcher interface {
	Dispatch(task string, fn func(ctx context.Context))
}

// AsyncDispatcher runs each task on its own goroutine with a fresh context
// bounded by timeout. Panics are recovered and logged.
type AsyncDispatcher struct {
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsyncDispatcher(timeout time.Duration) *AsyncDispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AsyncDispatcher{timeout: timeout}
}

func (d *AsyncDispatcher) Dispatch(task string, fn func(ctx context.Context)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		runRecovered(task, func() { fn(ctx) })
	}()
}

// Wait blocks until every dispatched task has returned. Used on shutdown.
func (d *AsyncDispatcher) Wait() {
	d.wg.Wait()
}

// InlineDispatcher runs tasks synchronously on the caller's goroutine.
type InlineDispatcher struct{}

func (InlineDispatcher) Dispatch(task string, fn func(ctx context.Context)) {
	runRecovered(task, func() { fn(context.Background()) })
}

func runRecovered(task string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Dispatched task panicked", "task", task, "panic", fmt.Sprint(r))
		}
	}()
	fn()
}
