// Package scheduler runs cancellable recurring tasks.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Task is one unit of recurring work. ctx is cancelled when the handle stops.
type Task func(ctx context.Context)

// Options tune a schedule.
type Options struct {
	Name     string
	Interval time.Duration
	// SkipImmediate suppresses the run at start; the first run then happens after one interval.
	SkipImmediate bool
}

// Handle controls a running schedule. Runs are dispatched on their own goroutines, so
// a slow run never delays the cadence and may overlap the next one.
type Handle struct {
	opts   Options
	task   Task
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	stopped  bool
	inflight sync.WaitGroup

	trigger  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Start launches the schedule and returns its handle.
func Start(parent context.Context, opts Options, task Task, logger zerolog.Logger) *Handle {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	if task == nil {
		panic("scheduler task must not be nil")
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Handle{
		opts:    opts,
		task:    task,
		logger:  logger.With().Str("component", "scheduler").Str("schedule", opts.Name).Logger(),
		ctx:     ctx,
		cancel:  cancel,
		trigger: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Handle) loop() {
	defer close(h.done)

	if !h.opts.SkipImmediate {
		h.dispatch("start")
	}

	ticker := time.NewTicker(h.opts.Interval)
	defer ticker.Stop()
	h.logger.Debug().Dur("interval", h.opts.Interval).Msg("schedule started")

	for {
		select {
		case <-h.ctx.Done():
			h.markStopped()
			h.logger.Debug().Msg("schedule stopped")
			return
		case <-ticker.C:
			h.dispatch("tick")
		case <-h.trigger:
			h.dispatch("trigger")
		}
	}
}

func (h *Handle) dispatch(reason string) {
	if !h.begin() {
		return
	}
	h.logger.Debug().Str("reason", reason).Msg("dispatching run")
	go func() {
		defer h.inflight.Done()
		h.task(h.ctx)
	}()
}

// begin registers a run unless the handle has stopped.
func (h *Handle) begin() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	h.inflight.Add(1)
	return true
}

func (h *Handle) markStopped() {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
}

// Trigger requests one extra run without changing the cadence. Requests made while
// another is pending are coalesced; requests after Stop are ignored.
func (h *Handle) Trigger() {
	if h.Stopped() {
		return
	}
	select {
	case h.trigger <- struct{}{}:
	default:
	}
}

// Stop cancels the schedule. When it returns no further run will start. Safe to call
// more than once and from multiple goroutines.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() {
		h.markStopped()
		h.cancel()
		<-h.done
	})
}

// Stopped reports whether the schedule has been stopped.
func (h *Handle) Stopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}

// Wait blocks until all dispatched runs have returned. Call it after Stop.
func (h *Handle) Wait() {
	h.inflight.Wait()
}
