// Package poller keeps a view's snapshot fresh by re-fetching it on a fixed cadence.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"rockwatch/internal/metrics"
	"rockwatch/internal/scheduler"
)

// Human-readable acquisition failure reasons per view.
const (
	ReasonAlerts  = "Failed to fetch alerts"
	ReasonRiskMap = "Failed to fetch risk map data"
)

// AcquisitionError is the single runtime failure kind: a fetch that did not produce data.
// It is always recoverable; the previous snapshot stays available.
type AcquisitionError struct {
	View   string
	Reason string
	Err    error
}

func (e *AcquisitionError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// IsAcquisition reports whether err is an AcquisitionError.
func IsAcquisition(err error) bool {
	var acq *AcquisitionError
	return errors.As(err, &acq)
}

// FetchFunc acquires a full snapshot.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Snapshot is a point-in-time copy of poller state.
type Snapshot[T any] struct {
	Data      T
	Loaded    bool
	Loading   bool
	UpdatedAt time.Time
	Err       error
	Sequence  uint64
}

// Options configure a poller.
type Options[T any] struct {
	// View labels logs and metrics, e.g. "alerts".
	View     string
	Interval time.Duration
	Reason   string
	// Size reports the entity count of a snapshot for metrics; optional.
	Size func(T) int
	// OnUpdate observes every applied result, outside the poller lock.
	OnUpdate func(Snapshot[T])
	Now      func() time.Time
}

// Poller owns one view's snapshot plus its error and loading state.
type Poller[T any] struct {
	opts   Options[T]
	fetch  FetchFunc[T]
	logger zerolog.Logger
	handle *scheduler.Handle

	mu      sync.Mutex
	state   Snapshot[T]
	stopped bool

	// deliverMu serialises OnUpdate; delivered is the last sequence handed to it.
	deliverMu sync.Mutex
	delivered uint64
}

// Start triggers an immediate fetch and then one every opts.Interval until Stop.
func Start[T any](ctx context.Context, fetch FetchFunc[T], opts Options[T], logger zerolog.Logger) *Poller[T] {
	if opts.Reason == "" {
		opts.Reason = "Failed to fetch " + opts.View
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	p := &Poller[T]{
		opts:   opts,
		fetch:  fetch,
		logger: logger.With().Str("component", "poller").Str("view", opts.View).Logger(),
		state:  Snapshot[T]{Loading: true},
	}
	p.handle = scheduler.Start(ctx, scheduler.Options{Name: opts.View, Interval: opts.Interval}, p.poll, logger)
	return p
}

func (p *Poller[T]) poll(ctx context.Context) {
	started := time.Now()
	data, err := p.fetch(ctx)
	metrics.RecordPoll(p.opts.View, err, time.Since(started))
	p.apply(data, err)
}

// apply commits a fetch result in completion order; results arriving after Stop are dropped.
func (p *Poller[T]) apply(data T, err error) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		metrics.RecordDiscarded(p.opts.View)
		p.logger.Debug().Msg("discarding result after stop")
		return
	}

	p.state.Loading = false
	p.state.Sequence++
	if err != nil {
		p.state.Err = &AcquisitionError{View: p.opts.View, Reason: p.opts.Reason, Err: err}
		p.logger.Warn().Err(err).Uint64("seq", p.state.Sequence).Msg(p.opts.Reason)
	} else {
		p.state.Data = data
		p.state.Loaded = true
		p.state.Err = nil
		p.state.UpdatedAt = p.opts.Now().UTC()
		if p.opts.Size != nil {
			metrics.SetSnapshotItems(p.opts.View, p.opts.Size(data))
		}
		p.logger.Debug().Uint64("seq", p.state.Sequence).Msg("snapshot replaced")
	}
	snap := p.state
	p.mu.Unlock()

	p.deliver(snap)
}

// deliver hands snap to OnUpdate in sequence order. A snapshot older than one already
// delivered is skipped, and nothing is delivered once the poller is stopped.
func (p *Poller[T]) deliver(snap Snapshot[T]) {
	hook := p.opts.OnUpdate
	if hook == nil {
		return
	}
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()
	if snap.Sequence <= p.delivered || p.isStopped() {
		return
	}
	p.delivered = snap.Sequence
	hook(snap)
}

func (p *Poller[T]) isStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// Snapshot returns a copy of the current state. Data is shared with the poller and
// must be treated as read-only.
func (p *Poller[T]) Snapshot() Snapshot[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Refresh requests one out-of-band fetch; the cadence is unchanged.
func (p *Poller[T]) Refresh() {
	p.handle.Trigger()
}

// Stop cancels the schedule. Idempotent; no fetch starts and no OnUpdate runs after it
// returns, and in-flight results are discarded. The last snapshot stays readable.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.handle.Stop()

	// wait out a hook already running
	p.deliverMu.Lock()
	p.deliverMu.Unlock()
}

// Wait blocks until in-flight fetches have returned. Call after Stop.
func (p *Poller[T]) Wait() {
	p.handle.Wait()
}
