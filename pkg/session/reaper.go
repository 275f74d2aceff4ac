package session

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/authsvc/pkg/logger"
)

// SweepResult reports one execution of the expired-session cleanup.
type SweepResult struct {
	Deleted int64     `json:"deleted"`
	SweptAt time.Time `json:"swept_at"`
}

// Reaper deletes expired sessions on a recurring schedule. Ticks align to
// wall-clock multiples of the interval, and a tick arriving while a sweep is
// still running is skipped outright: the atomic flag makes overlap
// structurally impossible rather than incidentally unlikely.
type Reaper struct {
	store    Store
	interval time.Duration
	log      *slog.Logger
	now      func() time.Time
	running  atomic.Bool
}

// ReaperOption configures a Reaper during construction.
type ReaperOption func(*Reaper)

// WithReaperLogger sets a custom logger for the reaper.
func WithReaperLogger(l *slog.Logger) ReaperOption {
	return func(r *Reaper) {
		r.log = l
	}
}

// WithReaperClock overrides the time source. Intended for tests.
func WithReaperClock(now func() time.Time) ReaperOption {
	return func(r *Reaper) {
		if now != nil {
			r.now = now
		}
	}
}

// NewReaper creates a reaper sweeping at the given interval.
func NewReaper(store Store, interval time.Duration, opts ...ReaperOption) *Reaper {
	r := &Reaper{
		store:    store,
		interval: interval,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sweep deletes every session expired at the time of invocation and reports
// how many were removed. Sweeping an already-clean table is an error-free
// no-op. If another sweep is in flight, the call returns immediately with a
// zero result.
func (r *Reaper) Sweep(ctx context.Context) (SweepResult, error) {
	if !r.running.CompareAndSwap(false, true) {
		return SweepResult{SweptAt: r.now()}, nil
	}
	defer r.running.Store(false)

	now := r.now()
	deleted, err := r.store.DeleteExpired(ctx, now)
	if err != nil {
		return SweepResult{SweptAt: now}, err
	}

	if deleted > 0 {
		r.log.InfoContext(ctx, "expired sessions reaped",
			slog.Int64("deleted", deleted),
			logger.Component("session_reaper"),
		)
	}
	return SweepResult{Deleted: deleted, SweptAt: now}, nil
}

// Run executes sweeps until ctx is cancelled. The first tick fires at the
// next wall-clock boundary of the interval; a failing sweep is logged and
// the loop proceeds to the next tick.
func (r *Reaper) Run(ctx context.Context) {
	timer := time.NewTimer(r.untilNextTick())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.log.ErrorContext(ctx, "session sweep failed",
					logger.Error(err),
					logger.Component("session_reaper"),
				)
			}
			timer.Reset(r.untilNextTick())
		}
	}
}

// untilNextTick returns the duration to the next wall-clock multiple of the
// interval, never zero.
func (r *Reaper) untilNextTick() time.Duration {
	now := r.now()
	next := now.Truncate(r.interval).Add(r.interval)
	d := next.Sub(now)
	if d <= 0 {
		d = r.interval
	}
	return d
}
