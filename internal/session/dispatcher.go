// Package session routes events to per-owner session values. Each owner
// has at most one live session; its entry mutex is the serialization point
// for that owner's events, while distinct owners proceed in parallel. A
// background reaper discards sessions past their inactivity timeout.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/m3rciful/stickerkid/internal/logger"
	"log/slog"
)

// Options configure a Dispatcher.
type Options[S any] struct {
	// Kind names the session class in logs ("chat", "inline").
	Kind string
	// TTL is the inactivity timeout after which a session is discarded.
	TTL time.Duration
	// ReapInterval is how often expired sessions are swept.
	ReapInterval time.Duration
	// New creates the session value on first event from an owner.
	New func(owner int64) S
}

type entry[S any] struct {
	mu       sync.Mutex
	state    S
	lastSeen time.Time
}

// Dispatcher owns the owner->session map.
type Dispatcher[S any] struct {
	opts     Options[S]
	mu       sync.Mutex
	sessions map[int64]*entry[S]
	now      func() time.Time
}

// NewDispatcher constructs a Dispatcher. New is required.
func NewDispatcher[S any](opts Options[S]) *Dispatcher[S] {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.ReapInterval <= 0 {
		opts.ReapInterval = time.Second
	}
	return &Dispatcher[S]{
		opts:     opts,
		sessions: make(map[int64]*entry[S]),
		now:      time.Now,
	}
}

// Do runs fn against the owner's session, creating it lazily. Calls for
// the same owner are serialized in arrival order; calls for different
// owners run concurrently. The session's inactivity clock restarts when
// fn returns.
func (d *Dispatcher[S]) Do(ctx context.Context, owner int64, fn func(S) error) error {
	e := d.acquire(owner)
	defer e.mu.Unlock()
	err := fn(e.state)

	// The reaper cannot remove the entry while we hold e.mu, so it is
	// still the live session for this owner.
	d.mu.Lock()
	e.lastSeen = d.now()
	d.mu.Unlock()

	if err != nil {
		logger.Error(ctx, "session", "session.handle",
			slog.String("kind", d.opts.Kind),
			slog.Int64("owner_id", owner),
			slog.String("err", err.Error()),
		)
	}
	return err
}

// acquire returns the owner's entry with its mutex held, creating the
// session lazily. The map lookup and the entry lock are taken in two
// steps, so the reaper can discard the entry in between; after locking
// we confirm the entry is still the one registered for the owner and
// start over if it is not.
func (d *Dispatcher[S]) acquire(owner int64) *entry[S] {
	for {
		d.mu.Lock()
		e, ok := d.sessions[owner]
		if !ok {
			e = &entry[S]{state: d.opts.New(owner), lastSeen: d.now()}
			d.sessions[owner] = e
			logger.SES.Debug("session created",
				slog.String("event", "session.create"),
				slog.String("kind", d.opts.Kind),
				slog.Int64("owner_id", owner),
			)
		}
		d.mu.Unlock()

		e.mu.Lock()
		d.mu.Lock()
		cur, live := d.sessions[owner]
		d.mu.Unlock()
		if live && cur == e {
			return e
		}
		e.mu.Unlock()
	}
}

// Len reports the number of live sessions.
func (d *Dispatcher[S]) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

// Reap removes sessions idle past the TTL and returns how many were
// discarded. Sessions currently processing an event are skipped and
// picked up on a later sweep.
func (d *Dispatcher[S]) Reap() int {
	deadline := d.now().Add(-d.opts.TTL)

	d.mu.Lock()
	defer d.mu.Unlock()
	removed := 0
	for owner, e := range d.sessions {
		if e.lastSeen.After(deadline) {
			continue
		}
		if !e.mu.TryLock() {
			continue
		}
		e.mu.Unlock()
		delete(d.sessions, owner)
		removed++
	}
	if removed > 0 {
		logger.SES.Debug("sessions reaped",
			slog.String("event", "session.reap"),
			slog.String("kind", d.opts.Kind),
			slog.Int("count", removed),
			slog.Int("sessions", len(d.sessions)),
		)
	}
	return removed
}

// Run sweeps expired sessions until the context is cancelled.
func (d *Dispatcher[S]) Run(ctx context.Context) {
	ticker := time.NewTicker(d.opts.ReapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Reap()
		}
	}
}
