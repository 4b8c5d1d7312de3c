package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/stickerkid/internal/dialog"
	"github.com/m3rciful/stickerkid/internal/sticker"
)

type counterSession struct {
	events int
}

func newCounterDispatcher(ttl time.Duration) *Dispatcher[*counterSession] {
	return NewDispatcher(Options[*counterSession]{
		Kind: "test",
		TTL:  ttl,
		New:  func(int64) *counterSession { return &counterSession{} },
	})
}

func TestSessionCreatedLazilyAndReused(t *testing.T) {
	d := newCounterDispatcher(time.Minute)
	ctx := context.Background()

	require.Equal(t, 0, d.Len())
	for i := 0; i < 3; i++ {
		err := d.Do(ctx, 1, func(s *counterSession) error {
			s.events++
			return nil
		})
		require.NoError(t, err)
	}
	require.Equal(t, 1, d.Len(), "one owner, one session")

	var got int
	require.NoError(t, d.Do(ctx, 1, func(s *counterSession) error {
		got = s.events
		return nil
	}))
	require.Equal(t, 3, got)
}

func TestOwnersDoNotShareSessions(t *testing.T) {
	d := newCounterDispatcher(time.Minute)
	ctx := context.Background()

	require.NoError(t, d.Do(ctx, 1, func(s *counterSession) error { s.events = 10; return nil }))
	require.NoError(t, d.Do(ctx, 2, func(s *counterSession) error { s.events = 20; return nil }))
	require.Equal(t, 2, d.Len())

	var one, two int
	require.NoError(t, d.Do(ctx, 1, func(s *counterSession) error { one = s.events; return nil }))
	require.NoError(t, d.Do(ctx, 2, func(s *counterSession) error { two = s.events; return nil }))
	require.Equal(t, 10, one)
	require.Equal(t, 20, two)
}

func TestSameOwnerEventsAreSerialized(t *testing.T) {
	d := newCounterDispatcher(time.Minute)
	ctx := context.Background()

	const workers = 16
	const perWorker = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_ = d.Do(ctx, 1, func(s *counterSession) error {
					// Unsynchronized increment: the per-session lock is
					// the only thing keeping this race-free.
					s.events++
					return nil
				})
			}
		}()
	}
	wg.Wait()

	var got int
	require.NoError(t, d.Do(ctx, 1, func(s *counterSession) error { got = s.events; return nil }))
	require.Equal(t, workers*perWorker, got)
}

func TestReapDiscardsExpiredSessions(t *testing.T) {
	d := newCounterDispatcher(time.Minute)
	ctx := context.Background()

	base := time.Now()
	d.now = func() time.Time { return base }
	require.NoError(t, d.Do(ctx, 1, func(*counterSession) error { return nil }))
	require.NoError(t, d.Do(ctx, 2, func(*counterSession) error { return nil }))

	// Owner 2 stays active past owner 1's last event.
	d.now = func() time.Time { return base.Add(50 * time.Second) }
	require.NoError(t, d.Do(ctx, 2, func(*counterSession) error { return nil }))

	d.now = func() time.Time { return base.Add(70 * time.Second) }
	require.Equal(t, 1, d.Reap())
	require.Equal(t, 1, d.Len())

	// A reaped owner starts over with a fresh session.
	var events int
	require.NoError(t, d.Do(ctx, 1, func(s *counterSession) error { events = s.events; return nil }))
	require.Equal(t, 0, events)
}

func TestReapSkipsBusySessions(t *testing.T) {
	d := newCounterDispatcher(time.Nanosecond)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Do(ctx, 1, func(*counterSession) error {
			close(entered)
			<-release
			return nil
		})
	}()

	<-entered
	require.Equal(t, 0, d.Reap(), "in-flight session must not be reaped")
	close(release)
	<-done
}

// A sweep landing between the map lookup and the entry lock must not
// let two events for the same owner run at once on different sessions.
func TestSerializationSurvivesConcurrentReaping(t *testing.T) {
	d := newCounterDispatcher(time.Nanosecond)
	ctx := context.Background()

	stop := make(chan struct{})
	var reaper sync.WaitGroup
	reaper.Add(1)
	go func() {
		defer reaper.Done()
		for {
			select {
			case <-stop:
				return
			default:
				d.Reap()
			}
		}
	}()

	var inFlight, overlapped int32
	const workers = 8
	const perWorker = 200
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_ = d.Do(ctx, 1, func(s *counterSession) error {
					if atomic.AddInt32(&inFlight, 1) > 1 {
						atomic.StoreInt32(&overlapped, 1)
					}
					s.events++
					atomic.AddInt32(&inFlight, -1)
					return nil
				})
			}
		}()
	}
	wg.Wait()
	close(stop)
	reaper.Wait()

	require.Zero(t, atomic.LoadInt32(&overlapped),
		"events for one owner ran concurrently on separate sessions")
}

// Two owners mid-dialog must each keep their own pending sticker.
func TestDialogSessionIsolation(t *testing.T) {
	store := sticker.NewMemoryStore()
	d := NewDispatcher(Options[*dialog.Machine]{
		Kind: "chat",
		TTL:  time.Minute,
		New: func(owner int64) *dialog.Machine {
			return dialog.NewMachine(owner, store, "bot")
		},
	})
	ctx := context.Background()
	sink := &nullSink{}

	step := func(owner int64, ev dialog.Event) {
		t.Helper()
		require.NoError(t, d.Do(ctx, owner, func(m *dialog.Machine) error {
			return m.Handle(ctx, ev, sink)
		}))
	}

	// Interleave both owners through the add flow.
	step(1, dialog.Event{Kind: dialog.EventText, Text: "/add"})
	step(2, dialog.Event{Kind: dialog.EventText, Text: "/add"})
	step(1, dialog.Event{Kind: dialog.EventSticker, Ref: "ref-owner-1"})
	step(2, dialog.Event{Kind: dialog.EventSticker, Ref: "ref-owner-2"})
	step(2, dialog.Event{Kind: dialog.EventText, Text: "two"})
	step(1, dialog.Event{Kind: dialog.EventText, Text: "one"})

	rows1, err := store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows1, 1)
	require.Equal(t, "ref-owner-1", rows1[0].Ref)
	require.Equal(t, "one", rows1[0].Name)

	rows2, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows2, 1)
	require.Equal(t, "ref-owner-2", rows2[0].Ref)
	require.Equal(t, "two", rows2[0].Name)
}

type nullSink struct{}

func (nullSink) SendText(string) error      { return nil }
func (nullSink) SendSticker(string) error   { return nil }
func (nullSink) PromptSticker(string) error { return nil }
