package game

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type sentEvent struct {
	Room  string
	Event Event
}

type fakeEmitter struct {
	mu      sync.Mutex
	events  []sentEvent
	members map[string]map[string]bool
	closed  map[string]bool
}

func newFakeEmitter() *fakeEmitter {
	return &fakeEmitter{
		members: make(map[string]map[string]bool),
		closed:  make(map[string]bool),
	}
}

func (f *fakeEmitter) Subscribe(room, conn string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members[room] == nil {
		f.members[room] = make(map[string]bool)
	}
	f.members[room][conn] = true
}

func (f *fakeEmitter) Unsubscribe(room, conn string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members[room], conn)
}

func (f *fakeEmitter) Broadcast(room string, event Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{Room: room, Event: event})
}

func (f *fakeEmitter) Close(room string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed[room] = true
	delete(f.members, room)
}

func (f *fakeEmitter) ofType(eventType string) []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, 0)
	for _, sent := range f.events {
		if sent.Event.Type == eventType {
			out = append(out, sent.Event)
		}
	}
	return out
}

func (f *fakeEmitter) last(eventType string) (Event, bool) {
	events := f.ofType(eventType)
	if len(events) == 0 {
		return Event{}, false
	}
	return events[len(events)-1], true
}

func (f *fakeEmitter) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, sent := range f.events {
		out = append(out, sent.Event.Type)
	}
	return out
}

func (f *fakeEmitter) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

// fakeClock hands out timers that only fire when the test says so.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) After(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) active() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*fakeTimer, 0)
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// FireAll runs every timer that is still armed.
func (c *fakeClock) FireAll() int {
	timers := c.active()
	for _, t := range timers {
		t.fired = true
		t.f()
	}
	return len(timers)
}

// FireStale runs every timer, including stopped ones, the way a timer that
// raced its Stop call would.
func (c *fakeClock) FireStale() {
	c.mu.Lock()
	timers := append([]*fakeTimer(nil), c.timers...)
	c.mu.Unlock()
	for _, t := range timers {
		t.f()
	}
}

type fakeClips struct {
	clips map[string][]string
	err   error
	calls int
}

func (f *fakeClips) ListClips(session string) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.clips[session], nil
}

type fakeMedia struct {
	mu         sync.Mutex
	deleted    []string
	reclaimed  []string
	deleteErr  error
	reclaimErr error
}

func (f *fakeMedia) DeleteRecording(handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, handle)
	return f.deleteErr
}

func (f *fakeMedia) RemoveSessionMedia(session string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reclaimed = append(f.reclaimed, session)
	return f.reclaimErr
}

type journalEntry struct {
	Session string
	Kind    string
	Payload any
}

type fakeJournal struct {
	mu      sync.Mutex
	entries []journalEntry
}

func (f *fakeJournal) Record(session, kind string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, journalEntry{Session: session, Kind: kind, Payload: payload})
}

func (f *fakeJournal) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, entry := range f.entries {
		out = append(out, entry.Kind)
	}
	return out
}

type harness struct {
	reg     *Registry
	emitter *fakeEmitter
	clock   *fakeClock
	clips   *fakeClips
	media   *fakeMedia
	journal *fakeJournal
}

func sequentialCodes(start int) CodeFunc {
	var mu sync.Mutex
	next := start
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		code := fmt.Sprintf("%06d", next)
		next++
		return code
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		emitter: newFakeEmitter(),
		clock:   &fakeClock{},
		clips:   &fakeClips{clips: make(map[string][]string)},
		media:   &fakeMedia{},
		journal: &fakeJournal{},
	}
	logger := zerolog.Nop()
	h.reg = NewRegistry(Deps{
		Emitter:  h.emitter,
		Clips:    h.clips,
		Media:    h.media,
		Journal:  h.journal,
		Timers:   h.clock.After,
		Settings: DefaultSettings(),
		Logger:   &logger,
		Async:    func(f func()) { f() },
	}, sequentialCodes(100000))
	return h
}

// room creates a room hosted by the first id and joined by the rest, with the
// given clips uploaded.
func (h *harness) room(t *testing.T, clips []string, ids ...string) *Room {
	t.Helper()
	require.NotEmpty(t, ids)
	room, err := h.reg.Create(ids[0], "name-"+ids[0])
	require.NoError(t, err)
	for _, id := range ids[1:] {
		_, err := h.reg.Join(room.Code(), id, "name-"+id)
		require.NoError(t, err)
	}
	h.clips.clips[room.Code()] = clips
	return room
}

// recordAll plays the current clip and submits a recording for every id.
func (h *harness) recordAll(t *testing.T, room *Room, ids ...string) {
	t.Helper()
	room.ClipFinished(ids[0])
	for _, id := range ids {
		room.SubmitRecording(id, "rec-"+id+".webm")
	}
	require.Equal(t, PhasePlayingRecordings, room.Phase())
}

func (h *harness) currentTarget(t *testing.T) string {
	t.Helper()
	event, ok := h.emitter.last(EventStartVotePhase)
	require.True(t, ok, "expected a vote phase to be open")
	return event.Data.(VotePhasePayload).TargetID
}
