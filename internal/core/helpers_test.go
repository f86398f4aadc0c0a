package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// --- Fake collaborators ---

// memBlobStore is an in-memory BlobStore. Setting failPuts makes every Put fail.
type memBlobStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	puts     int
	failPuts bool
	failGets bool
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{data: make(map[string][]byte)}
}

func (m *memBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGets {
		return nil, errors.New("store unavailable")
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memBlobStore) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPuts {
		return errors.New("disk full")
	}
	m.puts++
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *memBlobStore) raw(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.data[key])
}

type promptCall struct {
	id    string
	label string
}

type recordingPrompter struct {
	calls []promptCall
}

func (p *recordingPrompter) Prompt(id, label string) {
	p.calls = append(p.calls, promptCall{id: id, label: label})
}

type recordingNotifier struct {
	sent []Notification
}

func (n *recordingNotifier) Notify(msg Notification) {
	n.sent = append(n.sent, msg)
}

type failingSound struct {
	plays int
}

func (s *failingSound) Play() error {
	s.plays++
	return errors.New("no audio device")
}

type loggedEvent struct {
	level string
	typ   string
	data  map[string]any
}

type recordingEvents struct {
	events []loggedEvent
}

func (r *recordingEvents) LogEvent(level, eventType string, data map[string]any) error {
	r.events = append(r.events, loggedEvent{level: level, typ: eventType, data: data})
	return nil
}

func (r *recordingEvents) count(eventType string) int {
	n := 0
	for _, e := range r.events {
		if e.typ == eventType {
			n++
		}
	}
	return n
}

// sequentialIDs returns a NewID func producing item-1, item-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("item-%d", n)
	}
}

func fixedNow() func() time.Time {
	t := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

type testRig struct {
	ctrl     TimerController
	blobs    *memBlobStore
	store    WorkLogStore
	prompter *recordingPrompter
	notifier *recordingNotifier
	sound    *failingSound
	events   *recordingEvents
}

func newTestRig(work, brk float64) *testRig {
	r := &testRig{
		blobs:    newMemBlobStore(),
		prompter: &recordingPrompter{},
		notifier: &recordingNotifier{},
		sound:    &failingSound{},
		events:   &recordingEvents{},
	}
	r.store = NewWorkLogStore(r.blobs)
	r.ctrl = NewTimerController(ControllerOptions{
		Durations: durationsOf(work, brk),
		Store:     r.store,
		Notifier:  r.notifier,
		Sound:     r.sound,
		Prompter:  r.prompter,
		Events:    r.events,
		Now:       fixedNow(),
		NewID:     sequentialIDs(),
	})
	return r
}

func (r *testRig) beats(n int) {
	for i := 0; i < n; i++ {
		r.ctrl.Heartbeat()
	}
}
