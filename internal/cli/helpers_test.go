package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/valter-silva-au/focuslog/internal/core"
	"github.com/valter-silva-au/focuslog/pkg/models"
)

// memBlobs is an in-memory core.BlobStore. Setting failPuts makes every Put fail.
type memBlobs struct {
	mu       sync.Mutex
	data     map[string][]byte
	failPuts bool
}

func newMemBlobs() *memBlobs {
	return &memBlobs{data: make(map[string][]byte)}
}

func (m *memBlobs) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, core.ErrBlobNotFound
	}
	return v, nil
}

func (m *memBlobs) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPuts {
		return errors.New("disk full")
	}
	m.data[key] = append([]byte(nil), data...)
	return nil
}

// shortDurations gives a 3 second work phase and a 2 second break.
var shortDurations = models.DurationConfig{WorkMinutes: 0.05, BreakMinutes: 2.0 / 60}

func newTestController(t *testing.T, durations models.DurationConfig, blobs *memBlobs) core.TimerController {
	t.Helper()
	store := core.NewWorkLogStore(blobs)
	if err := store.Load(); err != nil {
		t.Fatalf("loading store: %v", err)
	}
	n := 0
	return core.NewTimerController(core.ControllerOptions{
		Durations: durations,
		Store:     store,
		Now: func() time.Time {
			return time.Date(2025, 3, 10, 14, 30, 0, 0, time.Local)
		},
		NewID: func() string {
			n++
			return fmt.Sprintf("item-%d", n)
		},
	})
}

// useController installs ctrl as the package controller for the test.
func useController(t *testing.T, ctrl core.TimerController) {
	t.Helper()
	orig := Controller
	Controller = ctrl
	t.Cleanup(func() { Controller = orig })
}

// completeWorkPhase runs the clock until the current work phase ends.
func completeWorkPhase(t *testing.T, ctrl core.TimerController) {
	t.Helper()
	ctrl.Start()
	for i := 0; i < 10; i++ {
		ctrl.Heartbeat()
		if ctrl.Snapshot().State.Phase == models.PhaseBreak {
			return
		}
	}
	t.Fatal("work phase did not complete")
}

// captureStdout captures stdout output during fn execution.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe: %v", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = origStdout

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading pipe: %v", err)
	}
	return string(out)
}
