package core

import (
	"context"
	"errors"

	"github.com/valter-silva-au/focuslog/pkg/models"
)

// ErrBlobNotFound is returned by a BlobStore when a key has never been written.
var ErrBlobNotFound = errors.New("blob not found")

// Persisted blob keys.
const (
	KeyWorkLog       = "work-log"
	KeyTotalWorkTime = "total-work-time"
)

// BlobStore is a last-write-wins key/value store for whole blobs.
// This interface is defined locally in core to avoid importing storage.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// Notification is a transient message shown when a phase completes.
type Notification struct {
	Title      string
	Body       string
	DurationMs int
}

// Notifier displays notifications. Calls are fire-and-forget and must not
// block or call back into the controller.
type Notifier interface {
	Notify(n Notification)
}

// SoundPlayer plays the completion cue. Its errors never affect timer state.
type SoundPlayer interface {
	Play() error
}

// Prompter asks the user to name a work item. Prompt only signals; the
// answer comes back through Controller.CompleteNaming.
type Prompter interface {
	Prompt(itemID, defaultLabel string)
}

// PhaseCompleted is dispatched when a countdown reaches zero, before the
// clock switches phase.
type PhaseCompleted struct {
	Phase           models.Phase
	DurationMinutes float64
}
