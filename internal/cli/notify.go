package cli

import (
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/valter-silva-au/focuslog/internal/core"
)

// NotificationRelay forwards controller notifications to whichever view is
// attached. With no view attached they are dropped.
type NotificationRelay struct {
	mu   sync.Mutex
	view func(core.Notification)
}

// Notifications is handed to the controller by app.go; the timer view
// attaches to it while it runs.
var Notifications = &NotificationRelay{}

func (r *NotificationRelay) Notify(n core.Notification) {
	r.mu.Lock()
	view := r.view
	r.mu.Unlock()
	if view != nil {
		view(n)
	}
}

// Attach replaces the current view. nil detaches.
func (r *NotificationRelay) Attach(view func(core.Notification)) {
	r.mu.Lock()
	r.view = view
	r.mu.Unlock()
}

// BellPlayer plays the completion cue as a terminal bell.
type BellPlayer struct {
	W io.Writer
}

func (b BellPlayer) Play() error {
	_, err := io.WriteString(b.W, "\a")
	return err
}

// teaPrompter turns naming requests into messages for a running program.
// The controller calls Prompt with its lock held, so delivery must not wait
// for the program's event loop.
type teaPrompter struct {
	send func(tea.Msg)
}

func (p teaPrompter) Prompt(itemID, defaultLabel string) {
	go p.send(namingRequestMsg{itemID: itemID, label: defaultLabel})
}
