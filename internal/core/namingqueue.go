package core

import (
	"errors"
	"fmt"
)

// ErrNamingOutOfOrder signals a sequencing bug: a naming answer arrived for
// an item that is not the one currently being named.
var ErrNamingOutOfOrder = errors.New("naming completed for an item that is not in flight")

// StrictCoordination makes coordination errors panic instead of being
// returned. Intended for development builds and tests.
var StrictCoordination = false

// NamingQueue serializes naming prompts so exactly one is open at a time and
// items are named in completion order.
type NamingQueue struct {
	store    WorkLogStore
	prompter Prompter
	inFlight string
	pending  []string
}

// NewNamingQueue creates a queue that applies answers to store and opens
// prompts through prompter. prompter may be nil until a UI attaches.
func NewNamingQueue(store WorkLogStore, prompter Prompter) *NamingQueue {
	return &NamingQueue{store: store, prompter: prompter}
}

// SetPrompter replaces the prompt collaborator. If an item is already in
// flight it is re-announced so the new UI can show it.
func (q *NamingQueue) SetPrompter(p Prompter) {
	q.prompter = p
	if q.inFlight != "" {
		q.signal(q.inFlight)
	}
}

// Enqueue opens a prompt for id immediately when nothing is in flight,
// otherwise queues it behind the pending items.
func (q *NamingQueue) Enqueue(id string) error {
	if id == "" {
		return fmt.Errorf("enqueueing naming request: ID must not be empty")
	}
	if q.contains(id) {
		return fmt.Errorf("enqueueing naming request: %s already queued", id)
	}
	if q.inFlight == "" && len(q.pending) == 0 {
		q.inFlight = id
		q.signal(id)
		return nil
	}
	q.pending = append(q.pending, id)
	return nil
}

// Complete applies the answer for the in-flight item and surfaces the next
// pending one. A blank description keeps the item's default label. A
// persistence failure is returned after the queue has advanced.
func (q *NamingQueue) Complete(id, description string) error {
	if q.inFlight == "" || id != q.inFlight {
		err := fmt.Errorf("completing %q (in flight %q): %w", id, q.inFlight, ErrNamingOutOfOrder)
		if StrictCoordination {
			panic(err)
		}
		return err
	}

	_, updateErr := q.store.UpdateDescription(id, description)
	if errors.Is(updateErr, ErrItemNotFound) {
		updateErr = nil
	}

	q.inFlight = ""
	if len(q.pending) > 0 {
		q.inFlight = q.pending[0]
		q.pending = q.pending[1:]
		q.signal(q.inFlight)
	}
	return updateErr
}

// InFlight returns the id currently being named, or "".
func (q *NamingQueue) InFlight() string {
	return q.inFlight
}

// Pending returns a copy of the ids waiting behind the in-flight one.
func (q *NamingQueue) Pending() []string {
	out := make([]string, len(q.pending))
	copy(out, q.pending)
	return out
}

// Drop forgets every queued id without prompting. Used when the log is
// cleared and the ids no longer refer to items.
func (q *NamingQueue) Drop() {
	q.inFlight = ""
	q.pending = nil
}

func (q *NamingQueue) contains(id string) bool {
	if q.inFlight == id {
		return true
	}
	for _, p := range q.pending {
		if p == id {
			return true
		}
	}
	return false
}

func (q *NamingQueue) signal(id string) {
	if q.prompter == nil {
		return
	}
	label := ""
	if item, err := q.store.Get(id); err == nil {
		label = item.Description
	}
	q.prompter.Prompt(id, label)
}
