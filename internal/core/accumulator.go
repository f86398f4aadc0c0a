package core

import "github.com/valter-silva-au/focuslog/pkg/models"

// WorkAccumulator counts real elapsed work seconds into the store's total.
// It runs exactly while the session clock is running in the work phase.
type WorkAccumulator struct {
	store WorkLogStore
}

// NewWorkAccumulator creates an accumulator writing to store.
func NewWorkAccumulator(store WorkLogStore) *WorkAccumulator {
	return &WorkAccumulator{store: store}
}

// Active reports whether a heartbeat in the given state counts as work time.
func (a *WorkAccumulator) Active(state models.SessionState) bool {
	return state.Running && state.Phase == models.PhaseWork
}

// Tick adds one second when the state is active. It reports whether it
// counted and returns any persistence error.
func (a *WorkAccumulator) Tick(state models.SessionState) (bool, error) {
	if !a.Active(state) {
		return false, nil
	}
	return true, a.store.AddSeconds(1)
}

// Reset sets the total back to zero.
func (a *WorkAccumulator) Reset() error {
	return a.store.ResetTotal()
}

// Total returns the accumulated seconds.
func (a *WorkAccumulator) Total() int {
	return a.store.Total()
}
