package core

import (
	"time"

	"github.com/valter-silva-au/focuslog/pkg/models"
)

// PhaseListener receives PhaseCompleted events synchronously, before the
// clock commits the switch to the next phase.
type PhaseListener func(event PhaseCompleted)

// SessionClock is the countdown state machine. It has two states, idle and
// running, and alternates between the work and break phases.
type SessionClock struct {
	durations *Durations
	state     models.SessionState
	listeners []PhaseListener
	now       func() time.Time
}

// NewSessionClock creates an idle clock at the start of a work phase.
func NewSessionClock(durations *Durations, now func() time.Time) *SessionClock {
	if now == nil {
		now = time.Now
	}
	return &SessionClock{
		durations: durations,
		state: models.SessionState{
			Phase:            models.PhaseWork,
			SecondsRemaining: durations.TotalSecondsFor(models.PhaseWork),
		},
		now: now,
	}
}

// OnPhaseCompleted registers a listener.
func (c *SessionClock) OnPhaseCompleted(l PhaseListener) {
	c.listeners = append(c.listeners, l)
}

// State returns a copy of the current session state.
func (c *SessionClock) State() models.SessionState {
	st := c.state
	if st.StartedAt != nil {
		t := *st.StartedAt
		st.StartedAt = &t
	}
	return st
}

// TotalSeconds returns the full length of the active phase.
func (c *SessionClock) TotalSeconds() int {
	return c.durations.TotalSecondsFor(c.state.Phase)
}

// Start moves the clock to running. The first start after a reset records
// the session start time. It reports whether the state changed.
func (c *SessionClock) Start() bool {
	if c.state.Running {
		return false
	}
	c.state.Running = true
	if c.state.StartedAt == nil {
		t := c.now()
		c.state.StartedAt = &t
	}
	return true
}

// Pause stops the countdown without touching phase or remaining time.
func (c *SessionClock) Pause() bool {
	if !c.state.Running {
		return false
	}
	c.state.Running = false
	return true
}

// Reset stops the clock and refills the active phase.
func (c *SessionClock) Reset() {
	c.state.Running = false
	c.state.StartedAt = nil
	c.state.SecondsRemaining = c.TotalSeconds()
}

// Resize refills the active phase to its configured length without changing
// the running state.
func (c *SessionClock) Resize() {
	c.state.SecondsRemaining = c.TotalSeconds()
}

// Tick advances the countdown by one second. When the last second elapses
// the phase completes: listeners run first, then the clock switches to the
// other phase and keeps running. It reports whether a phase completed.
func (c *SessionClock) Tick() bool {
	if !c.state.Running {
		return false
	}
	if c.state.SecondsRemaining > 1 {
		c.state.SecondsRemaining--
		return false
	}

	completed := c.state.Phase
	event := PhaseCompleted{
		Phase:           completed,
		DurationMinutes: c.durations.Get().MinutesFor(completed),
	}
	next := completed.Other()
	nextSeconds := c.durations.TotalSecondsFor(next)

	for _, l := range c.listeners {
		l(event)
	}

	c.state.Phase = next
	c.state.SecondsRemaining = nextSeconds
	return true
}

// SkipBreak jumps from a break straight to a full work phase without
// emitting PhaseCompleted. It is a no-op outside the break phase.
func (c *SessionClock) SkipBreak() bool {
	if c.state.Phase != models.PhaseBreak {
		return false
	}
	c.state.Phase = models.PhaseWork
	c.state.SecondsRemaining = c.durations.TotalSecondsFor(models.PhaseWork)
	return true
}
