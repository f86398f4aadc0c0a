package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/focuslog/pkg/models"
)

// TimerController is the single owner of all timer state. Every external
// trigger (heartbeat, user command, prompt answer) is a method call on it.
type TimerController interface {
	Toggle() models.SessionState
	Start()
	Pause()
	Reset()
	SkipBreak() bool
	ApplySettings(work, brk float64) error
	ApplySettingsForm(workMin, workSec, breakMin, breakSec int) error
	EditItem(id, text string) error
	CompleteNaming(id, text string) error
	ResetTotal() error
	ClearLog() error
	Items() []models.WorkLogItem
	Snapshot() models.Snapshot
	SetPrompter(p Prompter)
	Heartbeat()
	Run(ctx context.Context) error
}

// ControllerOptions wires a TimerController's collaborators. Store is
// required; everything else has a usable default.
type ControllerOptions struct {
	Durations    models.DurationConfig
	Store        WorkLogStore
	Notifier     Notifier
	Sound        SoundPlayer
	Prompter     Prompter
	Events       EventLogger
	TickInterval time.Duration
	// SaveDurations persists successfully applied settings. Optional.
	SaveDurations func(models.DurationConfig) error
	Now           func() time.Time
	NewID         func() string
}

type timerController struct {
	mu sync.Mutex

	durations   *Durations
	clock       *SessionClock
	accumulator *WorkAccumulator
	store       WorkLogStore
	queue       *NamingQueue

	notifier      Notifier
	sound         SoundPlayer
	events        EventLogger
	saveDurations func(models.DurationConfig) error
	tickInterval  time.Duration
	now           func() time.Time
	newID         func() string

	lastWarning string
}

// NewTimerController builds the controller and registers its phase
// completion handler on the session clock.
func NewTimerController(opts ControllerOptions) TimerController {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.New().String() }
	}
	if opts.Events == nil {
		opts.Events = nopEventLogger{}
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}

	durations := NewDurations(opts.Durations)
	c := &timerController{
		durations:     durations,
		clock:         NewSessionClock(durations, opts.Now),
		accumulator:   NewWorkAccumulator(opts.Store),
		store:         opts.Store,
		queue:         NewNamingQueue(opts.Store, opts.Prompter),
		notifier:      opts.Notifier,
		sound:         opts.Sound,
		events:        opts.Events,
		saveDurations: opts.SaveDurations,
		tickInterval:  opts.TickInterval,
		now:           opts.Now,
		newID:         opts.NewID,
	}
	c.clock.OnPhaseCompleted(c.handlePhaseCompleted)
	return c
}

// Toggle starts an idle clock or pauses a running one and returns the new state.
func (c *timerController) Toggle() models.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.clock.State().Running {
		c.pauseLocked()
	} else {
		c.startLocked()
	}
	return c.clock.State()
}

func (c *timerController) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startLocked()
}

func (c *timerController) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauseLocked()
}

// Reset refills the active phase and stops the clock. The work log and the
// total work time are untouched.
func (c *timerController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clock.Reset()
	c.logEvent(LevelInfo, EventTimerReset, map[string]any{"phase": string(c.clock.State().Phase)})
}

// SkipBreak ends a break early. It reports false when not in a break.
func (c *timerController) SkipBreak() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.clock.SkipBreak() {
		return false
	}
	c.notify(Notification{Title: "Break skipped", Body: "Starting work time.", DurationMs: 2000})
	c.logEvent(LevelInfo, EventBreakSkipped, nil)
	return true
}

// ApplySettings installs new phase lengths. The active phase is refilled
// when the values changed or the clock is idle; unchanged values on a
// running clock leave the countdown alone.
func (c *timerController) ApplySettings(work, brk float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applySettingsLocked(work, brk)
}

// ApplySettingsForm validates minute and second fields the way the settings
// form does, then applies them.
func (c *timerController) ApplySettingsForm(workMin, workSec, breakMin, breakSec int) error {
	cfg, err := ParseSettings(workMin, workSec, breakMin, breakSec)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logEvent(LevelWarn, EventSettingsRejected, map[string]any{"reason": err.Error()})
		return err
	}
	return c.applySettingsLocked(cfg.WorkMinutes, cfg.BreakMinutes)
}

// EditItem rewrites an item's description. Blank text is ignored.
func (c *timerController) EditItem(id, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed, err := c.store.UpdateDescription(id, text)
	if err != nil && !c.softWarning(err) {
		return err
	}
	if changed {
		c.logEvent(LevelInfo, EventItemEdited, map[string]any{"item_id": id})
	}
	return err
}

// CompleteNaming delivers the prompt answer for the in-flight item. An empty
// answer keeps the default label.
func (c *timerController) CompleteNaming(id, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.queue.Complete(id, text)
	if errors.Is(err, ErrNamingOutOfOrder) {
		c.logEvent(LevelError, EventNamingOutOfOrder, map[string]any{"item_id": id, "in_flight": c.queue.InFlight()})
		return err
	}
	if err != nil && !c.softWarning(err) {
		return err
	}
	c.logEvent(LevelInfo, EventItemNamed, map[string]any{"item_id": id, "skipped": text == ""})
	return err
}

// ResetTotal zeroes the accumulated work time.
func (c *timerController) ResetTotal() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.accumulator.Reset()
	c.softWarning(err)
	c.logEvent(LevelInfo, EventTotalReset, nil)
	return err
}

// ClearLog removes every work item and drops any queued naming requests.
func (c *timerController) ClearLog() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.store.Clear()
	c.softWarning(err)
	c.queue.Drop()
	c.logEvent(LevelInfo, EventLogCleared, nil)
	return err
}

func (c *timerController) Items() []models.WorkLogItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.List()
}

func (c *timerController) Snapshot() models.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := models.Snapshot{
		State:         c.clock.State(),
		Durations:     c.durations.Get(),
		TotalSeconds:  c.clock.TotalSeconds(),
		TotalWorkTime: c.store.Total(),
		ItemCount:     c.store.Count(),
		NamingItemID:  c.queue.InFlight(),
		PendingNames:  len(c.queue.Pending()),
		LastWarning:   c.lastWarning,
	}
	if snap.NamingItemID != "" {
		if item, err := c.store.Get(snap.NamingItemID); err == nil {
			snap.NamingLabel = item.Description
		}
	}
	return snap
}

// SetPrompter attaches the naming prompt UI.
func (c *timerController) SetPrompter(p Prompter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.SetPrompter(p)
}

// Heartbeat processes one elapsed second. The accumulator and the session
// clock decide independently, both against the state at the start of the
// heartbeat, and the whole dispatch completes before the next one starts.
func (c *timerController) Heartbeat() {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.clock.State()
	if _, err := c.accumulator.Tick(before); err != nil {
		c.softWarning(err)
	}
	c.clock.Tick()
}

// Run drives Heartbeat from a ticker until ctx is cancelled.
func (c *timerController) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.Heartbeat()
		}
	}
}

func (c *timerController) startLocked() {
	if c.clock.Start() {
		c.logEvent(LevelInfo, EventTimerStarted, map[string]any{
			"phase":             string(c.clock.State().Phase),
			"seconds_remaining": c.clock.State().SecondsRemaining,
		})
	}
}

func (c *timerController) pauseLocked() {
	if c.clock.Pause() {
		c.logEvent(LevelInfo, EventTimerPaused, map[string]any{
			"phase":             string(c.clock.State().Phase),
			"seconds_remaining": c.clock.State().SecondsRemaining,
		})
	}
}

func (c *timerController) applySettingsLocked(work, brk float64) error {
	prev := c.durations.Get()
	if err := c.durations.Set(work, brk); err != nil {
		c.logEvent(LevelWarn, EventSettingsRejected, map[string]any{"reason": err.Error()})
		return err
	}

	next := c.durations.Get()
	changed := next != prev
	if changed || !c.clock.State().Running {
		c.clock.Resize()
	}
	c.logEvent(LevelInfo, EventSettingsApplied, map[string]any{
		"work_minutes":  next.WorkMinutes,
		"break_minutes": next.BreakMinutes,
		"changed":       changed,
	})

	if changed && c.saveDurations != nil {
		if err := c.saveDurations(next); err != nil {
			c.warn(fmt.Sprintf("saving settings: %v", err))
		}
	}
	return nil
}

func (c *timerController) handlePhaseCompleted(event PhaseCompleted) {
	next := event.Phase.Other()
	c.logEvent(LevelInfo, EventPhaseCompleted, map[string]any{
		"phase":            string(event.Phase),
		"duration_minutes": event.DurationMinutes,
	})

	if event.Phase == models.PhaseWork {
		c.createWorkItem(event)
	}

	c.notify(Notification{
		Title:      fmt.Sprintf("%s time completed!", event.Phase.Label()),
		Body:       fmt.Sprintf("Starting %s time.", next),
		DurationMs: 4000,
	})
	c.playSound()
}

func (c *timerController) createWorkItem(event PhaseCompleted) {
	item := models.WorkLogItem{
		ID:          c.newID(),
		Timestamp:   c.now(),
		Description: fmt.Sprintf("Item %d", c.store.Count()+1),
		Duration:    event.DurationMinutes,
		Type:        models.ItemTypeWork,
	}
	if err := c.store.Append(item); err != nil && !c.softWarning(err) {
		c.logEvent(LevelError, EventItemCreated, map[string]any{"error": err.Error()})
		return
	}
	c.logEvent(LevelInfo, EventItemCreated, map[string]any{
		"item_id":     item.ID,
		"description": item.Description,
	})
	if err := c.queue.Enqueue(item.ID); err != nil {
		c.logEvent(LevelError, EventItemCreated, map[string]any{"item_id": item.ID, "error": err.Error()})
	}
}

func (c *timerController) notify(n Notification) {
	if c.notifier != nil {
		c.notifier.Notify(n)
	}
}

func (c *timerController) playSound() {
	if c.sound == nil {
		return
	}
	if err := c.sound.Play(); err != nil {
		c.logEvent(LevelWarn, EventSoundFailed, map[string]any{"error": err.Error()})
	}
}

// softWarning records persistence failures as warnings. It reports whether
// err was such a failure; nil is not.
func (c *timerController) softWarning(err error) bool {
	var perr *PersistError
	if !errors.As(err, &perr) {
		return false
	}
	c.warn(err.Error())
	return true
}

func (c *timerController) warn(msg string) {
	c.lastWarning = msg
	c.logEvent(LevelWarn, EventStorageWarning, map[string]any{"error": msg})
}

func (c *timerController) logEvent(level, eventType string, data map[string]any) {
	_ = c.events.LogEvent(level, eventType, data)
}
