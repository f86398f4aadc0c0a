package core

// EventLogger is the subset of the observability event log that core
// services need. Defining it here avoids importing the observability package.
type EventLogger interface {
	LogEvent(level, eventType string, data map[string]any) error
}

// Event levels understood by the event log.
const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Event types written by the timer core.
const (
	EventTimerStarted     = "timer.started"
	EventTimerPaused      = "timer.paused"
	EventTimerReset       = "timer.reset"
	EventPhaseCompleted   = "phase.completed"
	EventBreakSkipped     = "break.skipped"
	EventSettingsApplied  = "settings.applied"
	EventSettingsRejected = "settings.rejected"
	EventItemCreated      = "item.created"
	EventItemNamed        = "item.named"
	EventItemEdited       = "item.edited"
	EventTotalReset       = "total.reset"
	EventLogCleared       = "log.cleared"
	EventStorageWarning   = "storage.warning"
	EventNamingOutOfOrder = "naming.out_of_order"
	EventSoundFailed      = "sound.failed"
)

type nopEventLogger struct{}

func (nopEventLogger) LogEvent(string, string, map[string]any) error { return nil }
