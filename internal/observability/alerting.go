package observability

import (
	"fmt"
	"time"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts fire.
type AlertThresholds struct {
	// SkippedBreaks is the number of skipped breaks within 24 hours.
	SkippedBreaks int `yaml:"skipped_breaks" json:"skipped_breaks"`
	// FocusStreak is the number of work phases completed back to back
	// without a completed break.
	FocusStreak int `yaml:"focus_streak" json:"focus_streak"`
	// StorageWarnings is the number of storage warnings within an hour.
	StorageWarnings int `yaml:"storage_warnings" json:"storage_warnings"`
}

// DefaultAlertThresholds returns the default thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		SkippedBreaks:   3,
		FocusStreak:     4,
		StorageWarnings: 1,
	}
}

// AlertEngine evaluates alert conditions against the event log.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

type alertEngine struct {
	eventLog   EventLog
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates an AlertEngine reading eventLog.
func NewAlertEngine(eventLog EventLog, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		eventLog:   eventLog,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// Evaluate checks every condition and returns the alerts that fired.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	now := ae.now().UTC()
	var alerts []Alert

	skipped, err := ae.checkSkippedBreaks(now)
	if err != nil {
		return nil, fmt.Errorf("checking skipped breaks: %w", err)
	}
	alerts = append(alerts, skipped...)

	streak, err := ae.checkFocusStreak(now)
	if err != nil {
		return nil, fmt.Errorf("checking focus streak: %w", err)
	}
	alerts = append(alerts, streak...)

	storage, err := ae.checkStorageWarnings(now)
	if err != nil {
		return nil, fmt.Errorf("checking storage warnings: %w", err)
	}
	alerts = append(alerts, storage...)

	return alerts, nil
}

func (ae *alertEngine) checkSkippedBreaks(now time.Time) ([]Alert, error) {
	if ae.thresholds.SkippedBreaks <= 0 {
		return nil, nil
	}
	since := now.Add(-24 * time.Hour)
	events, err := ae.eventLog.Read(EventFilter{Type: "break.skipped", Since: &since})
	if err != nil {
		return nil, err
	}
	if len(events) < ae.thresholds.SkippedBreaks {
		return nil, nil
	}
	return []Alert{{
		ID:          "breaks-skipped",
		Condition:   "breaks_skipped",
		Severity:    SeverityMedium,
		Message:     fmt.Sprintf("%d breaks skipped in the last 24 hours", len(events)),
		TriggeredAt: now,
	}}, nil
}

// checkFocusStreak counts work completions since the last completed break.
// Skipped breaks do not end a streak.
func (ae *alertEngine) checkFocusStreak(now time.Time) ([]Alert, error) {
	if ae.thresholds.FocusStreak <= 0 {
		return nil, nil
	}
	events, err := ae.eventLog.Read(EventFilter{Type: "phase.completed"})
	if err != nil {
		return nil, err
	}

	streak := 0
	for _, event := range events {
		switch event.Data["phase"] {
		case "work":
			streak++
		case "break":
			streak = 0
		}
	}
	if streak < ae.thresholds.FocusStreak {
		return nil, nil
	}
	return []Alert{{
		ID:          "focus-streak",
		Condition:   "focus_streak",
		Severity:    SeverityLow,
		Message:     fmt.Sprintf("%d work sessions in a row without a break", streak),
		TriggeredAt: now,
	}}, nil
}

func (ae *alertEngine) checkStorageWarnings(now time.Time) ([]Alert, error) {
	if ae.thresholds.StorageWarnings <= 0 {
		return nil, nil
	}
	since := now.Add(-time.Hour)
	events, err := ae.eventLog.Read(EventFilter{Type: "storage.warning", Since: &since})
	if err != nil {
		return nil, err
	}
	if len(events) < ae.thresholds.StorageWarnings {
		return nil, nil
	}
	last, _ := events[len(events)-1].Data["error"].(string)
	return []Alert{{
		ID:          "storage-failing",
		Condition:   "storage_failing",
		Severity:    SeverityHigh,
		Message:     fmt.Sprintf("%d storage warning(s) in the last hour, last: %s", len(events), last),
		TriggeredAt: now,
	}}, nil
}
