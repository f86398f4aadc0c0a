package observability

import (
	"fmt"
	"time"
)

// Metrics summarizes timer activity derived from the event log.
type Metrics struct {
	WorkPhasesCompleted  int            `json:"work_phases_completed"`
	BreakPhasesCompleted int            `json:"break_phases_completed"`
	BreaksSkipped        int            `json:"breaks_skipped"`
	FocusMinutes         float64        `json:"focus_minutes"`
	ItemsCreated         int            `json:"items_created"`
	ItemsNamed           int            `json:"items_named"`
	ItemsLeftDefault     int            `json:"items_left_default"`
	SettingsChanges      int            `json:"settings_changes"`
	StorageWarnings      int            `json:"storage_warnings"`
	CompletionsByDay     map[string]int `json:"completions_by_day"`
	EventCount           int            `json:"event_count"`
	OldestEvent          *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent          *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator reading from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate aggregates every event at or after since. Days in
// CompletionsByDay are UTC dates of completed work phases.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{CompletionsByDay: make(map[string]int)}
	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case "phase.completed":
			switch event.Data["phase"] {
			case "work":
				m.WorkPhasesCompleted++
				m.CompletionsByDay[event.Time.UTC().Format("2006-01-02")]++
				if minutes, ok := event.Data["duration_minutes"].(float64); ok {
					m.FocusMinutes += minutes
				}
			case "break":
				m.BreakPhasesCompleted++
			}
		case "break.skipped":
			m.BreaksSkipped++
		case "item.created":
			if _, failed := event.Data["error"]; !failed {
				m.ItemsCreated++
			}
		case "item.named":
			if skipped, _ := event.Data["skipped"].(bool); skipped {
				m.ItemsLeftDefault++
			} else {
				m.ItemsNamed++
			}
		case "settings.applied":
			if changed, _ := event.Data["changed"].(bool); changed {
				m.SettingsChanges++
			}
		case "storage.warning":
			m.StorageWarnings++
		}
	}

	return m, nil
}
