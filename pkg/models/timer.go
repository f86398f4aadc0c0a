package models

import "time"

// Phase is one half of a work/break cycle.
type Phase string

const (
	PhaseWork  Phase = "work"
	PhaseBreak Phase = "break"
)

// Other returns the phase that follows p.
func (p Phase) Other() Phase {
	if p == PhaseWork {
		return PhaseBreak
	}
	return PhaseWork
}

// Label returns the human-readable name shown in the timer title.
func (p Phase) Label() string {
	if p == PhaseBreak {
		return "Break"
	}
	return "Work"
}

// Default and maximum phase lengths, in minutes.
const (
	DefaultWorkMinutes  = 25.0
	DefaultBreakMinutes = 5.0
	MaxWorkMinutes      = 120.0
	MaxBreakMinutes     = 60.0
)

// DurationConfig holds the configured phase lengths. Both values may carry
// sub-minute precision.
type DurationConfig struct {
	WorkMinutes  float64 `yaml:"work_minutes" mapstructure:"work_minutes" json:"work_minutes"`
	BreakMinutes float64 `yaml:"break_minutes" mapstructure:"break_minutes" json:"break_minutes"`
}

// DefaultDurations returns the 25/5 configuration.
func DefaultDurations() DurationConfig {
	return DurationConfig{WorkMinutes: DefaultWorkMinutes, BreakMinutes: DefaultBreakMinutes}
}

// MinutesFor returns the configured length of the given phase.
func (d DurationConfig) MinutesFor(p Phase) float64 {
	if p == PhaseBreak {
		return d.BreakMinutes
	}
	return d.WorkMinutes
}

// SessionState is the countdown state of the session clock.
type SessionState struct {
	Phase            Phase      `json:"phase"`
	SecondsRemaining int        `json:"seconds_remaining"`
	Running          bool       `json:"running"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
}

// Snapshot is a read-only view of the whole timer, taken under the
// controller lock.
type Snapshot struct {
	State         SessionState   `json:"state"`
	Durations     DurationConfig `json:"durations"`
	TotalSeconds  int            `json:"phase_total_seconds"`
	TotalWorkTime int            `json:"total_work_time"`
	ItemCount     int            `json:"item_count"`
	NamingItemID  string         `json:"naming_item_id,omitempty"`
	NamingLabel   string         `json:"naming_label,omitempty"`
	PendingNames  int            `json:"pending_names"`
	LastWarning   string         `json:"last_warning,omitempty"`
}
