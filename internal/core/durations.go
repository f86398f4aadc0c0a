package core

import (
	"fmt"
	"math"

	"github.com/valter-silva-au/focuslog/pkg/models"
)

// ValidationError reports a rejected duration setting. Reason is suitable
// for showing to the user as-is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// SecondsFor converts fractional minutes to whole seconds, rounding half up.
func SecondsFor(minutes float64) int {
	return int(math.Floor(minutes*60 + 0.5))
}

// SplitMinutes converts decimal minutes into the minutes+seconds pair shown
// by the settings form.
func SplitMinutes(minutes float64) (int, int) {
	total := SecondsFor(minutes)
	return total / 60, total % 60
}

// ValidateDurations checks work and break lengths against their bounds.
// NaN and infinities are rejected along with out-of-range values.
func ValidateDurations(work, brk float64) error {
	if !(work > 0) {
		return &ValidationError{Field: "work", Reason: "work duration must be greater than 0"}
	}
	if !(brk > 0) {
		return &ValidationError{Field: "break", Reason: "break duration must be greater than 0"}
	}
	if work > models.MaxWorkMinutes {
		return &ValidationError{Field: "work", Reason: fmt.Sprintf("work duration cannot exceed %d minutes", int(models.MaxWorkMinutes))}
	}
	if brk > models.MaxBreakMinutes {
		return &ValidationError{Field: "break", Reason: fmt.Sprintf("break duration cannot exceed %d minutes", int(models.MaxBreakMinutes))}
	}
	return nil
}

// ParseSettings turns the settings form's minute and second fields into
// decimal minutes, applying the form's checks in the order the user sees
// them.
func ParseSettings(workMin, workSec, breakMin, breakSec int) (models.DurationConfig, error) {
	if workMin < 0 || workSec < 0 || breakMin < 0 || breakSec < 0 {
		return models.DurationConfig{}, &ValidationError{Field: "settings", Reason: "time values cannot be negative"}
	}
	if workSec >= 60 || breakSec >= 60 {
		return models.DurationConfig{}, &ValidationError{Field: "settings", Reason: "seconds must be less than 60"}
	}

	cfg := models.DurationConfig{
		WorkMinutes:  float64(workMin) + float64(workSec)/60,
		BreakMinutes: float64(breakMin) + float64(breakSec)/60,
	}
	if err := ValidateDurations(cfg.WorkMinutes, cfg.BreakMinutes); err != nil {
		return models.DurationConfig{}, err
	}
	return cfg, nil
}

// Durations holds the active phase lengths. Set never installs invalid
// values.
type Durations struct {
	cfg models.DurationConfig
}

// NewDurations creates a Durations holder. Invalid initial values fall back
// to the 25/5 defaults.
func NewDurations(initial models.DurationConfig) *Durations {
	if ValidateDurations(initial.WorkMinutes, initial.BreakMinutes) != nil {
		initial = models.DefaultDurations()
	}
	return &Durations{cfg: initial}
}

// Get returns the current configuration.
func (d *Durations) Get() models.DurationConfig {
	return d.cfg
}

// Set validates and installs new lengths, leaving the previous values in
// place on error.
func (d *Durations) Set(work, brk float64) error {
	if err := ValidateDurations(work, brk); err != nil {
		return err
	}
	d.cfg = models.DurationConfig{WorkMinutes: work, BreakMinutes: brk}
	return nil
}

// TotalSecondsFor returns the full countdown length of a phase.
func (d *Durations) TotalSecondsFor(p models.Phase) int {
	return SecondsFor(d.cfg.MinutesFor(p))
}
