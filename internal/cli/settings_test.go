package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/focuslog/pkg/models"
)

// setSettingsFlags sets the given flags on settings set and restores them
// when the test ends.
func setSettingsFlags(t *testing.T, values map[string]string) {
	t.Helper()
	origWork, origBreak := settingsWork, settingsBreak
	t.Cleanup(func() {
		settingsWork, settingsBreak = origWork, origBreak
		for _, name := range []string{"work", "break"} {
			settingsSetCmd.Flags().Lookup(name).Changed = false
		}
	})
	for name, value := range values {
		if err := settingsSetCmd.Flags().Set(name, value); err != nil {
			t.Fatalf("setting --%s: %v", name, err)
		}
	}
}

func TestSettingsShow(t *testing.T) {
	useController(t, newTestController(t, models.DefaultDurations(), newMemBlobs()))

	out := captureStdout(t, func() {
		if err := settingsShowCmd.RunE(settingsShowCmd, nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "Work:    25:00") || !strings.Contains(out, "Break:   5:00") {
		t.Errorf("output = %q", out)
	}
}

func TestSettingsSet(t *testing.T) {
	ctrl := newTestController(t, models.DefaultDurations(), newMemBlobs())
	useController(t, ctrl)
	setSettingsFlags(t, map[string]string{"work": "50m"})

	out := captureStdout(t, func() {
		if err := settingsSetCmd.RunE(settingsSetCmd, nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
	if !strings.Contains(out, "Work 50:00, break 5:00.") {
		t.Errorf("output = %q", out)
	}

	snap := ctrl.Snapshot()
	if snap.Durations.WorkMinutes != 50 || snap.Durations.BreakMinutes != 5 {
		t.Errorf("durations = %+v, want 50/5", snap.Durations)
	}
	if snap.State.SecondsRemaining != 3000 {
		t.Errorf("remaining = %d, want 3000", snap.State.SecondsRemaining)
	}
}

func TestSettingsSet_BreakWithSeconds(t *testing.T) {
	ctrl := newTestController(t, models.DefaultDurations(), newMemBlobs())
	useController(t, ctrl)
	setSettingsFlags(t, map[string]string{"break": "4m30s"})

	captureStdout(t, func() {
		if err := settingsSetCmd.RunE(settingsSetCmd, nil); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
	if got := ctrl.Snapshot().Durations.BreakMinutes; got != 4.5 {
		t.Errorf("break = %v, want 4.5", got)
	}
}

func TestSettingsSet_NoFlags(t *testing.T) {
	useController(t, newTestController(t, models.DefaultDurations(), newMemBlobs()))

	err := settingsSetCmd.RunE(settingsSetCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "nothing to change") {
		t.Fatalf("err = %v", err)
	}
}

func TestSettingsSet_RejectedValues(t *testing.T) {
	tests := []struct {
		name    string
		flags   map[string]string
		wantErr string
	}{
		{"work too long", map[string]string{"work": "121m"}, "cannot exceed 120 minutes"},
		{"break too long", map[string]string{"break": "61m"}, "cannot exceed 60 minutes"},
		{"zero work", map[string]string{"work": "0s"}, "greater than 0"},
		{"fractional seconds", map[string]string{"work": "1500ms"}, "whole seconds"},
		{"negative", map[string]string{"break": "-1m"}, "negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := newTestController(t, models.DefaultDurations(), newMemBlobs())
			useController(t, ctrl)
			setSettingsFlags(t, tt.flags)

			err := settingsSetCmd.RunE(settingsSetCmd, nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want %q", err, tt.wantErr)
			}
			if d := ctrl.Snapshot().Durations; d != models.DefaultDurations() {
				t.Errorf("durations changed to %+v", d)
			}
		})
	}
}

func TestSplitDuration(t *testing.T) {
	tests := []struct {
		in      time.Duration
		min     int
		sec     int
		wantErr bool
	}{
		{25 * time.Minute, 25, 0, false},
		{90 * time.Second, 1, 30, false},
		{0, 0, 0, false},
		{2 * time.Hour, 120, 0, false},
		{-time.Second, 0, 0, true},
		{1500 * time.Millisecond, 0, 0, true},
	}
	for _, tt := range tests {
		min, sec, err := splitDuration(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("splitDuration(%s) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && (min != tt.min || sec != tt.sec) {
			t.Errorf("splitDuration(%s) = %d, %d, want %d, %d", tt.in, min, sec, tt.min, tt.sec)
		}
	}
}
