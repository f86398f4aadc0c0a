package core

import (
	"fmt"
	"strconv"
	"time"
)

// FormatClock renders a countdown as MM:SS. Minutes are not capped, so a
// 120 minute phase shows 120:00.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// FormatTotal renders accumulated work time as HH:MM:SS.
func FormatTotal(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// FormatItemDuration renders a logged phase length: whole seconds under a
// minute, otherwise the decimal minutes as configured.
func FormatItemDuration(minutes float64) string {
	if minutes < 1 {
		return fmt.Sprintf("%ds", SecondsFor(minutes))
	}
	return strconv.FormatFloat(minutes, 'f', -1, 64) + "m"
}

// FormatItemTime renders an item's completion time in 12-hour local time.
func FormatItemTime(t time.Time) string {
	return t.Local().Format("03:04 PM")
}

// Progress returns how much of the active phase has elapsed, from 0 to 1.
func Progress(remaining, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(total-remaining) / float64(total)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
