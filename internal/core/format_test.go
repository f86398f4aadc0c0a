package core

import (
	"testing"
	"time"
)

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{1500, "25:00"},
		{299, "04:59"},
		{0, "00:00"},
		{-3, "00:00"},
		{7200, "120:00"},
	}
	for _, tt := range tests {
		if got := FormatClock(tt.seconds); got != tt.want {
			t.Errorf("FormatClock(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatTotal(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{3661, "01:01:01"},
		{36000 * 10, "100:00:00"},
	}
	for _, tt := range tests {
		if got := FormatTotal(tt.seconds); got != tt.want {
			t.Errorf("FormatTotal(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatItemDuration(t *testing.T) {
	tests := []struct {
		minutes float64
		want    string
	}{
		{25, "25m"},
		{25.5, "25.5m"},
		{1, "1m"},
		{0.5, "30s"},
		{0.75, "45s"},
	}
	for _, tt := range tests {
		if got := FormatItemDuration(tt.minutes); got != tt.want {
			t.Errorf("FormatItemDuration(%v) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestFormatItemTime(t *testing.T) {
	ts := time.Date(2025, 3, 10, 15, 4, 0, 0, time.Local)
	if got := FormatItemTime(ts); got != "03:04 PM" {
		t.Errorf("FormatItemTime = %q, want 03:04 PM", got)
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		remaining, total int
		want             float64
	}{
		{1500, 1500, 0},
		{750, 1500, 0.5},
		{0, 1500, 1},
		{10, 0, 0},
		{2000, 1500, 0},
	}
	for _, tt := range tests {
		if got := Progress(tt.remaining, tt.total); got != tt.want {
			t.Errorf("Progress(%d, %d) = %v, want %v", tt.remaining, tt.total, got, tt.want)
		}
	}
}
