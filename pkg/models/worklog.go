package models

import "time"

// ItemType classifies a work log entry. Only work items are ever stored;
// the field is kept so persisted logs stay self-describing.
type ItemType string

const (
	ItemTypeWork  ItemType = "work"
	ItemTypeBreak ItemType = "break"
)

// WorkLogItem records one completed work phase.
type WorkLogItem struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
	// Duration is the configured work length in minutes when the phase
	// completed, not the measured elapsed time.
	Duration float64  `json:"duration"`
	Type     ItemType `json:"type"`
}
