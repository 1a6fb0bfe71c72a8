package models

import (
	"time"
)

// RunReport summarises one pipeline run
type RunReport struct {
	RunID      string    `json:"run_id"`
	Date       string    `json:"date"`
	NewItems   int       `json:"new_items"`
	Extracted  int       `json:"extracted"`
	Deduped    int       `json:"deduped"`
	Picks      int       `json:"picks"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
