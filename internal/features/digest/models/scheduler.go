package models

import (
	"time"
)

// SchedulerConfig holds configuration for the in-process pipeline scheduler
type SchedulerConfig struct {
	Interval   time.Duration `json:"interval"`
	RunOnStart bool          `json:"run_on_start"`
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		Interval:   24 * time.Hour,
		RunOnStart: true,
	}
}
