package models

import "time"

// SelectorImprovement records a selector the resolver substituted for a
// step's original target during a run. Improvements accumulate per run and
// feed repaired-route generation; they are never written back into the
// original route.
type SelectorImprovement struct {
	StepLabel        string    `json:"step_label"`
	OriginalSelector string    `json:"original_selector"`
	ImprovedSelector string    `json:"improved_selector"`
	Strategy         string    `json:"strategy"`
	Confidence       float64   `json:"confidence"`
	Timestamp        time.Time `json:"timestamp"`
}
