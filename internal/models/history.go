package models

import "time"

// FailedStepFingerprint identifies a previously failed step so a re-run can
// surface suggested repairs without loading the full prior result.
type FailedStepFingerprint struct {
	Label string `json:"label"`
	Error string `json:"error"`
}

// RunHistoryEntry is one entry of the bounded per-route-file run history.
// The guard keeps at most MaxRunHistoryEntries per file, oldest evicted first.
type RunHistoryEntry struct {
	RouteFile    string                  `json:"route_file"`
	Timestamp    time.Time               `json:"timestamp"`
	SuccessCount int                     `json:"success_count"`
	FailedCount  int                     `json:"failed_count"`
	FailedSteps  []FailedStepFingerprint `json:"failed_steps,omitempty"`
}

// MaxRunHistoryEntries bounds the per-file run history ring
const MaxRunHistoryEntries = 10
