// -----------------------------------------------------------------------
// Batch - Category-grouped route execution metadata and aggregates
// -----------------------------------------------------------------------

package models

import "time"

// CategoryStatus summarizes how a batch category fared
type CategoryStatus string

const (
	CategoryStatusSuccessful CategoryStatus = "successful"
	CategoryStatusPartial    CategoryStatus = "partial"
	CategoryStatusFailed     CategoryStatus = "failed"
	CategoryStatusSkipped    CategoryStatus = "skipped"
)

// BatchMetadata groups route files by category with a recommended execution
// order. Categories listed in ExecutionOrder run first, in that order; any
// remaining categories run afterwards in lexical order.
type BatchMetadata struct {
	BatchID        string              `json:"batch_id"`
	ExecutionOrder []string            `json:"execution_order,omitempty"`
	Categories     map[string][]string `json:"categories"`
}

// CategoryResult aggregates the route outcomes of one batch category
type CategoryResult struct {
	Category           string         `json:"category"`
	Status             CategoryStatus `json:"status"`
	TotalRoutes        int            `json:"total_routes"`
	Successful         int            `json:"successful"`
	Partial            int            `json:"partial"`
	Failed             int            `json:"failed"`
	AverageSuccessRate float64        `json:"average_success_rate"`
}

// BatchResult aggregates a whole batch run. It holds every route's
// ExecutionResult plus per-category and global rollups.
type BatchResult struct {
	BatchID            string             `json:"batch_id"`
	StartedAt          time.Time          `json:"started_at"`
	ExecutionTimeMS    int64              `json:"execution_time_ms"`
	Categories         []CategoryResult   `json:"categories"`
	Results            []*ExecutionResult `json:"results"`
	TotalRoutes        int                `json:"total_routes"`
	Successful         int                `json:"successful"`
	Partial            int                `json:"partial"`
	Failed             int                `json:"failed"`
	AverageSuccessRate float64            `json:"average_success_rate"`
}

// Passed reports whether every route in the batch fully succeeded
func (b *BatchResult) Passed() bool {
	return b.TotalRoutes > 0 && b.Successful == b.TotalRoutes
}
