// -----------------------------------------------------------------------
// Run History Guard - Advisory duplicate-run detection with bounded history
// -----------------------------------------------------------------------

package history

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/proba/internal/interfaces"
	"github.com/ternarybob/proba/internal/models"
)

// DefaultDuplicateWindow is the cool-down within which a re-run of the same
// route file is flagged as a duplicate
const DefaultDuplicateWindow = 30 * time.Minute

// DuplicateCheck is the guard's advisory verdict. It never blocks execution;
// callers log it and surface the prior failed steps for suggested repair.
type DuplicateCheck struct {
	IsDuplicate     bool
	LastRun         *models.RunHistoryEntry
	LastFailedSteps []models.FailedStepFingerprint
}

// Guard tracks per-route-file run history in a bounded ring and flags
// re-runs inside the cool-down window. Advisory only: no mutual exclusion
// is implied, two processes may still run the same route concurrently.
type Guard struct {
	storage    interfaces.HistoryStorage
	window     time.Duration
	maxEntries int
	logger     arbor.ILogger
}

// NewGuard creates a run history guard
func NewGuard(storage interfaces.HistoryStorage, window time.Duration, logger arbor.ILogger) *Guard {
	if window <= 0 {
		window = DefaultDuplicateWindow
	}
	return &Guard{
		storage:    storage,
		window:     window,
		maxEntries: models.MaxRunHistoryEntries,
		logger:     logger,
	}
}

// CheckDuplicate reports whether the route file was run within the
// cool-down window. A route file with no history is never a duplicate.
func (g *Guard) CheckDuplicate(ctx context.Context, routeFile string) (*DuplicateCheck, error) {
	entries, err := g.storage.GetHistory(ctx, routeFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load run history for %s: %w", routeFile, err)
	}
	if len(entries) == 0 {
		return &DuplicateCheck{IsDuplicate: false}, nil
	}

	last := entries[len(entries)-1]
	if time.Since(last.Timestamp) >= g.window {
		return &DuplicateCheck{IsDuplicate: false, LastRun: &last}, nil
	}

	g.logger.Warn().
		Str("route_file", routeFile).
		Str("last_run", last.Timestamp.Format(time.RFC3339)).
		Int("last_failed", last.FailedCount).
		Msg("Route was already run inside the cool-down window")

	return &DuplicateCheck{
		IsDuplicate:     true,
		LastRun:         &last,
		LastFailedSteps: last.FailedSteps,
	}, nil
}

// Record appends the run outcome to the route file's history, evicting the
// oldest entry once the ring is full
func (g *Guard) Record(ctx context.Context, routeFile string, result *models.ExecutionResult) error {
	entries, err := g.storage.GetHistory(ctx, routeFile)
	if err != nil {
		return fmt.Errorf("failed to load run history for %s: %w", routeFile, err)
	}

	entry := models.RunHistoryEntry{
		RouteFile:    routeFile,
		Timestamp:    time.Now(),
		SuccessCount: result.SuccessCount,
		FailedCount:  result.FailedCount,
	}
	for _, step := range result.FailedSteps() {
		entry.FailedSteps = append(entry.FailedSteps, models.FailedStepFingerprint{
			Label: step.Label,
			Error: step.Error,
		})
	}

	entries = append(entries, entry)
	if len(entries) > g.maxEntries {
		entries = entries[len(entries)-g.maxEntries:]
	}

	if err := g.storage.SaveHistory(ctx, routeFile, entries); err != nil {
		return fmt.Errorf("failed to persist run history for %s: %w", routeFile, err)
	}
	return nil
}
