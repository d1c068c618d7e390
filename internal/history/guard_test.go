package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/proba/internal/models"
)

// memoryHistory is an in-memory HistoryStorage for guard tests
type memoryHistory struct {
	entries map[string][]models.RunHistoryEntry
}

func newMemoryHistory() *memoryHistory {
	return &memoryHistory{entries: map[string][]models.RunHistoryEntry{}}
}

func (m *memoryHistory) GetHistory(_ context.Context, routeFile string) ([]models.RunHistoryEntry, error) {
	return m.entries[routeFile], nil
}

func (m *memoryHistory) SaveHistory(_ context.Context, routeFile string, entries []models.RunHistoryEntry) error {
	m.entries[routeFile] = entries
	return nil
}

func TestCheckDuplicate_NoHistory(t *testing.T) {
	guard := NewGuard(newMemoryHistory(), DefaultDuplicateWindow, arbor.NewLogger())

	check, err := guard.CheckDuplicate(context.Background(), "routes/route_a.json")
	require.NoError(t, err)
	assert.False(t, check.IsDuplicate)
	assert.Nil(t, check.LastRun)
}

func TestCheckDuplicate_WithinWindow(t *testing.T) {
	storage := newMemoryHistory()
	storage.entries["routes/route_a.json"] = []models.RunHistoryEntry{{
		RouteFile:    "routes/route_a.json",
		Timestamp:    time.Now().Add(-5 * time.Minute),
		SuccessCount: 3,
		FailedCount:  2,
		FailedSteps: []models.FailedStepFingerprint{
			{Label: "click login", Error: "element not found: #login"},
		},
	}}
	guard := NewGuard(storage, 30*time.Minute, arbor.NewLogger())

	check, err := guard.CheckDuplicate(context.Background(), "routes/route_a.json")
	require.NoError(t, err)
	assert.True(t, check.IsDuplicate)
	require.NotNil(t, check.LastRun)
	assert.Equal(t, 2, check.LastRun.FailedCount)
	require.Len(t, check.LastFailedSteps, 1)
	assert.Equal(t, "click login", check.LastFailedSteps[0].Label)
}

func TestCheckDuplicate_OutsideWindow(t *testing.T) {
	storage := newMemoryHistory()
	storage.entries["routes/route_a.json"] = []models.RunHistoryEntry{{
		RouteFile: "routes/route_a.json",
		Timestamp: time.Now().Add(-45 * time.Minute),
	}}
	guard := NewGuard(storage, 30*time.Minute, arbor.NewLogger())

	check, err := guard.CheckDuplicate(context.Background(), "routes/route_a.json")
	require.NoError(t, err)
	assert.False(t, check.IsDuplicate)
	assert.NotNil(t, check.LastRun, "prior run is still surfaced for context")
}

func TestRecord_CapturesFailedSteps(t *testing.T) {
	storage := newMemoryHistory()
	guard := NewGuard(storage, DefaultDuplicateWindow, arbor.NewLogger())

	result := &models.ExecutionResult{
		RouteID:      "route-1",
		TotalSteps:   3,
		SuccessCount: 2,
		FailedCount:  1,
		Steps: []models.StepResult{
			{Label: "open page", Status: models.StepStatusSuccess},
			{Label: "click login", Status: models.StepStatusFailed, Error: "element not found: #login"},
			{Label: "check banner", Status: models.StepStatusSuccess},
		},
	}
	require.NoError(t, guard.Record(context.Background(), "routes/route_a.json", result))

	entries := storage.entries["routes/route_a.json"]
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].FailedCount)
	require.Len(t, entries[0].FailedSteps, 1)
	assert.Equal(t, "click login", entries[0].FailedSteps[0].Label)
	assert.Equal(t, "element not found: #login", entries[0].FailedSteps[0].Error)
}

func TestRecord_RingEvictsOldest(t *testing.T) {
	storage := newMemoryHistory()
	guard := NewGuard(storage, DefaultDuplicateWindow, arbor.NewLogger())

	for i := 0; i < models.MaxRunHistoryEntries+3; i++ {
		result := &models.ExecutionResult{
			RouteID:      "route-1",
			TotalSteps:   1,
			SuccessCount: i, // marker to identify the entry
		}
		require.NoError(t, guard.Record(context.Background(), "routes/route_a.json", result))
	}

	entries := storage.entries["routes/route_a.json"]
	require.Len(t, entries, models.MaxRunHistoryEntries)
	// The three oldest entries were evicted
	assert.Equal(t, 3, entries[0].SuccessCount)
	assert.Equal(t, models.MaxRunHistoryEntries+2, entries[len(entries)-1].SuccessCount)
}

func TestGuard_IsAdvisoryOnly(t *testing.T) {
	storage := newMemoryHistory()
	storage.entries["routes/route_a.json"] = []models.RunHistoryEntry{{
		RouteFile: "routes/route_a.json",
		Timestamp: time.Now(),
	}}
	guard := NewGuard(storage, 30*time.Minute, arbor.NewLogger())

	// A duplicate verdict never blocks recording further runs
	check, err := guard.CheckDuplicate(context.Background(), "routes/route_a.json")
	require.NoError(t, err)
	require.True(t, check.IsDuplicate)

	require.NoError(t, guard.Record(context.Background(), "routes/route_a.json",
		&models.ExecutionResult{RouteID: "route-1", TotalSteps: 1, SuccessCount: 1}))
	assert.Len(t, storage.entries["routes/route_a.json"], 2)
}

// Sanity check that the fingerprint text produced by Record matches what the
// executor writes on a missing target
func TestRecord_FingerprintRoundTrip(t *testing.T) {
	storage := newMemoryHistory()
	guard := NewGuard(storage, DefaultDuplicateWindow, arbor.NewLogger())

	errText := fmt.Sprintf("target not found: %s", "#login-btn")
	result := &models.ExecutionResult{
		RouteID:     "route-1",
		TotalSteps:  1,
		FailedCount: 1,
		Steps: []models.StepResult{
			{Label: "click login", Status: models.StepStatusFailed, Error: errText},
		},
	}
	require.NoError(t, guard.Record(context.Background(), "routes/route_a.json", result))

	check, err := guard.CheckDuplicate(context.Background(), "routes/route_a.json")
	require.NoError(t, err)
	require.True(t, check.IsDuplicate)
	assert.Equal(t, errText, check.LastFailedSteps[0].Error)
}
