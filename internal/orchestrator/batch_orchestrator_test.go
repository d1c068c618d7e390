package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/proba/internal/driver/drivertest"
	"github.com/ternarybob/proba/internal/executor"
	"github.com/ternarybob/proba/internal/models"
	"github.com/ternarybob/proba/internal/report"
	"github.com/ternarybob/proba/internal/resolver"
	"github.com/ternarybob/proba/internal/storage/files"
)

type batchFixture struct {
	fake  *drivertest.Fake
	fs    afero.Fs
	batch *BatchOrchestrator
}

func newBatchFixture(t *testing.T) *batchFixture {
	t.Helper()
	fake := drivertest.New()
	fs := afero.NewMemMapFs()
	artifacts, err := files.NewStore(fs, files.Config{}, arbor.NewLogger())
	require.NoError(t, err)

	routes := NewRouteOrchestrator(
		&drivertest.Factory{Driver: fake},
		nil, artifacts, nil,
		resolver.DefaultOverrides(),
		resolver.Config{PatternWait: time.Millisecond, RetryDelay: time.Millisecond},
		executor.Config{WaitTimeout: 10 * time.Millisecond},
		arbor.NewLogger(),
	)
	reports := report.NewService(fs, "reports", false, arbor.NewLogger())
	batch := NewBatchOrchestrator(routes, artifacts, nil, reports, time.Millisecond, arbor.NewLogger())
	return &batchFixture{fake: fake, fs: fs, batch: batch}
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
}

const passingRoute = `{
  "route_id": "route-a",
  "category": "auth",
  "steps": [
    {"label": "Open home", "action": "navigate", "target": "https://example.com"}
  ]
}`

const failingRoute = `{
  "route_id": "route-b",
  "category": "checkout",
  "steps": [
    {"label": "Open widget", "action": "click", "target": "#missing"}
  ]
}`

func TestExecuteBatch_SkippedAndSuccessfulCategories(t *testing.T) {
	fx := newBatchFixture(t)
	writeFile(t, fx.fs, "routes/route_a.json", passingRoute)
	writeFile(t, fx.fs, "batch_metadata_b1.json", `{
		"batch_id": "b1",
		"execution_order": ["auth"],
		"categories": {"auth": ["routes/route_a.json"], "empty": []}
	}`)

	result, err := fx.batch.ExecuteBatch(context.Background(), "batch_metadata_b1.json")
	require.NoError(t, err)

	assert.Equal(t, "b1", result.BatchID)
	assert.Equal(t, 1, result.TotalRoutes)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 100.0, result.AverageSuccessRate)
	assert.True(t, result.Passed())

	require.Len(t, result.Categories, 2)
	assert.Equal(t, models.CategoryStatusSuccessful, result.Categories[0].Status)
	assert.Equal(t, "empty", result.Categories[1].Category)
	assert.Equal(t, models.CategoryStatusSkipped, result.Categories[1].Status)
}

func TestExecuteBatch_ExecutionOrderThenLexical(t *testing.T) {
	metadata := &models.BatchMetadata{
		BatchID:        "b2",
		ExecutionOrder: []string{"zeta", "missing-category"},
		Categories: map[string][]string{
			"alpha": {},
			"beta":  {},
			"zeta":  {},
		},
	}

	order := categoryOrder(metadata)
	assert.Equal(t, []string{"zeta", "alpha", "beta"}, order)
}

func TestExecuteBatch_BestEffortAcrossFailures(t *testing.T) {
	fx := newBatchFixture(t)
	writeFile(t, fx.fs, "routes/route_a.json", passingRoute)
	writeFile(t, fx.fs, "routes/route_b.json", failingRoute)
	writeFile(t, fx.fs, "routes/broken.json", `{not json`)
	writeFile(t, fx.fs, "batch_metadata_b3.json", `{
		"batch_id": "b3",
		"execution_order": ["auth", "checkout", "broken"],
		"categories": {
			"auth": ["routes/route_a.json"],
			"checkout": ["routes/route_b.json"],
			"broken": ["routes/broken.json"]
		}
	}`)

	result, err := fx.batch.ExecuteBatch(context.Background(), "batch_metadata_b3.json")
	require.NoError(t, err, "route-level failures never abort the batch")

	assert.Equal(t, 3, result.TotalRoutes)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 2, result.Failed)
	assert.False(t, result.Passed())

	byCategory := map[string]models.CategoryResult{}
	for _, cat := range result.Categories {
		byCategory[cat.Category] = cat
	}
	assert.Equal(t, models.CategoryStatusSuccessful, byCategory["auth"].Status)
	assert.Equal(t, models.CategoryStatusFailed, byCategory["checkout"].Status)
	assert.Equal(t, models.CategoryStatusFailed, byCategory["broken"].Status)
}

func TestExecuteBatch_WritesResultAndReport(t *testing.T) {
	fx := newBatchFixture(t)
	writeFile(t, fx.fs, "routes/route_a.json", passingRoute)
	writeFile(t, fx.fs, "batch_metadata_b4.json", `{
		"batch_id": "b4",
		"categories": {"auth": ["routes/route_a.json"]}
	}`)

	_, err := fx.batch.ExecuteBatch(context.Background(), "batch_metadata_b4.json")
	require.NoError(t, err)

	exists, err := afero.Exists(fx.fs, "results/batch_result_b4.json")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = afero.Exists(fx.fs, "reports/batch_report_b4.md")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestExecuteBatch_MissingMetadataIsFatal(t *testing.T) {
	fx := newBatchFixture(t)
	_, err := fx.batch.ExecuteBatch(context.Background(), "nope.json")
	require.Error(t, err)
}
