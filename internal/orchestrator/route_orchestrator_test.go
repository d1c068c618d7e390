package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/proba/internal/driver/drivertest"
	"github.com/ternarybob/proba/internal/executor"
	"github.com/ternarybob/proba/internal/history"
	"github.com/ternarybob/proba/internal/interfaces"
	"github.com/ternarybob/proba/internal/models"
	"github.com/ternarybob/proba/internal/resolver"
	"github.com/ternarybob/proba/internal/storage/files"
)

// memoryHistory is an in-memory HistoryStorage for orchestrator tests
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

type routeFixture struct {
	fake      *drivertest.Fake
	fs        afero.Fs
	artifacts interfaces.ArtifactStore
	history   *memoryHistory
	orch      *RouteOrchestrator
}

func newRouteFixture(t *testing.T) *routeFixture {
	t.Helper()
	fake := drivertest.New()
	fs := afero.NewMemMapFs()
	artifacts, err := files.NewStore(fs, files.Config{}, arbor.NewLogger())
	require.NoError(t, err)

	hist := newMemoryHistory()
	guard := history.NewGuard(hist, 30*time.Minute, arbor.NewLogger())

	orch := NewRouteOrchestrator(
		&drivertest.Factory{Driver: fake},
		nil,
		artifacts,
		guard,
		resolver.DefaultOverrides(),
		resolver.Config{PatternWait: time.Millisecond, RetryDelay: time.Millisecond},
		executor.Config{WaitTimeout: 10 * time.Millisecond},
		arbor.NewLogger(),
	)
	return &routeFixture{fake: fake, fs: fs, artifacts: artifacts, history: hist, orch: orch}
}

func TestExecuteRoute_NeverAbortsOnStepFailure(t *testing.T) {
	fx := newRouteFixture(t)
	fx.fake.AddElement("#banner", true)
	fx.fake.Page.Texts["#banner"] = "Error occurred"

	route := &models.Route{
		RouteID: "route-1",
		Steps: []models.Step{
			{Label: "Open home", Action: models.ActionNavigate, Target: "https://example.com"},
			{Label: "Open widget", Action: models.ActionClick, Target: "#missing"},
			{Label: "Check banner", Action: models.ActionAssertText, Target: "#banner", Value: "Welcome"},
			{Label: "Poke banner", Action: models.ActionClick, Target: "#banner"},
		},
	}

	report, err := fx.orch.ExecuteRoute(context.Background(), route, "routes/route_20260801_101500.json")
	require.NoError(t, err)

	result := report.Result
	require.Len(t, result.Steps, 4, "every step runs even after failures")
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 2, result.FailedCount)
	assert.Equal(t, models.StepStatusSuccess, result.Steps[3].Status)
	assert.False(t, result.Passed())
}

func TestExecuteRoute_ResultAlwaysPersisted(t *testing.T) {
	fx := newRouteFixture(t)

	route := &models.Route{
		RouteID: "route-1",
		Steps: []models.Step{
			{Label: "Open widget", Action: models.ActionClick, Target: "#missing"},
		},
	}

	report, err := fx.orch.ExecuteRoute(context.Background(), route, "routes/route_20260801_101500.json")
	require.NoError(t, err)

	// The result file reuses the route file's timestamp suffix
	assert.Equal(t, "results/result_20260801_101500.json", report.ResultPath)
	exists, err := afero.Exists(fx.fs, report.ResultPath)
	require.NoError(t, err)
	assert.True(t, exists)

	// The run is also recorded in history
	assert.Len(t, fx.history.entries["routes/route_20260801_101500.json"], 1)
}

func TestExecuteRoute_FailureChains(t *testing.T) {
	fx := newRouteFixture(t)
	fx.fake.AddElement("#banner", true)
	fx.fake.Page.Texts["#banner"] = "Error occurred"

	route := &models.Route{
		RouteID: "route-1",
		Steps: []models.Step{
			{Label: "Open widget", Action: models.ActionClick, Target: "#missing"},
			{Label: "Check banner", Action: models.ActionAssertText, Target: "#banner", Value: "Welcome"},
		},
	}

	report, err := fx.orch.ExecuteRoute(context.Background(), route, "")
	require.NoError(t, err)

	require.Len(t, report.Chains, 1)
	chain := report.Chains[0]
	assert.Equal(t, "Open widget", chain.Root.Label)
	assert.Equal(t, models.CategoryElementIssue, chain.Root.Category)
	require.Len(t, chain.Cascaded, 1)
	assert.Equal(t, "Check banner", chain.Cascaded[0].Label)
	assert.Equal(t, models.ImpactCascading, chain.Impact)
}

func TestExecuteRoute_DuplicateRunIsAdvisory(t *testing.T) {
	fx := newRouteFixture(t)
	fx.fake.AddElement("#banner", true)
	fx.fake.Page.Texts["#banner"] = "Welcome"

	route := &models.Route{
		RouteID: "route-1",
		Steps: []models.Step{
			{Label: "Check banner", Action: models.ActionAssertText, Target: "#banner", Value: "Welcome"},
		},
	}

	first, err := fx.orch.ExecuteRoute(context.Background(), route, "routes/route_a.json")
	require.NoError(t, err)
	require.NotNil(t, first.Duplicate)
	assert.False(t, first.Duplicate.IsDuplicate)

	// Immediate re-run is flagged but still executes fully
	second, err := fx.orch.ExecuteRoute(context.Background(), route, "routes/route_a.json")
	require.NoError(t, err)
	require.NotNil(t, second.Duplicate)
	assert.True(t, second.Duplicate.IsDuplicate)
	assert.Len(t, second.Result.Steps, 1)
}

func TestExecuteRoute_SessionFailureIsFatal(t *testing.T) {
	fx := newRouteFixture(t)
	orch := NewRouteOrchestrator(
		&drivertest.Factory{Err: errors.New("chrome unavailable")},
		nil, fx.artifacts, nil,
		resolver.DefaultOverrides(),
		resolver.Config{PatternWait: time.Millisecond, RetryDelay: time.Millisecond},
		executor.Config{},
		arbor.NewLogger(),
	)

	_, err := orch.ExecuteRoute(context.Background(), &models.Route{
		RouteID: "route-1",
		Steps:   []models.Step{{Label: "Open home", Action: models.ActionNavigate, Target: "https://example.com"}},
	}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chrome unavailable")
}

func TestExecuteRoute_GeneratesRepairedRoute(t *testing.T) {
	fx := newRouteFixture(t)
	// Only the override candidate exists, so resolution improves the selector
	fx.fake.AddElement("button[type='submit']", true)

	route := &models.Route{
		RouteID: "route-1",
		Steps: []models.Step{
			{Label: "Click login button", Action: models.ActionClick, Target: "#old-login"},
		},
	}

	report, err := fx.orch.ExecuteRoute(context.Background(), route, "")
	require.NoError(t, err)

	fixed := report.FixedRoute
	require.NotNil(t, fixed)
	assert.Contains(t, fixed.RouteID, "route-1_fixed_")
	assert.Equal(t, "route-1", fixed.OriginalRouteID)
	assert.True(t, fixed.IsRepaired())
	assert.Equal(t, "button[type='submit']", fixed.Steps[0].Target)
	assert.True(t, fixed.Steps[0].IsImproved)
	assert.NotEmpty(t, fixed.Steps[0].FixReason)

	// The original route value is untouched
	assert.Equal(t, "#old-login", route.Steps[0].Target)
	assert.False(t, route.Steps[0].IsImproved)

	// The repaired route is written as a new artifact
	require.NotEmpty(t, report.FixedRoutePath)
	exists, err := afero.Exists(fx.fs, report.FixedRoutePath)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGenerateImprovedRoute_DistinctIDsPerCall(t *testing.T) {
	route := &models.Route{
		RouteID: "route-1",
		Steps:   []models.Step{{Label: "Click login", Action: models.ActionClick, Target: "#old"}},
	}
	improvements := []models.SelectorImprovement{{
		StepLabel:        "Click login",
		OriginalSelector: "#old",
		ImprovedSelector: "#new",
		Strategy:         resolver.StrategyManualOverride,
		Confidence:       0.9,
	}}

	first := GenerateImprovedRoute(route, improvements)
	time.Sleep(2 * time.Millisecond)
	second := GenerateImprovedRoute(route, improvements)

	assert.NotEqual(t, first.RouteID, second.RouteID)
	assert.Equal(t, "route-1", route.RouteID, "original ID never changes")
}

func TestGenerateImprovedRoute_OnlyMatchingStepsChange(t *testing.T) {
	route := &models.Route{
		RouteID: "route-1",
		Steps: []models.Step{
			{Label: "Click login", Action: models.ActionClick, Target: "#old"},
			{Label: "Click login", Action: models.ActionClick, Target: "#different"},
			{Label: "Other step", Action: models.ActionClick, Target: "#other"},
		},
	}
	improvements := []models.SelectorImprovement{{
		StepLabel:        "Click login",
		OriginalSelector: "#old",
		ImprovedSelector: "#new",
		Strategy:         resolver.StrategyManualOverride,
		Confidence:       0.9,
	}}

	fixed := GenerateImprovedRoute(route, improvements)
	assert.Equal(t, "#new", fixed.Steps[0].Target)
	// Same label but different selector stays untouched
	assert.Equal(t, "#different", fixed.Steps[1].Target)
	assert.False(t, fixed.Steps[1].IsImproved)
	assert.Equal(t, "#other", fixed.Steps[2].Target)
}
