package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/proba/internal/models"
)

func failureAt(label, errText, routeID string, offset time.Duration) models.FailureRecord {
	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	return models.FailureRecord{
		Label:     label,
		Error:     errText,
		Category:  Classify(errText),
		RouteID:   routeID,
		Timestamp: base.Add(offset),
	}
}

func TestAnalyzeChains_RootAbsorbsLaterFailures(t *testing.T) {
	failures := []models.FailureRecord{
		failureAt("click login", "Element not found: #login-btn", "route-1", 0),
		failureAt("fill email", "Cannot click - previous step failed", "route-1", time.Second),
		failureAt("check dashboard", "URL not reached: expected /dashboard", "route-1", 2*time.Second),
	}

	chains := AnalyzeChains(failures)
	require.Len(t, chains, 1)

	chain := chains[0]
	assert.Equal(t, "click login", chain.Root.Label)
	assert.Equal(t, models.CategoryElementIssue, chain.Root.Category)
	require.Len(t, chain.Cascaded, 2)
	assert.Equal(t, "fill email", chain.Cascaded[0].Label)
	assert.Equal(t, "check dashboard", chain.Cascaded[1].Label)
	assert.Equal(t, models.ImpactCascading, chain.Impact)
	assert.Equal(t, 3, chain.Size())
}

func TestAnalyzeChains_SingleFailureIsDirect(t *testing.T) {
	failures := []models.FailureRecord{
		failureAt("assert banner", "expected text \"Welcome\"", "route-1", 0),
	}

	chains := AnalyzeChains(failures)
	require.Len(t, chains, 1)
	assert.Equal(t, models.ImpactDirect, chains[0].Impact)
	assert.Empty(t, chains[0].Cascaded)
}

func TestAnalyzeChains_DifferentRoutesStaySeparate(t *testing.T) {
	failures := []models.FailureRecord{
		failureAt("step a", "something odd", "route-1", 0),
		failureAt("step b", "something else odd", "route-2", time.Second),
	}

	chains := AnalyzeChains(failures)
	require.Len(t, chains, 2)
	assert.Equal(t, models.ImpactDirect, chains[0].Impact)
	assert.Equal(t, models.ImpactDirect, chains[1].Impact)
}

// Category rules fold assertion failures under a navigation or element root
// even across routes
func TestAnalyzeChains_CategoryRulesCrossRoutes(t *testing.T) {
	failures := []models.FailureRecord{
		failureAt("open page", "timeout during navigation", "route-1", 0),
		failureAt("assert title", "expected text \"Home\"", "route-2", time.Second),
	}

	chains := AnalyzeChains(failures)
	require.Len(t, chains, 1)
	assert.Equal(t, "open page", chains[0].Root.Label)
	assert.Equal(t, models.ImpactCascading, chains[0].Impact)
}

// Every failure lands in exactly one chain, as root or cascaded
func TestAnalyzeChains_TotalPartition(t *testing.T) {
	failures := []models.FailureRecord{
		failureAt("a", "element not found: #a", "r1", 0),
		failureAt("b", "weird failure", "r2", time.Second),
		failureAt("c", "expected something", "r1", 2*time.Second),
		failureAt("d", "another weird failure", "r2", 3*time.Second),
	}

	chains := AnalyzeChains(failures)
	total := 0
	seen := map[string]int{}
	for _, chain := range chains {
		total += chain.Size()
		seen[chain.Root.Label]++
		for _, cascaded := range chain.Cascaded {
			seen[cascaded.Label]++
		}
	}
	assert.Equal(t, len(failures), total)
	for label, count := range seen {
		assert.Equal(t, 1, count, "failure %s appears %d times", label, count)
	}
}

func TestAnalyzeChains_Empty(t *testing.T) {
	assert.Empty(t, AnalyzeChains(nil))
	assert.Empty(t, AnalyzeChains([]models.FailureRecord{}))
}
