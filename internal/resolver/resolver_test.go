package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/proba/internal/driver/drivertest"
	"github.com/ternarybob/proba/internal/models"
)

func newTestResolver(fake *drivertest.Fake) *Resolver {
	return New(fake, DefaultOverrides(), Config{
		PatternWait: time.Millisecond,
		RetryDelay:  time.Millisecond,
	}, arbor.NewLogger())
}

func TestResolve_ManualOverrideBeatsDirect(t *testing.T) {
	fake := drivertest.New()
	// Both the override candidate and the step's own selector are present;
	// the override tier must win because it runs first
	fake.AddElement("button[type='submit']", true)
	fake.AddElement("#login-btn", true)

	res, err := newTestResolver(fake).Resolve(context.Background(), models.Step{
		Label:  "Click login button",
		Action: models.ActionClick,
		Target: "#login-btn",
	})
	require.NoError(t, err)

	assert.True(t, res.Found)
	assert.Equal(t, StrategyManualOverride, res.Strategy)
	assert.Equal(t, "button[type='submit']", res.Selector)
	assert.Equal(t, "#login-btn", res.OriginalSelector)
	assert.True(t, res.Improved())
}

func TestResolve_DirectWhenNoOverrideMatches(t *testing.T) {
	fake := drivertest.New()
	fake.AddElement("#widget-panel", false) // existence is enough for Tier 2

	res, err := newTestResolver(fake).Resolve(context.Background(), models.Step{
		Label:  "Open widget",
		Action: models.ActionClick,
		Target: "#widget-panel",
	})
	require.NoError(t, err)

	assert.True(t, res.Found)
	assert.Equal(t, StrategyDirect, res.Strategy)
	assert.Equal(t, "#widget-panel", res.Selector)
	assert.False(t, res.Improved())
	assert.Equal(t, 1.0, res.Confidence)
}

func TestResolve_PatternTierFindsRenamedField(t *testing.T) {
	fake := drivertest.New()
	// The original selector is gone, but the email input survives under a
	// generated attribute variant
	fake.AddElement("input[name='email']", true)

	res, err := newTestResolver(fake).Resolve(context.Background(), models.Step{
		Label:  "Fill email field",
		Action: models.ActionFill,
		Target: "#email-input-old",
		Value:  "user@example.com",
	})
	require.NoError(t, err)

	assert.True(t, res.Found)
	assert.Equal(t, "input[name='email']", res.Selector)
	assert.True(t, res.Improved())
	assert.Less(t, res.Confidence, 1.0)
}

func TestResolve_DelayedRetrySucceedsLast(t *testing.T) {
	// The element only appears after the first existence check, simulating
	// late dynamic rendering: Tier 2 misses, Tier 3 finds nothing, Tier 4's
	// delayed retry lands
	calls := 0
	driver := &delayedDriver{
		Fake:        drivertest.New(),
		selector:    "#late-widget",
		appearAfter: 1,
		calls:       &calls,
	}
	res := New(driver, DefaultOverrides(),
		Config{PatternWait: time.Millisecond, RetryDelay: time.Millisecond},
		arbor.NewLogger())

	resolution, err := res.Resolve(context.Background(), models.Step{
		Label:  "Open late widget",
		Action: models.ActionClick,
		Target: "#late-widget",
	})
	require.NoError(t, err)
	assert.True(t, resolution.Found)
	assert.Equal(t, StrategyDelayedRetry, resolution.Strategy)
	assert.False(t, resolution.Improved())
}

// delayedDriver makes a selector appear only after N existence checks,
// simulating late dynamic rendering
type delayedDriver struct {
	*drivertest.Fake
	selector    string
	appearAfter int
	calls       *int
}

func (d *delayedDriver) Exists(ctx context.Context, selector string) (int, error) {
	if selector == d.selector {
		*d.calls++
		if *d.calls > d.appearAfter {
			return 1, nil
		}
		return 0, nil
	}
	return d.Fake.Exists(ctx, selector)
}

func TestResolve_AllTiersExhausted(t *testing.T) {
	fake := drivertest.New()

	res, err := newTestResolver(fake).Resolve(context.Background(), models.Step{
		Label:  "Open vanished widget",
		Action: models.ActionClick,
		Target: "#gone-forever",
	})
	require.NoError(t, err)

	assert.False(t, res.Found)
	assert.Equal(t, "#gone-forever", res.OriginalSelector)
	assert.False(t, res.Improved())
}

func TestResolve_ContextCancelled(t *testing.T) {
	fake := drivertest.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestResolver(fake).Resolve(ctx, models.Step{
		Label:  "Open widget",
		Action: models.ActionClick,
		Target: "#widget-panel",
	})
	assert.Error(t, err)
}
