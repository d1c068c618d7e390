package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/proba/internal/driver/drivertest"
	"github.com/ternarybob/proba/internal/interfaces"
	"github.com/ternarybob/proba/internal/models"
	"github.com/ternarybob/proba/internal/resolver"
)

func newTestExecutor(fake *drivertest.Fake) *StepExecutor {
	res := resolver.New(fake, resolver.DefaultOverrides(), resolver.Config{
		PatternWait: time.Millisecond,
		RetryDelay:  time.Millisecond,
	}, arbor.NewLogger())
	return New(fake, res, nil, Config{WaitTimeout: 10 * time.Millisecond}, arbor.NewLogger())
}

func testRunContext() *RunContext {
	return NewRunContext(&models.Route{RouteID: "route-1", Steps: []models.Step{{}}})
}

func TestExecuteStep_NavigateBypassesResolver(t *testing.T) {
	fake := drivertest.New()
	exec := newTestExecutor(fake)

	result := exec.ExecuteStep(context.Background(), testRunContext(), models.Step{
		Label:  "Open home page",
		Action: models.ActionNavigate,
		Target: "https://example.com",
	})

	assert.Equal(t, models.StepStatusSuccess, result.Status)
	assert.Equal(t, 0, fake.CallCount("exists"), "navigation must not consult the resolver")
	assert.Equal(t, "https://example.com", fake.Page.URL)
}

func TestExecuteStep_TargetNotFound(t *testing.T) {
	fake := drivertest.New()
	exec := newTestExecutor(fake)

	result := exec.ExecuteStep(context.Background(), testRunContext(), models.Step{
		Label:  "Open widget",
		Action: models.ActionClick,
		Target: "#gone",
	})

	assert.Equal(t, models.StepStatusFailed, result.Status)
	assert.Equal(t, "target not found: #gone", result.Error)
}

func TestExecuteStep_ErrorKeepsFirstLineOnly(t *testing.T) {
	fake := drivertest.New()
	fake.AddElement("#widget", true)
	fake.Fail["click #widget"] = errors.New("element not interactable\nprotocol dump line 1\nprotocol dump line 2")
	exec := newTestExecutor(fake)

	result := exec.ExecuteStep(context.Background(), testRunContext(), models.Step{
		Label:  "Open widget",
		Action: models.ActionClick,
		Target: "#widget",
	})

	assert.Equal(t, models.StepStatusFailed, result.Status)
	assert.Equal(t, "element not interactable", result.Error)
}

func TestExecuteStep_UnsupportedAction(t *testing.T) {
	fake := drivertest.New()
	exec := newTestExecutor(fake)

	result := exec.ExecuteStep(context.Background(), testRunContext(), models.Step{
		Label:  "Do the impossible",
		Action: models.ActionType("hover"),
	})

	assert.Equal(t, models.StepStatusFailed, result.Status)
	assert.Contains(t, result.Error, "unsupported action")
	assert.Empty(t, fake.Calls, "unknown verbs never reach the driver")
}

func TestExecuteStep_AssertTextFailureMessage(t *testing.T) {
	fake := drivertest.New()
	fake.AddElement("#banner", true)
	fake.Page.Texts["#banner"] = "Error occurred"
	exec := newTestExecutor(fake)

	result := exec.ExecuteStep(context.Background(), testRunContext(), models.Step{
		Label:  "Check welcome banner",
		Action: models.ActionAssertText,
		Target: "#banner",
		Value:  "Welcome",
	})

	assert.Equal(t, models.StepStatusFailed, result.Status)
	assert.Contains(t, result.Error, `expected text "Welcome"`)
	assert.Contains(t, result.Error, "Error occurred")
}

func TestExecuteStep_AssertURL(t *testing.T) {
	fake := drivertest.New()
	fake.Page.URL = "https://example.com/login"
	exec := newTestExecutor(fake)

	result := exec.ExecuteStep(context.Background(), testRunContext(), models.Step{
		Label:  "Verify dashboard reached",
		Action: models.ActionAssertURL,
		Value:  "/dashboard",
	})

	assert.Equal(t, models.StepStatusFailed, result.Status)
	assert.Contains(t, result.Error, "URL not reached")
	assert.Contains(t, result.Error, "/dashboard")
}

func TestExecuteStep_SelectReconcilesValue(t *testing.T) {
	fake := drivertest.New()
	fake.AddElement("#state", true)
	fake.Page.Options["#state"] = []interfaces.SelectOption{
		{Value: "NSW", Text: "New South Wales"},
		{Value: "VIC", Text: "Victoria"},
	}
	exec := newTestExecutor(fake)

	result := exec.ExecuteStep(context.Background(), testRunContext(), models.Step{
		Label:  "Choose state",
		Action: models.ActionSelect,
		Target: "#state",
		Value:  "New South Wales",
	})

	assert.Equal(t, models.StepStatusSuccess, result.Status)
	assert.Equal(t, "NSW", fake.Selected["#state"])
}

func TestExecuteStep_RecordsImprovement(t *testing.T) {
	fake := drivertest.New()
	// Only the override candidate exists; resolution improves the selector
	fake.AddElement("button[type='submit']", true)
	exec := newTestExecutor(fake)
	runCtx := testRunContext()

	result := exec.ExecuteStep(context.Background(), runCtx, models.Step{
		Label:  "Click login button",
		Action: models.ActionClick,
		Target: "#old-login-btn",
	})

	assert.Equal(t, models.StepStatusSuccess, result.Status)
	require.Len(t, runCtx.Improvements, 1)
	assert.Equal(t, "#old-login-btn", runCtx.Improvements[0].OriginalSelector)
	assert.Equal(t, "button[type='submit']", runCtx.Improvements[0].ImprovedSelector)
}

func TestExecuteStep_DirectResolutionNotRecorded(t *testing.T) {
	fake := drivertest.New()
	fake.AddElement("#widget", true)
	exec := newTestExecutor(fake)
	runCtx := testRunContext()

	result := exec.ExecuteStep(context.Background(), runCtx, models.Step{
		Label:  "Open widget",
		Action: models.ActionClick,
		Target: "#widget",
	})

	assert.Equal(t, models.StepStatusSuccess, result.Status)
	assert.Empty(t, runCtx.Improvements)
}
