// -----------------------------------------------------------------------
// Step Executor - Runs one step, records the outcome, never aborts a route
// -----------------------------------------------------------------------

package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/proba/internal/interfaces"
	"github.com/ternarybob/proba/internal/models"
	"github.com/ternarybob/proba/internal/resolver"
)

// Config holds step execution settings
type Config struct {
	// WaitTimeout bounds selector and URL waits (default 10s)
	WaitTimeout time.Duration
	// ScreenshotOnSuccess captures a screenshot after successful steps too.
	// Off by default to bound I/O; failures are always captured.
	ScreenshotOnSuccess bool
}

// StepExecutor runs individual steps against one browser session. Step
// failures are converted into StepResults at this boundary and never
// propagate as errors: a route always runs to its last step so that later
// failures can reveal cascades.
type StepExecutor struct {
	driver    interfaces.Driver
	resolver  *resolver.Resolver
	artifacts interfaces.ArtifactStore
	cfg       Config
	logger    arbor.ILogger
}

// New creates a step executor bound to one driver session
func New(driver interfaces.Driver, res *resolver.Resolver, artifacts interfaces.ArtifactStore, cfg Config, logger arbor.ILogger) *StepExecutor {
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 10 * time.Second
	}
	return &StepExecutor{
		driver:    driver,
		resolver:  res,
		artifacts: artifacts,
		cfg:       cfg,
		logger:    logger,
	}
}

// ExecuteStep runs one step and returns its result. The result is created
// exactly once per step per execution; errors are captured into it, with
// only the first line of the message kept.
func (e *StepExecutor) ExecuteStep(ctx context.Context, runCtx *RunContext, step models.Step) models.StepResult {
	startTime := time.Now()
	result := models.StepResult{
		Label:   step.Label,
		Action:  step.Action,
		Target:  step.Target,
		Value:   step.Value,
		Status:  models.StepStatusUnknown,
		IsFixed: step.IsImproved,
	}

	if !step.Action.IsValid() {
		result.Status = models.StepStatusFailed
		result.Error = fmt.Sprintf("unsupported action %q", step.Action)
		return result
	}

	selector := step.Target
	if step.Action.RequiresElement() {
		resolution, err := e.resolver.Resolve(ctx, step)
		if err != nil {
			result.Status = models.StepStatusFailed
			result.Error = firstLine(err.Error())
			return result
		}
		if !resolution.Found {
			result.Status = models.StepStatusFailed
			result.Error = fmt.Sprintf("target not found: %s", step.Target)
			e.captureFailureArtifacts(ctx, step)
			return result
		}
		selector = resolution.Selector
		runCtx.RecordImprovement(step, resolution)
	}

	if err := e.dispatch(ctx, step, selector); err != nil {
		result.Status = models.StepStatusFailed
		result.Error = firstLine(err.Error())
		e.logger.Warn().
			Str("step", step.Label).
			Str("action", step.Action.String()).
			Str("error", result.Error).
			Dur("elapsed", time.Since(startTime)).
			Msg("Step failed")
		e.captureFailureArtifacts(ctx, step)
		return result
	}

	result.Status = models.StepStatusSuccess
	e.logger.Info().
		Str("step", step.Label).
		Str("action", step.Action.String()).
		Dur("elapsed", time.Since(startTime)).
		Msg("Step completed")

	if e.cfg.ScreenshotOnSuccess && e.artifacts != nil && step.Action != models.ActionScreenshot {
		if png, err := e.driver.Screenshot(ctx); err == nil {
			e.artifacts.SaveScreenshot(step.Label, png)
		}
	}

	return result
}

// captureFailureArtifacts saves a screenshot and DOM snapshot for the failed
// step. Best-effort: a capture failure must not mask the step failure.
func (e *StepExecutor) captureFailureArtifacts(ctx context.Context, step models.Step) {
	if e.artifacts == nil {
		return
	}

	if png, err := e.driver.Screenshot(ctx); err == nil {
		if _, err := e.artifacts.SaveScreenshot(step.Label, png); err != nil {
			e.logger.Debug().Err(err).Str("step", step.Label).Msg("Failed to save failure screenshot")
		}
	}

	if html, err := e.driver.DOMSnapshot(ctx); err == nil {
		if _, err := e.artifacts.SaveDOMSnapshot(step.Label, html); err != nil {
			e.logger.Debug().Err(err).Str("step", step.Label).Msg("Failed to save DOM snapshot")
		}
	}
}

// firstLine keeps only the first line of a driver error message; chromedp
// errors can carry multi-line protocol dumps that would bloat results
func firstLine(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		return message[:idx]
	}
	return message
}
