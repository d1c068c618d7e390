// -----------------------------------------------------------------------
// Route Orchestrator - Full route lifecycle: guard, execute, analyze, repair
// -----------------------------------------------------------------------

package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/proba/internal/analysis"
	"github.com/ternarybob/proba/internal/executor"
	"github.com/ternarybob/proba/internal/history"
	"github.com/ternarybob/proba/internal/interfaces"
	"github.com/ternarybob/proba/internal/models"
	"github.com/ternarybob/proba/internal/resolver"
)

// fixTimestampLayout includes fractional seconds so repaired routes generated
// in quick succession never collide on ID
const fixTimestampLayout = "20060102_150405.000000"

// RunReport bundles everything one route execution produced
type RunReport struct {
	Result         *models.ExecutionResult
	Chains         []models.FailureChain
	FixedRoute     *models.Route
	FixedRoutePath string
	ResultPath     string
	Duplicate      *history.DuplicateCheck
}

// RouteOrchestrator drives one route end to end: duplicate-run check, fresh
// browser session, step loop, result persistence, failure-chain analysis and
// repaired-route generation. A step failure never aborts the route; only a
// session that cannot be opened is fatal.
type RouteOrchestrator struct {
	sessions    interfaces.SessionFactory
	storage     interfaces.StorageManager
	artifacts   interfaces.ArtifactStore
	guard       *history.Guard
	overrides   *resolver.OverrideTable
	resolverCfg resolver.Config
	execCfg     executor.Config
	logger      arbor.ILogger
}

// NewRouteOrchestrator wires the route execution pipeline
func NewRouteOrchestrator(
	sessions interfaces.SessionFactory,
	storage interfaces.StorageManager,
	artifacts interfaces.ArtifactStore,
	guard *history.Guard,
	overrides *resolver.OverrideTable,
	resolverCfg resolver.Config,
	execCfg executor.Config,
	logger arbor.ILogger,
) *RouteOrchestrator {
	return &RouteOrchestrator{
		sessions:    sessions,
		storage:     storage,
		artifacts:   artifacts,
		guard:       guard,
		overrides:   overrides,
		resolverCfg: resolverCfg,
		execCfg:     execCfg,
		logger:      logger,
	}
}

// ExecuteRouteFile loads a route file and executes it
func (o *RouteOrchestrator) ExecuteRouteFile(ctx context.Context, routeFile string) (*RunReport, error) {
	route, err := o.artifacts.LoadRoute(routeFile)
	if err != nil {
		return nil, err
	}
	return o.ExecuteRoute(ctx, route, routeFile)
}

// ExecuteRoute runs every step of the route against a fresh browser session.
// The execution result is always persisted, even when every step failed.
func (o *RouteOrchestrator) ExecuteRoute(ctx context.Context, route *models.Route, routeFile string) (*RunReport, error) {
	logger := o.logger.WithCorrelationId(route.RouteID)
	report := &RunReport{}

	// Advisory only: a duplicate run is logged and surfaced, never blocked
	if o.guard != nil && routeFile != "" {
		check, err := o.guard.CheckDuplicate(ctx, routeFile)
		if err != nil {
			logger.Debug().Err(err).Msg("Duplicate-run check unavailable")
		} else {
			report.Duplicate = check
			if check.IsDuplicate {
				logger.Warn().
					Int("prior_failed_steps", len(check.LastFailedSteps)).
					Msg("Re-running a route executed inside the cool-down window")
			}
		}
	}

	session, err := o.sessions.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser session for route %s: %w", route.RouteID, err)
	}
	defer session.Close()

	res := resolver.New(session, o.overrides, o.resolverCfg, logger)
	exec := executor.New(session, res, o.artifacts, o.execCfg, logger)
	runCtx := executor.NewRunContext(route)

	logger.Info().
		Str("route_id", route.RouteID).
		Int("steps", len(route.Steps)).
		Bool("is_fixed", route.IsRepaired()).
		Msg("Route execution started")

	startTime := time.Now()
	result := &models.ExecutionResult{
		RouteID:         route.RouteID,
		TotalSteps:      len(route.Steps),
		IsFixedRoute:    route.IsRepaired(),
		OriginalRouteID: route.OriginalRouteID,
	}
	var failures []models.FailureRecord

	for _, step := range route.Steps {
		stepResult := exec.ExecuteStep(ctx, runCtx, step)
		result.Steps = append(result.Steps, stepResult)

		switch stepResult.Status {
		case models.StepStatusSuccess:
			result.SuccessCount++
		case models.StepStatusFailed:
			result.FailedCount++
			failures = append(failures, models.FailureRecord{
				Label:     step.Label,
				Action:    step.Action,
				Target:    step.Target,
				Error:     stepResult.Error,
				Category:  analysis.Classify(stepResult.Error),
				RouteID:   route.RouteID,
				Timestamp: time.Now(),
			})
		}
	}
	result.ExecutionTimeMS = time.Since(startTime).Milliseconds()
	report.Result = result

	o.persistResult(ctx, route, result, routeFile, report, logger)

	report.Chains = analysis.AnalyzeChains(failures)
	o.logChains(report.Chains, logger)

	if len(runCtx.Improvements) > 0 {
		o.generateRepair(ctx, route, runCtx.Improvements, report, logger)
	}

	logger.Info().
		Int("succeeded", result.SuccessCount).
		Int("failed", result.FailedCount).
		Int64("elapsed_ms", result.ExecutionTimeMS).
		Msg("Route execution finished")

	return report, nil
}

// persistResult writes the run outcome everywhere it belongs. Persistence
// failures are logged, not fatal: the in-memory result is still returned.
func (o *RouteOrchestrator) persistResult(ctx context.Context, route *models.Route, result *models.ExecutionResult, routeFile string, report *RunReport, logger arbor.ILogger) {
	if o.storage != nil {
		if err := o.storage.RouteStorage().SaveRoute(ctx, route); err != nil {
			logger.Warn().Err(err).Msg("Failed to store route record")
		}
		if err := o.storage.ResultStorage().SaveResult(ctx, result); err != nil {
			logger.Warn().Err(err).Msg("Failed to store execution result")
		}
	}

	if o.artifacts != nil {
		path, err := o.artifacts.SaveResult(result, routeFile)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to write result file")
		} else {
			report.ResultPath = path
		}
	}

	if o.guard != nil && routeFile != "" {
		if err := o.guard.Record(ctx, routeFile, result); err != nil {
			logger.Warn().Err(err).Msg("Failed to record run history")
		}
	}
}

// generateRepair builds and persists the repaired route derived from this
// run's selector improvements
func (o *RouteOrchestrator) generateRepair(ctx context.Context, route *models.Route, improvements []models.SelectorImprovement, report *RunReport, logger arbor.ILogger) {
	fixed := GenerateImprovedRoute(route, improvements)
	report.FixedRoute = fixed

	logger.Info().
		Str("fixed_route_id", fixed.RouteID).
		Int("improvements", len(improvements)).
		Msg("Repaired route generated")

	if o.artifacts != nil {
		path, err := o.artifacts.SaveFixedRoute(fixed)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to write fixed route file")
		} else {
			report.FixedRoutePath = path
		}
	}
	if o.storage != nil {
		if err := o.storage.RouteStorage().SaveRoute(ctx, fixed); err != nil {
			logger.Warn().Err(err).Msg("Failed to store fixed route record")
		}
	}
}

func (o *RouteOrchestrator) logChains(chains []models.FailureChain, logger arbor.ILogger) {
	for _, chain := range chains {
		logger.Warn().
			Str("root_step", chain.Root.Label).
			Str("root_category", string(chain.Root.Category)).
			Str("impact", string(chain.Impact)).
			Int("cascaded", len(chain.Cascaded)).
			Msg("Failure chain identified")
	}
}

// GenerateImprovedRoute derives a new route from the original with this run's
// selector improvements applied. The original route value is never mutated;
// the result carries a fresh ID and back-references its source.
func GenerateImprovedRoute(route *models.Route, improvements []models.SelectorImprovement) *models.Route {
	timestamp := time.Now().UTC().Format(fixTimestampLayout)

	fixed := route.Clone()
	fixed.RouteID = fmt.Sprintf("%s_fixed_%s", route.RouteID, timestamp)
	fixed.OriginalRouteID = route.RouteID
	fixed.FixTimestamp = timestamp

	byLabel := make(map[string]models.SelectorImprovement, len(improvements))
	for _, imp := range improvements {
		byLabel[imp.StepLabel] = imp
	}

	for i := range fixed.Steps {
		step := &fixed.Steps[i]
		imp, ok := byLabel[step.Label]
		if !ok || step.Target != imp.OriginalSelector {
			continue
		}
		step.Target = imp.ImprovedSelector
		step.IsImproved = true
		step.Confidence = imp.Confidence
		step.FixReason = fmt.Sprintf("selector replaced via %s (was %s)", imp.Strategy, imp.OriginalSelector)
	}

	return fixed
}
