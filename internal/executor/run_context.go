package executor

import (
	"time"

	"github.com/ternarybob/proba/internal/models"
	"github.com/ternarybob/proba/internal/resolver"
)

// RunContext carries the mutable per-run state through the step execution
// call chain: accumulated selector improvements and route identity. Passing
// it explicitly (rather than hiding it in executor fields) keeps the repair
// feedback loop testable in isolation.
type RunContext struct {
	RouteID      string
	IsFixedRoute bool
	Improvements []models.SelectorImprovement
}

// NewRunContext creates the run context for one route execution
func NewRunContext(route *models.Route) *RunContext {
	return &RunContext{
		RouteID:      route.RouteID,
		IsFixedRoute: route.IsRepaired(),
	}
}

// RecordImprovement captures a resolver substitution for the repair loop.
// Direct resolutions are not improvements; neither is resolving to the
// step's own selector (Tier 4 retry).
func (c *RunContext) RecordImprovement(step models.Step, res *resolver.Resolution) {
	if res == nil || !res.Improved() || res.Strategy == resolver.StrategyDirect {
		return
	}
	c.Improvements = append(c.Improvements, models.SelectorImprovement{
		StepLabel:        step.Label,
		OriginalSelector: res.OriginalSelector,
		ImprovedSelector: res.Selector,
		Strategy:         res.Strategy,
		Confidence:       res.Confidence,
		Timestamp:        time.Now(),
	})
}
