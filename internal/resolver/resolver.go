// -----------------------------------------------------------------------
// Element Resolver - Multi-tier selector resolution with drift tolerance
// -----------------------------------------------------------------------

package resolver

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/proba/internal/interfaces"
	"github.com/ternarybob/proba/internal/models"
)

// Config holds resolver tuning knobs
type Config struct {
	// PatternWait is the per-candidate visibility wait in Tier 3
	PatternWait time.Duration
	// RetryDelay is the Tier 4 pause before the final direct retry
	RetryDelay time.Duration
	// Mobile marks a narrow-viewport device context, which reorders
	// override candidates away from long structural paths
	Mobile bool
}

// Resolution is the outcome of resolving a step's target. When the winning
// selector differs from the original, the caller records it as a
// SelectorImprovement for the repair feedback loop.
type Resolution struct {
	Found            bool
	Strategy         string
	OriginalSelector string
	Selector         string
	Confidence       float64
}

// Improved reports whether resolution succeeded through a selector other
// than the step's own
func (r *Resolution) Improved() bool {
	return r.Found && r.Selector != r.OriginalSelector
}

// Resolver locates a step's target element through four fallback tiers,
// tried strictly in order with first success winning:
//
//	1. manual override table (exists + visible)
//	2. the step's own selector verbatim (existence only)
//	3. pattern-generated alternatives (short visibility wait each)
//	4. fixed delay, then the step's own selector once more
type Resolver struct {
	driver    interfaces.Driver
	overrides *OverrideTable
	cfg       Config
	logger    arbor.ILogger
}

// New creates a resolver bound to one driver session
func New(driver interfaces.Driver, overrides *OverrideTable, cfg Config, logger arbor.ILogger) *Resolver {
	if overrides == nil {
		overrides = DefaultOverrides()
	}
	if cfg.PatternWait <= 0 {
		cfg.PatternWait = 2 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 3 * time.Second
	}
	return &Resolver{
		driver:    driver,
		overrides: overrides,
		cfg:       cfg,
		logger:    logger,
	}
}

// Resolve runs the tiers for one step. A nil error with Found=false means
// every tier was exhausted; the caller raises the target-not-found failure.
func (r *Resolver) Resolve(ctx context.Context, step models.Step) (*Resolution, error) {
	// Tier 1: manual overrides
	if rule, candidates := r.overrides.Match(step.Target, step.Label, r.cfg.Mobile); rule != nil {
		for _, candidate := range candidates {
			if r.existsAndVisible(ctx, candidate) {
				r.logger.Debug().
					Str("step", step.Label).
					Str("rule", rule.Name).
					Str("selector", candidate).
					Msg("Resolved via manual override")
				return &Resolution{
					Found:            true,
					Strategy:         StrategyManualOverride,
					OriginalSelector: step.Target,
					Selector:         candidate,
					Confidence:       rule.Confidence,
				}, nil
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}

	// Tier 2: the literal selector, existence only
	if step.Target != "" {
		if count, err := r.driver.Exists(ctx, step.Target); err == nil && count > 0 {
			return &Resolution{
				Found:            true,
				Strategy:         StrategyDirect,
				OriginalSelector: step.Target,
				Selector:         step.Target,
				Confidence:       ConfidenceFor(StrategyDirect),
			}, nil
		}
	}

	// Tier 3: generated alternatives, each with a short visibility wait.
	// The DOM snapshot is best-effort input for mining; resolution proceeds
	// without it.
	snapshot, err := r.driver.DOMSnapshot(ctx)
	if err != nil {
		r.logger.Debug().Err(err).Str("step", step.Label).Msg("DOM snapshot unavailable for pattern mining")
		snapshot = ""
	}
	for _, candidate := range GenerateAlternatives(step.Target, step.Label, snapshot) {
		if err := r.driver.WaitVisible(ctx, candidate.Selector, r.cfg.PatternWait); err == nil {
			r.logger.Info().
				Str("step", step.Label).
				Str("original", step.Target).
				Str("selector", candidate.Selector).
				Str("strategy", candidate.Strategy).
				Msg("Resolved via generated pattern")
			return &Resolution{
				Found:            true,
				Strategy:         candidate.Strategy,
				OriginalSelector: step.Target,
				Selector:         candidate.Selector,
				Confidence:       ConfidenceFor(candidate.Strategy),
			}, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	// Tier 4: allow dynamic rendering to settle, then retry the literal
	// selector once
	if step.Target != "" {
		select {
		case <-time.After(r.cfg.RetryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if count, err := r.driver.Exists(ctx, step.Target); err == nil && count > 0 {
			return &Resolution{
				Found:            true,
				Strategy:         StrategyDelayedRetry,
				OriginalSelector: step.Target,
				Selector:         step.Target,
				Confidence:       ConfidenceFor(StrategyDelayedRetry),
			}, nil
		}
	}

	r.logger.Warn().
		Str("step", step.Label).
		Str("target", step.Target).
		Msg("All resolution tiers exhausted")

	return &Resolution{
		Found:            false,
		OriginalSelector: step.Target,
	}, nil
}

// existsAndVisible checks a candidate without waiting. Driver errors count
// as a miss so one flaky check cannot sink the whole tier.
func (r *Resolver) existsAndVisible(ctx context.Context, selector string) bool {
	count, err := r.driver.Exists(ctx, selector)
	if err != nil || count == 0 {
		return false
	}
	visible, err := r.driver.IsVisible(ctx, selector)
	return err == nil && visible
}
