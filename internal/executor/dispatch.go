// -----------------------------------------------------------------------
// Action Dispatcher - Verb-to-driver dispatch for route steps
// -----------------------------------------------------------------------

package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/proba/internal/models"
)

// dispatch executes one verb against the driver using the resolved selector.
// The verb set is closed; anything outside it is an explicit unsupported
// action error, never a silent no-op.
func (e *StepExecutor) dispatch(ctx context.Context, step models.Step, selector string) error {
	waitTimeout := e.waitTimeout(step)

	switch step.Action {
	case models.ActionNavigate:
		return e.driver.Navigate(ctx, navigateURL(step))

	case models.ActionClick:
		return e.driver.Click(ctx, selector)

	case models.ActionFill:
		return e.driver.Fill(ctx, selector, step.Value)

	case models.ActionSelect:
		return e.executeSelect(ctx, step, selector)

	case models.ActionWaitVisible:
		return e.driver.WaitVisible(ctx, step.Target, waitTimeout)

	case models.ActionWaitHidden:
		return e.driver.WaitHidden(ctx, step.Target, waitTimeout)

	case models.ActionAssertText:
		text, err := e.driver.Text(ctx, selector)
		if err != nil {
			return err
		}
		if !strings.Contains(text, step.Value) {
			return fmt.Errorf("expected text %q in element %s, got %q", step.Value, step.Target, truncate(text, 120))
		}
		return nil

	case models.ActionAssertURL:
		current, err := e.driver.CurrentURL(ctx)
		if err != nil {
			return err
		}
		expected := step.Value
		if expected == "" {
			expected = step.Target
		}
		if !strings.Contains(current, expected) {
			return fmt.Errorf("URL not reached: expected %q, current %q", expected, current)
		}
		return nil

	case models.ActionAssertChecked:
		checked, err := e.driver.IsChecked(ctx, selector)
		if err != nil {
			return err
		}
		if !checked {
			return fmt.Errorf("expected %s to be checked", step.Target)
		}
		return nil

	case models.ActionAssertUnchecked:
		checked, err := e.driver.IsChecked(ctx, selector)
		if err != nil {
			return err
		}
		if checked {
			return fmt.Errorf("expected %s to be unchecked", step.Target)
		}
		return nil

	case models.ActionScreenshot:
		png, err := e.driver.Screenshot(ctx)
		if err != nil {
			return err
		}
		if e.artifacts != nil {
			if _, err := e.artifacts.SaveScreenshot(step.Label, png); err != nil {
				return fmt.Errorf("failed to save screenshot: %w", err)
			}
		}
		return nil

	case models.ActionScroll:
		return e.driver.Scroll(ctx, step.Target)

	case models.ActionKeypress:
		return e.driver.KeyPress(ctx, step.Value)

	default:
		return fmt.Errorf("unsupported action %q", step.Action)
	}
}

// executeSelect reconciles the literal value against the target's options
// before setting it
func (e *StepExecutor) executeSelect(ctx context.Context, step models.Step, selector string) error {
	options, err := e.driver.Options(ctx, selector)
	if err != nil {
		return err
	}

	value, matchKind := reconcileSelectValue(options, step.Value)
	if matchKind != matchExactValue && matchKind != matchLiteral {
		e.logger.Debug().
			Str("step", step.Label).
			Str("literal", step.Value).
			Str("value", value).
			Str("match", matchKind).
			Msg("Select value reconciled against enumerated options")
	}

	return e.driver.SelectOption(ctx, selector, value)
}

// navigateURL picks the URL for a navigate step; the target field carries it
// by convention, the value field is the fallback
func navigateURL(step models.Step) string {
	if step.Target != "" {
		return step.Target
	}
	return step.Value
}

// waitTimeout returns the wait bound for selector/URL waits, honoring the
// per-step override
func (e *StepExecutor) waitTimeout(step models.Step) time.Duration {
	if step.TimeoutMS > 0 {
		return time.Duration(step.TimeoutMS) * time.Millisecond
	}
	return e.cfg.WaitTimeout
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
