// -----------------------------------------------------------------------
// Route - Versioned, append-only test route artifact
// -----------------------------------------------------------------------

package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Route represents an ordered sequence of steps forming one test case.
// Routes are versioned artifacts: a repaired route is a new Route whose
// OriginalRouteID points back at its source. Originals are never overwritten.
type Route struct {
	RouteID           string `json:"route_id" validate:"required"`
	Steps             []Step `json:"steps" validate:"required,min=1,dive"`
	Category          string `json:"category,omitempty"`
	TestCaseID        string `json:"test_case_id,omitempty"`
	OriginalViewpoint string `json:"original_viewpoint,omitempty"`
	OriginalRouteID   string `json:"original_route_id,omitempty"`
	FixTimestamp      string `json:"fix_timestamp,omitempty"`
}

// Validate validates the route and each of its steps
func (r *Route) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("route %s failed validation: %w", r.RouteID, err)
	}

	for i, step := range r.Steps {
		if err := r.validateStep(&step); err != nil {
			return fmt.Errorf("route %s step %d (%s): %w", r.RouteID, i, step.Label, err)
		}
	}

	return nil
}

// validateStep applies the per-verb rules the validator tags cannot express
func (r *Route) validateStep(step *Step) error {
	if !step.Action.IsValid() {
		return fmt.Errorf("unknown action: %s", step.Action)
	}

	switch step.Action {
	case ActionNavigate:
		if step.Target == "" && step.Value == "" {
			return errors.New("navigate step requires a target URL")
		}
	case ActionFill, ActionSelect:
		if step.Target == "" {
			return fmt.Errorf("%s step requires a target selector", step.Action)
		}
	case ActionClick, ActionWaitVisible, ActionWaitHidden,
		ActionAssertText, ActionAssertChecked, ActionAssertUnchecked:
		if step.Target == "" {
			return fmt.Errorf("%s step requires a target selector", step.Action)
		}
	case ActionAssertURL:
		if step.Target == "" && step.Value == "" {
			return errors.New("assert_url step requires an expected URL fragment")
		}
	}

	if step.TimeoutMS < 0 {
		return fmt.Errorf("negative timeout_ms: %d", step.TimeoutMS)
	}

	return nil
}

// IsRepaired reports whether this route was derived from another route
func (r *Route) IsRepaired() bool {
	return r.OriginalRouteID != ""
}

// Clone returns a deep copy of the route. Used by the repair feedback loop
// so the original route value is never touched.
func (r *Route) Clone() *Route {
	clone := *r
	clone.Steps = make([]Step, len(r.Steps))
	copy(clone.Steps, r.Steps)
	for i, step := range r.Steps {
		if step.FieldMapping != nil {
			mapping := make(map[string]string, len(step.FieldMapping))
			for k, v := range step.FieldMapping {
				mapping[k] = v
			}
			clone.Steps[i].FieldMapping = mapping
		}
	}
	return &clone
}
