package models

// Step represents a single UI interaction or assertion within a route.
// Steps are immutable once read from a route file: execution never mutates
// them, and a corrected step is only ever emitted as part of a new route.
type Step struct {
	Label             string            `json:"label" validate:"required"`
	Action            ActionType        `json:"action" validate:"required"`
	Target            string            `json:"target,omitempty"`
	Value             string            `json:"value,omitempty"`
	TimeoutMS         int               `json:"timeout_ms,omitempty"`
	ExpectsNavigation bool              `json:"expects_navigation,omitempty"`
	FixReason         string            `json:"fix_reason,omitempty"`
	ScenarioID        string            `json:"scenario_id,omitempty"`
	FieldMapping      map[string]string `json:"field_mapping,omitempty"`

	// Repair metadata, set only on steps of an improved route
	IsImproved bool    `json:"is_improved,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}
