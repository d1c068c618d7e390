// -----------------------------------------------------------------------
// Failure taxonomy - Categories, records and causal chains
// -----------------------------------------------------------------------

package models

import "time"

// FailureCategory classifies a step failure by its error text
type FailureCategory string

const (
	CategoryElementIssue     FailureCategory = "element_issue"
	CategoryNavigationIssue  FailureCategory = "navigation_issue"
	CategoryAssertionFailure FailureCategory = "assertion_failure"
	CategoryUnknownError     FailureCategory = "unknown_error"
)

// FailureImpact describes whether a chain's root dragged other failures down
type FailureImpact string

const (
	ImpactDirect    FailureImpact = "direct"
	ImpactCascading FailureImpact = "cascading"
)

// FailureRecord is a derived view over a failed StepResult, carrying the
// route and timing context the chain analyzer needs.
type FailureRecord struct {
	Label     string          `json:"label"`
	Action    ActionType      `json:"action"`
	Target    string          `json:"target"`
	Error     string          `json:"error"`
	Category  FailureCategory `json:"category"`
	RouteID   string          `json:"route_id"`
	Timestamp time.Time       `json:"timestamp"`
}

// FailureChain groups one root failure with the failures it likely caused.
// Chain membership is a heuristic partition, not a verified causal graph:
// every failure of a route belongs to exactly one chain, as root or cascaded.
type FailureChain struct {
	Root     FailureRecord   `json:"root"`
	Cascaded []FailureRecord `json:"cascaded"`
	Impact   FailureImpact   `json:"impact"`
}

// Size returns the total number of failures in the chain including the root
func (c *FailureChain) Size() int {
	return 1 + len(c.Cascaded)
}
