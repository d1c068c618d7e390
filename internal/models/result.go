package models

// StepStatus represents the outcome of a single executed step
type StepStatus string

const (
	StepStatusSuccess StepStatus = "success"
	StepStatusFailed  StepStatus = "failed"
	StepStatusSkipped StepStatus = "skipped"
	StepStatusUnknown StepStatus = "unknown"
)

// StepResult records the outcome of one step of one execution.
// Created exactly once per step per run and owned by the ExecutionResult.
type StepResult struct {
	Label   string     `json:"label"`
	Action  ActionType `json:"action"`
	Target  string     `json:"target"`
	Value   string     `json:"value,omitempty"`
	Status  StepStatus `json:"status"`
	Error   string     `json:"error,omitempty"`
	IsFixed bool       `json:"is_fixed"`
}

// ExecutionResult is the append-only record of one route run. It is written
// once when the route finishes and never updated in place, so a run's outcome
// is always inspectable after the fact.
type ExecutionResult struct {
	RouteID         string       `json:"route_id"`
	TotalSteps      int          `json:"total_steps"`
	SuccessCount    int          `json:"success_count"`
	FailedCount     int          `json:"failed_count"`
	ExecutionTimeMS int64        `json:"execution_time_ms"`
	Steps           []StepResult `json:"steps"`
	IsFixedRoute    bool         `json:"is_fixed_route"`
	OriginalRouteID string       `json:"original_route_id,omitempty"`
}

// SuccessRate returns the percentage of steps that succeeded
func (r *ExecutionResult) SuccessRate() float64 {
	if r.TotalSteps == 0 {
		return 0
	}
	return float64(r.SuccessCount) / float64(r.TotalSteps) * 100
}

// Passed reports whether every step of the run succeeded
func (r *ExecutionResult) Passed() bool {
	return r.TotalSteps > 0 && r.FailedCount == 0
}

// FailedSteps returns the step results that failed, in execution order
func (r *ExecutionResult) FailedSteps() []StepResult {
	var failed []StepResult
	for _, step := range r.Steps {
		if step.Status == StepStatusFailed {
			failed = append(failed, step)
		}
	}
	return failed
}
