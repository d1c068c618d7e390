package resolver

// Resolution strategy identifiers. These are persisted into
// SelectorImprovement records, so treat them as a stable vocabulary.
const (
	StrategyDirect           = "direct"
	StrategyManualOverride   = "manual_override"
	StrategyPatternAttribute = "pattern_attribute"
	StrategyPatternARIA      = "pattern_aria"
	StrategyPatternText      = "pattern_text"
	StrategyPatternDOM       = "pattern_dom"
	StrategyDelayedRetry     = "delayed_retry"
)

// strategyConfidence is the static strategy-to-confidence table. Exact
// matches score highest; mined and text-proximity patterns are the least
// specific and score lowest.
var strategyConfidence = map[string]float64{
	StrategyDirect:           1.0,
	StrategyManualOverride:   0.9,
	StrategyPatternAttribute: 0.95,
	StrategyPatternARIA:      0.85,
	StrategyPatternText:      0.7,
	StrategyPatternDOM:       0.65,
	StrategyDelayedRetry:     0.75,
}

// ConfidenceFor returns the confidence score for a strategy, defaulting to
// the mined-pattern floor for anything unknown
func ConfidenceFor(strategy string) float64 {
	if c, ok := strategyConfidence[strategy]; ok {
		return c
	}
	return 0.6
}
