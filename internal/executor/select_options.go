package executor

import (
	"strings"

	"github.com/ternarybob/proba/internal/interfaces"
)

// Select match kinds, in reconciliation order
const (
	matchExactText  = "exact_text"
	matchExactValue = "exact_value"
	matchSubstring  = "substring"
	matchLocale     = "locale"
	matchLiteral    = "literal"
)

// localeValues maps human region names to the option values forms commonly
// use for them. Consulted only after exact and substring matching fail.
var localeValues = map[string]string{
	"australia":         "AU",
	"new south wales":   "NSW",
	"victoria":          "VIC",
	"queensland":        "QLD",
	"south australia":   "SA",
	"western australia": "WA",
	"tasmania":          "TAS",
	"united states":     "US",
	"united kingdom":    "GB",
	"new zealand":       "NZ",
	"canada":            "CA",
	"germany":           "DE",
	"japan":             "JP",
	"singapore":         "SG",
}

// reconcileSelectValue maps the step's literal value onto one of the
// target's enumerated options: exact text, then exact value, then
// substring, then the locale table, falling back to the literal itself.
// Returns the option value to set and the kind of match that produced it.
func reconcileSelectValue(options []interfaces.SelectOption, literal string) (string, string) {
	for _, opt := range options {
		if opt.Text == literal {
			return opt.Value, matchExactText
		}
	}

	for _, opt := range options {
		if opt.Value == literal {
			return opt.Value, matchExactValue
		}
	}

	lowered := strings.ToLower(literal)
	for _, opt := range options {
		if strings.Contains(strings.ToLower(opt.Text), lowered) {
			return opt.Value, matchSubstring
		}
	}

	if mapped, ok := localeValues[lowered]; ok {
		for _, opt := range options {
			if opt.Value == mapped {
				return opt.Value, matchLocale
			}
		}
	}

	return literal, matchLiteral
}
