// -----------------------------------------------------------------------
// Override table - Tier 1 keyword-to-selector manual overrides
// -----------------------------------------------------------------------

package resolver

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// OverrideRule maps target/label keywords to an ordered list of selector
// candidates. Candidates are tried in declared order; the first one that
// exists and is visible wins.
type OverrideRule struct {
	Name       string   `yaml:"name"`
	Keywords   []string `yaml:"keywords"`
	Selectors  []string `yaml:"selectors"`
	Confidence float64  `yaml:"confidence,omitempty"`
}

// OverrideTable is the Tier 1 manual override configuration
type OverrideTable struct {
	Rules []OverrideRule `yaml:"rules"`
}

// LoadOverrides reads an override table from a YAML file
func LoadOverrides(path string) (*OverrideTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read overrides file: %w", err)
	}

	var table OverrideTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse overrides file %s: %w", path, err)
	}

	for i := range table.Rules {
		if table.Rules[i].Confidence == 0 {
			table.Rules[i].Confidence = ConfidenceFor(StrategyManualOverride)
		}
	}

	return &table, nil
}

// DefaultOverrides returns the built-in override table used when no
// overrides file is configured. Covers the controls that drift most often
// across UI revisions.
func DefaultOverrides() *OverrideTable {
	return &OverrideTable{
		Rules: []OverrideRule{
			{
				Name:     "login-submit",
				Keywords: []string{"login", "log in", "sign in", "signin"},
				Selectors: []string{
					"button[type='submit']",
					"input[type='submit']",
					"//button[contains(., 'Log')]",
					"form button",
				},
				Confidence: 0.9,
			},
			{
				Name:     "search-box",
				Keywords: []string{"search"},
				Selectors: []string{
					"input[type='search']",
					"input[name='q']",
					"[role='searchbox']",
					"header form input",
				},
				Confidence: 0.9,
			},
			{
				Name:     "save-button",
				Keywords: []string{"save", "submit", "confirm"},
				Selectors: []string{
					"button[type='submit']",
					"//button[contains(., 'Save')]",
					"form > div > button",
				},
				Confidence: 0.85,
			},
			{
				Name:     "cancel-button",
				Keywords: []string{"cancel", "close", "dismiss"},
				Selectors: []string{
					"button[aria-label='Close']",
					"//button[contains(., 'Cancel')]",
					".modal-footer button:last-child",
				},
				Confidence: 0.85,
			},
			{
				Name:     "main-menu",
				Keywords: []string{"menu", "navigation", "hamburger"},
				Selectors: []string{
					"button[aria-label='Menu']",
					"nav button",
					"header > div > div > button:first-child",
				},
				Confidence: 0.85,
			},
		},
	}
}

// Match returns the selector candidates of the first rule whose keywords
// appear in the step's target or label, ordered for the given device
// context. Returns nil when no rule matches.
func (t *OverrideTable) Match(target, label string, mobile bool) (*OverrideRule, []string) {
	haystack := strings.ToLower(target + " " + label)
	for i := range t.Rules {
		rule := &t.Rules[i]
		for _, keyword := range rule.Keywords {
			if strings.Contains(haystack, strings.ToLower(keyword)) {
				return rule, orderForDevice(rule.Selectors, mobile)
			}
		}
	}
	return nil, nil
}

// orderForDevice reorders candidates for the device context. Long structural
// paths break first on narrow viewports where layout containers collapse, so
// they are deprioritized on mobile. The sort is stable: relative order within
// each group is preserved.
func orderForDevice(selectors []string, mobile bool) []string {
	ordered := make([]string, len(selectors))
	copy(ordered, selectors)
	if !mobile {
		return ordered
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return structuralDepth(ordered[i]) < structuralDepth(ordered[j])
	})
	return ordered
}

// structuralDepth counts combinator hops in a selector as a proxy for how
// tied it is to a specific desktop layout
func structuralDepth(selector string) int {
	return strings.Count(selector, ">") + strings.Count(selector, " ")
}
