// -----------------------------------------------------------------------
// Failure Classifier - Ordered keyword rules over step error text
// -----------------------------------------------------------------------

package analysis

import (
	"strings"

	"github.com/ternarybob/proba/internal/models"
)

// classifierRule is one ordered keyword rule. Rules are evaluated top to
// bottom with first match winning; categories are mutually exclusive by
// construction, not by disjoint keyword sets, so the order is load-bearing.
type classifierRule struct {
	keywords []string
	category models.FailureCategory
}

var classifierRules = []classifierRule{
	{
		keywords: []string{"not found", "not visible", "not attached", "not an"},
		category: models.CategoryElementIssue,
	},
	{
		keywords: []string{"timeout", "navigation", "url", "page"},
		category: models.CategoryNavigationIssue,
	},
	{
		keywords: []string{"expected", "assertion", "should", "to be"},
		category: models.CategoryAssertionFailure,
	},
}

// Classify maps an error message to a failure category. Total function:
// any input, including empty, yields exactly one category, defaulting to
// unknown_error. Matching is case-insensitive.
func Classify(errorText string) models.FailureCategory {
	lowered := strings.ToLower(errorText)
	for _, rule := range classifierRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowered, keyword) {
				return rule.category
			}
		}
	}
	return models.CategoryUnknownError
}
