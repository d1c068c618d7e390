// -----------------------------------------------------------------------
// Chain Analyzer - Greedy partition of failures into causal chains
// -----------------------------------------------------------------------

package analysis

import "github.com/ternarybob/proba/internal/models"

// AnalyzeChains partitions a route's failures into root/cascaded groups with
// a single left-to-right greedy pass: each unprocessed failure becomes a
// root and absorbs every later unprocessed failure that cascades under it.
// The output is a total partition — every input record appears in exactly
// one chain, as root or cascaded.
func AnalyzeChains(failures []models.FailureRecord) []models.FailureChain {
	chains := make([]models.FailureChain, 0, len(failures))
	processed := make([]bool, len(failures))

	for i := range failures {
		if processed[i] {
			continue
		}
		root := failures[i]
		var cascaded []models.FailureRecord

		for j := i + 1; j < len(failures); j++ {
			if processed[j] {
				continue
			}
			if isCascaded(root, failures[j]) {
				cascaded = append(cascaded, failures[j])
				processed[j] = true
			}
		}

		impact := models.ImpactDirect
		if len(cascaded) > 0 {
			impact = models.ImpactCascading
		}
		chains = append(chains, models.FailureChain{
			Root:     root,
			Cascaded: cascaded,
			Impact:   impact,
		})
		processed[i] = true
	}

	return chains
}

// isCascaded decides whether a later failure hangs off the given root.
// The third rule — same route, later in time — is deliberately permissive:
// within one route it folds nearly every later failure under the first one,
// treating the first failure of a route as the default root of everything
// after it. Coarse, but it matches how runs actually break, and downstream
// reporting depends on this grouping.
func isCascaded(root, later models.FailureRecord) bool {
	if root.Category == models.CategoryNavigationIssue && later.Category == models.CategoryAssertionFailure {
		return true
	}
	if root.Category == models.CategoryElementIssue && later.Category == models.CategoryAssertionFailure {
		return true
	}
	return root.RouteID == later.RouteID && later.Timestamp.After(root.Timestamp)
}
