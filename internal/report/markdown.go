// -----------------------------------------------------------------------
// Batch Report - Markdown summary of a batch run and its failure chains
// -----------------------------------------------------------------------

package report

import (
	"fmt"
	"strings"

	"github.com/ternarybob/proba/internal/models"
)

// BuildBatchMarkdown renders a batch result and the per-route failure chains
// as a Markdown document. Chains are keyed by route ID.
func BuildBatchMarkdown(batch *models.BatchResult, chains map[string][]models.FailureChain) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Batch Report: %s\n\n", batch.BatchID)
	fmt.Fprintf(&b, "Started: %s\n\n", batch.StartedAt.Format("2006-01-02 15:04:05"))

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Total routes: %d\n", batch.TotalRoutes)
	fmt.Fprintf(&b, "- Successful: %d\n", batch.Successful)
	fmt.Fprintf(&b, "- Partial: %d\n", batch.Partial)
	fmt.Fprintf(&b, "- Failed: %d\n", batch.Failed)
	fmt.Fprintf(&b, "- Average success rate: %.1f%%\n", batch.AverageSuccessRate)
	fmt.Fprintf(&b, "- Execution time: %.1fs\n\n", float64(batch.ExecutionTimeMS)/1000)

	b.WriteString("## Categories\n\n")
	for _, category := range batch.Categories {
		fmt.Fprintf(&b, "### %s (%s)\n\n", category.Category, category.Status)
		if category.Status == models.CategoryStatusSkipped {
			b.WriteString("No routes in this category.\n\n")
			continue
		}
		fmt.Fprintf(&b, "- Routes: %d\n", category.TotalRoutes)
		fmt.Fprintf(&b, "- Successful: %d, partial: %d, failed: %d\n", category.Successful, category.Partial, category.Failed)
		fmt.Fprintf(&b, "- Average success rate: %.1f%%\n\n", category.AverageSuccessRate)
	}

	writeRouteSection(&b, batch, chains)

	return b.String()
}

func writeRouteSection(b *strings.Builder, batch *models.BatchResult, chains map[string][]models.FailureChain) {
	b.WriteString("## Routes\n\n")
	for _, result := range batch.Results {
		status := "PASSED"
		if !result.Passed() {
			status = "FAILED"
		}
		fmt.Fprintf(b, "### %s — %s\n\n", result.RouteID, status)
		fmt.Fprintf(b, "- Steps: %d, succeeded: %d, failed: %d (%.1f%%)\n\n",
			result.TotalSteps, result.SuccessCount, result.FailedCount, result.SuccessRate())

		routeChains := chains[result.RouteID]
		if len(routeChains) == 0 {
			continue
		}

		b.WriteString("Failure chains:\n\n")
		for i, chain := range routeChains {
			fmt.Fprintf(b, "%d. Root: **%s** (%s) — %s\n", i+1, chain.Root.Label, chain.Root.Category, chain.Root.Error)
			for _, cascaded := range chain.Cascaded {
				fmt.Fprintf(b, "   - Cascaded: %s (%s) — %s\n", cascaded.Label, cascaded.Category, cascaded.Error)
			}
		}
		b.WriteString("\n")
	}
}
