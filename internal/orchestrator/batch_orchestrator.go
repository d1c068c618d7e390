// -----------------------------------------------------------------------
// Batch Orchestrator - Category-ordered, best-effort multi-route execution
// -----------------------------------------------------------------------

package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/proba/internal/interfaces"
	"github.com/ternarybob/proba/internal/models"
	"github.com/ternarybob/proba/internal/report"
)

// DefaultRoutePause spaces consecutive route executions so the target site
// is not hammered between sessions
const DefaultRoutePause = time.Second

// BatchOrchestrator runs every route of a batch metadata file, category by
// category. Best-effort throughout: a route that fails to load or run is
// counted as failed and the batch moves on.
type BatchOrchestrator struct {
	routes    *RouteOrchestrator
	artifacts interfaces.ArtifactStore
	storage   interfaces.StorageManager
	reports   *report.Service
	limiter   *rate.Limiter
	logger    arbor.ILogger
}

// NewBatchOrchestrator wires the batch pipeline. pause spaces route starts;
// zero selects the default.
func NewBatchOrchestrator(
	routes *RouteOrchestrator,
	artifacts interfaces.ArtifactStore,
	storage interfaces.StorageManager,
	reports *report.Service,
	pause time.Duration,
	logger arbor.ILogger,
) *BatchOrchestrator {
	if pause <= 0 {
		pause = DefaultRoutePause
	}
	return &BatchOrchestrator{
		routes:    routes,
		artifacts: artifacts,
		storage:   storage,
		reports:   reports,
		limiter:   rate.NewLimiter(rate.Every(pause), 1),
		logger:    logger,
	}
}

// ExecuteBatch loads batch metadata and runs every route it references.
// Only context cancellation or an unreadable metadata file is fatal.
func (o *BatchOrchestrator) ExecuteBatch(ctx context.Context, metadataPath string) (*models.BatchResult, error) {
	metadata, err := o.artifacts.LoadBatchMetadata(metadataPath)
	if err != nil {
		return nil, err
	}

	logger := o.logger.WithCorrelationId(metadata.BatchID)
	logger.Info().
		Str("batch_id", metadata.BatchID).
		Int("categories", len(metadata.Categories)).
		Msg("Batch execution started")

	startTime := time.Now()
	batch := &models.BatchResult{
		BatchID:   metadata.BatchID,
		StartedAt: startTime,
	}
	chains := make(map[string][]models.FailureChain)

	for _, category := range categoryOrder(metadata) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		catResult := o.runCategory(ctx, category, metadata.Categories[category], batch, chains, logger)
		batch.Categories = append(batch.Categories, catResult)
	}

	o.finalize(batch, time.Since(startTime))

	if o.storage != nil {
		if err := o.storage.BatchStorage().SaveBatchResult(ctx, batch); err != nil {
			logger.Warn().Err(err).Msg("Failed to store batch result")
		}
	}
	if o.artifacts != nil {
		if _, err := o.artifacts.SaveBatchResult(batch); err != nil {
			logger.Warn().Err(err).Msg("Failed to write batch result file")
		}
	}
	if o.reports != nil {
		if _, err := o.reports.WriteBatchReport(batch, chains); err != nil {
			logger.Warn().Err(err).Msg("Failed to write batch report")
		}
	}

	logger.Info().
		Int("total", batch.TotalRoutes).
		Int("successful", batch.Successful).
		Int("partial", batch.Partial).
		Int("failed", batch.Failed).
		Msg("Batch execution finished")

	return batch, nil
}

// runCategory executes every route file of one category and aggregates it
func (o *BatchOrchestrator) runCategory(ctx context.Context, category string, routeFiles []string, batch *models.BatchResult, chains map[string][]models.FailureChain, logger arbor.ILogger) models.CategoryResult {
	catResult := models.CategoryResult{
		Category:    category,
		TotalRoutes: len(routeFiles),
	}

	if len(routeFiles) == 0 {
		catResult.Status = models.CategoryStatusSkipped
		logger.Info().Str("category", category).Msg("Category skipped, no routes")
		return catResult
	}

	logger.Info().
		Str("category", category).
		Int("routes", len(routeFiles)).
		Msg("Category execution started")

	var rateSum float64
	for _, routeFile := range routeFiles {
		if err := o.limiter.Wait(ctx); err != nil {
			break
		}

		runReport, err := o.routes.ExecuteRouteFile(ctx, routeFile)
		if err != nil {
			logger.Error().Err(err).Str("route_file", routeFile).Msg("Route could not be executed")
			catResult.Failed++
			batch.Results = append(batch.Results, &models.ExecutionResult{
				RouteID: fmt.Sprintf("unloadable:%s", routeFile),
			})
			continue
		}

		result := runReport.Result
		batch.Results = append(batch.Results, result)
		if len(runReport.Chains) > 0 {
			chains[result.RouteID] = runReport.Chains
		}
		rateSum += result.SuccessRate()

		switch {
		case result.Passed():
			catResult.Successful++
		case result.SuccessCount == 0:
			catResult.Failed++
		default:
			catResult.Partial++
		}
	}

	executed := catResult.Successful + catResult.Partial + catResult.Failed
	if executed > 0 {
		catResult.AverageSuccessRate = rateSum / float64(executed)
	}
	catResult.Status = categoryStatus(catResult)

	logger.Info().
		Str("category", category).
		Str("status", string(catResult.Status)).
		Float64("avg_success_rate", catResult.AverageSuccessRate).
		Msg("Category execution finished")

	return catResult
}

// finalize computes the batch-level rollups from the per-category ones
func (o *BatchOrchestrator) finalize(batch *models.BatchResult, elapsed time.Duration) {
	batch.ExecutionTimeMS = elapsed.Milliseconds()

	var rateSum float64
	var executed int
	for _, cat := range batch.Categories {
		if cat.Status == models.CategoryStatusSkipped {
			continue
		}
		batch.TotalRoutes += cat.TotalRoutes
		batch.Successful += cat.Successful
		batch.Partial += cat.Partial
		batch.Failed += cat.Failed
		count := cat.Successful + cat.Partial + cat.Failed
		rateSum += cat.AverageSuccessRate * float64(count)
		executed += count
	}
	if executed > 0 {
		batch.AverageSuccessRate = rateSum / float64(executed)
	}
}

// categoryOrder returns the execution order: the metadata's explicit order
// first, then any remaining categories in lexical order
func categoryOrder(metadata *models.BatchMetadata) []string {
	seen := make(map[string]bool, len(metadata.Categories))
	var order []string

	for _, category := range metadata.ExecutionOrder {
		if _, ok := metadata.Categories[category]; ok && !seen[category] {
			order = append(order, category)
			seen[category] = true
		}
	}

	var remaining []string
	for category := range metadata.Categories {
		if !seen[category] {
			remaining = append(remaining, category)
		}
	}
	sort.Strings(remaining)

	return append(order, remaining...)
}

// categoryStatus derives the category rollup status from its counters
func categoryStatus(c models.CategoryResult) models.CategoryStatus {
	executed := c.Successful + c.Partial + c.Failed
	switch {
	case executed == 0:
		return models.CategoryStatusSkipped
	case c.Successful == executed:
		return models.CategoryStatusSuccessful
	case c.Failed == executed:
		return models.CategoryStatusFailed
	default:
		return models.CategoryStatusPartial
	}
}
