package interfaces

import (
	"context"

	"github.com/ternarybob/proba/internal/models"
)

// RouteStorage persists route records in the embedded store
type RouteStorage interface {
	SaveRoute(ctx context.Context, route *models.Route) error
	GetRoute(ctx context.Context, routeID string) (*models.Route, error)
	ListRoutes(ctx context.Context, category string) ([]*models.Route, error)
	CountRoutes(ctx context.Context) (int, error)
}

// ResultStorage persists execution results. Results are append-only: a run
// always writes a new record and never updates one in place.
type ResultStorage interface {
	SaveResult(ctx context.Context, result *models.ExecutionResult) error
	GetResult(ctx context.Context, resultID string) (*models.ExecutionResult, error)
	ListResultsByRoute(ctx context.Context, routeID string) ([]*models.ExecutionResult, error)
	LatestResult(ctx context.Context, routeID string) (*models.ExecutionResult, error)
}

// HistoryStorage persists the bounded per-route-file run history ring
type HistoryStorage interface {
	GetHistory(ctx context.Context, routeFile string) ([]models.RunHistoryEntry, error)
	SaveHistory(ctx context.Context, routeFile string, entries []models.RunHistoryEntry) error
}

// BatchStorage persists batch results
type BatchStorage interface {
	SaveBatchResult(ctx context.Context, result *models.BatchResult) error
	GetBatchResult(ctx context.Context, batchID string) (*models.BatchResult, error)
}

// StorageManager bundles the storage ports behind one lifecycle
type StorageManager interface {
	RouteStorage() RouteStorage
	ResultStorage() ResultStorage
	HistoryStorage() HistoryStorage
	BatchStorage() BatchStorage
	Close() error
}
