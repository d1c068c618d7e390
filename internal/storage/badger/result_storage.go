package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/proba/internal/interfaces"
	"github.com/ternarybob/proba/internal/models"
)

// resultRecord wraps an execution result with its own identity so results
// stay append-only: every run gets a fresh record, never an update in place.
type resultRecord struct {
	ResultID  string `badgerhold:"key"`
	RouteID   string `badgerhold:"index"`
	CreatedAt time.Time
	Result    models.ExecutionResult
}

// resultStorage implements ResultStorage using Badger
type resultStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewResultStorage creates a new Badger-backed result storage
func NewResultStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ResultStorage {
	return &resultStorage{db: db, logger: logger}
}

// SaveResult appends a new execution result record
func (s *resultStorage) SaveResult(ctx context.Context, result *models.ExecutionResult) error {
	if result == nil || result.RouteID == "" {
		return fmt.Errorf("result requires a route_id")
	}

	record := resultRecord{
		ResultID:  "result-" + uuid.New().String(),
		RouteID:   result.RouteID,
		CreatedAt: time.Now(),
		Result:    *result,
	}

	if err := s.db.Store().Insert(record.ResultID, &record); err != nil {
		return fmt.Errorf("failed to save result for route %s: %w", result.RouteID, err)
	}

	s.logger.Debug().
		Str("result_id", record.ResultID).
		Str("route_id", result.RouteID).
		Int("failed", result.FailedCount).
		Msg("Execution result saved")
	return nil
}

// GetResult retrieves a result by its record ID
func (s *resultStorage) GetResult(ctx context.Context, resultID string) (*models.ExecutionResult, error) {
	var record resultRecord
	if err := s.db.Store().Get(resultID, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("result not found: %s", resultID)
		}
		return nil, fmt.Errorf("failed to get result %s: %w", resultID, err)
	}
	result := record.Result
	return &result, nil
}

// ListResultsByRoute returns every result recorded for a route, oldest first
func (s *resultStorage) ListResultsByRoute(ctx context.Context, routeID string) ([]*models.ExecutionResult, error) {
	var records []resultRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("RouteID").Eq(routeID).Index("RouteID")); err != nil {
		return nil, fmt.Errorf("failed to list results for route %s: %w", routeID, err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	results := make([]*models.ExecutionResult, 0, len(records))
	for i := range records {
		result := records[i].Result
		results = append(results, &result)
	}
	return results, nil
}

// LatestResult returns the most recent result for a route, or an error when
// the route has never run
func (s *resultStorage) LatestResult(ctx context.Context, routeID string) (*models.ExecutionResult, error) {
	results, err := s.ListResultsByRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no results recorded for route %s", routeID)
	}
	return results[len(results)-1], nil
}
