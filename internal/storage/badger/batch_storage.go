package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/proba/internal/interfaces"
	"github.com/ternarybob/proba/internal/models"
)

// batchRecord is the stored form of a batch result, keyed by BatchID
type batchRecord struct {
	BatchID string `badgerhold:"key"`
	Result  models.BatchResult
}

// batchStorage implements BatchStorage using Badger
type batchStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewBatchStorage creates a new Badger-backed batch storage
func NewBatchStorage(db *BadgerDB, logger arbor.ILogger) interfaces.BatchStorage {
	return &batchStorage{db: db, logger: logger}
}

// SaveBatchResult stores a batch result
func (s *batchStorage) SaveBatchResult(ctx context.Context, result *models.BatchResult) error {
	if result == nil || result.BatchID == "" {
		return fmt.Errorf("batch result requires a batch_id")
	}

	record := batchRecord{
		BatchID: result.BatchID,
		Result:  *result,
	}
	if err := s.db.Store().Upsert(result.BatchID, &record); err != nil {
		return fmt.Errorf("failed to save batch result %s: %w", result.BatchID, err)
	}

	s.logger.Debug().
		Str("batch_id", result.BatchID).
		Int("routes", result.TotalRoutes).
		Msg("Batch result saved")
	return nil
}

// GetBatchResult retrieves a batch result by ID
func (s *batchStorage) GetBatchResult(ctx context.Context, batchID string) (*models.BatchResult, error) {
	var record batchRecord
	if err := s.db.Store().Get(batchID, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("batch result not found: %s", batchID)
		}
		return nil, fmt.Errorf("failed to get batch result %s: %w", batchID, err)
	}
	result := record.Result
	return &result, nil
}
