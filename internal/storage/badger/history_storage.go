package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/proba/internal/interfaces"
	"github.com/ternarybob/proba/internal/models"
)

// historyRecord holds the bounded run history ring for one route file
type historyRecord struct {
	RouteFile string `badgerhold:"key"`
	Entries   []models.RunHistoryEntry
}

// historyStorage implements HistoryStorage using Badger
type historyStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewHistoryStorage creates a new Badger-backed run history storage
func NewHistoryStorage(db *BadgerDB, logger arbor.ILogger) interfaces.HistoryStorage {
	return &historyStorage{db: db, logger: logger}
}

// GetHistory returns the recorded entries for a route file, oldest first.
// A file with no history yields an empty slice, not an error.
func (s *historyStorage) GetHistory(ctx context.Context, routeFile string) ([]models.RunHistoryEntry, error) {
	var record historyRecord
	if err := s.db.Store().Get(routeFile, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run history for %s: %w", routeFile, err)
	}
	return record.Entries, nil
}

// SaveHistory replaces the history ring for a route file
func (s *historyStorage) SaveHistory(ctx context.Context, routeFile string, entries []models.RunHistoryEntry) error {
	record := historyRecord{
		RouteFile: routeFile,
		Entries:   entries,
	}
	if err := s.db.Store().Upsert(routeFile, &record); err != nil {
		return fmt.Errorf("failed to save run history for %s: %w", routeFile, err)
	}

	s.logger.Debug().
		Str("route_file", routeFile).
		Int("entries", len(entries)).
		Msg("Run history saved")
	return nil
}
