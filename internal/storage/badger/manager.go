package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/proba/internal/common"
	"github.com/ternarybob/proba/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db      *BadgerDB
	route   interfaces.RouteStorage
	result  interfaces.ResultStorage
	history interfaces.HistoryStorage
	batch   interfaces.BatchStorage
	logger  arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:      db,
		route:   NewRouteStorage(db, logger),
		result:  NewResultStorage(db, logger),
		history: NewHistoryStorage(db, logger),
		batch:   NewBatchStorage(db, logger),
		logger:  logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// RouteStorage returns the Route storage interface
func (m *Manager) RouteStorage() interfaces.RouteStorage {
	return m.route
}

// ResultStorage returns the Result storage interface
func (m *Manager) ResultStorage() interfaces.ResultStorage {
	return m.result
}

// HistoryStorage returns the run history storage interface
func (m *Manager) HistoryStorage() interfaces.HistoryStorage {
	return m.history
}

// BatchStorage returns the Batch storage interface
func (m *Manager) BatchStorage() interfaces.BatchStorage {
	return m.batch
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
