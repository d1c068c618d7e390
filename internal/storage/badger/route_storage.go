package badger

import (
	"context"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/proba/internal/interfaces"
	"github.com/ternarybob/proba/internal/models"
)

// routeRecord is the stored form of a route, keyed by RouteID
type routeRecord struct {
	RouteID  string `badgerhold:"key"`
	Category string `badgerhold:"index"`
	Route    models.Route
}

// routeStorage implements RouteStorage using Badger
type routeStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRouteStorage creates a new Badger-backed route storage
func NewRouteStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RouteStorage {
	return &routeStorage{db: db, logger: logger}
}

// SaveRoute stores a route, replacing any prior record with the same ID
func (s *routeStorage) SaveRoute(ctx context.Context, route *models.Route) error {
	if route == nil || route.RouteID == "" {
		return fmt.Errorf("route requires a route_id")
	}

	record := routeRecord{
		RouteID:  route.RouteID,
		Category: route.Category,
		Route:    *route,
	}

	if err := s.db.Store().Upsert(route.RouteID, &record); err != nil {
		return fmt.Errorf("failed to save route %s: %w", route.RouteID, err)
	}

	s.logger.Debug().Str("route_id", route.RouteID).Msg("Route saved")
	return nil
}

// GetRoute retrieves a route by ID
func (s *routeStorage) GetRoute(ctx context.Context, routeID string) (*models.Route, error) {
	var record routeRecord
	if err := s.db.Store().Get(routeID, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("route not found: %s", routeID)
		}
		return nil, fmt.Errorf("failed to get route %s: %w", routeID, err)
	}
	route := record.Route
	return &route, nil
}

// ListRoutes returns routes, optionally filtered by category, sorted by ID
func (s *routeStorage) ListRoutes(ctx context.Context, category string) ([]*models.Route, error) {
	var records []routeRecord
	var err error

	if category != "" {
		err = s.db.Store().Find(&records, badgerhold.Where("Category").Eq(category))
	} else {
		err = s.db.Store().Find(&records, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].RouteID < records[j].RouteID
	})

	routes := make([]*models.Route, 0, len(records))
	for i := range records {
		route := records[i].Route
		routes = append(routes, &route)
	}
	return routes, nil
}

// CountRoutes returns the number of stored routes
func (s *routeStorage) CountRoutes(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&routeRecord{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count routes: %w", err)
	}
	return int(count), nil
}
