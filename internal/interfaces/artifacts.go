package interfaces

import "github.com/ternarybob/proba/internal/models"

// ArtifactStore is the minimal read/write contract for on-disk artifacts:
// route files in, result and fixed-route files out, plus failure captures.
// Inputs are never overwritten; every save produces a new file.
type ArtifactStore interface {
	LoadRoute(path string) (*models.Route, error)
	LoadBatchMetadata(path string) (*models.BatchMetadata, error)

	// SaveResult writes result_<timestamp>.json, reusing the route file's
	// timestamp suffix when the route follows the route_<timestamp>.json
	// convention so the pair stays one-to-one.
	SaveResult(result *models.ExecutionResult, routeFile string) (string, error)
	SaveFixedRoute(route *models.Route) (string, error)
	SaveBatchResult(result *models.BatchResult) (string, error)

	SaveScreenshot(label string, png []byte) (string, error)
	SaveDOMSnapshot(label string, html string) (string, error)
}
