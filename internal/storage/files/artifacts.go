// -----------------------------------------------------------------------
// File Artifact Store - Route files in, result/fixed-route files out
// -----------------------------------------------------------------------

package files

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/proba/internal/common"
	"github.com/ternarybob/proba/internal/interfaces"
	"github.com/ternarybob/proba/internal/models"
)

const timestampLayout = "20060102_150405"

// routeFilePattern matches the route_<timestamp>.json naming convention so a
// result file can reuse the same suffix and the pair stays one-to-one
var routeFilePattern = regexp.MustCompile(`^route_(.+)\.json$`)

// unsafeChars collapses anything outside [a-zA-Z0-9._-] in artifact names
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Config holds the artifact directory layout
type Config struct {
	ResultsDir     string
	FixedRoutesDir string
	ScreenshotsDir string
	SnapshotsDir   string
}

// Store implements ArtifactStore on a filesystem. The filesystem is injected
// so tests run against an in-memory one.
type Store struct {
	fs     afero.Fs
	cfg    Config
	logger arbor.ILogger
}

// NewStore creates a file artifact store rooted at the configured directories
func NewStore(fs afero.Fs, cfg Config, logger arbor.ILogger) (interfaces.ArtifactStore, error) {
	if logger == nil {
		logger = common.GetLogger()
	}
	if cfg.ResultsDir == "" {
		cfg.ResultsDir = "results"
	}
	if cfg.FixedRoutesDir == "" {
		cfg.FixedRoutesDir = "fixed_routes"
	}
	if cfg.ScreenshotsDir == "" {
		cfg.ScreenshotsDir = "screenshots"
	}
	if cfg.SnapshotsDir == "" {
		cfg.SnapshotsDir = "snapshots"
	}

	for _, dir := range []string{cfg.ResultsDir, cfg.FixedRoutesDir, cfg.ScreenshotsDir, cfg.SnapshotsDir} {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
		}
	}

	return &Store{fs: fs, cfg: cfg, logger: logger}, nil
}

// LoadRoute reads and validates a route file
func (s *Store) LoadRoute(path string) (*models.Route, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read route file %s: %w", path, err)
	}

	var route models.Route
	if err := json.Unmarshal(data, &route); err != nil {
		return nil, fmt.Errorf("failed to parse route file %s: %w", path, err)
	}
	if err := route.Validate(); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("path", path).
		Str("route_id", route.RouteID).
		Int("steps", len(route.Steps)).
		Msg("Route loaded")
	return &route, nil
}

// LoadBatchMetadata reads a batch metadata file
func (s *Store) LoadBatchMetadata(path string) (*models.BatchMetadata, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch metadata %s: %w", path, err)
	}

	var metadata models.BatchMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse batch metadata %s: %w", path, err)
	}
	if metadata.BatchID == "" {
		metadata.BatchID = common.NewBatchID()
		s.logger.Warn().
			Str("path", path).
			Str("batch_id", metadata.BatchID).
			Msg("Batch metadata missing batch_id, generated one")
	}
	if len(metadata.Categories) == 0 {
		return nil, fmt.Errorf("batch metadata %s has no categories", path)
	}
	return &metadata, nil
}

// SaveResult writes result_<timestamp>.json next to the other results. When
// the route file follows the route_<timestamp>.json convention the result
// reuses its suffix; otherwise the current time is used.
func (s *Store) SaveResult(result *models.ExecutionResult, routeFile string) (string, error) {
	suffix := time.Now().Format(timestampLayout)
	if m := routeFilePattern.FindStringSubmatch(filepath.Base(routeFile)); m != nil {
		suffix = m[1]
	}

	path := filepath.Join(s.cfg.ResultsDir, fmt.Sprintf("result_%s.json", suffix))
	if err := s.writeJSON(path, result); err != nil {
		return "", err
	}

	s.logger.Info().
		Str("path", path).
		Str("route_id", result.RouteID).
		Msg("Execution result written")
	return path, nil
}

// SaveFixedRoute writes a repaired route as a new file, never overwriting
// the original route file
func (s *Store) SaveFixedRoute(route *models.Route) (string, error) {
	timestamp := route.FixTimestamp
	if timestamp == "" {
		timestamp = time.Now().Format(timestampLayout)
	}

	name := fmt.Sprintf("fixed_route_%s_%s.json", sanitize(route.OriginalRouteID), timestamp)
	path := filepath.Join(s.cfg.FixedRoutesDir, name)
	if err := s.writeJSON(path, route); err != nil {
		return "", err
	}

	s.logger.Info().
		Str("path", path).
		Str("route_id", route.RouteID).
		Str("original_route_id", route.OriginalRouteID).
		Msg("Fixed route written")
	return path, nil
}

// SaveBatchResult writes batch_result_<batch_id>.json
func (s *Store) SaveBatchResult(result *models.BatchResult) (string, error) {
	path := filepath.Join(s.cfg.ResultsDir, fmt.Sprintf("batch_result_%s.json", sanitize(result.BatchID)))
	if err := s.writeJSON(path, result); err != nil {
		return "", err
	}

	s.logger.Info().
		Str("path", path).
		Str("batch_id", result.BatchID).
		Msg("Batch result written")
	return path, nil
}

// SaveScreenshot writes a PNG capture named after the step label
func (s *Store) SaveScreenshot(label string, png []byte) (string, error) {
	name := fmt.Sprintf("%s_%s.png", sanitize(label), time.Now().Format(timestampLayout))
	path := filepath.Join(s.cfg.ScreenshotsDir, name)
	if err := afero.WriteFile(s.fs, path, png, 0644); err != nil {
		return "", fmt.Errorf("failed to write screenshot %s: %w", path, err)
	}
	return path, nil
}

// SaveDOMSnapshot writes the page HTML captured at a failure
func (s *Store) SaveDOMSnapshot(label string, html string) (string, error) {
	name := fmt.Sprintf("%s_%s.html", sanitize(label), time.Now().Format(timestampLayout))
	path := filepath.Join(s.cfg.SnapshotsDir, name)
	if err := afero.WriteFile(s.fs, path, []byte(html), 0644); err != nil {
		return "", fmt.Errorf("failed to write DOM snapshot %s: %w", path, err)
	}
	return path, nil
}

func (s *Store) writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := afero.WriteFile(s.fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func sanitize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unnamed"
	}
	return unsafeChars.ReplaceAllString(name, "_")
}
