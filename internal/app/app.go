// -----------------------------------------------------------------------
// Application wiring - Builds the execution pipeline from configuration
// -----------------------------------------------------------------------

package app

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/proba/internal/common"
	"github.com/ternarybob/proba/internal/driver"
	"github.com/ternarybob/proba/internal/executor"
	"github.com/ternarybob/proba/internal/history"
	"github.com/ternarybob/proba/internal/interfaces"
	"github.com/ternarybob/proba/internal/orchestrator"
	"github.com/ternarybob/proba/internal/report"
	"github.com/ternarybob/proba/internal/resolver"
	badgerstore "github.com/ternarybob/proba/internal/storage/badger"
	"github.com/ternarybob/proba/internal/storage/files"
)

// App holds the wired execution pipeline
type App struct {
	Config    *common.Config
	Logger    arbor.ILogger
	Storage   interfaces.StorageManager
	Artifacts interfaces.ArtifactStore
	Routes    *orchestrator.RouteOrchestrator
	Batches   *orchestrator.BatchOrchestrator
	Reports   *report.Service
}

// New builds the application from configuration. Everything downstream of
// the config is constructed here; nothing else reads global state.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	storage, err := badgerstore.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	fs := afero.NewOsFs()
	artifacts, err := files.NewStore(fs, files.Config{
		ResultsDir:     config.Artifacts.ResultsDir,
		FixedRoutesDir: config.Artifacts.FixedRoutesDir,
		ScreenshotsDir: config.Artifacts.ScreenshotsDir,
		SnapshotsDir:   config.Artifacts.SnapshotsDir,
	}, logger)
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("failed to initialize artifact store: %w", err)
	}

	overrides := resolver.DefaultOverrides()
	if config.Resolver.OverridesFile != "" {
		overrides, err = resolver.LoadOverrides(config.Resolver.OverridesFile)
		if err != nil {
			storage.Close()
			return nil, err
		}
		logger.Info().Str("path", config.Resolver.OverridesFile).Msg("Manual override table loaded")
	}

	sessions := driver.NewFactory(driver.Config{
		Headless:     config.IsHeadless(),
		DisableGPU:   true,
		NoSandbox:    config.Browser.NoSandbox,
		UserAgent:    config.Browser.UserAgent,
		WindowWidth:  config.Browser.WindowWidth,
		WindowHeight: config.Browser.WindowHeight,
		StepTimeout:  common.Duration(config.Browser.StepTimeout, 0),
		WaitTimeout:  common.Duration(config.Browser.WaitTimeout, 0),
	}, logger)

	guard := history.NewGuard(
		storage.HistoryStorage(),
		common.Duration(config.History.DuplicateWindow, history.DefaultDuplicateWindow),
		logger,
	)

	routes := orchestrator.NewRouteOrchestrator(
		sessions,
		storage,
		artifacts,
		guard,
		overrides,
		resolver.Config{
			PatternWait: common.Duration(config.Resolver.PatternWait, 0),
			RetryDelay:  common.Duration(config.Resolver.RetryDelay, 0),
			Mobile:      config.Resolver.Mobile,
		},
		executor.Config{
			WaitTimeout:         common.Duration(config.Browser.WaitTimeout, 0),
			ScreenshotOnSuccess: config.Execution.ScreenshotOnSuccess,
		},
		logger,
	)

	reports := report.NewService(fs, config.Artifacts.ReportsDir, config.Report.PDF, logger)

	batches := orchestrator.NewBatchOrchestrator(
		routes,
		artifacts,
		storage,
		reports,
		common.Duration(config.Execution.RoutePause, orchestrator.DefaultRoutePause),
		logger,
	)

	return &App{
		Config:    config,
		Logger:    logger,
		Storage:   storage,
		Artifacts: artifacts,
		Routes:    routes,
		Batches:   batches,
		Reports:   reports,
	}, nil
}

// Close releases held resources
func (a *App) Close() error {
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
