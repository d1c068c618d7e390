package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/proba/internal/app"
	"github.com/ternarybob/proba/internal/common"
	"github.com/ternarybob/proba/internal/scheduler"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	routeFile    = flag.String("route", "", "Route file to execute")
	routeFileR   = flag.String("r", "", "Route file to execute (shorthand)")
	batchFile    = flag.String("batch", "", "Batch metadata file to execute")
	batchFileB   = flag.String("b", "", "Batch metadata file to execute (shorthand)")
	watch        = flag.Bool("watch", false, "Keep running and re-execute the batch on the configured schedule")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	// Register custom flag for multiple config files
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Proba version %s\n", common.GetVersion())
		os.Exit(0)
	}

	route := *routeFile
	if *routeFileR != "" {
		route = *routeFileR
	}
	batch := *batchFile
	if *batchFileB != "" {
		batch = *batchFileB
	}

	if route == "" && batch == "" {
		fmt.Fprintln(os.Stderr, "Usage: proba -route <route.json> | -batch <batch_metadata.json>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Initialize logger
	// 3. Print banner
	var err error

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("proba.toml"); err == nil {
			configFiles = append(configFiles, "proba.toml")
		}
	}

	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger = common.InitLogger(config)
	common.PrintBanner(common.LoadVersionFromFile())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	exitCode := run(ctx, application, route, batch)
	application.Close()
	os.Exit(exitCode)
}

// run executes the requested work and maps the outcome to an exit code:
// 0 when everything passed, 1 on any step failure or fatal error.
func run(ctx context.Context, application *app.App, route, batch string) int {
	switch {
	case route != "":
		report, err := application.Routes.ExecuteRouteFile(ctx, route)
		if err != nil {
			logger.Error().Err(err).Str("route_file", route).Msg("Route execution failed")
			return 1
		}
		if !report.Result.Passed() {
			return 1
		}
		return 0

	case *watch && config.Scheduler.Enabled:
		sched := scheduler.New(application.Batches, batch, logger)
		if err := sched.Start(ctx, config.Scheduler.Schedule); err != nil {
			logger.Error().Err(err).Msg("Failed to start scheduler")
			return 1
		}
		<-ctx.Done()
		sched.Stop()
		return 0

	default:
		result, err := application.Batches.ExecuteBatch(ctx, batch)
		if err != nil {
			logger.Error().Err(err).Str("batch_file", batch).Msg("Batch execution failed")
			return 1
		}
		if !result.Passed() {
			return 1
		}
		return 0
	}
}
