// -----------------------------------------------------------------------
// Scheduler - Cron-driven recurring batch execution
// -----------------------------------------------------------------------

package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/proba/internal/orchestrator"
)

// cronParser accepts the standard five-field spec plus descriptors
// like @hourly
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateSchedule reports whether the expression parses as a cron schedule
func ValidateSchedule(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	return nil
}

// Scheduler re-runs a batch metadata file on a cron schedule. Overlapping
// runs are skipped: a tick that fires while the previous batch is still
// executing is dropped, not queued.
type Scheduler struct {
	batches      *orchestrator.BatchOrchestrator
	metadataPath string
	cron         *cron.Cron
	running      sync.Mutex
	logger       arbor.ILogger
}

// New creates a scheduler for the given batch metadata file
func New(batches *orchestrator.BatchOrchestrator, metadataPath string, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		batches:      batches,
		metadataPath: metadataPath,
		cron:         cron.New(cron.WithParser(cronParser)),
		logger:       logger,
	}
}

// Start registers the schedule and begins ticking. It returns immediately;
// batches run on the cron goroutine until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context, schedule string) error {
	if err := ValidateSchedule(schedule); err != nil {
		return err
	}

	_, err := s.cron.AddFunc(schedule, func() { s.tick(ctx) })
	if err != nil {
		return fmt.Errorf("failed to register schedule: %w", err)
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", schedule).
		Str("batch_file", s.metadataPath).
		Msg("Batch scheduler started")

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts the schedule and waits for an in-flight batch to finish
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info().Msg("Batch scheduler stopped")
}

func (s *Scheduler) tick(ctx context.Context) {
	if !s.running.TryLock() {
		s.logger.Warn().Msg("Previous batch still running, skipping this tick")
		return
	}
	defer s.running.Unlock()

	if ctx.Err() != nil {
		return
	}

	result, err := s.batches.ExecuteBatch(ctx, s.metadataPath)
	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled batch failed to run")
		return
	}

	s.logger.Info().
		Str("batch_id", result.BatchID).
		Int("total", result.TotalRoutes).
		Int("failed", result.Failed).
		Msg("Scheduled batch finished")
}
