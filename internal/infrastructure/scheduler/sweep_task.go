package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"shopify-ledger-sync/internal/application"
	"shopify-ledger-sync/internal/domain"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultSchedule runs the sweep daily at midnight
const DefaultSchedule = "0 0 * * *"

const defaultSweepTimeout = 6 * time.Hour

// SweepRunner runs one auto-sync sweep
type SweepRunner interface {
	RunSweep(ctx context.Context) ([]*domain.SweepReport, error)
}

// SweepTask triggers the auto-sync sweep on a cron schedule
type SweepTask struct {
	runner   SweepRunner
	cron     *cron.Cron
	schedule string
	timeout  time.Duration
	logger   zerolog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSweepTask creates a task. An empty schedule means DefaultSchedule, in UTC.
func NewSweepTask(runner SweepRunner, schedule string, timeout time.Duration, logger zerolog.Logger) *SweepTask {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if timeout <= 0 {
		timeout = defaultSweepTimeout
	}
	return &SweepTask{
		runner:   runner,
		cron:     cron.New(cron.WithLocation(time.UTC)),
		schedule: schedule,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start registers the schedule and starts the cron loop. Sweeps are cancelled when ctx ends or Stop is called.
func (t *SweepTask) Start(ctx context.Context) error {
	t.mu.Lock()
	t.ctx, t.cancel = context.WithCancel(ctx)
	t.mu.Unlock()

	if _, err := t.cron.AddFunc(t.schedule, t.run); err != nil {
		t.cancel()
		return fmt.Errorf("failed to schedule auto-sync %q: %w", t.schedule, err)
	}
	t.cron.Start()
	t.logger.Info().Str("schedule", t.schedule).Msg("Auto-sync scheduler started")
	return nil
}

// Stop cancels a running sweep and waits for it to return
func (t *SweepTask) Stop() {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.mu.Unlock()

	<-t.cron.Stop().Done()
	t.logger.Info().Msg("Auto-sync scheduler stopped")
}

func (t *SweepTask) run() {
	t.mu.Lock()
	parent := t.ctx
	t.mu.Unlock()
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := context.WithTimeout(parent, t.timeout)
	defer cancel()

	start := time.Now()
	reports, err := t.runner.RunSweep(ctx)
	switch {
	case errors.Is(err, application.ErrSweepInProgress):
		t.logger.Warn().Msg("Skipping scheduled auto-sync, previous sweep still running")
	case err != nil:
		t.logger.Error().
			Err(err).
			Int("connections", len(reports)).
			Dur("duration", time.Since(start)).
			Msg("Scheduled auto-sync ended early")
	default:
		t.logger.Info().
			Int("connections", len(reports)).
			Dur("duration", time.Since(start)).
			Msg("Scheduled auto-sync finished")
	}
}
