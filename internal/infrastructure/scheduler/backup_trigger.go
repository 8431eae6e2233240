// Package scheduler runs recurring backups on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	backupapp "github.com/dinarbooks/backend/internal/application/backup"
	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/infrastructure/config"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// BackupRunner creates and prunes archives
type BackupRunner interface {
	Create(ctx context.Context, name string) (*backupapp.Info, error)
	Prune(ctx context.Context, prefix string, maxAge time.Duration) (int, error)
}

// BackupJob is one recurring backup. Archives are named
// <kind>_backup_<time formatted with NameLayout>.
type BackupJob struct {
	Kind       string
	Schedule   string
	Retention  time.Duration
	NameLayout string
}

// Prefix is the name prefix shared by every archive of the job
func (j BackupJob) Prefix() string {
	return j.Kind + "_backup_"
}

// NameAt is the archive name for a run at t
func (j BackupJob) NameAt(t time.Time) string {
	return j.Prefix() + t.Format(j.NameLayout)
}

// BackupJobsFromConfig returns the daily, weekly and monthly jobs
func BackupJobsFromConfig(cfg config.BackupConfig) []BackupJob {
	return []BackupJob{
		{Kind: "daily", Schedule: cfg.DailySchedule, Retention: cfg.DailyRetention, NameLayout: "20060102"},
		{Kind: "weekly", Schedule: cfg.WeeklySchedule, Retention: cfg.WeeklyRetention, NameLayout: "20060102"},
		{Kind: "monthly", Schedule: cfg.MonthlySchedule, Retention: cfg.MonthlyRetention, NameLayout: "200601"},
	}
}

// BackupTriggerConfig holds configuration for the backup trigger
type BackupTriggerConfig struct {
	Jobs []BackupJob

	// CheckInterval is how often to check whether a job is due
	CheckInterval time.Duration
}

type scheduledJob struct {
	BackupJob
	schedule cron.Schedule
	next     time.Time
}

// BackupTrigger fires backup jobs when their schedule comes due
type BackupTrigger struct {
	config BackupTriggerConfig
	runner BackupRunner
	logger *zap.Logger
	now    func() time.Time

	jobs      []*scheduledJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewBackupTrigger parses every job schedule
func NewBackupTrigger(cfg BackupTriggerConfig, runner BackupRunner, logger *zap.Logger) (*BackupTrigger, error) {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	jobs := make([]*scheduledJob, 0, len(cfg.Jobs))
	for _, j := range cfg.Jobs {
		schedule, err := cron.ParseStandard(j.Schedule)
		if err != nil {
			return nil, fmt.Errorf("backup job %s: invalid schedule %q: %w", j.Kind, j.Schedule, err)
		}
		jobs = append(jobs, &scheduledJob{BackupJob: j, schedule: schedule})
	}
	return &BackupTrigger{
		config: cfg,
		runner: runner,
		logger: logger,
		now:    time.Now,
		jobs:   jobs,
	}, nil
}

// WithClock replaces the time source
func (t *BackupTrigger) WithClock(now func() time.Time) *BackupTrigger {
	t.now = now
	return t
}

// Start schedules every job from now and starts the check loop
func (t *BackupTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.arm(t.now())
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	for _, j := range t.jobs {
		t.logger.Info("Backup job scheduled",
			zap.String("kind", j.Kind),
			zap.String("schedule", j.Schedule),
			zap.Time("next_run", j.next),
			zap.Duration("retention", j.Retention),
		)
	}
	return nil
}

// Stop stops the trigger, waiting for a running job up to ctx's deadline
func (t *BackupTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Backup trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *BackupTrigger) arm(from time.Time) {
	for _, j := range t.jobs {
		j.next = j.schedule.Next(from)
	}
}

func (t *BackupTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndTrigger(ctx, t.now())
		}
	}
}

// checkAndTrigger runs every job whose next run is at or before now. A job
// missed across several intervals runs once.
func (t *BackupTrigger) checkAndTrigger(ctx context.Context, now time.Time) {
	t.mu.Lock()
	var due []BackupJob
	for _, j := range t.jobs {
		if j.next.IsZero() || now.Before(j.next) {
			continue
		}
		j.next = j.schedule.Next(now)
		due = append(due, j.BackupJob)
	}
	t.mu.Unlock()

	for _, j := range due {
		t.run(ctx, j, now)
	}
}

func (t *BackupTrigger) run(ctx context.Context, j BackupJob, now time.Time) {
	name := j.NameAt(now)
	info, err := t.runner.Create(ctx, name)
	switch {
	case errors.Is(err, shared.ErrAlreadyExists):
		t.logger.Info("Backup already taken", zap.String("name", name))
	case err != nil:
		t.logger.Error("Scheduled backup failed", zap.String("kind", j.Kind), zap.String("name", name), zap.Error(err))
		return
	default:
		t.logger.Info("Scheduled backup completed", zap.String("name", info.Name), zap.Int64("size", info.Size))
	}

	if j.Retention <= 0 {
		return
	}
	removed, err := t.runner.Prune(ctx, j.Prefix(), j.Retention)
	if err != nil {
		t.logger.Error("Backup cleanup failed", zap.String("kind", j.Kind), zap.Error(err))
		return
	}
	if removed > 0 {
		t.logger.Info("Old backups removed", zap.String("kind", j.Kind), zap.Int("count", removed))
	}
}
