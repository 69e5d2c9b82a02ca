package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

type SchedulerOptions struct {
	FetchSpec     string
	CleanupSpec   string
	RetentionDays int
}

// Scheduler runs periodic fetches of due sources and retention cleanup, and
// starts on-demand runs in the background.
type Scheduler struct {
	cron          *cron.Cron
	runner        Runner
	purger        Purger
	retentionDays int

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewScheduler(runner Runner, purger Purger, opts SchedulerOptions) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())

	logger := cronLogger{}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger)))

	s := &Scheduler{
		cron:          c,
		runner:        runner,
		purger:        purger,
		retentionDays: opts.RetentionDays,
		ctx:           ctx,
		cancel:        cancel,
	}

	if opts.FetchSpec != "" {
		if _, err := c.AddFunc(opts.FetchSpec, func() { s.runAll(RunOptions{DueOnly: true}) }); err != nil {
			cancel()
			return nil, fmt.Errorf("invalid fetch schedule %q: %w", opts.FetchSpec, err)
		}
	}
	if opts.CleanupSpec != "" {
		if _, err := c.AddFunc(opts.CleanupSpec, s.cleanup); err != nil {
			cancel()
			return nil, fmt.Errorf("invalid cleanup schedule %q: %w", opts.CleanupSpec, err)
		}
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Debug("Scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop cancels running fetches and waits for scheduled and background
// runs to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

// TriggerAll starts a full run of every active source in the background. It
// returns false when a full run is already in progress.
func (s *Scheduler) TriggerAll() bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		s.execute(RunOptions{})
	}()
	return true
}

// TriggerOne starts a fetch of one source in the background.
func (s *Scheduler) TriggerOne(sourceID int64) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.runner.RunOne(s.ctx, sourceID); err != nil {
			slog.Warn("Source fetch not run", "source_id", sourceID, "error", err)
		}
	}()
}

// Cleanup purges expired articles using the configured retention.
func (s *Scheduler) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	task := NewTask(TaskTypeCleanup, "")
	task.Start()

	deleted, err := s.purger.PurgeExpired(ctx, retentionDays)
	if err != nil {
		slog.Error("Task failed", "task_id", task.ID, "type", string(task.Type), "error", err)
		return 0, err
	}

	slog.Info("Task completed",
		"task_id", task.ID,
		"type", string(task.Type),
		"duration", task.GetDuration(),
		"retention_days", retentionDays,
		"deleted", deleted)

	return deleted, nil
}

func (s *Scheduler) runAll(opts RunOptions) {
	if !s.running.CompareAndSwap(false, true) {
		slog.Debug("Fetch run already in progress, skipping scheduled run")
		return
	}
	defer s.running.Store(false)
	s.execute(opts)
}

func (s *Scheduler) execute(opts RunOptions) {
	if _, err := s.runner.RunAll(s.ctx, opts); err != nil {
		slog.Error("Fetch run failed", "error", err)
	}
}

func (s *Scheduler) cleanup() {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()
	s.Cleanup(ctx, s.retentionDays)
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
