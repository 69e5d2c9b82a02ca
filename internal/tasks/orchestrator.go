package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/news-curator/internal/article"
	"github.com/lysyi3m/news-curator/internal/normalize"
)

var (
	ErrSourceNotFound  = errors.New("source not found")
	ErrFetchInProgress = errors.New("source fetch already in progress")
)

const DefaultFetchDelay = time.Second

// SourceResult is the outcome of fetching one source. Err is set when the
// fetch itself failed; Failed counts articles the store rejected.
type SourceResult struct {
	SourceID   int64         `json:"source_id"`
	SourceName string        `json:"source_name"`
	Fetched    int           `json:"fetched"`
	Added      int           `json:"added"`
	Duplicates int           `json:"duplicates"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Err        error         `json:"-"`
	Duration   time.Duration `json:"duration"`
}

type RunReport struct {
	Sources    []SourceResult `json:"sources"`
	TotalAdded int            `json:"total_added"`
}

type RunOptions struct {
	// DueOnly restricts the run to sources whose fetch interval has elapsed.
	DueOnly bool
}

type OrchestratorOptions struct {
	Workers int
	// Delay is the pause a worker takes between two consecutive source
	// fetches.
	Delay time.Duration
}

var _ Runner = (*Orchestrator)(nil)

type Orchestrator struct {
	registry *Registry
	articles ArticleStore
	sources  SourceStore
	workers  int
	delay    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time

	mu       sync.Mutex
	inFlight map[int64]bool
}

func NewOrchestrator(registry *Registry, articles ArticleStore, sources SourceStore, opts OrchestratorOptions) *Orchestrator {
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Orchestrator{
		registry: registry,
		articles: articles,
		sources:  sources,
		workers:  workers,
		delay:    opts.Delay,
		sleep:    sleepContext,
		now:      time.Now,
		inFlight: make(map[int64]bool),
	}
}

// RunAll fetches every active source (or only the due ones). A failing
// source never stops the run; its error is reported in its SourceResult.
func (o *Orchestrator) RunAll(ctx context.Context, opts RunOptions) (RunReport, error) {
	task := NewTask(TaskTypeFetchAll, "")
	task.Start()

	var sources []article.Source
	var err error
	if opts.DueOnly {
		sources, err = o.sources.ListDueSources(ctx, o.now())
	} else {
		sources, err = o.sources.ListSources(ctx, true)
	}
	if err != nil {
		return RunReport{}, fmt.Errorf("failed to list sources: %w", err)
	}

	results := make([]SourceResult, len(sources))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < min(o.workers, len(sources)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			first := true
			for i := range jobs {
				if !first {
					if err := o.sleep(ctx, o.delay); err != nil {
						results[i] = SourceResult{SourceID: sources[i].ID, SourceName: sources[i].Name, Err: err}
						continue
					}
				}
				first = false
				results[i] = o.guardedRun(ctx, sources[i])
			}
		}()
	}

	for i := range sources {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	report := RunReport{Sources: results}
	failedSources := 0
	for _, r := range results {
		report.TotalAdded += r.Added
		if r.Err != nil {
			failedSources++
		}
	}

	slog.Info("Task completed",
		"task_id", task.ID,
		"type", string(task.Type),
		"duration", task.GetDuration(),
		"sources", len(sources),
		"failed_sources", failedSources,
		"added", report.TotalAdded)

	return report, nil
}

// RunOne fetches a single source by id, active or not.
func (o *Orchestrator) RunOne(ctx context.Context, sourceID int64) (SourceResult, error) {
	src, err := o.sources.GetSource(ctx, sourceID)
	if err != nil {
		return SourceResult{}, fmt.Errorf("failed to get source: %w", err)
	}
	if src == nil {
		return SourceResult{}, ErrSourceNotFound
	}

	result := o.guardedRun(ctx, *src)
	if errors.Is(result.Err, ErrFetchInProgress) {
		return result, ErrFetchInProgress
	}
	return result, nil
}

func (o *Orchestrator) guardedRun(ctx context.Context, src article.Source) SourceResult {
	if !o.acquire(src.ID) {
		slog.Warn("Source fetch already in progress, skipping", "source", src.Name)
		return SourceResult{SourceID: src.ID, SourceName: src.Name, Err: ErrFetchInProgress}
	}
	defer o.release(src.ID)

	return o.runSource(ctx, src)
}

func (o *Orchestrator) acquire(id int64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight[id] {
		return false
	}
	o.inFlight[id] = true
	return true
}

func (o *Orchestrator) release(id int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, id)
}

// runSource fetches, normalizes and stores one source. The fetch attempt is
// recorded on every path, including a panic in the fetcher.
func (o *Orchestrator) runSource(ctx context.Context, src article.Source) (result SourceResult) {
	task := NewTask(TaskTypeFetchSource, src.Name)
	task.Start()
	result = SourceResult{SourceID: src.ID, SourceName: src.Name}

	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("panic while fetching source: %v", r)
		}

		if err := o.sources.RecordFetchAttempt(context.WithoutCancel(ctx), src.ID); err != nil {
			slog.Error("Failed to record fetch attempt", "source", src.Name, "error", err)
		}

		result.Duration = task.GetDuration()
		if result.Err != nil {
			slog.Error("Task failed", "task_id", task.ID, "type", string(task.Type),
				"source", task.SourceName, "duration", result.Duration, "error", result.Err)
			return
		}
		slog.Info("Task completed",
			"task_id", task.ID,
			"type", string(task.Type),
			"source", task.SourceName,
			"duration", result.Duration,
			"total", result.Fetched,
			"new", result.Added,
			"duplicates", result.Duplicates,
			"skipped", result.Skipped,
			"failed", result.Failed)
	}()

	fetcher, err := o.registry.Get(src.SourceType)
	if err != nil {
		result.Err = err
		return result
	}

	entries, err := fetcher.Fetch(ctx, src)
	result.Fetched = len(entries)
	if err != nil {
		result.Err = err
	}

	articles, skipped := normalize.Batch(entries, article.Context{SourceName: src.Name, Category: src.Category})
	result.Skipped = len(skipped)

	for _, a := range articles {
		_, inserted, err := o.articles.InsertIfNew(ctx, a)
		switch {
		case err != nil:
			result.Failed++
			slog.Warn("Failed to store article", "source", src.Name, "url", a.URL, "error", err)
		case inserted:
			result.Added++
		default:
			result.Duplicates++
		}
	}

	return result
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
