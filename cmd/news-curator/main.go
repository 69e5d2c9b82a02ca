package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lysyi3m/news-curator/internal/api"
	"github.com/lysyi3m/news-curator/internal/article"
	"github.com/lysyi3m/news-curator/internal/cfg"
	"github.com/lysyi3m/news-curator/internal/database"
	"github.com/lysyi3m/news-curator/internal/feed"
	"github.com/lysyi3m/news-curator/internal/httpclient"
	"github.com/lysyi3m/news-curator/internal/scrape"
	"github.com/lysyi3m/news-curator/internal/tasks"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	c, err := cfg.Load(os.Args[1:])
	if err != nil {
		return err
	}
	if c == nil {
		return nil
	}

	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting News Curator", "version", c.Version)

	db, err := database.NewConnection(c.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database ready", "path", c.DBPath, "schema_version", version, "dirty", dirty)

	articleRepo := database.NewArticleRepository(db)
	sourceRepo := database.NewSourceRepository(db)
	keywordRepo := database.NewKeywordRepository(db)

	if err := seedSources(context.Background(), sourceRepo, c.SourcesFile); err != nil {
		return err
	}

	registry := tasks.NewRegistry()
	registry.Register(article.SourceTypeFeed,
		feed.NewFetcher(httpclient.New(c.UserAgent, c.Timeout), feed.NewParser()))
	registry.Register(article.SourceTypeScrape,
		scrape.NewFetcher(httpclient.New(c.ScrapeUserAgent, c.Timeout), scrape.NewExtractor(true), scrape.Options{
			MaxLinks: c.MaxLinks,
			Delay:    c.FetchDelay,
			Known:    articleRepo,
		}))

	orchestrator := tasks.NewOrchestrator(registry, articleRepo, sourceRepo, tasks.OrchestratorOptions{
		Workers: c.WorkerCount,
		Delay:   c.FetchDelay,
	})

	if c.Once {
		return runOnce(orchestrator)
	}

	scheduler, err := tasks.NewScheduler(orchestrator, articleRepo, tasks.SchedulerOptions{
		FetchSpec:     c.FetchCron,
		CleanupSpec:   c.CleanupCron,
		RetentionDays: c.RetentionDays,
	})
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(articleRepo, sourceRepo, keywordRepo, scheduler, c.Version)

	httpServer := &http.Server{
		Addr:         ":" + c.Port,
		Handler:      api.NewServer(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", c.Port, "fetch_cron", c.FetchCron, "workers", c.WorkerCount)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("News Curator shutdown complete")
	return nil
}

// seedSources fills an empty store from the sources file, or from the
// built-in list when that file does not exist.
func seedSources(ctx context.Context, repo database.SourceRepository, path string) error {
	count, err := repo.CountSources(ctx)
	if err != nil {
		return fmt.Errorf("failed to count sources: %w", err)
	}
	if count > 0 {
		return nil
	}

	sources, err := cfg.LoadSources(path)
	if err != nil {
		return fmt.Errorf("failed to load sources from %s: %w", path, err)
	}

	for _, src := range sources {
		if _, err := repo.UpsertSource(ctx, src); err != nil {
			return fmt.Errorf("failed to add source %s: %w", src.Name, err)
		}
	}
	slog.Info("Seeded sources", "count", len(sources), "file", path)
	return nil
}

func runOnce(orchestrator *tasks.Orchestrator) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := orchestrator.RunAll(ctx, tasks.RunOptions{})
	if err != nil {
		return err
	}

	for _, r := range report.Sources {
		if r.Err != nil {
			slog.Warn("Source failed", "source", r.SourceName, "error", r.Err)
		}
	}
	slog.Info("Fetch complete", "sources", len(report.Sources), "added", report.TotalAdded)
	return nil
}
