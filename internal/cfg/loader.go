package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/robfig/cron/v3"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath      string `long:"db-path" env:"DB_PATH" default:"./data/news_curator.db" description:"SQLite database file"`
	SourcesFile string `long:"sources-file" env:"SOURCES_FILE" default:"./sources.yml" description:"YAML file with sources seeded into an empty database"`

	// Application configuration
	Port            string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	UserAgent       string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (compatible; NewsCurator/1.0; +http://example.com/bot)" description:"User agent for feed requests"`
	ScrapeUserAgent string `long:"scrape-user-agent" env:"SCRAPE_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36" description:"User agent for scraped pages"`
	Timeout         int    `long:"timeout" env:"FETCH_TIMEOUT" default:"30" description:"HTTP request timeout in seconds"`
	FetchDelay      int    `long:"fetch-delay" env:"FETCH_DELAY" default:"1" description:"Delay in seconds between consecutive requests"`
	WorkerCount     int    `long:"worker-count" env:"WORKER_COUNT" default:"1" description:"Number of sources fetched concurrently"`
	MaxLinks        int    `long:"max-links" env:"MAX_LINKS" default:"20" description:"Maximum article links followed per scraped page"`

	// Scheduling
	FetchCron     string `long:"fetch-cron" env:"FETCH_CRON" default:"*/15 * * * *" description:"Cron schedule for fetching due sources"`
	CleanupCron   string `long:"cleanup-cron" env:"CLEANUP_CRON" default:"0 3 * * *" description:"Cron schedule for purging old articles"`
	RetentionDays int    `long:"retention-days" env:"RETENTION_DAYS" default:"30" description:"Days to keep unstarred articles"`

	Debug bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`
	Once  bool `long:"once" description:"Fetch every active source once and exit"`
}

// Load parses args and the environment. It returns nil, nil when help was
// requested.
func Load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := raw.validate(); err != nil {
		return nil, err
	}

	return &Cfg{
		DBPath:          raw.DBPath,
		SourcesFile:     raw.SourcesFile,
		Port:            raw.Port,
		UserAgent:       raw.UserAgent,
		ScrapeUserAgent: raw.ScrapeUserAgent,
		Timeout:         time.Duration(raw.Timeout) * time.Second,
		FetchDelay:      time.Duration(raw.FetchDelay) * time.Second,
		WorkerCount:     raw.WorkerCount,
		MaxLinks:        raw.MaxLinks,
		FetchCron:       raw.FetchCron,
		CleanupCron:     raw.CleanupCron,
		RetentionDays:   raw.RetentionDays,
		Debug:           raw.Debug,
		Once:            raw.Once,
		Version:         GetVersion(),
	}, nil
}

func (r *rawCfg) validate() error {
	if r.DBPath == "" {
		return errors.New("db path is required")
	}
	if r.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", r.Timeout)
	}
	if r.FetchDelay < 0 {
		return fmt.Errorf("fetch delay must not be negative, got %d", r.FetchDelay)
	}
	if r.WorkerCount <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", r.WorkerCount)
	}
	if r.MaxLinks <= 0 {
		return fmt.Errorf("max links must be positive, got %d", r.MaxLinks)
	}
	if r.RetentionDays <= 0 {
		return fmt.Errorf("retention days must be positive, got %d", r.RetentionDays)
	}
	if _, err := cron.ParseStandard(r.FetchCron); err != nil {
		return fmt.Errorf("invalid fetch cron %q: %w", r.FetchCron, err)
	}
	if _, err := cron.ParseStandard(r.CleanupCron); err != nil {
		return fmt.Errorf("invalid cleanup cron %q: %w", r.CleanupCron, err)
	}
	return nil
}
