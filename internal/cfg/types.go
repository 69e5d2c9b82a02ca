package cfg

import "time"

type Cfg struct {
	// Storage
	DBPath      string
	SourcesFile string

	// HTTP server
	Port string

	// Fetching
	UserAgent       string
	ScrapeUserAgent string
	Timeout         time.Duration
	FetchDelay      time.Duration
	WorkerCount     int
	MaxLinks        int

	// Scheduling
	FetchCron     string
	CleanupCron   string
	RetentionDays int

	// Application metadata
	Debug   bool
	Once    bool
	Version string
}
