package tasks

import (
	"context"
	"time"

	"github.com/lysyi3m/news-curator/internal/article"
	"github.com/lysyi3m/news-curator/internal/normalize"
)

// Fetcher produces raw entries for one source.
type Fetcher interface {
	Fetch(ctx context.Context, src article.Source) ([]normalize.Entry, error)
}

type ArticleStore interface {
	InsertIfNew(ctx context.Context, a article.Article) (int64, bool, error)
}

type SourceStore interface {
	GetSource(ctx context.Context, id int64) (*article.Source, error)
	ListSources(ctx context.Context, activeOnly bool) ([]article.Source, error)
	ListDueSources(ctx context.Context, now time.Time) ([]article.Source, error)
	RecordFetchAttempt(ctx context.Context, sourceID int64) error
}

type Purger interface {
	PurgeExpired(ctx context.Context, retentionDays int) (int64, error)
}

// Runner is the orchestrator surface the scheduler drives.
type Runner interface {
	RunAll(ctx context.Context, opts RunOptions) (RunReport, error)
	RunOne(ctx context.Context, sourceID int64) (SourceResult, error)
}
