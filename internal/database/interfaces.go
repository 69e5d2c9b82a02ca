package database

import (
	"context"
	"errors"
	"time"

	"github.com/lysyi3m/news-curator/internal/article"
)

var (
	ErrArticleNotFound = errors.New("article not found")
	ErrSourceNotFound  = errors.New("source not found")
	ErrEmptyUpdate     = errors.New("no fields to update")
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// ArticleUpdate is a partial update; nil fields are left unchanged.
type ArticleUpdate struct {
	Title          *string
	Content        *string
	Summary        *string
	Author         *string
	Category       *string
	Tags           *[]string
	ImageURL       *string
	IsRead         *bool
	IsStarred      *bool
	RelevanceScore *float64
}

type ArticleRepository interface {
	// InsertIfNew reports inserted=false with a nil error when an article
	// with the same url or identity hash already exists.
	InsertIfNew(ctx context.Context, a article.Article) (id int64, inserted bool, err error)
	ExistsURL(ctx context.Context, url string) (bool, error)

	GetArticle(ctx context.Context, id int64) (*article.Article, error)
	GetArticles(ctx context.Context, filter article.Filter, limit, offset int) ([]article.Article, error)

	UpdateArticle(ctx context.Context, id int64, update ArticleUpdate) error
	MarkRead(ctx context.Context, id int64) error
	ToggleStar(ctx context.Context, id int64) (bool, error)

	ComputeStats(ctx context.Context) (article.Stats, error)
	Categories(ctx context.Context) ([]string, error)
	PurgeExpired(ctx context.Context, retentionDays int) (int64, error)
}

type SourceRepository interface {
	UpsertSource(ctx context.Context, src article.Source) (int64, error)
	GetSource(ctx context.Context, id int64) (*article.Source, error)
	ListSources(ctx context.Context, activeOnly bool) ([]article.Source, error)
	ListDueSources(ctx context.Context, now time.Time) ([]article.Source, error)
	CountSources(ctx context.Context) (int, error)
	RecordFetchAttempt(ctx context.Context, sourceID int64) error
}

type KeywordRepository interface {
	AddKeyword(ctx context.Context, keyword, category string, weight float64) (int64, error)
	ListKeywords(ctx context.Context) ([]article.Keyword, error)
}
