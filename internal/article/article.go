package article

import (
	"fmt"
	"strings"
	"time"
)

const (
	SummaryMaxRunes = 500
	DefaultTitle    = "No Title"
)

type SourceType string

const (
	SourceTypeFeed   SourceType = "feed"
	SourceTypeScrape SourceType = "scrape"
)

func (t SourceType) Valid() bool {
	return t == SourceTypeFeed || t == SourceTypeScrape
}

// ParseSourceType accepts "rss" and "atom" as aliases of feed. An empty
// value defaults to feed.
func ParseSourceType(s string) (SourceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "feed", "rss", "atom":
		return SourceTypeFeed, nil
	case "scrape", "web", "html":
		return SourceTypeScrape, nil
	}
	return "", fmt.Errorf("unknown source type %q", s)
}

const DefaultFetchIntervalSeconds = 3600

// Article is the canonical, storage-ready record produced from any source.
type Article struct {
	ID             int64      `json:"id"`
	URL            string     `json:"url"`
	IdentityHash   string     `json:"identity_hash"`
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	Summary        string     `json:"summary"`
	Author         string     `json:"author,omitempty"`
	SourceName     string     `json:"source_name"`
	Category       string     `json:"category,omitempty"`
	Tags           []string   `json:"tags"`
	PublishedAt    Published  `json:"published_at"`
	ScrapedAt      *time.Time `json:"scraped_at,omitempty"`
	IsRead         bool       `json:"is_read"`
	IsStarred      bool       `json:"is_starred"`
	RelevanceScore float64    `json:"relevance_score"`
	ImageURL       string     `json:"image_url,omitempty"`
}

type Source struct {
	ID                   int64      `json:"id"`
	Name                 string     `json:"name"`
	URL                  string     `json:"url"`
	FeedURL              string     `json:"feed_url,omitempty"`
	SourceType           SourceType `json:"source_type"`
	Category             string     `json:"category,omitempty"`
	IsActive             bool       `json:"is_active"`
	LastFetchedAt        *time.Time `json:"last_fetched_at"`
	FetchIntervalSeconds int        `json:"fetch_interval_seconds"`
}

// DueAt reports whether the source should be fetched by a scheduled run at now.
func (s Source) DueAt(now time.Time) bool {
	if s.LastFetchedAt == nil {
		return true
	}
	interval := s.FetchIntervalSeconds
	if interval <= 0 {
		interval = DefaultFetchIntervalSeconds
	}
	return !s.LastFetchedAt.Add(time.Duration(interval) * time.Second).After(now)
}

// Context is the per-source metadata stamped onto every normalized article.
type Context struct {
	SourceName string
	Category   string
}

type Keyword struct {
	ID       int64   `json:"id"`
	Keyword  string  `json:"keyword"`
	Category string  `json:"category,omitempty"`
	Weight   float64 `json:"weight"`
	IsActive bool    `json:"is_active"`
}

type Stats struct {
	Total         int            `json:"total"`
	Unread        int            `json:"unread"`
	Starred       int            `json:"starred"`
	ByCategory    map[string]int `json:"by_category"`
	ActiveSources int            `json:"active_sources"`
}

const UncategorizedKey = "uncategorized"

// Filter selects articles; all set fields are combined with AND.
type Filter struct {
	Category    string
	SourceName  string
	StarredOnly bool
	UnreadOnly  bool
	Search      string
}
