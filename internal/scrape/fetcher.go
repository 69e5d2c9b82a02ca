package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/news-curator/internal/article"
	"github.com/lysyi3m/news-curator/internal/httpclient"
	"github.com/lysyi3m/news-curator/internal/normalize"
)

const DefaultMaxLinks = 20

var ErrNoPageURL = errors.New("source has no url")

// KnownURLs reports whether an article URL is already stored, letting the
// fetcher skip detail requests for it.
type KnownURLs interface {
	ExistsURL(ctx context.Context, url string) (bool, error)
}

type Options struct {
	MaxLinks int
	// Delay is the pause between consecutive requests to the same site.
	Delay time.Duration
	Known KnownURLs
}

// Fetcher scrapes a source's index page for candidate links and extracts
// each candidate's detail page.
type Fetcher struct {
	client    httpclient.Getter
	extractor *Extractor
	maxLinks  int
	delay     time.Duration
	known     KnownURLs
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewFetcher(client httpclient.Getter, extractor *Extractor, opts Options) *Fetcher {
	maxLinks := opts.MaxLinks
	if maxLinks <= 0 {
		maxLinks = DefaultMaxLinks
	}
	return &Fetcher{
		client:    client,
		extractor: extractor,
		maxLinks:  maxLinks,
		delay:     opts.Delay,
		known:     opts.Known,
		sleep:     sleepContext,
	}
}

// FetchArticle extracts one article from a detail page.
func (f *Fetcher) FetchArticle(ctx context.Context, pageURL string) (*normalize.PageEntry, error) {
	body, err := f.client.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return f.extractor.Article(pageURL, body)
}

// FetchLinks returns the candidate article links of an index page.
func (f *Fetcher) FetchLinks(ctx context.Context, pageURL string) ([]Link, error) {
	body, err := f.client.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return f.extractor.Links(pageURL, body)
}

// Fetch treats src.URL as an index page. Candidates whose detail page cannot
// be fetched still yield an entry carrying the link text as title.
func (f *Fetcher) Fetch(ctx context.Context, src article.Source) ([]normalize.Entry, error) {
	if src.URL == "" {
		slog.Error("Page fetch failed", "source", src.Name, "error", ErrNoPageURL)
		return nil, ErrNoPageURL
	}

	links, err := f.FetchLinks(ctx, src.URL)
	if err != nil {
		slog.Error("Page fetch failed", "source", src.Name, "url", src.URL, "error", err)
		return nil, fmt.Errorf("failed to fetch index page: %w", err)
	}

	slog.Debug("Index page scraped", "source", src.Name, "url", src.URL, "candidates", len(links))

	entries := make([]normalize.Entry, 0, min(len(links), f.maxLinks))
	requested := 0

	for _, link := range links {
		if len(entries) >= f.maxLinks {
			break
		}
		if f.isKnown(ctx, link.URL) {
			continue
		}

		if err := f.sleep(ctx, f.delay); err != nil {
			return entries, err
		}
		requested++

		entry, err := f.FetchArticle(ctx, link.URL)
		if err != nil {
			slog.Warn("Article page fetch failed, using link text", "source", src.Name, "url", link.URL, "error", err)
			entry = &normalize.PageEntry{URL: link.URL}
		}
		if entry.Title == "" {
			entry.Title = link.Title
		}
		entries = append(entries, entry)
	}

	slog.Debug("Scrape completed", "source", src.Name, "entries", len(entries), "requests", requested+1)

	return entries, nil
}

func (f *Fetcher) isKnown(ctx context.Context, u string) bool {
	if f.known == nil {
		return false
	}
	ok, err := f.known.ExistsURL(ctx, u)
	if err != nil {
		slog.Debug("Known URL lookup failed", "url", u, "error", err)
		return false
	}
	return ok
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
