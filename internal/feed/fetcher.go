package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/news-curator/internal/article"
	"github.com/lysyi3m/news-curator/internal/httpclient"
	"github.com/lysyi3m/news-curator/internal/normalize"
)

var ErrNoFeedURL = errors.New("source has no feed url")

// Fetcher retrieves a source's feed_url and returns its entries.
type Fetcher struct {
	client httpclient.Getter
	parser *Parser
}

func NewFetcher(client httpclient.Getter, parser *Parser) *Fetcher {
	return &Fetcher{client: client, parser: parser}
}

// Fetch returns no entries and a non-nil error on any network, status or
// parse failure. A malformed but recoverable document is only a warning.
func (f *Fetcher) Fetch(ctx context.Context, src article.Source) ([]normalize.Entry, error) {
	if src.FeedURL == "" {
		slog.Error("Feed fetch failed", "source", src.Name, "error", ErrNoFeedURL)
		return nil, ErrNoFeedURL
	}

	slog.Debug("Fetching feed", "source", src.Name, "url", src.FeedURL)

	data, err := f.client.Get(ctx, src.FeedURL)
	if err != nil {
		slog.Error("Feed fetch failed", "source", src.Name, "url", src.FeedURL, "error", err)
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	result, err := f.parser.Run(data)
	if err != nil {
		slog.Error("Feed parse failed", "source", src.Name, "url", src.FeedURL, "error", err)
		return nil, err
	}

	if result.Malformed {
		slog.Warn("Malformed feed, using recovered entries", "source", src.Name, "url", src.FeedURL,
			"entries", len(result.Entries), "warning", result.Warning)
	}

	entries := make([]normalize.Entry, 0, len(result.Entries))
	for _, e := range result.Entries {
		entries = append(entries, e)
	}

	slog.Debug("Feed fetched", "source", src.Name, "entries", len(entries))

	return entries, nil
}
