package normalize

import (
	"strings"
	"time"

	"github.com/lysyi3m/news-curator/internal/article"
)

type extractor[E any] func(e E) string

func firstNonEmpty[E any](e E, chain []extractor[E]) string {
	for _, fn := range chain {
		if v := fn(e); v != "" {
			return v
		}
	}
	return ""
}

type dateExtractor func(e *FeedEntry) (article.Published, bool)

var feedURLChain = []extractor[*FeedEntry]{
	func(e *FeedEntry) string { return strings.TrimSpace(e.Link) },
	func(e *FeedEntry) string { return strings.TrimSpace(e.ID) },
}

var feedTitleChain = []extractor[*FeedEntry]{
	func(e *FeedEntry) string { return strings.TrimSpace(e.Title) },
}

var feedContentChain = []extractor[*FeedEntry]{
	func(e *FeedEntry) string {
		for _, c := range e.Content {
			if c != "" {
				return c
			}
		}
		return ""
	},
	func(e *FeedEntry) string { return e.Description },
	func(e *FeedEntry) string { return e.Summary },
}

var feedSummaryChain = []extractor[*FeedEntry]{
	func(e *FeedEntry) string { return e.Summary },
	func(e *FeedEntry) string { return e.Description },
}

var feedAuthorChain = []extractor[*FeedEntry]{
	func(e *FeedEntry) string { return strings.TrimSpace(e.Author) },
	func(e *FeedEntry) string { return strings.TrimSpace(e.Creator) },
}

var feedDateChain = []dateExtractor{
	structuredTime(func(e *FeedEntry) *TimeParts { return e.PublishedParts }),
	structuredTime(func(e *FeedEntry) *TimeParts { return e.UpdatedParts }),
	structuredTime(func(e *FeedEntry) *TimeParts { return e.CreatedParts }),
	rawTime(func(e *FeedEntry) string { return e.Published }),
	rawTime(func(e *FeedEntry) string { return e.Updated }),
	rawTime(func(e *FeedEntry) string { return e.Created }),
}

var feedImageChain = []extractor[*FeedEntry]{
	func(e *FeedEntry) string { return firstImage(e.MediaContent) },
	func(e *FeedEntry) string {
		for _, m := range e.MediaThumbnails {
			if m.URL != "" {
				return m.URL
			}
		}
		return ""
	},
	func(e *FeedEntry) string { return firstImage(e.Enclosures) },
	func(e *FeedEntry) string { return firstImage(e.Links) },
}

var pageTitleChain = []extractor[*PageEntry]{
	func(e *PageEntry) string { return strings.TrimSpace(e.Title) },
	func(e *PageEntry) string { return strings.TrimSpace(e.PageTitle) },
}

var pageDateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func structuredTime(field func(*FeedEntry) *TimeParts) dateExtractor {
	return func(e *FeedEntry) (article.Published, bool) {
		parts := field(e)
		if parts == nil {
			return article.Published{}, false
		}
		return parts.Time()
	}
}

func rawTime(field func(*FeedEntry) string) dateExtractor {
	return func(e *FeedEntry) (article.Published, bool) {
		raw := strings.TrimSpace(field(e))
		if raw == "" {
			return article.Published{}, false
		}
		return article.PublishedRaw(raw), true
	}
}

func firstDate(e *FeedEntry, chain []dateExtractor) article.Published {
	for _, fn := range chain {
		if p, ok := fn(e); ok {
			return p
		}
	}
	return article.Published{}
}

func parsePageDate(raw string) article.Published {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return article.Published{}
	}
	for _, layout := range pageDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return article.PublishedAt(t)
		}
	}
	return article.PublishedRaw(raw)
}

func firstImage(media []Media) string {
	for _, m := range media {
		if m.URL != "" && strings.HasPrefix(strings.ToLower(m.Type), "image") {
			return m.URL
		}
	}
	return ""
}

func dateFromParts(p TimeParts) time.Time {
	return time.Date(p[0], time.Month(p[1]), p[2], p[3], p[4], p[5], 0, time.UTC)
}

// Truncate cuts s to at most n characters. It does not look for word
// boundaries.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
