package normalize

import (
	"github.com/lysyi3m/news-curator/internal/article"
)

// Entry is a raw item produced by a fetcher. The set of variants is closed:
// FeedEntry and PageEntry.
type Entry interface {
	normalize(ctx article.Context) (article.Article, error)
	EntryURL() string
}

// TimeParts is a year, month, day, hour, minute, second breakdown as
// reported by a syndication parser.
type TimeParts [6]int

// Time builds a UTC timestamp, rejecting breakdowns that are out of range.
func (p TimeParts) Time() (article.Published, bool) {
	if p[0] <= 0 {
		return article.Published{}, false
	}
	t := article.PublishedAt(dateFromParts(p))
	y, mo, d := t.Time.Date()
	h, mi, s := t.Time.Clock()
	if y != p[0] || int(mo) != p[1] || d != p[2] || h != p[3] || mi != p[4] || s != p[5] {
		return article.Published{}, false
	}
	return t, true
}

type Media struct {
	URL  string
	Type string
}

// FeedEntry is one item of a syndication feed.
type FeedEntry struct {
	Link        string
	ID          string
	Title       string
	Content     []string
	Description string
	Summary     string
	Author      string
	Creator     string

	PublishedParts *TimeParts
	UpdatedParts   *TimeParts
	CreatedParts   *TimeParts
	Published      string
	Updated        string
	Created        string

	MediaContent    []Media
	MediaThumbnails []Media
	Enclosures      []Media
	Links           []Media

	Tags     []string
	Category string
}

func (e *FeedEntry) EntryURL() string {
	return firstNonEmpty(e, feedURLChain)
}

// PageEntry is an article extracted from a scraped HTML page. Fields hold the
// results of the page selector guesses; empty means no guess matched.
type PageEntry struct {
	URL       string
	Title     string
	PageTitle string
	Content   string
	Author    string
	Published string
	ImageURL  string
}

func (e *PageEntry) EntryURL() string {
	return e.URL
}
