package feed

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/lysyi3m/news-curator/internal/normalize"
)

type Result struct {
	Title     string
	Entries   []*normalize.FeedEntry
	Malformed bool
	// Warning holds the original parse error when Malformed is set.
	Warning error
}

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses a syndication document. A document that only parses after
// sanitizing, or after closing a truncated tail, is reported as Malformed
// with whatever entries were recovered.
func (p *Parser) Run(data []byte) (*Result, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("failed to parse feed: empty document")
	}

	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err == nil {
		return buildResult(parsed), nil
	}

	cleaned := sanitize(data)
	recovered, retryErr := p.gofeedParser.Parse(bytes.NewReader(cleaned))
	if retryErr != nil {
		closed, ok := closeTruncated(cleaned)
		if !ok {
			return nil, fmt.Errorf("failed to parse feed: %w", err)
		}
		if recovered, retryErr = p.gofeedParser.Parse(bytes.NewReader(closed)); retryErr != nil {
			return nil, fmt.Errorf("failed to parse feed: %w", err)
		}
	}

	result := buildResult(recovered)
	result.Malformed = true
	result.Warning = err
	return result, nil
}

func buildResult(f *gofeed.Feed) *Result {
	result := &Result{
		Title:   f.Title,
		Entries: make([]*normalize.FeedEntry, 0, len(f.Items)),
	}
	for _, item := range f.Items {
		if item == nil {
			continue
		}
		result.Entries = append(result.Entries, toEntry(item))
	}
	return result
}

func toEntry(item *gofeed.Item) *normalize.FeedEntry {
	entry := &normalize.FeedEntry{
		Link:        item.Link,
		ID:          item.GUID,
		Title:       item.Title,
		Description: item.Description,
		Published:   item.Published,
		Updated:     item.Updated,
		Tags:        item.Categories,
	}

	if item.Content != "" {
		entry.Content = []string{item.Content}
	}
	if entry.Link == "" && len(item.Links) > 0 {
		entry.Link = item.Links[0]
	}

	entry.PublishedParts = timeParts(item.PublishedParsed)
	entry.UpdatedParts = timeParts(item.UpdatedParsed)

	entry.Author = extractAuthor(item)
	if dc := item.DublinCoreExt; dc != nil {
		if len(dc.Creator) > 0 {
			entry.Creator = dc.Creator[0]
		}
		if len(dc.Date) > 0 {
			entry.Created = dc.Date[0]
		}
	}
	if it := item.ITunesExt; it != nil {
		entry.Summary = it.Summary
	}

	entry.MediaContent = mediaAttrs(item.Extensions, "content")
	entry.MediaThumbnails = mediaAttrs(item.Extensions, "thumbnail")

	for _, enc := range item.Enclosures {
		if enc == nil {
			continue
		}
		entry.Enclosures = append(entry.Enclosures, normalize.Media{URL: enc.URL, Type: enc.Type})
	}

	for _, link := range item.Links {
		entry.Links = append(entry.Links, normalize.Media{URL: link})
	}
	if item.Image != nil && item.Image.URL != "" {
		entry.Links = append(entry.Links, normalize.Media{URL: item.Image.URL, Type: "image"})
	}

	return entry
}

func extractAuthor(item *gofeed.Item) string {
	if item.Author != nil {
		if name := strings.TrimSpace(item.Author.Name); name != "" {
			return name
		}
	}
	for _, a := range item.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			return strings.TrimSpace(a.Name)
		}
	}
	if item.Author != nil {
		return strings.TrimSpace(item.Author.Email)
	}
	return ""
}

// mediaAttrs collects Media RSS elements by name, including those nested
// in a media:group.
func mediaAttrs(exts ext.Extensions, name string) []normalize.Media {
	media, ok := exts["media"]
	if !ok {
		return nil
	}

	var out []normalize.Media
	collect := func(list []ext.Extension) {
		for _, e := range list {
			url := e.Attrs["url"]
			if url == "" {
				continue
			}
			typ := e.Attrs["type"]
			if typ == "" && e.Attrs["medium"] == "image" {
				typ = "image"
			}
			out = append(out, normalize.Media{URL: url, Type: typ})
		}
	}

	collect(media[name])
	for _, group := range media["group"] {
		collect(group.Children[name])
	}
	return out
}

func timeParts(t *time.Time) *normalize.TimeParts {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &normalize.TimeParts{u.Year(), int(u.Month()), u.Day(), u.Hour(), u.Minute(), u.Second()}
}
