package normalize

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/news-curator/internal/article"
)

var (
	ErrNoURL      = errors.New("entry has no link or id")
	ErrExtraction = errors.New("entry extraction failed")
)

// SkipError reports why an entry produced no article.
type SkipError struct {
	URL    string
	Reason error
	Detail string
}

func (e *SkipError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("skipped entry %q: %v: %s", e.URL, e.Reason, e.Detail)
	}
	return fmt.Sprintf("skipped entry %q: %v", e.URL, e.Reason)
}

func (e *SkipError) Unwrap() error {
	return e.Reason
}

// Normalize maps a raw entry to a canonical article. Any failure, including a
// panic inside an extractor, is returned as a *SkipError.
func Normalize(e Entry, ctx article.Context) (a article.Article, err error) {
	defer func() {
		if r := recover(); r != nil {
			a = article.Article{}
			err = &SkipError{URL: safeURL(e), Reason: ErrExtraction, Detail: fmt.Sprint(r)}
		}
	}()

	if e == nil {
		return article.Article{}, &SkipError{Reason: ErrNoURL}
	}
	return e.normalize(ctx)
}

// Batch normalizes entries independently; a skipped entry never affects its
// siblings.
func Batch(entries []Entry, ctx article.Context) ([]article.Article, []*SkipError) {
	articles := make([]article.Article, 0, len(entries))
	var skipped []*SkipError

	for _, e := range entries {
		a, err := Normalize(e, ctx)
		if err != nil {
			var skip *SkipError
			if !errors.As(err, &skip) {
				skip = &SkipError{URL: safeURL(e), Reason: ErrExtraction, Detail: err.Error()}
			}
			slog.Debug("Entry skipped", "source", ctx.SourceName, "url", skip.URL, "reason", skip.Reason)
			skipped = append(skipped, skip)
			continue
		}
		articles = append(articles, a)
	}

	return articles, skipped
}

func (e *FeedEntry) normalize(ctx article.Context) (article.Article, error) {
	url := firstNonEmpty(e, feedURLChain)
	if url == "" {
		return article.Article{}, &SkipError{Reason: ErrNoURL}
	}

	content := firstNonEmpty(e, feedContentChain)
	summarySource := content
	if summarySource == "" {
		summarySource = firstNonEmpty(e, feedSummaryChain)
	}

	return article.Article{
		URL:          url,
		IdentityHash: article.IdentityHash(url),
		Title:        orDefault(firstNonEmpty(e, feedTitleChain), article.DefaultTitle),
		Content:      content,
		Summary:      Truncate(summarySource, article.SummaryMaxRunes),
		Author:       firstNonEmpty(e, feedAuthorChain),
		SourceName:   ctx.SourceName,
		Category:     ctx.Category,
		Tags:         collectTags(e),
		PublishedAt:  firstDate(e, feedDateChain),
		ImageURL:     firstNonEmpty(e, feedImageChain),
	}, nil
}

func (e *PageEntry) normalize(ctx article.Context) (article.Article, error) {
	if e.URL == "" {
		return article.Article{}, &SkipError{Reason: ErrNoURL}
	}

	return article.Article{
		URL:          e.URL,
		IdentityHash: article.IdentityHash(e.URL),
		Title:        orDefault(firstNonEmpty(e, pageTitleChain), article.DefaultTitle),
		Content:      e.Content,
		Summary:      Truncate(e.Content, article.SummaryMaxRunes),
		Author:       e.Author,
		SourceName:   ctx.SourceName,
		Category:     ctx.Category,
		Tags:         []string{},
		PublishedAt:  parsePageDate(e.Published),
		ImageURL:     e.ImageURL,
	}, nil
}

// collectTags keeps discovery order and duplicates, dropping empty terms.
func collectTags(e *FeedEntry) []string {
	tags := make([]string, 0, len(e.Tags)+1)
	for _, t := range e.Tags {
		if t != "" {
			tags = append(tags, t)
		}
	}
	if e.Category != "" {
		tags = append(tags, e.Category)
	}
	return tags
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func safeURL(e Entry) (url string) {
	defer func() {
		if recover() != nil {
			url = ""
		}
	}()
	if e == nil {
		return ""
	}
	return e.EntryURL()
}
