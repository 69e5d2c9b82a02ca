package api

import (
	"context"

	"github.com/lysyi3m/news-curator/internal/article"
	"github.com/lysyi3m/news-curator/internal/database"
	"github.com/lysyi3m/news-curator/internal/normalize"
	"github.com/lysyi3m/news-curator/internal/tasks"
)

// FetchTrigger starts fetch and cleanup work on behalf of API requests.
type FetchTrigger interface {
	TriggerAll() bool
	TriggerOne(sourceID int64)
	Cleanup(ctx context.Context, retentionDays int) (int64, error)
}

var _ FetchTrigger = (*tasks.Scheduler)(nil)

type Handler struct {
	articles  database.ArticleRepository
	sources   database.SourceRepository
	keywords  database.KeywordRepository
	trigger   FetchTrigger
	generator *RSSGenerator
	version   string
}

type articlesQuery struct {
	Limit    int    `form:"limit,default=50" binding:"min=1,max=200"`
	Offset   int    `form:"offset,default=0" binding:"min=0"`
	Category string `form:"category"`
	Source   string `form:"source"`
	Starred  bool   `form:"starred"`
	Unread   bool   `form:"unread"`
	Search   string `form:"search"`
}

func (q articlesQuery) filter() article.Filter {
	return article.Filter{
		Category:    q.Category,
		SourceName:  q.Source,
		StarredOnly: q.Starred,
		UnreadOnly:  q.Unread,
		Search:      q.Search,
	}
}

type cleanupQuery struct {
	Days int `form:"days,default=30" binding:"min=1,max=365"`
}

type sourcesQuery struct {
	ActiveOnly bool `form:"active_only,default=true"`
}

type addArticleRequest struct {
	URL            string            `json:"url" binding:"required"`
	Title          string            `json:"title"`
	Content        string            `json:"content"`
	Summary        string            `json:"summary"`
	Author         string            `json:"author"`
	SourceName     string            `json:"source_name" binding:"required"`
	Category       string            `json:"category"`
	Tags           []string          `json:"tags"`
	PublishedAt    article.Published `json:"published_at"`
	RelevanceScore float64           `json:"relevance_score"`
	ImageURL       string            `json:"image_url"`
}

func (r addArticleRequest) toArticle() article.Article {
	title := r.Title
	if title == "" {
		title = article.DefaultTitle
	}
	summary := r.Summary
	if summary == "" {
		summary = normalize.Truncate(r.Content, article.SummaryMaxRunes)
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return article.Article{
		URL:            r.URL,
		Title:          title,
		Content:        r.Content,
		Summary:        summary,
		Author:         r.Author,
		SourceName:     r.SourceName,
		Category:       r.Category,
		Tags:           tags,
		PublishedAt:    r.PublishedAt,
		RelevanceScore: r.RelevanceScore,
		ImageURL:       r.ImageURL,
	}
}

type addSourceRequest struct {
	Name                 string `json:"name"`
	URL                  string `json:"url"`
	FeedURL              string `json:"feed_url"`
	SourceType           string `json:"source_type"`
	Category             string `json:"category"`
	IsActive             *bool  `json:"is_active"`
	FetchIntervalSeconds int    `json:"fetch_interval_seconds"`
}

type addKeywordRequest struct {
	Keyword  string  `json:"keyword" binding:"required"`
	Category string  `json:"category"`
	Weight   float64 `json:"weight"`
}

type feedQuery struct {
	Category string `form:"category"`
	Source   string `form:"source"`
	Starred  bool   `form:"starred"`
	Limit    int    `form:"limit,default=50" binding:"min=1,max=200"`
}
