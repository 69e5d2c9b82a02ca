package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/news-curator/internal/article"
	"github.com/lysyi3m/news-curator/internal/cfg"
	"github.com/lysyi3m/news-curator/internal/database"
)

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"status":    "healthy",
		"service":   "news-curator",
		"version":   h.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	count, err := h.sources.CountSources(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "count_sources", "error", err)
		health["status"] = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}
	health["sources"] = count

	c.JSON(http.StatusOK, health)
}

func (h *Handler) ListArticles(c *gin.Context) {
	var q articlesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters", "details": err.Error()})
		return
	}

	articles, err := h.articles.GetArticles(c.Request.Context(), q.filter(), q.Limit, q.Offset)
	if err != nil {
		slog.Error("Database error", "operation", "get_articles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"articles": articles, "count": len(articles)})
}

// AddArticle stores a caller-supplied article. The response id is null
// when the article already exists.
func (h *Handler) AddArticle(c *gin.Context) {
	var req addArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid article", "details": err.Error()})
		return
	}

	id, inserted, err := h.articles.InsertIfNew(c.Request.Context(), req.toArticle())
	if err != nil {
		slog.Error("Database error", "operation", "insert_article", "url", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if !inserted {
		c.JSON(http.StatusOK, gin.H{"id": nil})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) GetArticle(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	a, err := h.articles.GetArticle(c.Request.Context(), id)
	if err != nil {
		slog.Error("Database error", "operation", "get_article", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	c.JSON(http.StatusOK, a)
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	err := h.articles.MarkRead(c.Request.Context(), id)
	if errors.Is(err, database.ErrArticleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}
	if err != nil {
		slog.Error("Database error", "operation", "mark_read", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) ToggleStar(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	starred, err := h.articles.ToggleStar(c.Request.Context(), id)
	if errors.Is(err, database.ErrArticleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}
	if err != nil {
		slog.Error("Database error", "operation", "toggle_star", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "is_starred": starred})
}

func (h *Handler) CleanupArticles(c *gin.Context) {
	var q cleanupQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 365", "details": err.Error()})
		return
	}

	deleted, err := h.trigger.Cleanup(c.Request.Context(), q.Days)
	if err != nil {
		slog.Error("Database error", "operation", "cleanup", "days", q.Days, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "deleted": deleted})
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.articles.ComputeStats(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "compute_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.articles.Categories(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "categories", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *Handler) ListSources(c *gin.Context) {
	var q sourcesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters", "details": err.Error()})
		return
	}

	sources, err := h.sources.ListSources(c.Request.Context(), q.ActiveOnly)
	if err != nil {
		slog.Error("Database error", "operation", "list_sources", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sources": sources})
}

func (h *Handler) AddSource(c *gin.Context) {
	var req addSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid source", "details": err.Error()})
		return
	}

	src, err := cfg.SourceConfig{
		Name:          req.Name,
		URL:           req.URL,
		FeedURL:       req.FeedURL,
		Type:          req.SourceType,
		Category:      req.Category,
		Active:        req.IsActive,
		FetchInterval: req.FetchIntervalSeconds,
	}.ToSource()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid source", "details": err.Error()})
		return
	}

	id, err := h.sources.UpsertSource(c.Request.Context(), src)
	if err != nil {
		slog.Error("Database error", "operation", "upsert_source", "source", src.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	slog.Info("Source saved", "source", src.Name, "id", id, "type", string(src.SourceType))
	c.JSON(http.StatusOK, gin.H{"status": "success", "id": id})
}

func (h *Handler) FetchAll(c *gin.Context) {
	if !h.trigger.TriggerAll() {
		c.JSON(http.StatusConflict, gin.H{"status": "running", "message": "A fetch run is already in progress"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "started", "message": "Fetching feeds in background"})
}

func (h *Handler) FetchSource(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	src, err := h.sources.GetSource(c.Request.Context(), id)
	if err != nil {
		slog.Error("Database error", "operation", "get_source", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if src == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	h.trigger.TriggerOne(id)
	c.JSON(http.StatusAccepted, gin.H{"status": "started", "message": fmt.Sprintf("Fetching %s", src.Name)})
}

func (h *Handler) ListKeywords(c *gin.Context) {
	keywords, err := h.keywords.ListKeywords(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_keywords", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"keywords": keywords})
}

func (h *Handler) AddKeyword(c *gin.Context) {
	var req addKeywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid keyword", "details": err.Error()})
		return
	}

	weight := req.Weight
	if weight == 0 {
		weight = 1
	}

	id, err := h.keywords.AddKeyword(c.Request.Context(), req.Keyword, req.Category, weight)
	if err != nil {
		slog.Error("Database error", "operation", "add_keyword", "keyword", req.Keyword, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "id": id})
}

// GetFeed exports the newest matching articles as RSS.
func (h *Handler) GetFeed(c *gin.Context) {
	var q feedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	filter := article.Filter{Category: q.Category, SourceName: q.Source, StarredOnly: q.Starred}
	articles, err := h.articles.GetArticles(c.Request.Context(), filter, q.Limit, 0)
	if err != nil {
		slog.Error("Database error", "operation", "get_articles", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	title := "News Curator"
	if q.Category != "" {
		title = fmt.Sprintf("News Curator - %s", q.Category)
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	base := fmt.Sprintf("%s://%s", scheme, c.Request.Host)

	rss := h.generator.Run(Channel{
		Title:    title,
		Link:     base,
		SelfLink: base + c.Request.URL.RequestURI(),
		Version:  h.version,
	}, articles)

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(articles)))
	c.String(http.StatusOK, rss)
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id parameter"})
		return 0, false
	}
	return id, true
}
