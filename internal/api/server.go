package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/news-curator/internal/database"
)

func NewHandler(articles database.ArticleRepository, sources database.SourceRepository,
	keywords database.KeywordRepository, trigger FetchTrigger, version string) *Handler {
	return &Handler{
		articles:  articles,
		sources:   sources,
		keywords:  keywords,
		trigger:   trigger,
		generator: NewRSSGenerator(),
		version:   version,
	}
}

// NewServer creates the HTTP engine with all routes configured
func NewServer(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health"},
	}))

	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler)

	return r
}

func setupRoutes(r *gin.Engine, h *Handler) {
	r.GET("/health", h.GetHealth)
	r.GET("/feed.xml", h.GetFeed)

	api := r.Group("/api")
	{
		api.GET("/articles", h.ListArticles)
		api.POST("/articles", h.AddArticle)
		api.DELETE("/articles/cleanup", h.CleanupArticles)
		api.GET("/articles/:id", h.GetArticle)
		api.POST("/articles/:id/read", h.MarkRead)
		api.POST("/articles/:id/star", h.ToggleStar)

		api.GET("/stats", h.GetStats)
		api.GET("/categories", h.ListCategories)

		api.GET("/sources", h.ListSources)
		api.POST("/sources", h.AddSource)

		api.POST("/fetch", h.FetchAll)
		api.POST("/fetch/:id", h.FetchSource)

		api.GET("/keywords", h.ListKeywords)
		api.POST("/keywords", h.AddKeyword)
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "News Curator",
			"version":     h.version,
			"description": "Feed and web news aggregation with deduplication",
			"endpoints": map[string]string{
				"health":     "/health",
				"feed":       "/feed.xml",
				"articles":   "/api/articles",
				"stats":      "/api/stats",
				"categories": "/api/categories",
				"sources":    "/api/sources",
				"fetch":      "/api/fetch (POST)",
				"keywords":   "/api/keywords",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
