package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lysyi3m/news-curator/internal/article"
)

var _ ArticleRepository = (*ArticleRepo)(nil)

const articleColumns = `id, url, identity_hash, title, content, summary, author, source_name,
	category, tags, published_at, scraped_at, is_read, is_starred, relevance_score, image_url`

// ArticleRepo handles database operations for articles
type ArticleRepo struct {
	db  *DB
	now func() time.Time
}

func NewArticleRepository(db *DB) *ArticleRepo {
	return &ArticleRepo{db: db, now: time.Now}
}

// InsertIfNew stores a new article. The unique constraints on url and
// identity_hash decide duplicates, so concurrent callers need no extra lock.
func (r *ArticleRepo) InsertIfNew(ctx context.Context, a article.Article) (int64, bool, error) {
	hash := article.IdentityHash(a.URL)

	tags, err := encodeTags(a.Tags)
	if err != nil {
		return 0, false, fmt.Errorf("failed to encode tags: %w", err)
	}
	published, publishedTS := publishedColumns(a.PublishedAt)

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO articles (
			url, identity_hash, title, content, summary, author, source_name,
			category, tags, published_at, published_ts, scraped_at,
			is_read, is_starred, relevance_score, image_url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, a.URL, hash, a.Title, a.Content, a.Summary, nullString(a.Author), a.SourceName,
		nullString(a.Category), tags, published, publishedTS, formatTime(r.now()),
		a.IsRead, a.IsStarred, a.RelevanceScore, nullString(a.ImageURL))
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert article: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("failed to read insert result: %w", err)
	}
	if affected == 0 {
		return 0, false, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("failed to read article id: %w", err)
	}

	return id, true, nil
}

func (r *ArticleRepo) ExistsURL(ctx context.Context, url string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM articles WHERE identity_hash = ? LIMIT 1`, article.IdentityHash(url)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check article url: %w", err)
	}
	return true, nil
}

// GetArticle returns nil when no article has the id.
func (r *ArticleRepo) GetArticle(ctx context.Context, id int64) (*article.Article, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)

	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return a, nil
}

// GetArticles returns articles matching every set filter field, newest
// parsed publication date first. Articles without a parsed date come last.
func (r *ArticleRepo) GetArticles(ctx context.Context, filter article.Filter, limit, offset int) ([]article.Article, error) {
	var where []string
	var args []any

	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.SourceName != "" {
		where = append(where, "source_name = ?")
		args = append(args, filter.SourceName)
	}
	if filter.StarredOnly {
		where = append(where, "is_starred = 1")
	}
	if filter.UnreadOnly {
		where = append(where, "is_read = 0")
	}
	if filter.Search != "" {
		where = append(where, `(title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\')`)
		pattern := likePattern(filter.Search)
		args = append(args, pattern, pattern)
	}

	query := `SELECT ` + articleColumns + ` FROM articles`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY published_ts DESC, id DESC LIMIT ? OFFSET ?"

	if offset < 0 {
		offset = 0
	}
	args = append(args, clampLimit(limit), offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get articles: %w", err)
	}
	defer rows.Close()

	articles := []article.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate articles: %w", err)
	}

	return articles, nil
}

func (r *ArticleRepo) UpdateArticle(ctx context.Context, id int64, u ArticleUpdate) error {
	var sets []string
	var args []any

	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if u.Title != nil {
		set("title", *u.Title)
	}
	if u.Content != nil {
		set("content", *u.Content)
	}
	if u.Summary != nil {
		set("summary", *u.Summary)
	}
	if u.Author != nil {
		set("author", nullString(*u.Author))
	}
	if u.Category != nil {
		set("category", nullString(*u.Category))
	}
	if u.Tags != nil {
		tags, err := encodeTags(*u.Tags)
		if err != nil {
			return fmt.Errorf("failed to encode tags: %w", err)
		}
		set("tags", tags)
	}
	if u.ImageURL != nil {
		set("image_url", nullString(*u.ImageURL))
	}
	if u.IsRead != nil {
		set("is_read", *u.IsRead)
	}
	if u.IsStarred != nil {
		set("is_starred", *u.IsStarred)
	}
	if u.RelevanceScore != nil {
		set("relevance_score", *u.RelevanceScore)
	}

	if len(sets) == 0 {
		return ErrEmptyUpdate
	}

	args = append(args, id)
	res, err := r.db.ExecContext(ctx, `UPDATE articles SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update article: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrArticleNotFound
	}

	return nil
}

func (r *ArticleRepo) MarkRead(ctx context.Context, id int64) error {
	read := true
	return r.UpdateArticle(ctx, id, ArticleUpdate{IsRead: &read})
}

// ToggleStar reads the current flag and writes its negation. The two steps
// are not atomic: concurrent toggles of one article may both read the same
// value.
func (r *ArticleRepo) ToggleStar(ctx context.Context, id int64) (bool, error) {
	var starred bool
	err := r.db.QueryRowContext(ctx, `SELECT is_starred FROM articles WHERE id = ?`, id).Scan(&starred)
	if err == sql.ErrNoRows {
		return false, ErrArticleNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to read star flag: %w", err)
	}

	next := !starred
	if err := r.UpdateArticle(ctx, id, ArticleUpdate{IsStarred: &next}); err != nil {
		return false, err
	}
	return next, nil
}

func (r *ArticleRepo) ComputeStats(ctx context.Context) (article.Stats, error) {
	stats := article.Stats{ByCategory: map[string]int{}}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN is_read = 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN is_starred = 1 THEN 1 ELSE 0 END), 0)
		FROM articles
	`).Scan(&stats.Total, &stats.Unread, &stats.Starred)
	if err != nil {
		return stats, fmt.Errorf("failed to count articles: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(NULLIF(category, ''), ?) AS bucket, COUNT(*)
		FROM articles
		GROUP BY bucket
	`, article.UncategorizedKey)
	if err != nil {
		return stats, fmt.Errorf("failed to group articles by category: %w", err)
	}
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			rows.Close()
			return stats, fmt.Errorf("failed to scan category count: %w", err)
		}
		stats.ByCategory[category] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return stats, fmt.Errorf("failed to iterate category counts: %w", err)
	}
	rows.Close()

	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sources WHERE is_active = 1`).Scan(&stats.ActiveSources)
	if err != nil {
		return stats, fmt.Errorf("failed to count active sources: %w", err)
	}

	return stats, nil
}

func (r *ArticleRepo) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT category FROM articles
		WHERE category IS NOT NULL AND category <> ''
		ORDER BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// PurgeExpired deletes unstarred articles published before now minus
// retentionDays. Articles with no parsed date are kept.
func (r *ArticleRepo) PurgeExpired(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays < 0 {
		return 0, fmt.Errorf("retention days must not be negative, got %d", retentionDays)
	}
	cutoff := formatTime(r.now().AddDate(0, 0, -retentionDays))

	res, err := r.db.ExecContext(ctx, `
		DELETE FROM articles
		WHERE is_starred = 0 AND published_ts IS NOT NULL AND published_ts < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge articles: %w", err)
	}

	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*article.Article, error) {
	var a article.Article
	var author, category, published, scraped, imageURL sql.NullString
	var tags string

	err := row.Scan(&a.ID, &a.URL, &a.IdentityHash, &a.Title, &a.Content, &a.Summary, &author, &a.SourceName,
		&category, &tags, &published, &scraped, &a.IsRead, &a.IsStarred, &a.RelevanceScore, &imageURL)
	if err != nil {
		return nil, err
	}

	a.Author = author.String
	a.Category = category.String
	a.ImageURL = imageURL.String
	a.Tags = decodeTags(tags)
	a.PublishedAt = article.ParseStored(published.String)
	a.ScrapedAt = parseTime(scraped)

	return &a, nil
}
