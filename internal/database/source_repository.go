package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lysyi3m/news-curator/internal/article"
)

var _ SourceRepository = (*SourceRepo)(nil)

const sourceColumns = `id, name, url, feed_url, source_type, category, is_active, last_fetched_at, fetch_interval_seconds`

// SourceRepo handles database operations for sources
type SourceRepo struct {
	db  *DB
	now func() time.Time
}

func NewSourceRepository(db *DB) *SourceRepo {
	return &SourceRepo{db: db, now: time.Now}
}

// UpsertSource inserts a source or overwrites every configurable field of
// the existing source with the same name. The row id is kept and
// last_fetched_at is cleared so the next scheduled run fetches the
// replacement right away.
func (r *SourceRepo) UpsertSource(ctx context.Context, src article.Source) (int64, error) {
	if src.SourceType == "" {
		src.SourceType = article.SourceTypeFeed
	}
	if src.FetchIntervalSeconds <= 0 {
		src.FetchIntervalSeconds = article.DefaultFetchIntervalSeconds
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO sources (name, url, feed_url, source_type, category, is_active, fetch_interval_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			url = excluded.url,
			feed_url = excluded.feed_url,
			source_type = excluded.source_type,
			category = excluded.category,
			is_active = excluded.is_active,
			fetch_interval_seconds = excluded.fetch_interval_seconds,
			last_fetched_at = NULL
		RETURNING id
	`, src.Name, src.URL, nullString(src.FeedURL), string(src.SourceType), nullString(src.Category),
		src.IsActive, src.FetchIntervalSeconds).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert source: %w", err)
	}

	return id, nil
}

// GetSource returns nil when no source has the id.
func (r *SourceRepo) GetSource(ctx context.Context, id int64) (*article.Source, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sourceColumns+` FROM sources WHERE id = ?`, id)

	src, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return src, nil
}

func (r *SourceRepo) ListSources(ctx context.Context, activeOnly bool) ([]article.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	sources := []article.Source{}
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, *src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sources: %w", err)
	}

	return sources, nil
}

// ListDueSources returns active sources whose fetch interval has elapsed.
func (r *SourceRepo) ListDueSources(ctx context.Context, now time.Time) ([]article.Source, error) {
	active, err := r.ListSources(ctx, true)
	if err != nil {
		return nil, err
	}

	due := make([]article.Source, 0, len(active))
	for _, src := range active {
		if src.DueAt(now) {
			due = append(due, src)
		}
	}
	return due, nil
}

func (r *SourceRepo) CountSources(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sources`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sources: %w", err)
	}
	return count, nil
}

// RecordFetchAttempt stamps last_fetched_at whether or not the fetch added
// anything.
func (r *SourceRepo) RecordFetchAttempt(ctx context.Context, sourceID int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sources SET last_fetched_at = ? WHERE id = ?`,
		formatTime(r.now()), sourceID)
	if err != nil {
		return fmt.Errorf("failed to record fetch attempt: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrSourceNotFound
	}
	return nil
}

func scanSource(row rowScanner) (*article.Source, error) {
	var src article.Source
	var feedURL, category, lastFetched sql.NullString
	var sourceType string

	err := row.Scan(&src.ID, &src.Name, &src.URL, &feedURL, &sourceType, &category,
		&src.IsActive, &lastFetched, &src.FetchIntervalSeconds)
	if err != nil {
		return nil, err
	}

	src.FeedURL = feedURL.String
	src.Category = category.String
	src.SourceType = article.SourceType(sourceType)
	src.LastFetchedAt = parseTime(lastFetched)

	return &src, nil
}
