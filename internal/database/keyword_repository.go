package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/lysyi3m/news-curator/internal/article"
)

var _ KeywordRepository = (*KeywordRepo)(nil)

type KeywordRepo struct {
	db *DB
}

func NewKeywordRepository(db *DB) *KeywordRepo {
	return &KeywordRepo{db: db}
}

// AddKeyword stores keyword lowercased, replacing the category and weight of
// an existing entry and reactivating it.
func (r *KeywordRepo) AddKeyword(ctx context.Context, keyword, category string, weight float64) (int64, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return 0, fmt.Errorf("keyword must not be empty")
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO keywords (keyword, category, weight, is_active)
		VALUES (?, ?, ?, 1)
		ON CONFLICT (keyword) DO UPDATE SET
			category = excluded.category,
			weight = excluded.weight,
			is_active = 1
		RETURNING id
	`, keyword, nullString(category), weight).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to add keyword: %w", err)
	}
	return id, nil
}

func (r *KeywordRepo) ListKeywords(ctx context.Context) ([]article.Keyword, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, keyword, COALESCE(category, ''), weight, is_active
		FROM keywords
		WHERE is_active = 1
		ORDER BY COALESCE(category, ''), keyword
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keywords: %w", err)
	}
	defer rows.Close()

	keywords := []article.Keyword{}
	for rows.Next() {
		var k article.Keyword
		if err := rows.Scan(&k.ID, &k.Keyword, &k.Category, &k.Weight, &k.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}
