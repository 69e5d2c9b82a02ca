package database

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/lysyi3m/news-curator/internal/article"
)

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(article.StorageTimeLayout)
}

func parseTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.ParseInLocation(article.StorageTimeLayout, ns.String, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

// publishedColumns splits a published value into the display column and
// the sortable column (parsed dates only).
func publishedColumns(p article.Published) (any, any) {
	if p.Time != nil {
		v := formatTime(*p.Time)
		return v, v
	}
	return p.StorageValue(), nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeTags(raw string) []string {
	tags := []string{}
	if raw == "" {
		return tags
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return []string{}
	}
	return tags
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
