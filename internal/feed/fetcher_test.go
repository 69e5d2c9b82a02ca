package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lysyi3m/news-curator/internal/article"
	"github.com/lysyi3m/news-curator/internal/httpclient"
)

func TestFetcherFetch(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssWithMedia))
	}))
	defer server.Close()

	f := NewFetcher(httpclient.New("FeedBot/1.0", time.Second), NewParser())
	entries, err := f.Fetch(context.Background(), article.Source{Name: "Example", FeedURL: server.URL})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("Expected 3 entries, got %d", len(entries))
	}
	if gotUA != "FeedBot/1.0" {
		t.Errorf("Expected configured user agent, got: %s", gotUA)
	}
}

func TestFetcherFailuresYieldNoEntries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		default:
			w.Write([]byte("<html>not a feed</html>"))
		}
	}))
	defer server.Close()

	f := NewFetcher(httpclient.New("ua", time.Second), NewParser())

	tests := []struct {
		name string
		src  article.Source
	}{
		{"non-2xx", article.Source{Name: "Missing", FeedURL: server.URL + "/missing"}},
		{"not a feed", article.Source{Name: "HTML", FeedURL: server.URL + "/page"}},
		{"unreachable", article.Source{Name: "Dead", FeedURL: "http://127.0.0.1:1/feed"}},
		{"no feed url", article.Source{Name: "Empty"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := f.Fetch(context.Background(), tt.src)
			if err == nil {
				t.Error("Expected an error")
			}
			if len(entries) != 0 {
				t.Errorf("Expected no entries, got %d", len(entries))
			}
		})
	}

	if _, err := f.Fetch(context.Background(), article.Source{Name: "Empty"}); !errors.Is(err, ErrNoFeedURL) {
		t.Errorf("Expected ErrNoFeedURL, got: %v", err)
	}
}
