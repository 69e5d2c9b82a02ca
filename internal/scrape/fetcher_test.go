package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/lysyi3m/news-curator/internal/article"
	"github.com/lysyi3m/news-curator/internal/httpclient"
	"github.com/lysyi3m/news-curator/internal/normalize"
)

type knownSet map[string]bool

func (k knownSet) ExistsURL(ctx context.Context, url string) (bool, error) {
	return k[url], nil
}

func newSite(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var mu sync.Mutex
	var requests []string

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.URL.Path)
		mu.Unlock()
		fmt.Fprint(w, `<html><body>
<a href="/a">Article A has a title</a>
<a href="/b">Article B has a title</a>
<a href="/broken">Article that fails to load</a>
</body></html>`)
	})
	handleArticle := func(path, title string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			requests = append(requests, r.URL.Path)
			mu.Unlock()
			fmt.Fprintf(w, `<html><body><article><h1>%s</h1><p>Body of %s</p></article></body></html>`, title, title)
		})
	}
	handleArticle("/a", "Headline A")
	handleArticle("/b", "Headline B")
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.URL.Path)
		mu.Unlock()
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &requests
}

func TestFetcherFetchIndexAndDetails(t *testing.T) {
	server, _ := newSite(t)

	f := NewFetcher(httpclient.New("ScrapeBot", time.Second), NewExtractor(false), Options{})
	var sleeps []time.Duration
	f.delay = 5 * time.Millisecond
	f.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	entries, err := f.Fetch(context.Background(), article.Source{Name: "Site", URL: server.URL + "/"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if len(sleeps) != 3 {
		t.Errorf("Expected a politeness delay before each detail request, got %d", len(sleeps))
	}

	a := entries[0].(*normalize.PageEntry)
	if a.Title != "Headline A" || a.Content == "" {
		t.Errorf("Expected extracted detail page, got: %+v", a)
	}

	broken := entries[2].(*normalize.PageEntry)
	if broken.Title != "Article that fails to load" {
		t.Errorf("Expected link text fallback, got: %q", broken.Title)
	}
	if broken.URL != server.URL+"/broken" {
		t.Errorf("Expected candidate URL, got: %q", broken.URL)
	}
}

func TestFetcherMaxLinksAndKnown(t *testing.T) {
	server, requests := newSite(t)

	known := knownSet{server.URL + "/a": true}
	f := NewFetcher(httpclient.New("ScrapeBot", time.Second), NewExtractor(false), Options{MaxLinks: 1, Known: known})

	entries, err := f.Fetch(context.Background(), article.Source{Name: "Site", URL: server.URL + "/"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].EntryURL() != server.URL+"/b" {
		t.Errorf("Expected known URL to be skipped, got: %s", entries[0].EntryURL())
	}
	for _, path := range *requests {
		if path == "/a" {
			t.Error("Expected no request for a known article")
		}
	}
}

func TestFetcherIndexFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	f := NewFetcher(httpclient.New("ScrapeBot", time.Second), NewExtractor(false), Options{})
	entries, err := f.Fetch(context.Background(), article.Source{Name: "Blocked", URL: server.URL})
	if err == nil {
		t.Error("Expected an error")
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries, got %d", len(entries))
	}
}
