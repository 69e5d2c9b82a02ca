package tasks

import (
	"fmt"
	"sync"

	"github.com/lysyi3m/news-curator/internal/article"
)

// Registry dispatches sources to a fetcher by their declared type.
type Registry struct {
	mu       sync.RWMutex
	fetchers map[article.SourceType]Fetcher
}

func NewRegistry() *Registry {
	return &Registry{fetchers: make(map[article.SourceType]Fetcher)}
}

func (r *Registry) Register(t article.SourceType, f Fetcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchers[t] = f
}

func (r *Registry) Get(t article.SourceType) (Fetcher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fetchers[t]
	if !ok {
		return nil, fmt.Errorf("no fetcher registered for source type %q", t)
	}
	return f, nil
}
