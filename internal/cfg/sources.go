package cfg

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/news-curator/internal/article"
)

// SourcesFile is the seed file layout.
type SourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

type SourceConfig struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	FeedURL  string `yaml:"feed_url"`
	Type     string `yaml:"type"`
	Category string `yaml:"category"`
	Active   *bool  `yaml:"active"`
	// FetchInterval is in seconds; zero means the default.
	FetchInterval int `yaml:"fetch_interval"`
}

// ToSource validates the entry and applies defaults.
func (sc SourceConfig) ToSource() (article.Source, error) {
	if strings.TrimSpace(sc.Name) == "" {
		return article.Source{}, errors.New("name is required")
	}
	if strings.TrimSpace(sc.URL) == "" {
		return article.Source{}, errors.New("url is required")
	}
	t, err := article.ParseSourceType(sc.Type)
	if err != nil {
		return article.Source{}, err
	}
	if t == article.SourceTypeFeed && strings.TrimSpace(sc.FeedURL) == "" {
		return article.Source{}, errors.New("feed_url is required for feed sources")
	}
	if sc.FetchInterval < 0 {
		return article.Source{}, fmt.Errorf("fetch_interval must not be negative, got %d", sc.FetchInterval)
	}

	interval := sc.FetchInterval
	if interval == 0 {
		interval = article.DefaultFetchIntervalSeconds
	}
	active := true
	if sc.Active != nil {
		active = *sc.Active
	}

	return article.Source{
		Name:                 strings.TrimSpace(sc.Name),
		URL:                  strings.TrimSpace(sc.URL),
		FeedURL:              strings.TrimSpace(sc.FeedURL),
		SourceType:           t,
		Category:             sc.Category,
		IsActive:             active,
		FetchIntervalSeconds: interval,
	}, nil
}

// LoadSources reads the seed file. A missing file yields the built-in
// defaults.
func LoadSources(path string) ([]article.Source, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultSources(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}
	return ParseSources(data)
}

func ParseSources(data []byte) ([]article.Source, error) {
	var file SourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	seen := make(map[string]bool, len(file.Sources))
	sources := make([]article.Source, 0, len(file.Sources))
	for i, sc := range file.Sources {
		src, err := sc.ToSource()
		if err != nil {
			return nil, fmt.Errorf("source %d (%s): %w", i+1, sc.Name, err)
		}
		if seen[src.Name] {
			return nil, fmt.Errorf("source %d: duplicate name %q", i+1, src.Name)
		}
		seen[src.Name] = true
		sources = append(sources, src)
	}
	return sources, nil
}

func DefaultSources() []article.Source {
	feed := func(name, url, feedURL, category string) article.Source {
		return article.Source{
			Name:                 name,
			URL:                  url,
			FeedURL:              feedURL,
			SourceType:           article.SourceTypeFeed,
			Category:             category,
			IsActive:             true,
			FetchIntervalSeconds: article.DefaultFetchIntervalSeconds,
		}
	}

	return []article.Source{
		feed("Hacker News", "https://news.ycombinator.com", "https://news.ycombinator.com/rss", "tech"),
		feed("TechCrunch", "https://techcrunch.com", "https://techcrunch.com/feed/", "tech"),
		feed("Ars Technica", "https://arstechnica.com", "https://feeds.arstechnica.com/arstechnica/index", "tech"),
		feed("The Verge", "https://www.theverge.com", "https://www.theverge.com/rss/index.xml", "tech"),
		feed("MIT Technology Review AI", "https://www.technologyreview.com/topic/artificial-intelligence/",
			"https://www.technologyreview.com/topic/artificial-intelligence/feed", "ai"),
		feed("WSJ Markets", "https://www.wsj.com/news/markets", "https://feeds.a.dj.com/rss/WSJcomUSBusiness.xml", "finance"),
		feed("Financial Times", "https://www.ft.com", "https://www.ft.com/?format=rss", "finance"),
		feed("CSS Tricks", "https://css-tricks.com", "https://css-tricks.com/feed/", "webdev"),
		feed("Smashing Magazine", "https://www.smashingmagazine.com", "https://www.smashingmagazine.com/feed/", "webdev"),
		feed("Designer News", "https://www.designernews.co", "https://www.designernews.co/?format=rss", "design"),
		feed("Reuters Technology", "https://www.reuters.com/technology",
			"https://www.reutersagency.com/feed/?taxonomy=best-topics&post_type=best", "tech"),
	}
}
