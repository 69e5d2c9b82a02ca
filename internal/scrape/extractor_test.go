package scrape

import (
	"strings"
	"testing"
)

const detailPage = `<html>
<head>
  <title>Site | Story headline</title>
  <meta name="author" content="  Jo Reporter ">
  <meta property="article:published_time" content="2024-05-06T07:08:09Z">
  <meta property="og:image" content="/images/lead.jpg">
</head>
<body>
  <nav>Home About</nav>
  <article>
    <h1>Story headline</h1>
    <script>var tracking = true;</script>
    <p>First paragraph.</p>
    <aside>Related links</aside>
    <div><p>Second <b>paragraph</b>.</p></div>
    <footer>Copyright</footer>
  </article>
</body>
</html>`

func TestExtractorArticle(t *testing.T) {
	entry, err := NewExtractor(false).Article("https://news.example.com/story", []byte(detailPage))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if entry.Title != "Story headline" {
		t.Errorf("Expected h1 title, got: %q", entry.Title)
	}
	if entry.PageTitle != "Site | Story headline" {
		t.Errorf("Expected page title, got: %q", entry.PageTitle)
	}
	if entry.Author != "Jo Reporter" {
		t.Errorf("Expected meta author, got: %q", entry.Author)
	}
	if entry.Published != "2024-05-06T07:08:09Z" {
		t.Errorf("Expected published meta, got: %q", entry.Published)
	}
	if entry.ImageURL != "https://news.example.com/images/lead.jpg" {
		t.Errorf("Expected resolved image URL, got: %q", entry.ImageURL)
	}

	want := "Story headline\nFirst paragraph.\nSecond\nparagraph\n."
	if entry.Content != want {
		t.Errorf("Expected content %q, got: %q", want, entry.Content)
	}
	for _, noise := range []string{"tracking", "Related", "Copyright"} {
		if strings.Contains(entry.Content, noise) {
			t.Errorf("Expected %q to be stripped from content", noise)
		}
	}
}

func TestExtractorFallbacks(t *testing.T) {
	page := `<html><head></head><body>
<div class="wrapper">
  <p>Only paragraph one.</p>
  <p>   </p>
  <p>Only paragraph two.</p>
</div>
</body></html>`

	entry, err := NewExtractor(false).Article("https://example.com/p", []byte(page))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if entry.Title != "" || entry.PageTitle != "" {
		t.Errorf("Expected no title guesses to match, got: %q / %q", entry.Title, entry.PageTitle)
	}
	if entry.Content != "Only paragraph one.\nOnly paragraph two." {
		t.Errorf("Expected paragraph fallback, got: %q", entry.Content)
	}
	if entry.Author != "" || entry.Published != "" || entry.ImageURL != "" {
		t.Errorf("Expected empty optional fields, got: %+v", entry)
	}
}

func TestExtractorSkipsEmptyGuess(t *testing.T) {
	page := `<html><body>
<h1>   </h1>
<div class="post-title">Real title</div>
<span class="author"></span>
<a rel="author" href="/u/sam">Sam</a>
<time datetime="2024-01-01">New Year</time>
<main><p>Main body</p></main>
</body></html>`

	entry, err := NewExtractor(false).Article("https://example.com/p", []byte(page))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if entry.Title != "Real title" {
		t.Errorf("Expected next non-empty title guess, got: %q", entry.Title)
	}
	if entry.Author != "Sam" {
		t.Errorf("Expected rel=author text, got: %q", entry.Author)
	}
	if entry.Published != "2024-01-01" {
		t.Errorf("Expected time datetime, got: %q", entry.Published)
	}
	if entry.Content != "Main body" {
		t.Errorf("Expected main content, got: %q", entry.Content)
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base, ref, want string
	}{
		{"https://a.com/x/y", "/img.png", "https://a.com/img.png"},
		{"https://a.com/x/y", "z.png", "https://a.com/x/z.png"},
		{"https://a.com/x/y", "https://cdn.b.com/i.png", "https://cdn.b.com/i.png"},
		{"https://a.com/x/y", "", ""},
	}
	for _, tt := range tests {
		if got := resolveURL(tt.base, tt.ref); got != tt.want {
			t.Errorf("resolveURL(%q, %q): expected %q, got: %q", tt.base, tt.ref, tt.want, got)
		}
	}
}
