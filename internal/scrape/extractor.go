package scrape

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"codeberg.org/readeck/go-readability"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/lysyi3m/news-curator/internal/normalize"
)

// guess is one CSS selector to try, reading attr when set and the element
// text otherwise.
type guess struct {
	selector string
	attr     string
}

var titleGuesses = []guess{
	{selector: "h1"},
	{selector: "article h1"},
	{selector: ".article-title"},
	{selector: ".post-title"},
	{selector: `meta[property="og:title"]`, attr: "content"},
}

var contentGuesses = []string{
	"article",
	".article-content",
	".post-content",
	".entry-content",
	"main",
	".content",
}

var authorGuesses = []guess{
	{selector: `meta[name="author"]`, attr: "content"},
	{selector: `meta[property="article:author"]`, attr: "content"},
	{selector: `meta[name="DC.creator"]`, attr: "content"},
	{selector: ".author"},
	{selector: ".by-author"},
	{selector: ".article-author"},
	{selector: `a[rel="author"]`},
}

var dateGuesses = []guess{
	{selector: `meta[property="article:published_time"]`, attr: "content"},
	{selector: `meta[name="publication_date"]`, attr: "content"},
	{selector: `meta[name="DC.date"]`, attr: "content"},
	{selector: "time[datetime]", attr: "datetime"},
}

var imageGuesses = []guess{
	{selector: `meta[property="og:image"]`, attr: "content"},
	{selector: `meta[name="twitter:image"]`, attr: "content"},
	{selector: "article img", attr: "src"},
	{selector: "img", attr: "src"},
}

// noiseElements are dropped from a content subtree before its text is read.
const noiseElements = "script, style, nav, footer, aside"

type Extractor struct {
	useReadability bool
}

func NewExtractor(useReadability bool) *Extractor {
	return &Extractor{useReadability: useReadability}
}

// Article extracts a single article from a detail page.
func (x *Extractor) Article(pageURL string, body []byte) (*normalize.PageEntry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	entry := &normalize.PageEntry{
		URL:       pageURL,
		Title:     firstGuess(doc, titleGuesses),
		PageTitle: strings.TrimSpace(doc.Find("title").First().Text()),
		Author:    firstGuess(doc, authorGuesses),
		Published: firstGuess(doc, dateGuesses),
		ImageURL:  resolveURL(pageURL, firstGuess(doc, imageGuesses)),
	}

	entry.Content = x.content(doc, pageURL, body)

	return entry, nil
}

func (x *Extractor) content(doc *goquery.Document, pageURL string, body []byte) string {
	for _, sel := range contentGuesses {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if text := blockText(node); text != "" {
			return text
		}
	}

	if x.useReadability {
		if text := readableText(pageURL, body); text != "" {
			return text
		}
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	return strings.Join(paragraphs, "\n")
}

func readableText(pageURL string, body []byte) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	parsed, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		slog.Debug("Readability extraction failed", "url", pageURL, "error", err)
		return ""
	}

	var lines []string
	for _, line := range strings.Split(parsed.TextContent, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// blockText strips noise subtrees from a copy of sel and joins the trimmed
// text nodes with newlines.
func blockText(sel *goquery.Selection) string {
	clean := sel.Clone()
	clean.Find(noiseElements).Remove()

	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				parts = append(parts, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range clean.Nodes {
		walk(n)
	}

	return strings.Join(parts, "\n")
}

func firstGuess(doc *goquery.Document, guesses []guess) string {
	for _, g := range guesses {
		var value string
		doc.Find(g.selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if g.attr != "" {
				value = strings.TrimSpace(s.AttrOr(g.attr, ""))
			} else {
				value = strings.TrimSpace(s.Text())
			}
			return value == ""
		})
		if value != "" {
			return value
		}
	}
	return ""
}

func resolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return b.ResolveReference(r).String()
}
