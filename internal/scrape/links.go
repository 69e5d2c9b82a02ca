package scrape

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const minLinkTextRunes = 10

var skippedHrefMarkers = []string{"#", "mailto:", "javascript:"}

var socialHosts = []string{
	"twitter.com",
	"x.com",
	"facebook.com",
	"instagram.com",
	"linkedin.com",
	"youtube.com",
	"reddit.com",
	"pinterest.com",
	"t.me",
}

// Link is a candidate article found on an index page.
type Link struct {
	URL   string
	Title string
}

// Links harvests same-host article candidates from an index page, in
// document order and without repeats.
func (x *Extractor) Links(pageURL string, body []byte) ([]Link, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	seen := make(map[string]bool)
	var links []Link

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || hasSkippedMarker(href) {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)

		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		if isSocialHost(abs.Hostname()) {
			return
		}
		if !strings.EqualFold(abs.Host, base.Host) {
			return
		}

		title := strings.Join(strings.Fields(a.Text()), " ")
		if utf8.RuneCountInString(title) < minLinkTextRunes {
			return
		}

		u := abs.String()
		if seen[u] {
			return
		}
		seen[u] = true
		links = append(links, Link{URL: u, Title: title})
	})

	return links, nil
}

func hasSkippedMarker(href string) bool {
	lower := strings.ToLower(href)
	for _, m := range skippedHrefMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func isSocialHost(host string) bool {
	host = strings.ToLower(host)
	for _, s := range socialHosts {
		if host == s || strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}
