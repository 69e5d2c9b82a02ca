package api

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/news-curator/internal/article"
)

// Channel describes the exported feed itself.
type Channel struct {
	Title       string
	Link        string
	SelfLink    string
	Description string
	Version     string
}

// RSSGenerator renders curated articles as an RSS 2.0 document.
type RSSGenerator struct {
	now func() time.Time
}

func NewRSSGenerator() *RSSGenerator {
	return &RSSGenerator{now: time.Now}
}

func (g *RSSGenerator) Run(ch Channel, articles []article.Article) string {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", ch.Title, 4)
	g.writeElement(&buf, "link", ch.Link, 4)
	g.writeElement(&buf, "description", cmp.Or(ch.Description, "Curated articles"), 4)

	if ch.SelfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(ch.SelfLink)))
	}

	lastBuildDate := g.now().UTC()
	if len(articles) > 0 && articles[0].PublishedAt.Time != nil {
		lastBuildDate = *articles[0].PublishedAt.Time
	}
	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("NewsCurator/%s", cmp.Or(ch.Version, "dev")), 4)

	for _, a := range articles {
		g.writeItem(&buf, a)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String()
}

func (g *RSSGenerator) writeItem(buf *bytes.Buffer, a article.Article) {
	buf.WriteString("    <item>\n")

	buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(a.URL)))
	xml.EscapeText(buf, []byte(a.URL))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", a.Title, 6)
	g.writeElement(buf, "link", a.URL, 6)
	g.writeElement(buf, "description", cmp.Or(a.Summary, "No description available"), 6)

	if a.Content != "" && a.Content != a.Summary {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(strings.ReplaceAll(a.Content, "]]>", "]]]]><![CDATA[>"))
		buf.WriteString("]]></content:encoded>\n")
	}

	// Unparsed dates are not valid RFC 822 and are left out.
	if a.PublishedAt.Time != nil {
		g.writeElement(buf, "pubDate", a.PublishedAt.Time.Format(time.RFC1123Z), 6)
	}

	g.writeElement(buf, "author", a.Author, 6)
	g.writeElement(buf, "source", a.SourceName, 6)

	for _, tag := range a.Tags {
		g.writeElement(buf, "category", tag, 6)
	}

	if a.ImageURL != "" {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"image/jpeg\" />\n",
			html.EscapeString(a.ImageURL)))
	}

	buf.WriteString("    </item>\n")
}

func (g *RSSGenerator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *RSSGenerator) isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
