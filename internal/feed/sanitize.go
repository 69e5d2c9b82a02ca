package feed

import (
	"bytes"
	"regexp"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

var bareAmpersand = regexp.MustCompile(`&([^a-zA-Z#]|[a-zA-Z0-9]*[^a-zA-Z0-9;#])`)

// xmlIllegal matches runes that XML 1.0 forbids in character data.
var xmlIllegal = runes.Predicate(func(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return r < 0x20 || r == 0xFFFE || r == 0xFFFF || (unicode.Is(unicode.Cs, r))
})

// sanitize repairs the most common defects of hand-rolled feeds: invalid
// UTF-8, control characters, stray byte order marks and unescaped
// ampersands. It never fails; on a transform error the input is returned.
func sanitize(data []byte) []byte {
	t := transform.Chain(runes.ReplaceIllFormed(), runes.Remove(xmlIllegal))
	out, _, err := transform.Bytes(t, data)
	if err != nil {
		return data
	}

	out = bytes.TrimPrefix(out, []byte("\xef\xbb\xbf"))
	out = bytes.TrimLeftFunc(out, unicode.IsSpace)
	out = bareAmpersand.ReplaceAllFunc(out, func(m []byte) []byte {
		return append([]byte("&amp;"), m[1:]...)
	})

	return out
}

// closeTruncated cuts a document after its last complete item or entry and
// closes the root elements, so a feed cut off mid-transfer keeps the items
// that arrived whole. It reports false when there is nothing to keep.
func closeTruncated(data []byte) ([]byte, bool) {
	atomEnd := bytes.LastIndex(data, []byte("</entry>"))
	rssEnd := bytes.LastIndex(data, []byte("</item>"))

	var cut int
	var closing string
	switch {
	case atomEnd >= 0 && atomEnd > rssEnd:
		cut, closing = atomEnd+len("</entry>"), "</feed>"
	case rssEnd >= 0 && bytes.Contains(data, []byte("<rdf:RDF")):
		cut, closing = rssEnd+len("</item>"), "</rdf:RDF>"
	case rssEnd >= 0:
		cut, closing = rssEnd+len("</item>"), "</channel></rss>"
	default:
		return nil, false
	}

	out := make([]byte, 0, cut+len(closing))
	out = append(out, data[:cut]...)
	out = append(out, closing...)
	return out, true
}
