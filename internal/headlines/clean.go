package headlines

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

const maxSummaryRunes = 280

var strictPolicy = bluemonday.StrictPolicy()

// CleanText turns an RSS description into plain text: embedded media and
// scripts are dropped, markup is stripped and whitespace collapsed.
func CleanText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	text := s
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
		doc.Find("script, style, figure, img, iframe").Remove()
		text = doc.Text()
	}

	text = html.UnescapeString(strictPolicy.Sanitize(text))
	return strings.Join(strings.Fields(text), " ")
}

// Truncate shortens s to at most n runes, ending on a word boundary when
// one is close.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "..."
}
