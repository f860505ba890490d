// Package htmltext reduces the HTML fragments found in feed summaries to plain text.
package htmltext

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Text returns the visible text of an HTML fragment with entities decoded and
// whitespace collapsed. Plain text passes through with whitespace collapsed.
func Text(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	if !strings.ContainsAny(fragment, "<&") {
		return collapse(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapse(fragment)
	}

	doc.Find("script, style, noscript, iframe").Remove()
	// keep words from adjacent blocks apart
	doc.Find("br").ReplaceWithHtml(" ")
	doc.Find("p, div, li, h1, h2, h3, h4, h5, h6, figcaption").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})

	return collapse(doc.Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
