package catalog

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// firstText tries selector candidates in priority order and returns the
// trimmed text of the first one yielding non-empty content.
func firstText(sel *goquery.Selection, candidates []string) string {
	for _, css := range candidates {
		if text := strings.TrimSpace(sel.Find(css).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// firstMatch tries selector candidates in priority order and returns the
// first non-empty selection.
func firstMatch(sel *goquery.Selection, candidates []string) *goquery.Selection {
	for _, css := range candidates {
		if found := sel.Find(css); found.Length() > 0 {
			return found
		}
	}
	return nil
}

// parseDocument wraps markup text into a queryable document.
func parseDocument(markup string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(markup))
}
