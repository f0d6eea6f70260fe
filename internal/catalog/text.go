package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	numericTokenRe = regexp.MustCompile(`[\d.,-]+`)
	nonNumericRe   = regexp.MustCompile(`[^\d.]`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// numericTokens extracts every number found in free text, e.g.
// "4.5 out of 5 stars" yields [4.5, 5]. Runs that do not survive as a
// parseable number (a stray dash, grouping commas only) are skipped.
func numericTokens(s string) []float64 {
	var out []float64
	for _, tok := range numericTokenRe.FindAllString(s, -1) {
		cleaned := nonNumericRe.ReplaceAllString(tok, "")
		if cleaned == "" {
			continue
		}
		v, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// cleanSpace collapses runs of whitespace and trims the result.
func cleanSpace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// stripBidi removes the left-to-right and right-to-left marks Amazon embeds
// in spec table cells.
func stripBidi(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '‎' || r == '‏' {
			return -1
		}
		return r
	}, s)
}
