package catalog

import (
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Rating holds the raw star-rating and vote-count text scraped from a
// search result tile. Derived values are computed on demand from the raw
// text and never stored.
//
// A Rating is valid only when the star text carries exactly two numeric
// tokens ("4.5 out of 5 stars") and the count text exactly one; anything
// else is treated as an unrelated fragment such as a promotional badge.
type Rating struct {
	container
	StarText  string
	CountText string
}

// NewRating builds a Rating from raw text fragments. Text is only retained
// when it passes the token-count validity check.
func NewRating(starText, countText string) *Rating {
	r := &Rating{}
	r.bind([]field{
		{"star_text", func() (any, bool) { return r.StarText, r.StarText != "" }},
		{"count_text", func() (any, bool) { return r.CountText, r.CountText != "" }},
	})
	if len(numericTokens(starText)) == 2 && len(numericTokens(countText)) == 1 {
		r.StarText = starText
		r.CountText = countText
		r.markValid()
	}
	return r
}

// ParseRating extracts the star element and customer-review-count link
// from a search result tile. The returned record is invalid when either
// fragment is missing.
func ParseRating(sel *goquery.Selection) *Rating {
	star := cleanSpace(sel.Find(tileStarsSel).First().Text())
	count := cleanSpace(sel.Find(tileReviewsSel).First().Text())
	return NewRating(star, count)
}

// Numerator returns the average star value, the smaller of the two rating
// tokens regardless of their order in the source text. 0 when invalid.
func (r *Rating) Numerator() float64 {
	if !r.IsValid() {
		return 0
	}
	toks := numericTokens(r.StarText)
	return math.Min(toks[0], toks[1])
}

// Denominator returns the rating scale, usually 5. 0 when invalid.
func (r *Rating) Denominator() float64 {
	if !r.IsValid() {
		return 0
	}
	toks := numericTokens(r.StarText)
	return math.Max(toks[0], toks[1])
}

// Percentage returns Numerator/Denominator in [0, 1], 0 when the
// denominator is zero or the record invalid.
func (r *Rating) Percentage() float64 {
	den := r.Denominator()
	if den == 0 {
		return 0
	}
	return r.Numerator() / den
}

// Count returns the number of customer votes. 0 when invalid.
func (r *Rating) Count() int {
	if !r.IsValid() {
		return 0
	}
	return int(numericTokens(r.CountText)[0])
}

// Stars renders the rating as symbol repeated round(Numerator()) times.
func (r *Rating) Stars(symbol string) string {
	if !r.IsValid() {
		return ""
	}
	return strings.Repeat(symbol, int(math.Round(r.Numerator())))
}
