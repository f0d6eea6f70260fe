package catalog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	titleRatingPrefixRe = regexp.MustCompile(`^\d+\.?\d*\s*out\s*of\s*5\s*stars?\s*`)
	reviewedOnRe        = regexp.MustCompile(`on\s+(.+)$`)
	helpfulCountRe      = regexp.MustCompile(`([\d,]+)\s*people?\s*found`)
	featureButtonRe     = regexp.MustCompile(`^([^(]+)\s*\(([^)]+)\)`)
)

// Review is a single customer review. Every field is extracted
// independently; a review is valid when it has at least a body text or a
// title.
type Review struct {
	container
	Reviewer     string
	Rating       *float64
	Title        string
	Date         string
	Text         string
	Verified     bool
	HelpfulCount int
	Images       []string
}

func newReview() *Review {
	r := &Review{}
	r.bind([]field{
		{"reviewer", func() (any, bool) { return r.Reviewer, r.Reviewer != "" }},
		{"rating", func() (any, bool) {
			if r.Rating == nil {
				return nil, false
			}
			return *r.Rating, true
		}},
		{"title", func() (any, bool) { return r.Title, r.Title != "" }},
		{"date", func() (any, bool) { return r.Date, r.Date != "" }},
		{"text", func() (any, bool) { return r.Text, r.Text != "" }},
		{"verified", func() (any, bool) { return r.Verified, true }},
		{"helpful_count", func() (any, bool) { return r.HelpfulCount, true }},
		{"images", func() (any, bool) { return r.Images, len(r.Images) > 0 }},
	})
	return r
}

// ParseReview extracts one review from its markup fragment.
func ParseReview(sel *goquery.Selection) *Review {
	r := newReview()

	r.Reviewer = strings.TrimSpace(sel.Find(reviewAuthorSel).First().Text())

	if text := sel.Find(reviewRatingSel).First().Text(); text != "" {
		if m := outOfFiveRe.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				r.Rating = &v
			}
		}
	}

	// The title element commonly repeats the star rating as a prefix.
	if title := strings.TrimSpace(sel.Find(reviewTitleSel).First().Text()); title != "" {
		r.Title = strings.TrimSpace(titleRatingPrefixRe.ReplaceAllString(title, ""))
	}

	if date := strings.TrimSpace(sel.Find(reviewDateSel).First().Text()); date != "" {
		if m := reviewedOnRe.FindStringSubmatch(date); m != nil {
			r.Date = strings.TrimSpace(m[1])
		} else {
			r.Date = date
		}
	}

	r.Text = strings.TrimSpace(sel.Find(reviewBodySel).First().Text())
	r.Verified = sel.Find(reviewVerifiedSel).Length() > 0
	r.HelpfulCount = parseHelpfulCount(sel)

	sel.Find(reviewImagesSel).Each(func(_ int, img *goquery.Selection) {
		if src, ok := img.Attr("src"); ok && src != "" {
			r.Images = append(r.Images, src)
		}
	})

	if r.Text != "" || r.Title != "" {
		r.markValid()
	}
	return r
}

// parseHelpfulCount recognizes the three textual forms of the helpful-vote
// statement: "<N> people found this helpful", the singular phrasing, and a
// missing element, which counts as zero.
func parseHelpfulCount(sel *goquery.Selection) int {
	helpful := sel.Find(reviewHelpfulSel)
	if helpful.Length() == 0 {
		return 0
	}
	text := helpful.First().Text()
	if m := helpfulCountRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
			return n
		}
	}
	if strings.Contains(text, "One person") {
		return 1
	}
	return 0
}

// Reviews is the record parsed from a product reviews page. Only valid
// member reviews are retained; the collection is valid when at least one
// survived.
type Reviews struct {
	container
	Reviews        []*Review
	TotalCount     *int
	FeatureRatings *Doc
}

func newReviews() *Reviews {
	rs := &Reviews{}
	rs.bind([]field{
		{"reviews", func() (any, bool) { return rs.Reviews, len(rs.Reviews) > 0 }},
		{"total_count", func() (any, bool) {
			if rs.TotalCount == nil {
				return nil, false
			}
			return *rs.TotalCount, true
		}},
		{"feature_ratings", func() (any, bool) { return rs.FeatureRatings, rs.FeatureRatings.Len() > 0 }},
	})
	return rs
}

// ParseReviews extracts all valid reviews, the total review count and the
// feature-rating widget from a reviews page.
func ParseReviews(sel *goquery.Selection) *Reviews {
	rs := newReviews()

	sel.Find(reviewItemSel).Each(func(_ int, item *goquery.Selection) {
		if review := ParseReview(item); review.IsValid() {
			rs.Reviews = append(rs.Reviews, review)
		}
	})

	if countText := firstText(sel, detailReviewCountSel); countText != "" {
		if m := reviewCountRe.FindString(countText); m != "" {
			if n, err := strconv.Atoi(strings.ReplaceAll(m, ",", "")); err == nil {
				rs.TotalCount = &n
			}
		}
	}

	features := NewDoc()
	sel.Find(featureAspectsSel).Each(func(_ int, btn *goquery.Selection) {
		if m := featureButtonRe.FindStringSubmatch(strings.TrimSpace(btn.Text())); m != nil {
			features.Set(strings.TrimSpace(m[1]), strings.TrimSpace(m[2]))
		}
	})
	if features.Len() > 0 {
		rs.FeatureRatings = features
	}

	if len(rs.Reviews) > 0 {
		rs.markValid()
	}
	return rs
}

// Len returns the number of retained reviews.
func (rs *Reviews) Len() int {
	return len(rs.Reviews)
}
