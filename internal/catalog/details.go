package catalog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	reviewCountRe  = regexp.MustCompile(`[\d,]+`)
	outOfFiveRe    = regexp.MustCompile(`(\d+\.?\d*)\s*out\s*of\s*5`)
	histogramRowRe = regexp.MustCompile(`(\d)\s*star\s*(\d+)%`)
)

// Details is the record parsed from a product detail page. Every field is
// best-effort: a selector miss leaves the field absent. The record is
// valid only when a title was found.
type Details struct {
	container
	FullTitle        string
	Brand            string
	BrandURL         string
	AboutItems       []string
	TechnicalDetails *Doc
	Description      string
	ImageURLs        []string
	ReviewsSummary   string
	StarDistribution map[int]int
	ReviewCount      *int
	AverageRating    *float64
}

func newDetails() *Details {
	d := &Details{}
	d.bind([]field{
		{"full_title", func() (any, bool) { return d.FullTitle, d.FullTitle != "" }},
		{"brand", func() (any, bool) { return d.Brand, d.Brand != "" }},
		{"brand_url", func() (any, bool) { return d.BrandURL, d.BrandURL != "" }},
		{"about_items", func() (any, bool) { return d.AboutItems, len(d.AboutItems) > 0 }},
		{"technical_details", func() (any, bool) { return d.TechnicalDetails, d.TechnicalDetails.Len() > 0 }},
		{"description", func() (any, bool) { return d.Description, d.Description != "" }},
		{"image_urls", func() (any, bool) { return d.ImageURLs, len(d.ImageURLs) > 0 }},
		{"reviews_summary", func() (any, bool) { return d.ReviewsSummary, d.ReviewsSummary != "" }},
		{"star_distribution", func() (any, bool) { return d.StarDistribution, len(d.StarDistribution) > 0 }},
		{"review_count", func() (any, bool) {
			if d.ReviewCount == nil {
				return nil, false
			}
			return *d.ReviewCount, true
		}},
		{"average_rating", func() (any, bool) {
			if d.AverageRating == nil {
				return nil, false
			}
			return *d.AverageRating, true
		}},
	})
	return d
}

// ParseDetails extracts a Details record from a product detail page.
func ParseDetails(sel *goquery.Selection) *Details {
	d := newDetails()

	d.FullTitle = firstText(sel, detailTitleSel)

	if brand := firstMatch(sel, detailBrandSel); brand != nil {
		d.Brand = stripBrandPrefix(strings.TrimSpace(brand.First().Text()))
		if href, ok := brand.First().Attr("href"); ok && href != "" {
			d.BrandURL = href
		}
	}

	if bullets := firstMatch(sel, detailBulletsSel); bullets != nil {
		bullets.Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if text != "" && text != "About this item" {
				d.AboutItems = append(d.AboutItems, text)
			}
		})
	}

	d.TechnicalDetails = parseTechnicalDetails(sel)
	d.Description = firstText(sel, detailDescriptionSel)
	d.ImageURLs = parseImageURLs(sel)
	d.ReviewsSummary = firstText(sel, detailSummarySel)

	if countText := firstText(sel, detailReviewCountSel); countText != "" {
		if m := reviewCountRe.FindString(countText); m != "" {
			if n, err := strconv.Atoi(strings.ReplaceAll(m, ",", "")); err == nil {
				d.ReviewCount = &n
			}
		}
	}

	if rating := firstMatch(sel, detailRatingSel); rating != nil {
		text := rating.First().AttrOr("title", "")
		if text == "" {
			text = rating.First().Text()
		}
		if m := outOfFiveRe.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				d.AverageRating = &v
			}
		}
	}

	if rows := firstMatch(sel, detailHistogramSel); rows != nil {
		dist := make(map[int]int)
		rows.Each(func(_ int, s *goquery.Selection) {
			if m := histogramRowRe.FindStringSubmatch(s.Text()); m != nil {
				stars, _ := strconv.Atoi(m[1])
				perc, _ := strconv.Atoi(m[2])
				dist[stars] = perc
			}
		})
		if len(dist) > 0 {
			d.StarDistribution = dist
		}
	}

	if d.FullTitle != "" {
		d.markValid()
	}
	return d
}

// stripBrandPrefix normalizes byline text to the bare brand name. Only the
// matching pattern is applied.
func stripBrandPrefix(brand string) string {
	switch {
	case strings.HasPrefix(brand, "Visit the "):
		brand = strings.TrimPrefix(brand, "Visit the ")
		brand = strings.Replace(brand, " Store", "", 1)
	case strings.HasPrefix(brand, "Brand: "):
		brand = strings.TrimPrefix(brand, "Brand: ")
	}
	return strings.TrimSpace(brand)
}

// parseTechnicalDetails scrapes spec table rows from the candidate table
// layouts. A row contributes only when both header and data cell survive
// trimming and bidi-mark stripping.
func parseTechnicalDetails(sel *goquery.Selection) *Doc {
	doc := NewDoc()
	for _, css := range detailTechRowsSel {
		sel.Find(css).Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("th, td")
			if cells.Length() < 2 {
				return
			}
			key := strings.TrimSpace(stripBidi(cells.Eq(0).Text()))
			value := strings.TrimSpace(stripBidi(cells.Eq(1).Text()))
			if key != "" && value != "" {
				doc.Set(key, value)
			}
		})
	}
	return doc
}

// parseImageURLs collects gallery, thumb-list and landing image sources,
// deduplicated and with sprite/placeholder assets dropped.
func parseImageURLs(sel *goquery.Selection) []string {
	var urls []string
	seen := make(map[string]bool)
	for _, css := range detailImagesSel {
		sel.Find(css).Each(func(_ int, img *goquery.Selection) {
			src := img.AttrOr("src", "")
			if src == "" {
				src = img.AttrOr("data-old-hires", "")
			}
			if src == "" {
				src = img.AttrOr("data-a-dynamic-image", "")
			}
			if src == "" || seen[src] {
				return
			}
			lower := strings.ToLower(src)
			if strings.Contains(lower, "sprite") || strings.Contains(lower, "transparent") {
				return
			}
			seen[src] = true
			urls = append(urls, src)
		})
	}
	return urls
}
