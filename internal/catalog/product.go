package catalog

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/amzgrab/amzgrab/internal/marketplace"
)

// Fetcher is the transport collaborator: a blocking fetch of the raw
// markup behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// DetailLevel selects how much enrichment FetchDetails performs. Each
// level includes all effects of the lower ones.
type DetailLevel int

const (
	// LevelSearch uses search-tile data only, no network activity.
	LevelSearch DetailLevel = iota
	// LevelBasic fetches the product detail page.
	LevelBasic
	// LevelReviews additionally fetches the reviews page.
	LevelReviews
	// LevelFull is reserved for Q&A enrichment and currently behaves
	// like LevelReviews.
	LevelFull
)

func (l DetailLevel) String() string {
	switch l {
	case LevelSearch:
		return "search"
	case LevelBasic:
		return "basic"
	case LevelReviews:
		return "reviews"
	case LevelFull:
		return "full"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseDetailLevel maps a level name to its DetailLevel.
func ParseDetailLevel(s string) (DetailLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "search":
		return LevelSearch, nil
	case "basic":
		return LevelBasic, nil
	case "reviews":
		return LevelReviews, nil
	case "full":
		return LevelFull, nil
	}
	return LevelSearch, fmt.Errorf("catalog: unknown detail level %q", s)
}

var (
	asinRe      = regexp.MustCompile(`(?:/|%2F|%2f)dp(?:/|%2F|%2f)([A-Z0-9]{10})`)
	priceRunRe  = regexp.MustCompile(`[\d.,]+`)
	priceTextRe = regexp.MustCompile(`^[^a-z\-]+$`)
)

// Product is one search result: the fields extracted from its tile plus
// the enrichment records populated by FetchDetails. A product is valid
// only when at least one field was extracted and an ASIN could be derived
// from its URL.
type Product struct {
	container
	Title           string
	ProductURL      string
	ImageURL        string
	Rating          *Rating
	Prices          *Doc
	ExtraAttributes *Doc
	Subtext         []string
	Details         *Details
	Reviews         *Reviews

	region   string
	asin     string
	fetchErr string
}

func newProduct(region string) *Product {
	if region == "" {
		region = marketplace.DefaultRegion
	}
	p := &Product{
		region:          region,
		Prices:          NewDoc(),
		ExtraAttributes: NewDoc(),
	}
	p.bind([]field{
		{"title", func() (any, bool) { return p.Title, p.Title != "" }},
		{"product_url", func() (any, bool) { return p.ProductURL, p.ProductURL != "" }},
		{"image_url", func() (any, bool) { return p.ImageURL, p.ImageURL != "" }},
		{"rating", func() (any, bool) { return p.Rating, p.Rating != nil }},
		{"prices", func() (any, bool) { return p.Prices, p.Prices.Len() > 0 }},
		{"extra_attributes", func() (any, bool) { return p.ExtraAttributes, p.ExtraAttributes.Len() > 0 }},
		{"subtext", func() (any, bool) { return p.Subtext, len(p.Subtext) > 0 }},
		{"details", func() (any, bool) { return p.Details, p.Details != nil }},
		{"reviews", func() (any, bool) { return p.Reviews, p.Reviews != nil }},
	})
	return p
}

// NewProductForASIN builds a minimal valid product pointing at the given
// ASIN's detail page, ready for enrichment.
func NewProductForASIN(asin, region string) (*Product, error) {
	base, err := marketplace.BaseURL(region)
	if err != nil {
		return nil, err
	}
	p := newProduct(region)
	p.ProductURL = marketplace.ProductURL(base, asin)
	p.asin = asin
	p.markValid()
	return p, nil
}

// ParseProduct extracts a Product from one search result tile. When the
// anchor wrapping the tile heading is missing, the extraction fails
// benignly and the returned record is simply invalid.
func ParseProduct(sel *goquery.Selection, region string) *Product {
	p := newProduct(region)

	anchor := sel.Find("a").FilterFunction(func(_ int, a *goquery.Selection) bool {
		return a.Find("h2").Length() > 0
	}).First()
	if anchor.Length() == 0 {
		return p
	}

	extracted := false

	if title := cleanSpace(anchor.Find("h2").Text()); title != "" {
		p.Title = title
		extracted = true
	}
	if href := anchor.AttrOr("href", ""); href != "" {
		if resolved, err := marketplace.Resolve(href, p.region); err == nil {
			p.ProductURL = resolved
		} else {
			p.ProductURL = href
		}
		extracted = true
	}

	anchor.Parent().Parent().Find(subtextRowSel).Each(func(_ int, row *goquery.Selection) {
		if text := cleanSpace(row.Find(subtextSpanSel).Text()); text != "" {
			p.Subtext = append(p.Subtext, text)
			extracted = true
		}
	})

	if src := sel.Find(tileImageSel).First().AttrOr("src", ""); src != "" {
		p.ImageURL = src
		extracted = true
	}

	if rating := ParseRating(sel); rating.IsValid() {
		p.Rating = rating
		extracted = true
	}

	p.Prices = parseTilePrices(sel)
	if p.Prices.Len() > 0 {
		extracted = true
	}

	p.ExtraAttributes = parseTileExtras(sel)
	if p.ExtraAttributes.Len() > 0 {
		extracted = true
	}

	p.asin = deriveASIN(p.ProductURL)
	if extracted && p.asin != "" {
		p.markValid()
	}
	return p
}

// parseTilePrices pairs price-label headings with price text elements
// positionally; prices beyond the available labels get stringified ordinal
// keys. A candidate price element qualifies only when its text contains no
// lowercase letters or hyphens, a decimal separator, and at least one
// digit, which rejects badges sharing the price styling classes.
func parseTilePrices(sel *goquery.Selection) *Doc {
	prices := NewDoc()

	var labels []string
	sel.Find(priceLabelSel).Each(func(_ int, label *goquery.Selection) {
		labels = append(labels, strings.TrimSpace(label.Text()))
	})

	i := 0
	sel.Find(priceTextSel).Each(func(_ int, span *goquery.Selection) {
		if span.Children().Length() > 0 {
			return
		}
		text := strings.TrimSpace(span.Text())
		if !isPriceText(text) {
			return
		}
		key := strconv.Itoa(prices.Len())
		if i < len(labels) {
			key = labels[i]
		}
		prices.Set(key, text)
		i++
	})
	return prices
}

func isPriceText(text string) bool {
	return text != "" &&
		priceTextRe.MatchString(text) &&
		strings.ContainsAny(text, ".,") &&
		strings.ContainsAny(text, "0123456789")
}

// parseTileExtras reads the left-grid key/value spans, pairing consecutive
// entries.
func parseTileExtras(sel *goquery.Selection) *Doc {
	extras := NewDoc()
	var texts []string
	sel.Find(extraGridSel).Each(func(_ int, span *goquery.Selection) {
		texts = append(texts, cleanSpace(span.Text()))
	})
	for i := 0; i+1 < len(texts); i += 2 {
		if texts[i] != "" {
			extras.Set(texts[i], texts[i+1])
		}
	}
	return extras
}

// deriveASIN matches the fixed dp/<10-char> path pattern inside a product
// URL, handling both literal and percent-encoded separators.
func deriveASIN(productURL string) string {
	m := asinRe.FindStringSubmatch(productURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// ASIN returns the product identifier derived from the URL at
// construction, or "" when none could be derived.
func (p *Product) ASIN() string { return p.asin }

// Region returns the region code the product was built with.
func (p *Product) Region() string { return p.region }

// FetchError returns the message recorded by the last failed enrichment
// fetch, or "" when the last enrichment succeeded.
func (p *Product) FetchError() string { return p.fetchErr }

// GetPrices parses the stored price text into floats, sorted ascending.
// With no keys, every price entry contributes; an unknown key returns a
// NotFoundError. Invalid products yield an empty list.
func (p *Product) GetPrices(keys ...string) ([]float64, error) {
	if !p.IsValid() {
		return nil, nil
	}
	if len(keys) == 0 {
		keys = p.Prices.Keys()
	}
	var out []float64
	for _, k := range keys {
		text, ok := p.Prices.GetString(k)
		if !ok {
			return nil, &NotFoundError{Key: k}
		}
		for _, run := range priceRunRe.FindAllString(text, -1) {
			if v, err := strconv.ParseFloat(strings.ReplaceAll(run, ",", ""), 64); err == nil {
				out = append(out, v)
			}
		}
	}
	sort.Float64s(out)
	return out, nil
}

// FetchDetails enriches the product by fetching its detail page and, from
// LevelReviews up, its reviews page. An unknown region is rejected up
// front and returned as an error. Transport failures are recorded on the
// product rather than propagated; a failed detail fetch stops the pass, a
// failed reviews fetch keeps the detail results already obtained.
// Re-invoking re-fetches and overwrites. No-op without a derivable ASIN.
// An empty region keeps the region the product was built with.
func (p *Product) FetchDetails(ctx context.Context, client Fetcher, level DetailLevel, region string) error {
	if region != "" {
		if _, err := marketplace.BaseURL(region); err != nil {
			return err
		}
		p.region = region
	}
	if level <= LevelSearch || p.asin == "" || client == nil {
		return nil
	}

	base, err := marketplace.BaseURL(p.region)
	if err != nil {
		return err
	}
	p.fetchErr = ""

	markup, err := client.Fetch(ctx, marketplace.ProductURL(base, p.asin))
	if err != nil {
		p.fetchErr = err.Error()
		return nil
	}
	doc, err := parseDocument(markup)
	if err != nil {
		p.fetchErr = err.Error()
		return nil
	}
	p.Details = ParseDetails(doc.Selection)

	if level < LevelReviews {
		return nil
	}

	markup, err = client.Fetch(ctx, marketplace.ReviewsURL(base, p.asin))
	if err != nil {
		p.fetchErr = err.Error()
		return nil
	}
	doc, err = parseDocument(markup)
	if err != nil {
		p.fetchErr = err.Error()
		return nil
	}
	p.Reviews = ParseReviews(doc.Selection)

	// LevelFull would fetch the Q&A page here once that enrichment is
	// defined; it currently stops at reviews.
	return nil
}
