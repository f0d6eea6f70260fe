package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/amzgrab/amzgrab/internal/marketplace"
)

// Collection is an ordered, ASIN-unique set of products built from one or
// more search result pages.
//
// Inputs form a waterfall: a query expands into one search URL per page;
// URLs are fetched into markup; markup is parsed into documents; documents
// yield product tiles. Supplying an input overrides everything derived
// from the inputs below it, so query > URLs > raw HTML > documents >
// pre-built products.
type Collection struct {
	products []*Product
	asins    []string
	byASIN   map[string]*Product
	urls     []string
}

// Entry pairs an ASIN with its product.
type Entry struct {
	ASIN    string
	Product *Product
}

type buildConfig struct {
	query    string
	pages    []int
	region   string
	urls     []string
	htmls    []string
	docs     []*goquery.Document
	products []*Product
	fetcher  Fetcher
	logger   *slog.Logger
}

// Option configures a Collection build.
type Option func(*buildConfig)

// WithQuery searches for a keyword query.
func WithQuery(query string) Option {
	return func(c *buildConfig) { c.query = query }
}

// WithPages selects the result pages to search; defaults to page 1.
func WithPages(pages ...int) Option {
	return func(c *buildConfig) { c.pages = pages }
}

// WithRegion selects the regional storefront; defaults to US.
func WithRegion(region string) Option {
	return func(c *buildConfig) { c.region = region }
}

// WithURLs builds from already-constructed search result URLs.
func WithURLs(urls ...string) Option {
	return func(c *buildConfig) { c.urls = append(c.urls, urls...) }
}

// WithHTML builds from raw search result markup.
func WithHTML(pages ...string) Option {
	return func(c *buildConfig) { c.htmls = append(c.htmls, pages...) }
}

// WithDocuments builds from parsed search result documents.
func WithDocuments(docs ...*goquery.Document) Option {
	return func(c *buildConfig) { c.docs = append(c.docs, docs...) }
}

// WithProducts builds from pre-built products, e.g. to select a single
// item out of an existing collection into an independent one.
func WithProducts(products ...*Product) Option {
	return func(c *buildConfig) { c.products = append(c.products, products...) }
}

// WithFetcher sets the transport used to fetch search pages.
func WithFetcher(f Fetcher) Option {
	return func(c *buildConfig) { c.fetcher = f }
}

// WithLogger sets the logger used to report skipped pages.
func WithLogger(logger *slog.Logger) Option {
	return func(c *buildConfig) { c.logger = logger }
}

// New builds a Collection. A page that fails to fetch or parse is logged
// and skipped, contributing zero products; New only errors on invalid
// input such as an unknown region or a query without a fetcher.
func New(ctx context.Context, opts ...Option) (*Collection, error) {
	cfg := &buildConfig{region: marketplace.DefaultRegion, logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.pages) == 0 {
		cfg.pages = []int{1}
	}

	col := &Collection{byASIN: make(map[string]*Product)}

	urls := cfg.urls
	if cfg.query != "" {
		urls = urls[:0]
		for _, page := range cfg.pages {
			u, err := marketplace.SearchURL(cfg.query, page, cfg.region)
			if err != nil {
				return nil, err
			}
			urls = append(urls, u)
		}
	}

	docs := cfg.docs
	htmls := cfg.htmls

	if len(urls) > 0 {
		if cfg.fetcher == nil {
			return nil, fmt.Errorf("catalog: building from a query or URL requires a fetcher")
		}
		col.urls = urls
		htmls = htmls[:0]
		// Pages are fetched strictly in order so that first-seen-wins
		// deduplication stays deterministic.
		for _, u := range urls {
			resolved, err := marketplace.Resolve(u, cfg.region)
			if err != nil {
				return nil, err
			}
			markup, err := cfg.fetcher.Fetch(ctx, resolved)
			if err != nil {
				cfg.logger.Warn("skipping search page", "url", resolved, "error", err)
				continue
			}
			htmls = append(htmls, markup)
		}
	}

	if len(htmls) > 0 {
		docs = docs[:0]
		for _, markup := range htmls {
			doc, err := parseDocument(markup)
			if err != nil {
				cfg.logger.Warn("skipping unparseable page", "error", err)
				continue
			}
			docs = append(docs, doc)
		}
	}

	products := cfg.products
	if len(docs) > 0 {
		products = products[:0]
		for _, doc := range docs {
			products = append(products, extractTiles(doc, cfg.region)...)
		}
	}

	for _, p := range products {
		if p == nil || !p.IsValid() || p.ASIN() == "" {
			continue
		}
		if _, dup := col.byASIN[p.ASIN()]; dup {
			continue
		}
		col.products = append(col.products, p)
		col.asins = append(col.asins, p.ASIN())
		col.byASIN[p.ASIN()] = p
	}
	return col, nil
}

// extractTiles finds the candidate product tiles on a search page: result
// fragments carrying an ASIN attribute and an h2 heading.
func extractTiles(doc *goquery.Document, region string) []*Product {
	var products []*Product
	doc.Find(searchTileSel).
		FilterFunction(func(_ int, tile *goquery.Selection) bool {
			return tile.Find("h2").Length() > 0
		}).
		Each(func(_ int, tile *goquery.Selection) {
			products = append(products, ParseProduct(tile, region))
		})
	return products
}

// Len returns the number of distinct products held.
func (c *Collection) Len() int { return len(c.products) }

// Lookup returns the product for an ASIN.
func (c *Collection) Lookup(asin string) (*Product, bool) {
	p, ok := c.byASIN[asin]
	return p, ok
}

// Get returns the product for an ASIN or a NotFoundError.
func (c *Collection) Get(asin string) (*Product, error) {
	if p, ok := c.byASIN[asin]; ok {
		return p, nil
	}
	return nil, &NotFoundError{Key: asin}
}

// LookupAt returns the product at a position; negative positions count
// from the end.
func (c *Collection) LookupAt(pos int) (*Product, bool) {
	if pos < 0 {
		pos += len(c.products)
	}
	if pos < 0 || pos >= len(c.products) {
		return nil, false
	}
	return c.products[pos], true
}

// At returns the product at a position or a NotFoundError when the
// position is out of range. Negative positions count from the end.
func (c *Collection) At(pos int) (*Product, error) {
	if p, ok := c.LookupAt(pos); ok {
		return p, nil
	}
	return nil, &NotFoundError{Key: fmt.Sprintf("position %d", pos)}
}

// AllValues projects the named attributes across every product, one row
// per product in collection order. Missing attributes yield nil entries
// unless strict is set, in which case a NotFoundError is returned.
func (c *Collection) AllValues(names []string, strict bool) ([][]any, error) {
	rows := make([][]any, 0, len(c.products))
	for i, p := range c.products {
		row := make([]any, len(names))
		for j, name := range names {
			v, ok := p.Lookup(name)
			if !ok && strict {
				return nil, &NotFoundError{Key: fmt.Sprintf("%s at %s", name, c.asins[i])}
			}
			if ok {
				row[j] = v
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ASINs returns all identifiers in collection order.
func (c *Collection) ASINs() []string {
	out := make([]string, len(c.asins))
	copy(out, c.asins)
	return out
}

// Products returns all products in collection order.
func (c *Collection) Products() []*Product {
	out := make([]*Product, len(c.products))
	copy(out, c.products)
	return out
}

// Items returns (ASIN, product) entries in collection order.
func (c *Collection) Items() []Entry {
	out := make([]Entry, len(c.products))
	for i, p := range c.products {
		out[i] = Entry{ASIN: c.asins[i], Product: p}
	}
	return out
}

// SourceURLs returns the search URLs the collection was built from, when
// it was built from a query or URLs.
func (c *Collection) SourceURLs() []string {
	out := make([]string, len(c.urls))
	copy(out, c.urls)
	return out
}

// ToDoc serializes the collection as an ordered ASIN-keyed document of
// product documents.
func (c *Collection) ToDoc(recursive, flatten bool) *Doc {
	doc := NewDoc()
	for _, e := range c.Items() {
		doc.Set(e.ASIN, e.Product.ToDoc(recursive, flatten))
	}
	return doc
}
