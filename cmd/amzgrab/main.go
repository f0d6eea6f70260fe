package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amzgrab/amzgrab/internal/catalog"
	"github.com/amzgrab/amzgrab/internal/config"
	"github.com/amzgrab/amzgrab/internal/marketplace"
	"github.com/amzgrab/amzgrab/internal/transport"
)

const version = "0.1.0"

var (
	flagASIN    string
	flagPage    int
	flagSelect  string
	flagRegion  string
	flagLevel   string
	flagVerbose bool
	flagJSON    bool
)

var rootCmd = &cobra.Command{
	Use:     "amzgrab [query]",
	Short:   "Search the Amazon marketplace from the command line",
	Args:    cobra.MaximumNArgs(1),
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		if flagASIN != "" {
			return runProduct(cmd.Context())
		}
		if len(args) == 0 || args[0] == "" {
			return fmt.Errorf("query is required (or use --asin ASIN)")
		}
		return runSearch(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.Flags().StringVarP(&flagASIN, "asin", "a", "", "fetch product details by ASIN instead of searching")
	rootCmd.Flags().IntVarP(&flagPage, "page", "p", 1, "the result page to search")
	rootCmd.Flags().StringVarP(&flagSelect, "select", "s", "", "select one result by ASIN or zero-based position")
	rootCmd.Flags().StringVarP(&flagRegion, "region", "r", marketplace.DefaultRegion, "the marketplace region to search")
	rootCmd.Flags().StringVarP(&flagLevel, "level", "l", "basic", "detail level for --asin lookups (search, basic, reviews, full)")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "show full product details instead of a summary")
	rootCmd.Flags().BoolVarP(&flagJSON, "json", "j", false, "output in JSON format")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newFetcher() catalog.Fetcher {
	cfg, _ := config.Load()
	return transport.NewClient(transport.Options{
		Timeout:    cfg.Transport.Timeout,
		MaxRetries: cfg.Transport.MaxRetries,
		RetryDelay: cfg.Transport.RetryDelay,
		UserAgents: cfg.Transport.UserAgents,
		Logger:     slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	})
}

func runSearch(ctx context.Context, query string) error {
	col, err := catalog.New(ctx,
		catalog.WithQuery(query),
		catalog.WithPages(flagPage),
		catalog.WithRegion(flagRegion),
		catalog.WithFetcher(newFetcher()),
	)
	if err != nil {
		return err
	}

	if flagSelect != "" {
		var prod *catalog.Product
		if pos, convErr := strconv.Atoi(flagSelect); convErr == nil {
			prod, err = col.At(pos)
		} else {
			prod, err = col.Get(flagSelect)
		}
		if err != nil {
			return err
		}
		col, err = catalog.New(ctx, catalog.WithProducts(prod))
		if err != nil {
			return err
		}
	}

	switch {
	case flagJSON:
		return printSearchJSON(col)
	case flagVerbose:
		printSearchVerbose(col)
	default:
		printSearchShort(col)
	}
	return nil
}

func runProduct(ctx context.Context) error {
	level, err := catalog.ParseDetailLevel(flagLevel)
	if err != nil {
		return err
	}
	if level == catalog.LevelSearch {
		level = catalog.LevelBasic
	}

	product, err := catalog.NewProductForASIN(flagASIN, flagRegion)
	if err != nil {
		return err
	}

	if err := product.FetchDetails(ctx, newFetcher(), level, ""); err != nil {
		return err
	}

	switch {
	case flagJSON:
		return printProductJSON(product)
	case flagVerbose:
		printProductVerbose(product)
	default:
		printProductShort(product)
	}
	return nil
}

func printSearchJSON(col *catalog.Collection) error {
	var doc *catalog.Doc
	if flagVerbose {
		doc = col.ToDoc(true, false)
	} else {
		doc = catalog.NewDoc()
		for _, e := range col.Items() {
			entry := catalog.NewDoc()
			entry.Set("title", e.Product.Title)
			entry.Set("prices", e.Product.Prices)
			if e.Product.Rating != nil {
				entry.Set("rating", e.Product.Rating.ToDoc(true, false))
			}
			entry.Set("product_url", e.Product.ProductURL)
			doc.Set(e.ASIN, entry)
		}
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}

func printSearchVerbose(col *catalog.Collection) {
	for _, e := range col.Items() {
		fmt.Printf("ASIN: %s\n", e.ASIN)
		printDoc(e.Product.ToDoc(true, false), 1)
		fmt.Println()
	}
}

// printSearchShort prints an aligned ASIN / title / prices / rating table.
func printSearchShort(col *catalog.Collection) {
	rows := [][4]string{{"ASIN", "Title", "Prices", "Rating"}}
	for _, e := range col.Items() {
		row := [4]string{e.ASIN, "----------", "------------", "-----"}

		if e.Product.Title != "" {
			title := []rune(e.Product.Title)
			if len(title) > 50 {
				title = title[:50]
			}
			row[1] = string(title)
		}
		if texts := priceRange(e.Product); texts != "" {
			row[2] = texts
		}
		if e.Product.Rating != nil && e.Product.Rating.IsValid() {
			row[3] = e.Product.Rating.Stars("*")
		}
		rows = append(rows, row)
	}

	var widths [4]int
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	for _, row := range rows {
		fmt.Printf("%-*s %-*s %-*s %-*s\n",
			widths[0]+1, row[0], widths[1]+1, row[1], widths[2]+1, row[2], widths[3]+1, row[3])
	}
}

// priceRange renders the product's prices as "low" or "low - high" using
// the displayed price texts.
func priceRange(p *catalog.Product) string {
	if p.Prices == nil || p.Prices.Len() == 0 {
		return ""
	}
	var lowKey, highKey string
	var low, high float64
	for _, key := range p.Prices.Keys() {
		vals, err := p.GetPrices(key)
		if err != nil || len(vals) == 0 {
			continue
		}
		if lowKey == "" || vals[0] < low {
			lowKey, low = key, vals[0]
		}
		if highKey == "" || vals[len(vals)-1] > high {
			highKey, high = key, vals[len(vals)-1]
		}
	}
	if lowKey == "" {
		return ""
	}
	lowText, _ := p.Prices.GetString(lowKey)
	highText, _ := p.Prices.GetString(highKey)
	if lowText == highText {
		return lowText
	}
	return lowText + " - " + highText
}

func printProductJSON(p *catalog.Product) error {
	doc := catalog.NewDoc()
	doc.Set("asin", p.ASIN())
	doc.Set("product_url", p.ProductURL)

	switch {
	case p.FetchError() != "":
		doc.Set("error", p.FetchError())
	case p.Details != nil:
		if flagVerbose {
			doc.Set("details", p.Details.ToDoc(true, false))
		} else {
			doc.Set("title", p.Details.FullTitle)
			doc.Set("brand", p.Details.Brand)
			if p.Details.AverageRating != nil {
				doc.Set("rating", *p.Details.AverageRating)
			}
			if p.Details.ReviewCount != nil {
				doc.Set("review_count", *p.Details.ReviewCount)
			}
		}
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}

func printProductVerbose(p *catalog.Product) {
	fmt.Printf("ASIN: %s\n", p.ASIN())
	fmt.Printf("URL: %s\n\n", p.ProductURL)

	switch {
	case p.FetchError() != "":
		fmt.Printf("Error: %s\n", p.FetchError())
	case p.Details != nil:
		printDoc(p.Details.ToDoc(true, false), 0)
	default:
		fmt.Println("No details available")
	}
}

func printProductShort(p *catalog.Product) {
	asin := p.ASIN()
	if asin == "" {
		asin = "N/A"
	}
	fmt.Printf("ASIN:   %s\n", asin)

	if p.FetchError() != "" {
		fmt.Printf("Error: %s\n", p.FetchError())
		return
	}
	if p.Details == nil {
		fmt.Println("No details available")
		return
	}

	fmt.Printf("Title:  %s\n", p.Details.FullTitle)
	if p.Details.Brand != "" {
		fmt.Printf("Brand:  %s\n", p.Details.Brand)
	}
	if p.Details.AverageRating != nil {
		fmt.Printf("Rating: %.1f out of 5\n", *p.Details.AverageRating)
	}
	if p.Details.ReviewCount != nil {
		fmt.Printf("Reviews: %d\n", *p.Details.ReviewCount)
	}
}

// printDoc renders a document as indented key/value lines.
func printDoc(doc *catalog.Doc, depth int) {
	pad := strings.Repeat("    ", depth)
	for _, key := range doc.Keys() {
		val, _ := doc.Get(key)
		printValue(pad, key, val, depth)
	}
}

func printValue(pad, key string, val any, depth int) {
	switch v := val.(type) {
	case *catalog.Doc:
		fmt.Printf("%s%s:\n", pad, key)
		printDoc(v, depth+1)
	case []string:
		fmt.Printf("%s%s:\n", pad, key)
		for _, item := range v {
			fmt.Printf("%s    - %s\n", pad, item)
		}
	case []any:
		fmt.Printf("%s%s:\n", pad, key)
		for _, item := range v {
			fmt.Printf("%s    - %v\n", pad, item)
		}
	case []*catalog.Doc:
		fmt.Printf("%s%s:\n", pad, key)
		for _, item := range v {
			printDoc(item, depth+1)
			fmt.Println()
		}
	default:
		fmt.Printf("%s%s: %v\n", pad, key, val)
	}
}
