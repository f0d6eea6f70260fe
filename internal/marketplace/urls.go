// Package marketplace builds Amazon URLs for the supported regional
// storefronts.
package marketplace

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// DefaultRegion is used whenever a caller does not specify a region code.
const DefaultRegion = "US"

const baseURLPrefix = "https://www.amazon"

// searchPath carries the fixed query parameters Amazon expects on an
// unfiltered keyword search.
const searchPath = "%s/s/ref=nb_sb_noss?sf=qz&keywords=%s&ie=UTF8&unfiltered=1&page=%d"

var regionDomains = map[string]string{
	"AU": ".com.au",
	"BR": ".com.br",
	"CA": ".ca",
	"CN": ".cn",
	"DE": ".de",
	"ES": ".es",
	"FR": ".fr",
	"IN": ".in",
	"IT": ".it",
	"JP": ".co.jp",
	"MX": ".com.mx",
	"NL": ".nl",
	"SG": ".com.sg",
	"UK": ".co.uk",
	"US": ".com",
}

// InvalidRegionError reports an unrecognized region code.
type InvalidRegionError struct {
	Region string
}

func (e *InvalidRegionError) Error() string {
	return fmt.Sprintf("marketplace: %q is not a known Amazon region", e.Region)
}

// Regions returns all supported region codes in sorted order.
func Regions() []string {
	out := make([]string, 0, len(regionDomains))
	for code := range regionDomains {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// BaseURL returns the storefront base URL for a region code. Region codes
// are case-insensitive.
func BaseURL(region string) (string, error) {
	if region == "" {
		region = DefaultRegion
	}
	domain, ok := regionDomains[strings.ToUpper(region)]
	if !ok {
		return "", &InvalidRegionError{Region: region}
	}
	return baseURLPrefix + domain, nil
}

// SearchURL builds the search results URL for a query and page number.
func SearchURL(query string, page int, region string) (string, error) {
	base, err := BaseURL(region)
	if err != nil {
		return "", err
	}
	if page < 1 {
		page = 1
	}
	return fmt.Sprintf(searchPath, base, url.QueryEscape(query), page), nil
}

// ProductURL builds the product detail page URL for an ASIN.
func ProductURL(base, asin string) string {
	return base + "/dp/" + asin
}

// ReviewsURL builds the customer reviews page URL for an ASIN.
func ReviewsURL(base, asin string) string {
	return base + "/product-reviews/" + asin
}

// Resolve turns a root-relative href from scraped markup into an absolute
// URL on the region's storefront. Absolute hrefs pass through unchanged.
func Resolve(href, region string) (string, error) {
	if !strings.HasPrefix(href, "/") {
		return href, nil
	}
	base, err := BaseURL(region)
	if err != nil {
		return "", err
	}
	return base + href, nil
}
