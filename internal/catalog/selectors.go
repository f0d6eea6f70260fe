package catalog

// Selector candidates per field, primary first. The first selector that
// yields non-empty content wins; missing markup leaves the field absent.

// Search result tiles.
const (
	searchTileSel  = `div[data-asin][data-component-type="s-search-result"]`
	subtextRowSel  = `div[class="a-row a-spacing-none"]`
	subtextSpanSel = `span[class*="a-size-small"]`
	priceLabelSel  = `h3[data-attribute]`
	priceTextSel   = `span[class^="a"]`
	extraGridSel   = `div[class="a-fixed-left-grid-inner"] > div > span`
	tileStarsSel   = `i[class*="star"]`
	tileReviewsSel = `a[href*="customerReviews"]`
	tileImageSel   = `img[src]`
)

// Product detail pages.
var (
	detailTitleSel       = []string{"#productTitle"}
	detailBrandSel       = []string{"#bylineInfo"}
	detailBulletsSel     = []string{"#feature-bullets ul li span"}
	detailDescriptionSel = []string{"#productDescription", "#productDescription_feature_div"}
	detailTechRowsSel    = []string{
		"#prodDetails table tr",
		"#productDetails_techSpec_section_1 tr",
		"#productDetails_detailBullets_sections1 tr",
	}
	detailImagesSel      = []string{"#altImages img", "#imageBlock img", "#landingImage"}
	detailSummarySel     = []string{".cr-insights-widget"}
	detailReviewCountSel = []string{"#acrCustomerReviewText"}
	detailRatingSel      = []string{"#acrPopover"}
	detailHistogramSel   = []string{".a-histogram-row"}
)

// Review pages.
const (
	reviewItemSel     = `[data-hook="review"]`
	reviewTitleSel    = `[data-hook="review-title"]`
	reviewRatingSel   = `[data-hook="review-star-rating"]`
	reviewDateSel     = `[data-hook="review-date"]`
	reviewBodySel     = `[data-hook="review-body"]`
	reviewAuthorSel   = `.a-profile-name`
	reviewVerifiedSel = `[data-hook="avp-badge"]`
	reviewHelpfulSel  = `[data-hook="helpful-vote-statement"]`
	reviewImagesSel   = `[data-hook="review-image-tile"]`
	featureAspectsSel = `[data-hook="cr-insights-widget-aspects"] button`
)
