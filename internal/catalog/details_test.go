package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detailPageHTML = `
<html><body>
	<span id="productTitle"> Wireless Mouse, 2.4G Ergonomic Optical </span>
	<a id="bylineInfo" href="/stores/ACME/page">Visit the ACME Store</a>
	<div id="feature-bullets">
		<ul>
			<li><span>About this item</span></li>
			<li><span>2.4G wireless connection</span></li>
			<li><span>18-month battery life</span></li>
		</ul>
	</div>
	<div id="productDescription">A compact wireless mouse for everyday use.</div>
	<div id="prodDetails">
		<table>
			<tr><th>Brand</th><td>&lrm;ACME</td></tr>
			<tr><th>Item Weight</th><td>&lrm;3.2 ounces&lrm;</td></tr>
			<tr><th></th><td>orphan value</td></tr>
		</table>
	</div>
	<div id="altImages">
		<img src="https://m.media.example/image1.jpg">
		<img src="https://m.media.example/sprite-nav.png">
		<img src="https://m.media.example/image1.jpg">
		<img src="https://m.media.example/image2.jpg">
	</div>
	<span id="acrPopover" title="4.3 out of 5 stars"></span>
	<span id="acrCustomerReviewText">2,617 ratings</span>
	<div class="a-histogram-row">5 star 61%</div>
	<div class="a-histogram-row">4 star 21%</div>
	<div class="a-histogram-row">1 star 3%</div>
</body></html>`

func TestParseDetails(t *testing.T) {
	doc, err := parseDocument(detailPageHTML)
	require.NoError(t, err)

	d := ParseDetails(doc.Selection)
	require.True(t, d.IsValid())

	assert.Equal(t, "Wireless Mouse, 2.4G Ergonomic Optical", d.FullTitle)
	assert.Equal(t, "ACME", d.Brand)
	assert.Equal(t, "/stores/ACME/page", d.BrandURL)

	assert.Equal(t, []string{"2.4G wireless connection", "18-month battery life"}, d.AboutItems)
	assert.Equal(t, "A compact wireless mouse for everyday use.", d.Description)

	require.NotNil(t, d.TechnicalDetails)
	assert.Equal(t, []string{"Brand", "Item Weight"}, d.TechnicalDetails.Keys())
	weight, _ := d.TechnicalDetails.GetString("Item Weight")
	assert.Equal(t, "3.2 ounces", weight, "bidi marks stripped")

	assert.Equal(t, []string{
		"https://m.media.example/image1.jpg",
		"https://m.media.example/image2.jpg",
	}, d.ImageURLs, "sprites filtered, duplicates collapsed")

	require.NotNil(t, d.ReviewCount)
	assert.Equal(t, 2617, *d.ReviewCount)
	require.NotNil(t, d.AverageRating)
	assert.Equal(t, 4.3, *d.AverageRating)

	assert.Equal(t, map[int]int{5: 61, 4: 21, 1: 3}, d.StarDistribution)
}

func TestParseDetailsInvalidWithoutTitle(t *testing.T) {
	doc, err := parseDocument(`<html><body><a id="bylineInfo">Brand: ACME</a></body></html>`)
	require.NoError(t, err)

	d := ParseDetails(doc.Selection)
	assert.False(t, d.IsValid())
	// Extracted fields survive even on an invalid record.
	assert.Equal(t, "ACME", d.Brand)
	assert.Empty(t, d.Items(), "invalid records enumerate nothing")
}

func TestStripBrandPrefix(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"store byline", "Visit the ACME Store", "ACME"},
		{"brand label", "Brand: ACME", "ACME"},
		{"bare name untouched", "ACME", "ACME"},
		{"store word inside name kept", "Visit the Store Brand Store", "Store Brand"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripBrandPrefix(tt.in))
		})
	}
}
