package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRating(t *testing.T) {
	tests := []struct {
		name      string
		starText  string
		countText string
		valid     bool
		numerator float64
		count     int
	}{
		{
			name:      "typical tile text",
			starText:  "4.5 out of 5 stars",
			countText: "1,234",
			valid:     true,
			numerator: 4.5,
			count:     1234,
		},
		{
			name:      "tokens in reversed order",
			starText:  "5 stars, rated 4.5",
			countText: "87",
			valid:     true,
			numerator: 4.5,
			count:     87,
		},
		{
			name:      "promotional badge is not a rating",
			starText:  "Amazon's Choice",
			countText: "1,234",
			valid:     false,
		},
		{
			name:      "too many count tokens",
			starText:  "4.5 out of 5 stars",
			countText: "1,234 ratings from 3 countries",
			valid:     false,
		},
		{
			name:      "empty text",
			starText:  "",
			countText: "",
			valid:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRating(tt.starText, tt.countText)
			if !tt.valid {
				require.False(t, r.IsValid())
				// Raw text is only retained on valid records.
				assert.Empty(t, r.StarText)
				assert.Empty(t, r.CountText)
				assert.Zero(t, r.Numerator())
				assert.Zero(t, r.Denominator())
				assert.Zero(t, r.Percentage())
				assert.Zero(t, r.Count())
				assert.Empty(t, r.Stars("*"))
				return
			}
			require.True(t, r.IsValid())
			assert.Equal(t, tt.numerator, r.Numerator())
			assert.Equal(t, 5.0, r.Denominator())
			assert.Equal(t, tt.count, r.Count())
		})
	}
}

func TestRatingDerivedValues(t *testing.T) {
	r := NewRating("4.5 out of 5 stars", "1,234")
	require.True(t, r.IsValid())

	assert.InDelta(t, 0.9, r.Percentage(), 1e-9)
	assert.Equal(t, "*****", r.Stars("*"), "4.5 rounds up to five symbols")

	r = NewRating("3.4 out of 5 stars", "10")
	assert.Equal(t, "***", r.Stars("*"))
}

func TestParseRating(t *testing.T) {
	html := `
		<div>
			<i class="a-icon a-icon-star-small"><span class="a-icon-alt">4.2 out of 5 stars</span></i>
			<a href="/dp/B01ABCDEFG#customerReviews">867</a>
		</div>`
	doc, err := parseDocument(html)
	require.NoError(t, err)

	r := ParseRating(doc.Selection)
	require.True(t, r.IsValid())
	assert.Equal(t, 4.2, r.Numerator())
	assert.Equal(t, 867, r.Count())
}

func TestParseRatingMissingFragments(t *testing.T) {
	doc, err := parseDocument(`<div><span>no rating here</span></div>`)
	require.NoError(t, err)

	r := ParseRating(doc.Selection)
	assert.False(t, r.IsValid())
}
