package marketplace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		region   string
		expected string
		hasError bool
	}{
		{
			name:     "default region when empty",
			region:   "",
			expected: "https://www.amazon.com",
		},
		{
			name:     "US storefront",
			region:   "US",
			expected: "https://www.amazon.com",
		},
		{
			name:     "UK storefront",
			region:   "UK",
			expected: "https://www.amazon.co.uk",
		},
		{
			name:     "lowercase region code",
			region:   "de",
			expected: "https://www.amazon.de",
		},
		{
			name:     "unknown region",
			region:   "XX",
			hasError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, err := BaseURL(tt.region)
			if tt.hasError {
				require.Error(t, err)
				var regionErr *InvalidRegionError
				assert.ErrorAs(t, err, &regionErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, base)
		})
	}
}

func TestSearchURL(t *testing.T) {
	u, err := SearchURL("linux in a nutshell", 2, "US")
	require.NoError(t, err)
	assert.Equal(t, "https://www.amazon.com/s/ref=nb_sb_noss?sf=qz&keywords=linux+in+a+nutshell&ie=UTF8&unfiltered=1&page=2", u)
}

func TestSearchURLClampsPage(t *testing.T) {
	u, err := SearchURL("mouse", 0, "")
	require.NoError(t, err)
	assert.Contains(t, u, "page=1")
}

func TestSearchURLUnknownRegion(t *testing.T) {
	_, err := SearchURL("mouse", 1, "ZZ")
	assert.Error(t, err)
}

func TestProductAndReviewsURL(t *testing.T) {
	base, err := BaseURL("US")
	require.NoError(t, err)

	assert.Equal(t, "https://www.amazon.com/dp/B01ABCDEFG", ProductURL(base, "B01ABCDEFG"))
	assert.Equal(t, "https://www.amazon.com/product-reviews/B01ABCDEFG", ReviewsURL(base, "B01ABCDEFG"))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		href     string
		region   string
		expected string
	}{
		{
			name:     "root-relative href",
			href:     "/Some-Product/dp/B01ABCDEFG",
			region:   "US",
			expected: "https://www.amazon.com/Some-Product/dp/B01ABCDEFG",
		},
		{
			name:     "absolute href passes through",
			href:     "https://www.amazon.de/dp/B01ABCDEFG",
			region:   "US",
			expected: "https://www.amazon.de/dp/B01ABCDEFG",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := Resolve(tt.href, tt.region)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, resolved)
		})
	}
}

func TestRegionsSorted(t *testing.T) {
	regions := Regions()
	require.NotEmpty(t, regions)
	assert.Contains(t, regions, "US")
	for i := 1; i < len(regions); i++ {
		assert.Less(t, regions[i-1], regions[i])
	}
}
