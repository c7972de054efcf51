package listing

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFilterDefaults(t *testing.T) {
	f := ParseFilter(url.Values{}, 0)

	assert.Equal(t, 1, f.Page)
	assert.Equal(t, defaultLimit, f.Limit)
	assert.Zero(t, f.OwnerID)
	assert.False(t, f.InStock)
	assert.False(t, f.DiscountOnly)
}

func TestParseFilterClampsLimit(t *testing.T) {
	f := ParseFilter(url.Values{"limit": {"500"}}, 0)
	assert.Equal(t, maxLimit, f.Limit)

	f = ParseFilter(url.Values{"limit": {"0"}}, 0)
	assert.Equal(t, defaultLimit, f.Limit)

	f = ParseFilter(url.Values{"limit": {"-3"}}, 0)
	assert.Equal(t, defaultLimit, f.Limit)

	f = ParseFilter(url.Values{"page": {"-1"}}, 0)
	assert.Equal(t, 1, f.Page)
}

func TestParseFilterAliases(t *testing.T) {
	f := ParseFilter(url.Values{"cat": {"tools"}, "rating": {"3.5"}}, 0)
	assert.Equal(t, "tools", f.Category)
	assert.Equal(t, 3.5, f.MinRating)

	// Primary names win over aliases
	f = ParseFilter(url.Values{"category": {"books"}, "cat": {"tools"}}, 0)
	assert.Equal(t, "books", f.Category)
}

func TestParseFilterMineRequiresIdentity(t *testing.T) {
	f := ParseFilter(url.Values{"mine": {"true"}}, 0)
	assert.Zero(t, f.OwnerID, "anonymous mine=true must not bind an owner")

	f = ParseFilter(url.Values{"mine": {"true"}}, 42)
	assert.Equal(t, int64(42), f.OwnerID)

	f = ParseFilter(url.Values{"mine": {"1"}}, 42)
	assert.Equal(t, int64(42), f.OwnerID)

	f = ParseFilter(url.Values{}, 42)
	assert.Zero(t, f.OwnerID, "owner binds only when mine was requested")
}

func TestParseFilterPrices(t *testing.T) {
	f := ParseFilter(url.Values{"minPrice": {"100"}, "maxPrice": {"200"}}, 0)
	assert.Equal(t, int64(100), f.MinPrice)
	assert.Equal(t, int64(200), f.MaxPrice)

	// Non-numeric values are ignored, matching no bound
	f = ParseFilter(url.Values{"minPrice": {"cheap"}}, 0)
	assert.Zero(t, f.MinPrice)
}

func TestFilterOffset(t *testing.T) {
	f := Filter{Page: 1, Limit: 20}
	assert.Equal(t, 0, f.Offset())

	f = Filter{Page: 3, Limit: 5}
	assert.Equal(t, 10, f.Offset())
}
