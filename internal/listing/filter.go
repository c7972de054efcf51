package listing

import (
	"net/url"
	"strconv"

	"github.com/uptrace/bun"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Filter captures the recognized search/filter/pagination parameters.
// Zero values mean "not set"; OwnerID is bound only when the caller asked
// for mine=true while authenticated.
type Filter struct {
	Query        string
	Category     string
	OwnerID      int64
	InStock      bool
	DiscountOnly bool
	MinRating    float64
	MinPrice     int64
	MaxPrice     int64
	Page         int
	Limit        int
}

// ParseFilter reads filter options from query parameters. callerID is the
// authenticated caller's id, or 0 when the request is anonymous.
// Accepts the legacy aliases "cat" for category and "rating" for minRating.
func ParseFilter(values url.Values, callerID int64) Filter {
	f := Filter{
		Query:        values.Get("q"),
		Category:     values.Get("category"),
		InStock:      parseBool(values.Get("in_stock")),
		DiscountOnly: parseBool(values.Get("discount")),
		MinRating:    parseFloat(values.Get("minRating")),
		MinPrice:     parseInt(values.Get("minPrice")),
		MaxPrice:     parseInt(values.Get("maxPrice")),
		Page:         1,
		Limit:        defaultLimit,
	}

	if f.Category == "" {
		f.Category = values.Get("cat")
	}
	if f.MinRating == 0 {
		f.MinRating = parseFloat(values.Get("rating"))
	}
	if parseBool(values.Get("mine")) && callerID > 0 {
		f.OwnerID = callerID
	}

	if page := parseInt(values.Get("page")); page > 1 {
		f.Page = int(page)
	}
	if limit := parseInt(values.Get("limit")); limit > 0 {
		f.Limit = int(limit)
		if f.Limit > maxLimit {
			f.Limit = maxLimit
		}
	}

	return f
}

// Apply adds the WHERE clauses for this filter to a select query. All
// values travel as bind parameters. Used unchanged for both the page
// query and the count query so totals always match the filters.
func (f Filter) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where("(title LIKE ? OR description LIKE ? OR category LIKE ?)", like, like, like)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.OwnerID > 0 {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.InStock {
		// Rows that predate the column stay visible
		q = q.Where("(in_stock = 1 OR in_stock IS NULL)")
	}
	if f.DiscountOnly {
		q = q.Where("discount > 0")
	}
	if f.MinRating > 0 {
		q = q.Where("rating >= ?", f.MinRating)
	}
	if f.MinPrice > 0 || f.MaxPrice > 0 {
		// Prices are stored as text; rows whose price is not a number must
		// fail both bounds silently instead of casting to 0.
		q = q.Where("price GLOB '[0-9]*'")
		if f.MinPrice > 0 {
			q = q.Where("CAST(price AS INTEGER) >= ?", f.MinPrice)
		}
		if f.MaxPrice > 0 {
			q = q.Where("CAST(price AS INTEGER) <= ?", f.MaxPrice)
		}
	}
	return q
}

// Offset computes the page slice offset from the 1-based page number
func (f Filter) Offset() int {
	return (f.Page - 1) * f.Limit
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}

func parseInt(v string) int64 {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseFloat(v string) float64 {
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
