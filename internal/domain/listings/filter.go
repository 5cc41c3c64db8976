package listings

import (
	"strings"
)

const (
	defaultListLimit = 24
	maxListLimit     = 100
)

// ListSort defines a supported ordering.
type ListSort string

const (
	SortNewest    ListSort = "newest"
	SortPriceAsc  ListSort = "price_asc"
	SortPriceDesc ListSort = "price_desc"
	SortRating    ListSort = "rating_desc"
)

// ListFilter describes catalog filters and paging options.
type ListFilter struct {
	Owner      OwnerID
	OnlyActive bool
	City       string
	Category   Category
	Sort       ListSort
	Limit      int
	Offset     int
}

// Normalized returns a sanitized copy of the filter.
func (f ListFilter) Normalized() ListFilter {
	out := f
	out.City = strings.ToLower(strings.TrimSpace(out.City))
	out.Category = Category(strings.ToLower(strings.TrimSpace(string(out.Category))))
	if out.Limit <= 0 {
		out.Limit = defaultListLimit
	}
	if out.Limit > maxListLimit {
		out.Limit = maxListLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	switch out.Sort {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortRating:
	default:
		out.Sort = SortNewest
	}
	return out
}

// Matches applies the filter to a single listing; used by in-memory stores.
func (f ListFilter) Matches(l *Listing) bool {
	if l == nil {
		return false
	}
	if f.Owner != "" && l.Owner != f.Owner {
		return false
	}
	if f.OnlyActive && !l.Active {
		return false
	}
	if f.City != "" && strings.ToLower(l.Address.City) != f.City {
		return false
	}
	if f.Category != "" && l.Category != f.Category {
		return false
	}
	return true
}
