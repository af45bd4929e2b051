package models

import (
	"strconv"
	"strings"
)

const (
	// NoPriceLimit is the "any price" sentinel sent by clients as maxPrice.
	NoPriceLimit int64 = 10_000_000

	DefaultLimit = 20
	// MaxLimit is the ceiling imposed by the primary upstream.
	MaxLimit = 200
)

// Price change refinements.
const (
	PriceChangeReduced   = "reduced"
	PriceChangeIncreased = "increased"
	PriceChangeNew       = "new"
)

// SearchQuery holds the caller's search parameters.
type SearchQuery struct {
	Location     string  `form:"location" json:"location"`
	PropertyType string  `form:"propertyType" json:"property_type"`
	MinPrice     int64   `form:"minPrice" json:"min_price"`
	MaxPrice     int64   `form:"maxPrice" json:"max_price"`
	Bedrooms     int     `form:"bedrooms" json:"bedrooms"`
	Bathrooms    float64 `form:"bathrooms" json:"bathrooms"`
	Limit        int     `form:"limit" json:"limit"`
	DateRange    int     `form:"dateRange" json:"date_range"`
	PriceChange  string  `form:"priceChange" json:"price_change"`
	DaysOnMarket int     `form:"daysOnMarket" json:"days_on_market"`
}

// Bounded returns a copy with the limit clamped into [1, MaxLimit].
func (q SearchQuery) Bounded() SearchQuery {
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultLimit
	case q.Limit > MaxLimit:
		q.Limit = MaxLimit
	}
	return q
}

// Fingerprint is the deterministic cache key built from every field.
func (q SearchQuery) Fingerprint() string {
	fields := []string{
		strings.ToLower(strings.TrimSpace(q.Location)),
		strings.ToLower(strings.TrimSpace(q.PropertyType)),
		strconv.FormatInt(q.MinPrice, 10),
		strconv.FormatInt(q.MaxPrice, 10),
		strconv.Itoa(q.Bedrooms),
		strconv.FormatFloat(q.Bathrooms, 'f', -1, 64),
		strconv.Itoa(q.Limit),
		strconv.Itoa(q.DateRange),
		strings.ToLower(strings.TrimSpace(q.PriceChange)),
		strconv.Itoa(q.DaysOnMarket),
	}
	return strings.Join(fields, "|")
}
