// Package filter applies client side predicates to normalized listings.
package filter

import (
	"strings"
	"time"

	"github.com/samber/lo"

	"homescout/server/internal/models"
)

// NewListingDays is how young a listing must be to count as new.
const NewListingDays = 7

// categories expands a requested property type into the subtypes it accepts.
var categories = map[string][]string{
	"house": {
		models.TypeSingleFamily, models.TypeTownhome, models.TypeCondo,
		models.TypeCoop, models.TypeApartment,
	},
	"single_family": {models.TypeSingleFamily},
	"condo":         {models.TypeCondo, models.TypeCoop},
	"townhouse":     {models.TypeTownhome},
	"townhome":      {models.TypeTownhome},
	"townhomes":     {models.TypeTownhome},
	"apartment":     {models.TypeApartment},
	"multi_family":  {models.TypeMultiFamily},
	"land":          {models.TypeLand},
	"mobile":        {models.TypeMobile},
	"farm":          {models.TypeFarm},
}

// Criteria is the filter set. Zero values disable a filter.
type Criteria struct {
	PropertyType string
	MinPrice     int64
	MaxPrice     int64
	Bedrooms     int
	Bathrooms    float64
	DateRange    int
	PriceChange  string
	DaysOnMarket int
}

// FromQuery extracts the filter set from a search query.
func FromQuery(q models.SearchQuery) Criteria {
	return Criteria{
		PropertyType: q.PropertyType,
		MinPrice:     q.MinPrice,
		MaxPrice:     q.MaxPrice,
		Bedrooms:     q.Bedrooms,
		Bathrooms:    q.Bathrooms,
		DateRange:    q.DateRange,
		PriceChange:  q.PriceChange,
		DaysOnMarket: q.DaysOnMarket,
	}
}

// AcceptedTypes returns the subtypes a requested type matches, or nil when
// the type filter is disabled.
func AcceptedTypes(requested string) []string {
	key := strings.ToLower(strings.TrimSpace(requested))
	key = strings.ReplaceAll(strings.ReplaceAll(key, "-", "_"), " ", "_")
	if key == "" || key == "any" || key == "all" {
		return nil
	}
	if subtypes, ok := categories[key]; ok {
		return subtypes
	}
	return []string{key}
}

// Apply filters against the wall clock.
func Apply(properties []models.Property, c Criteria) []models.Property {
	return ApplyAt(properties, c, time.Now())
}

// ApplyAt keeps the properties matching every criterion. now is used for
// all day based checks in the pass. The input slice is not modified.
func ApplyAt(properties []models.Property, c Criteria, now time.Time) []models.Property {
	accepted := AcceptedTypes(c.PropertyType)
	priceChange := strings.ToLower(strings.TrimSpace(c.PriceChange))

	return lo.Filter(properties, func(p models.Property, _ int) bool {
		if p.Price < c.MinPrice {
			return false
		}
		if c.MaxPrice > 0 && c.MaxPrice != models.NoPriceLimit && p.Price >= c.MaxPrice {
			return false
		}
		if p.Bedrooms < c.Bedrooms || p.Bathrooms < c.Bathrooms {
			return false
		}
		if accepted != nil && !lo.Contains(accepted, p.PropertyType) {
			return false
		}

		dom := p.DaysOnMarket(now)
		if c.DateRange > 0 && dom > c.DateRange {
			return false
		}
		if c.DaysOnMarket > 0 && dom > c.DaysOnMarket {
			return false
		}

		switch priceChange {
		case models.PriceChangeReduced:
			return p.PriceReduction > 0
		case models.PriceChangeNew:
			return dom <= NewListingDays
		default:
			// "increased" cannot be checked without price history
			return true
		}
	})
}
