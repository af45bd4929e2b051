package models

import (
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// Property types produced by the normalizer.
const (
	TypeSingleFamily = "single_family"
	TypeCondo        = "condo"
	TypeTownhome     = "townhomes"
	TypeCoop         = "coop"
	TypeApartment    = "apartment"
	TypeMultiFamily  = "multi_family"
	TypeLand         = "land"
	TypeMobile       = "mobile"
	TypeFarm         = "farm"
	TypeUnknown      = "unknown"
)

// Listing statuses.
const (
	StatusForSale      = "for_sale"
	StatusReadyToBuild = "ready_to_build"
	StatusPending      = "pending"
	StatusContingent   = "contingent"
	StatusSold         = "sold"
	StatusOffMarket    = "off_market"
)

// Agent is the listing agent. Missing fields are filled with placeholders
// by the normalizer, never left empty.
type Agent struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Property is the canonical listing record every upstream shape is mapped to.
type Property struct {
	ID             string    `json:"id"`
	Address        string    `json:"address"`
	City           string    `json:"city"`
	State          string    `json:"state"`
	PostalCode     string    `json:"postal_code"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Price          int64     `json:"price"`
	Bedrooms       int       `json:"bedrooms"`
	Bathrooms      float64   `json:"bathrooms"`
	Sqft           int       `json:"sqft"`
	LotSqft        int       `json:"lot_sqft"`
	PropertyType   string    `json:"property_type"`
	YearBuilt      int       `json:"year_built"`
	Status         string    `json:"status"`
	ListDate       time.Time `json:"list_date"`
	Images         []string  `json:"images"`
	Agent          Agent     `json:"agent"`
	URL            string    `json:"url"`
	PriceReduction int64     `json:"price_reduction"`
	LastUpdated    time.Time `json:"last_updated"`
}

// Point returns the listing location as an orb point (lng, lat).
func (p Property) Point() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// HasCoordinates reports whether the upstream supplied a usable location.
func (p Property) HasCoordinates() bool {
	return p.Latitude != 0 || p.Longitude != 0
}

// PricePerSqft returns price divided by livable area. The second value is
// false when the area is unknown.
func (p Property) PricePerSqft() (float64, bool) {
	if p.Sqft <= 0 {
		return 0, false
	}
	return float64(p.Price) / float64(p.Sqft), true
}

// DaysOnMarket returns whole days since the listing date, never negative.
func (p Property) DaysOnMarket(now time.Time) int {
	if p.ListDate.IsZero() {
		return 0
	}
	days := int(now.Sub(p.ListDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// FullAddress joins the street line with city, state and postal code.
func (p Property) FullAddress() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Address, p.City, strings.TrimSpace(p.State + " " + p.PostalCode)} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
