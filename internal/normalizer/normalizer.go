// Package normalizer maps upstream listing records of any known shape onto
// the canonical models.Property.
package normalizer

import (
	"math"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"homescout/server/internal/models"
)

const (
	PlaceholderImage = "https://via.placeholder.com/400x300?text=No+Image"
	UnknownAgent     = "Unknown Agent"
	UnknownContact   = "unknown"
	UnknownAddress   = "Address not available"
)

var typeAliases = map[string]string{
	"single_family":             models.TypeSingleFamily,
	"single_family_home":        models.TypeSingleFamily,
	"single_family_residential": models.TypeSingleFamily,
	"house":                     models.TypeSingleFamily,
	"condo":                     models.TypeCondo,
	"condos":                    models.TypeCondo,
	"condominium":               models.TypeCondo,
	"townhomes":                 models.TypeTownhome,
	"townhome":                  models.TypeTownhome,
	"townhouse":                 models.TypeTownhome,
	"coop":                      models.TypeCoop,
	"co_op":                     models.TypeCoop,
	"cooperative":               models.TypeCoop,
	"apartment":                 models.TypeApartment,
	"apartments":                models.TypeApartment,
	"multi_family":              models.TypeMultiFamily,
	"multi_family_home":         models.TypeMultiFamily,
	"multifamily":               models.TypeMultiFamily,
	"duplex_triplex":            models.TypeMultiFamily,
	"land":                      models.TypeLand,
	"lot":                       models.TypeLand,
	"lots_land":                 models.TypeLand,
	"mobile":                    models.TypeMobile,
	"mobile_home":               models.TypeMobile,
	"manufactured":              models.TypeMobile,
	"farm":                      models.TypeFarm,
	"farms_ranches":             models.TypeFarm,
}

var statusAliases = map[string]string{
	"active":           models.StatusForSale,
	"for_sale":         models.StatusForSale,
	"ready_to_build":   models.StatusReadyToBuild,
	"new_construction": models.StatusReadyToBuild,
	"pending":          models.StatusPending,
	"contingent":       models.StatusContingent,
	"sold":             models.StatusSold,
	"recently_sold":    models.StatusSold,
	"off_market":       models.StatusOffMarket,
}

// Normalizer repairs and maps raw records. It never fails: every missing
// field is replaced by a documented default.
type Normalizer struct {
	logger *logrus.Logger
	now    func() time.Time
	newID  func() string
}

// New creates a normalizer using the wall clock and random fallback ids.
func New(logger *logrus.Logger) *Normalizer {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Normalizer{
		logger: logger,
		now:    time.Now,
		newID:  func() string { return "prop-" + uuid.NewString() },
	}
}

// WithClock replaces the clock used for defaulted timestamps.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	n.now = now
	return n
}

// NormalizeAll maps every record, preserving order.
func (n *Normalizer) NormalizeAll(records []Record) []models.Property {
	properties := make([]models.Property, 0, len(records))
	for _, rec := range records {
		properties = append(properties, n.Normalize(rec))
	}
	return properties
}

// Normalize maps one record. Generated fallback ids are random and must not
// be used for caching or de-duplication.
func (n *Normalizer) Normalize(rec Record) models.Property {
	var repaired []string
	missing := func(field string) { repaired = append(repaired, field) }

	var p models.Property

	if id, ok := stringAt(rec, "id", "property_id", "listing_id", "zpid", "mls_id"); ok {
		p.ID = id
	} else {
		p.ID = n.newID()
		missing("id")
	}

	if addr, ok := stringAt(rec, "address", "location.address.line", "streetAddress", "address.line", "address.streetAddress", "street"); ok {
		p.Address = addr
	} else {
		p.Address = UnknownAddress
		missing("address")
	}
	p.City, _ = stringAt(rec, "city", "location.address.city", "address.city")
	if state, ok := stringAt(rec, "state", "state_code", "location.address.state_code", "address.state"); ok {
		p.State = strings.ToUpper(state)
	}
	p.PostalCode, _ = stringAt(rec, "postal_code", "zip", "zipcode", "location.address.postal_code", "address.zipcode")

	p.Latitude, _ = numberAt(rec, "latitude", "lat", "location.address.coordinate.lat", "coordinate.lat", "latLong.latitude")
	p.Longitude, _ = numberAt(rec, "longitude", "lng", "lon", "location.address.coordinate.lon", "coordinate.lon", "latLong.longitude")

	if price, ok := numberAt(rec, "price", "list_price", "listPrice", "unformattedPrice"); ok {
		p.Price = nonNegativeInt64(price)
	} else {
		missing("price")
	}

	if beds, ok := numberAt(rec, "bedrooms", "beds", "description.beds"); ok {
		p.Bedrooms = int(nonNegativeInt64(beds))
	} else {
		missing("bedrooms")
	}

	if baths, ok := numberAt(rec, "bathrooms", "baths", "description.baths_consolidated", "description.baths"); ok {
		p.Bathrooms = math.Max(baths, 0)
	} else if full, ok := numberAt(rec, "description.baths_full"); ok {
		half, _ := numberAt(rec, "description.baths_half")
		p.Bathrooms = math.Max(full+0.5*half, 0)
	} else {
		missing("bathrooms")
	}

	if sqft, ok := numberAt(rec, "sqft", "livingArea", "living_area", "description.sqft"); ok {
		p.Sqft = int(nonNegativeInt64(sqft))
	} else {
		missing("sqft")
	}
	if lot, ok := numberAt(rec, "lot_sqft", "lotAreaValue", "lot_size", "description.lot_sqft"); ok {
		p.LotSqft = int(nonNegativeInt64(lot))
	}

	rawType, _ := stringAt(rec, "property_type", "type", "homeType", "description.type")
	p.PropertyType = NormalizeType(rawType)

	if year, ok := numberAt(rec, "year_built", "yearBuilt", "description.year_built"); ok {
		p.YearBuilt = int(nonNegativeInt64(year))
	}

	rawStatus, _ := stringAt(rec, "status", "homeStatus")
	p.Status = NormalizeStatus(rawStatus)

	now := n.now().UTC()
	if listed, ok := timeAt(rec, "list_date", "listingDate", "listed_at", "datePosted"); ok {
		p.ListDate = listed
	} else if days, ok := numberAt(rec, "days_on_market", "daysOnZillow"); ok {
		p.ListDate = now.Add(-time.Duration(nonNegativeInt64(days)) * 24 * time.Hour)
	} else {
		p.ListDate = now
		missing("list_date")
	}

	p.Images = imagesAt(rec, "images", "photos", "primary_photo", "imgSrc", "image")
	if len(p.Images) == 0 {
		p.Images = []string{PlaceholderImage}
		missing("images")
	}

	p.Agent = models.Agent{Name: UnknownAgent, Phone: UnknownContact, Email: UnknownContact}
	if name, ok := stringAt(rec, "agent.name", "advertisers.0.name", "agentName", "brokerName"); ok {
		p.Agent.Name = name
	} else {
		missing("agent.name")
	}
	if phone, ok := stringAt(rec, "agent.phone", "advertisers.0.phones.0.number", "advertisers.0.phone", "agentPhone"); ok {
		p.Agent.Phone = phone
	}
	if email, ok := stringAt(rec, "agent.email", "advertisers.0.email", "agentEmail"); ok {
		p.Agent.Email = email
	}

	p.URL, _ = stringAt(rec, "url", "href", "detailUrl")

	if reduced, ok := numberAt(rec, "price_reduction", "price_reduced_amount", "priceReduction"); ok {
		p.PriceReduction = nonNegativeInt64(reduced)
	}

	if updated, ok := timeAt(rec, "last_updated", "last_update_date", "lastUpdated"); ok {
		p.LastUpdated = updated
	} else {
		p.LastUpdated = p.ListDate
	}

	if len(repaired) > 0 {
		n.logger.WithFields(logrus.Fields{
			"property_id": p.ID,
			"defaulted":   repaired,
		}).Debug("Repaired malformed listing record")
	}

	return p
}

// NormalizeType maps an upstream property type onto the canonical tag set.
// Unrecognised types are kept as a slug; empty input becomes "unknown".
func NormalizeType(raw string) string {
	s := slug(raw)
	if s == "" {
		return models.TypeUnknown
	}
	if canonical, ok := typeAliases[s]; ok {
		return canonical
	}
	return s
}

// NormalizeStatus maps an upstream listing status; empty means for sale.
func NormalizeStatus(raw string) string {
	s := slug(raw)
	if s == "" {
		return models.StatusForSale
	}
	if canonical, ok := statusAliases[s]; ok {
		return canonical
	}
	return s
}

func slug(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", " ", "/", " ").Replace(s)
	return strings.Join(strings.Fields(s), "_")
}

func nonNegativeInt64(f float64) int64 {
	if f <= 0 || math.IsNaN(f) {
		return 0
	}
	return int64(math.Round(f))
}
