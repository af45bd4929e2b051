// Package location turns free-text search locations into structured queries.
package location

import (
	"regexp"
	"strings"

	"homescout/server/config"
)

// Kind identifies which fields of a Query are populated.
type Kind int

const (
	KindPostalCode Kind = iota + 1
	KindCityState
	KindCity
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindPostalCode:
		return "postal_code"
	case KindCityState:
		return "city_state"
	case KindCity:
		return "city"
	default:
		return "unparseable"
	}
}

// Query is a parsed location.
type Query struct {
	PostalCode string `json:"postal_code,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
}

// Kind reports which shape the query has.
func (q Query) Kind() Kind {
	switch {
	case q.PostalCode != "":
		return KindPostalCode
	case q.City != "" && q.State != "":
		return KindCityState
	case q.City != "":
		return KindCity
	default:
		return 0
	}
}

// Label renders the query for logs and report titles.
func (q Query) Label() string {
	switch q.Kind() {
	case KindPostalCode:
		return q.PostalCode
	case KindCityState:
		return q.City + ", " + q.State
	default:
		return q.City
	}
}

var (
	postalCodePattern = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\b`)
	cityStatePattern  = regexp.MustCompile(`^\s*([^,]+?)\s*,\s*([A-Za-z]{2})\s*$`)
)

// Parse resolves a free-text location. The second return is false when the
// input is empty and nothing can be searched.
func Parse(raw string) (Query, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Query{}, false
	}

	if m := postalCodePattern.FindStringSubmatch(raw); m != nil {
		return Query{PostalCode: m[1]}, true
	}

	if m := cityStatePattern.FindStringSubmatch(raw); m != nil {
		return Query{City: m[1], State: strings.ToUpper(m[2])}, true
	}

	city := strings.Join(strings.Fields(raw), " ")
	if known := config.GetCityByName(city); known != nil {
		return Query{City: known.Name, State: known.State}, true
	}
	return Query{City: city}, true
}
