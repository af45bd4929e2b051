package config

import "strings"

// City represents a known market with its state and map centre
type City struct {
	Name         string    `json:"name"`
	State        string    `json:"state"`
	Center       []float64 `json:"center"`
	PostalPrefix string    `json:"postal_prefix"`
}

// SupportedCities is the static city → state table used by the location parser
// and the mock data generator
var SupportedCities = []City{
	{Name: "New York", State: "NY", Center: []float64{40.7128, -74.0060}, PostalPrefix: "100"},
	{Name: "Los Angeles", State: "CA", Center: []float64{34.0522, -118.2437}, PostalPrefix: "900"},
	{Name: "Chicago", State: "IL", Center: []float64{41.8781, -87.6298}, PostalPrefix: "606"},
	{Name: "Houston", State: "TX", Center: []float64{29.7604, -95.3698}, PostalPrefix: "770"},
	{Name: "Phoenix", State: "AZ", Center: []float64{33.4484, -112.0740}, PostalPrefix: "850"},
	{Name: "Philadelphia", State: "PA", Center: []float64{39.9526, -75.1652}, PostalPrefix: "191"},
	{Name: "San Antonio", State: "TX", Center: []float64{29.4241, -98.4936}, PostalPrefix: "782"},
	{Name: "San Diego", State: "CA", Center: []float64{32.7157, -117.1611}, PostalPrefix: "921"},
	{Name: "Dallas", State: "TX", Center: []float64{32.7767, -96.7970}, PostalPrefix: "752"},
	{Name: "Austin", State: "TX", Center: []float64{30.2672, -97.7431}, PostalPrefix: "787"},
	{Name: "Jacksonville", State: "FL", Center: []float64{30.3322, -81.6557}, PostalPrefix: "322"},
	{Name: "San Jose", State: "CA", Center: []float64{37.3382, -121.8863}, PostalPrefix: "951"},
	{Name: "Fort Worth", State: "TX", Center: []float64{32.7555, -97.3308}, PostalPrefix: "761"},
	{Name: "Columbus", State: "OH", Center: []float64{39.9612, -82.9988}, PostalPrefix: "432"},
	{Name: "Charlotte", State: "NC", Center: []float64{35.2271, -80.8431}, PostalPrefix: "282"},
	{Name: "Indianapolis", State: "IN", Center: []float64{39.7684, -86.1581}, PostalPrefix: "462"},
	{Name: "San Francisco", State: "CA", Center: []float64{37.7749, -122.4194}, PostalPrefix: "941"},
	{Name: "Seattle", State: "WA", Center: []float64{47.6062, -122.3321}, PostalPrefix: "981"},
	{Name: "Denver", State: "CO", Center: []float64{39.7392, -104.9903}, PostalPrefix: "802"},
	{Name: "Nashville", State: "TN", Center: []float64{36.1627, -86.7816}, PostalPrefix: "372"},
	{Name: "Oklahoma City", State: "OK", Center: []float64{35.4676, -97.5164}, PostalPrefix: "731"},
	{Name: "Boston", State: "MA", Center: []float64{42.3601, -71.0589}, PostalPrefix: "021"},
	{Name: "Portland", State: "OR", Center: []float64{45.5152, -122.6784}, PostalPrefix: "972"},
	{Name: "Las Vegas", State: "NV", Center: []float64{36.1699, -115.1398}, PostalPrefix: "891"},
	{Name: "Memphis", State: "TN", Center: []float64{35.1495, -90.0490}, PostalPrefix: "381"},
	{Name: "Louisville", State: "KY", Center: []float64{38.2527, -85.7585}, PostalPrefix: "402"},
	{Name: "Baltimore", State: "MD", Center: []float64{39.2904, -76.6122}, PostalPrefix: "212"},
	{Name: "Milwaukee", State: "WI", Center: []float64{43.0389, -87.9065}, PostalPrefix: "532"},
	{Name: "Albuquerque", State: "NM", Center: []float64{35.0844, -106.6504}, PostalPrefix: "871"},
	{Name: "Atlanta", State: "GA", Center: []float64{33.7490, -84.3880}, PostalPrefix: "303"},
	{Name: "Miami", State: "FL", Center: []float64{25.7617, -80.1918}, PostalPrefix: "331"},
	{Name: "Orlando", State: "FL", Center: []float64{28.5383, -81.3792}, PostalPrefix: "328"},
	{Name: "Tampa", State: "FL", Center: []float64{27.9506, -82.4572}, PostalPrefix: "336"},
	{Name: "Minneapolis", State: "MN", Center: []float64{44.9778, -93.2650}, PostalPrefix: "554"},
	{Name: "Raleigh", State: "NC", Center: []float64{35.7796, -78.6382}, PostalPrefix: "276"},
	{Name: "Salt Lake City", State: "UT", Center: []float64{40.7608, -111.8910}, PostalPrefix: "841"},
	{Name: "Kansas City", State: "MO", Center: []float64{39.0997, -94.5786}, PostalPrefix: "641"},
	{Name: "Detroit", State: "MI", Center: []float64{42.3314, -83.0458}, PostalPrefix: "482"},
	{Name: "Pittsburgh", State: "PA", Center: []float64{40.4406, -79.9959}, PostalPrefix: "152"},
	{Name: "Sacramento", State: "CA", Center: []float64{38.5816, -121.4944}, PostalPrefix: "958"},
}

// DefaultCity is used when a location carries no usable city
var DefaultCity = City{Name: "Springfield", State: "IL", Center: []float64{39.7817, -89.6501}, PostalPrefix: "627"}

// GetCityNames returns a list of supported city names
func GetCityNames() []string {
	names := make([]string, len(SupportedCities))
	for i, city := range SupportedCities {
		names[i] = city.Name
	}
	return names
}

// GetCityByName returns a city configuration by name, ignoring case and
// surrounding whitespace
func GetCityByName(name string) *City {
	key := NormalizeCity(name)
	for _, city := range SupportedCities {
		if NormalizeCity(city.Name) == key {
			return &city
		}
	}
	return nil
}

// GetCityByPostalCode returns the city whose three-digit prefix matches
func GetCityByPostalCode(postalCode string) *City {
	if len(postalCode) < 3 {
		return nil
	}
	for _, city := range SupportedCities {
		if strings.HasPrefix(postalCode, city.PostalPrefix) {
			return &city
		}
	}
	return nil
}

// NormalizeCity converts a city name to a lowercase dash separated slug
func NormalizeCity(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "'", "")
	name = strings.ReplaceAll(name, ".", "")
	name = strings.ReplaceAll(name, ",", " ")
	return strings.Join(strings.Fields(name), "-")
}
