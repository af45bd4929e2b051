// Package mockdata synthesizes plausible listings for offline and degraded
// searches.
package mockdata

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"homescout/server/config"
	"homescout/server/internal/location"
	"homescout/server/internal/models"
	"homescout/server/internal/normalizer"
)

// Name is the source name mock results are reported under.
const Name = "mock"

type fixture struct {
	number    int
	street    string
	kind      string
	beds      int
	baths     string
	sqft      int
	lotSqft   int
	yearBuilt int
	price     int64
	dom       int
	reduction int64
	agent     string
	// offsets from the city centre, in degrees
	dLat, dLng float64
}

var catalog = []fixture{
	{1204, "Maple Avenue", "single_family", 3, "2", 1850, 7200, 1998, 325000, 12, 0, "Sarah Mitchell", 0.012, -0.018},
	{88, "Riverside Drive", "condo", 2, "2", 1150, 0, 2012, 279000, 4, 0, "James Carter", -0.008, 0.006},
	{417, "Oak Street", "townhomes", 3, "2.5", 1640, 1800, 2005, 349900, 27, 5000, "Linda Nguyen", 0.004, 0.021},
	{2301, "Willow Lane", "single_family", 4, "3", 2650, 10400, 1987, 485000, 45, 0, "Robert Hayes", 0.031, -0.027},
	{56, "Park Place", "apartment", 1, "1", 780, 0, 1964, 189500, 2, 0, "Emily Brooks", -0.015, -0.004},
	{910, "Cedar Court", "coop", 2, "1.5", 1020, 0, 1952, 215000, 96, 10000, "Michael Torres", 0.019, 0.011},
	{3340, "Highland Road", "single_family", 5, "4", 3420, 15600, 2018, 739000, 63, 15000, "Angela Reed", -0.036, 0.033},
	{75, "Lakeview Terrace", "townhomes", 3, "2.5", 1900, 2200, 2021, 412000, 6, 0, "Daniel Kim", -0.022, -0.029},
}

// Generator produces a fixed catalog of listings bound to the requested
// location. It never touches the network.
type Generator struct {
	logger *logrus.Logger
	now    func() time.Time
}

// NewGenerator creates a mock source using the wall clock.
func NewGenerator(logger *logrus.Logger) *Generator {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Generator{logger: logger, now: time.Now}
}

// WithClock replaces the clock list dates are relative to.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

func (g *Generator) Name() string { return Name }

// Configured is always true; the generator needs no credential.
func (g *Generator) Configured() bool { return true }

// PreFiltered is true: mock results are returned as generated so a degraded
// search is never empty.
func (g *Generator) PreFiltered() bool { return true }

// Fetch returns exactly q.Limit records in the raw fixture shape.
func (g *Generator) Fetch(_ context.Context, loc location.Query, q models.SearchQuery) ([]normalizer.Record, error) {
	return g.Records(loc, q.Limit), nil
}

// Records cycles through the catalog until limit records exist. Every cycle
// shifts house numbers, prices and listing age so repeated entries differ.
func (g *Generator) Records(loc location.Query, limit int) []normalizer.Record {
	if limit <= 0 {
		limit = models.DefaultLimit
	}
	city, state, postal, center := resolve(loc)
	now := g.now().UTC()

	records := make([]normalizer.Record, 0, limit)
	for i := 0; i < limit; i++ {
		f := catalog[i%len(catalog)]
		cycle := i / len(catalog)

		street := fmt.Sprintf("%d %s", f.number+cycle*10, f.street)
		price := f.price + int64(cycle)*7500
		dom := f.dom + cycle*3
		shift := float64(cycle) * 0.0025

		id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(street+"|"+city+"|"+strconv.FormatInt(price, 10)))

		records = append(records, normalizer.Record{
			"id":                   "mock-" + id.String(),
			"street":               street,
			"city":                 city,
			"state":                state,
			"zip":                  postal,
			"lat":                  center[0] + f.dLat + shift,
			"lng":                  center[1] + f.dLng - shift,
			"price":                price,
			"beds":                 f.beds,
			"baths":                f.baths,
			"sqft":                 f.sqft,
			"lot_size":             f.lotSqft,
			"type":                 f.kind,
			"year_built":           f.yearBuilt,
			"status":               models.StatusForSale,
			"listed_at":            now.AddDate(0, 0, -dom).Format(time.RFC3339),
			"photos":               []any{"https://picsum.photos/seed/" + id.String() + "/400/300"},
			"agentName":            f.agent,
			"agentPhone":           fmt.Sprintf("(555) 01%02d-%04d", i%100, 1000+i),
			"agentEmail":           fmt.Sprintf("agent%d@homescout.example", i%len(catalog)+1),
			"url":                  "https://homescout.example/listing/" + id.String(),
			"price_reduced_amount": f.reduction,
			"last_updated":         now.Format(time.RFC3339),
		})
	}

	g.logger.WithFields(logrus.Fields{
		"location": city + ", " + state,
		"count":    len(records),
	}).Info("Generated mock listings")

	return records
}

// resolve fills in the city, region and centre the fixtures are bound to.
func resolve(loc location.Query) (city, state, postal string, center []float64) {
	fallback := config.DefaultCity

	switch {
	case loc.PostalCode != "":
		if known := config.GetCityByPostalCode(loc.PostalCode); known != nil {
			return known.Name, known.State, loc.PostalCode, known.Center
		}
		return fallback.Name, fallback.State, loc.PostalCode, fallback.Center
	case loc.City != "":
		if known := config.GetCityByName(loc.City); known != nil {
			state := loc.State
			if state == "" {
				state = known.State
			}
			return known.Name, state, known.PostalPrefix + "01", known.Center
		}
		return loc.City, loc.State, fallback.PostalPrefix + "01", fallback.Center
	default:
		return fallback.Name, fallback.State, fallback.PostalPrefix + "01", fallback.Center
	}
}
