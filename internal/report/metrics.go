package report

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/samber/lo"

	"homescout/server/internal/geometry"
	"homescout/server/internal/models"
)

// Band is a half-open bucket [previous Upper, Upper).
type Band struct {
	Label string
	Upper float64
}

var (
	priceBands = []Band{
		{"Under $200K", 200_000},
		{"$200K - $400K", 400_000},
		{"$400K - $600K", 600_000},
		{"$600K - $1M", 1_000_000},
		{"$1M+", math.Inf(1)},
	}
	daysOnMarketBands = []Band{
		{"0-7 days", 8},
		{"8-30 days", 31},
		{"31-60 days", 61},
		{"61-90 days", 91},
		{"90+ days", math.Inf(1)},
	}
)

// BandSummary is the aggregate of the listings falling in one band.
type BandSummary struct {
	Label               string
	Count               int
	Share               float64
	AveragePrice        float64
	AveragePricePerSqft float64
	AverageDaysOnMarket float64
}

func bandOf(bands []Band, v float64) int {
	for i, b := range bands {
		if v < b.Upper {
			return i
		}
	}
	return len(bands) - 1
}

// summarizeBands groups props into bands by key, keeping empty bands.
func summarizeBands(bands []Band, props []models.Property, now time.Time, key func(models.Property) float64) []BandSummary {
	groups := make([][]models.Property, len(bands))
	for _, p := range props {
		i := bandOf(bands, key(p))
		groups[i] = append(groups[i], p)
	}

	out := make([]BandSummary, len(bands))
	for i, b := range bands {
		s := ComputeStats(groups[i], now)
		out[i] = BandSummary{
			Label:               b.Label,
			Count:               s.Count,
			Share:               percent(s.Count, len(props)),
			AveragePrice:        s.AveragePrice,
			AveragePricePerSqft: s.AveragePricePerSqft,
			AverageDaysOnMarket: s.AverageDaysOnMarket,
		}
	}
	return out
}

// PriceBands buckets listings by price.
func PriceBands(props []models.Property, now time.Time) []BandSummary {
	return summarizeBands(priceBands, props, now, func(p models.Property) float64 { return float64(p.Price) })
}

// DaysOnMarketBands buckets listings by age.
func DaysOnMarketBands(props []models.Property, now time.Time) []BandSummary {
	return summarizeBands(daysOnMarketBands, props, now, func(p models.Property) float64 { return float64(p.DaysOnMarket(now)) })
}

// Rent heuristic constants.
const (
	rentPriceRatio = 0.006
	rentPerSqft    = 0.8
	expenseRatio   = 0.35
)

// ROI is a rough rental return estimate for one listing.
type ROI struct {
	Property    models.Property
	MonthlyRent float64
	AnnualRent  float64
	GrossYield  float64
	NetYield    float64
	PriceToRent float64
	Score       int
}

// EstimateROI applies the rent heuristic to p.
func EstimateROI(p models.Property, now time.Time) ROI {
	monthly := rentPriceRatio*float64(p.Price) + rentPerSqft*float64(p.Sqft)
	r := ROI{
		Property:    p,
		MonthlyRent: monthly,
		AnnualRent:  monthly * 12,
		Score:       InvestmentScore(p, now),
	}
	if p.Price > 0 {
		r.GrossYield = r.AnnualRent / float64(p.Price) * 100
		r.NetYield = r.AnnualRent * (1 - expenseRatio) / float64(p.Price) * 100
	}
	if r.AnnualRent > 0 {
		r.PriceToRent = float64(p.Price) / r.AnnualRent
	}
	return r
}

// RiskFactor is one risk and how many listings carry it.
type RiskFactor struct {
	Label string
	Count int
	Share float64
}

type riskCheck struct {
	label   string
	applies func(p models.Property, now time.Time) bool
}

var riskChecks = []riskCheck{
	{"High price per sqft (over $500)", func(p models.Property, _ time.Time) bool {
		v, ok := p.PricePerSqft()
		return ok && v > 500
	}},
	{"Stale listing (over 90 days on market)", func(p models.Property, now time.Time) bool {
		return p.DaysOnMarket(now) > 90
	}},
	{"Older construction (built before 1960)", func(p models.Property, _ time.Time) bool {
		return p.YearBuilt > 0 && p.YearBuilt < 1960
	}},
	{"Missing living area data", func(p models.Property, _ time.Time) bool {
		return p.Sqft <= 0
	}},
	{"Recent price reduction", func(p models.Property, _ time.Time) bool {
		return p.PriceReduction > 0
	}},
}

// RiskFactors tallies every risk check over props.
func RiskFactors(props []models.Property, now time.Time) []RiskFactor {
	return lo.Map(riskChecks, func(c riskCheck, _ int) RiskFactor {
		n := lo.CountBy(props, func(p models.Property) bool { return c.applies(p, now) })
		return RiskFactor{Label: c.label, Count: n, Share: percent(n, len(props))}
	})
}

// RiskyCount is the number of listings with at least one risk factor.
func RiskyCount(props []models.Property, now time.Time) int {
	return lo.CountBy(props, func(p models.Property) bool {
		return lo.SomeBy(riskChecks, func(c riskCheck) bool { return c.applies(p, now) })
	})
}

var appreciationLadder = []struct {
	minActivity float64
	rate        float64
}{
	{30, 0.06},
	{15, 0.04},
	{5, 0.025},
}

const baselineAppreciation = 0.01

// AppreciationRate picks the annual growth assumption for an activity rate.
func AppreciationRate(activityRate float64) float64 {
	for _, rung := range appreciationLadder {
		if activityRate > rung.minActivity {
			return rung.rate
		}
	}
	return baselineAppreciation
}

// Projection is the compounded median price after Years.
type Projection struct {
	Years       int
	MedianPrice float64
	Change      float64
}

var forecastHorizons = []int{1, 3, 5}

// Forecast compounds the median price at the appreciation rate.
func Forecast(s Stats) (float64, []Projection) {
	rate := AppreciationRate(s.ActivityRate)
	return rate, lo.Map(forecastHorizons, func(years int, _ int) Projection {
		projected := s.MedianPrice * math.Pow(1+rate, float64(years))
		return Projection{Years: years, MedianPrice: projected, Change: projected - s.MedianPrice}
	})
}

// AreaRollup is the per city summary used by the area breakdown.
type AreaRollup struct {
	City  string
	Stats Stats
	Geo   geometry.Area
}

// AreaRollups groups listings by city, largest group first.
func AreaRollups(props []models.Property, now time.Time) []AreaRollup {
	groups := lo.GroupBy(props, func(p models.Property) string {
		city := strings.TrimSpace(p.City)
		if city == "" {
			return "Unknown"
		}
		if p.State != "" {
			return city + ", " + p.State
		}
		return city
	})

	rollups := make([]AreaRollup, 0, len(groups))
	for name, group := range groups {
		points := lo.FilterMap(group, func(p models.Property, _ int) (orb.Point, bool) {
			return p.Point(), p.HasCoordinates()
		})
		rollups = append(rollups, AreaRollup{
			City:  name,
			Stats: ComputeStats(group, now),
			Geo:   geometry.Summarize(name, points),
		})
	}

	sort.Slice(rollups, func(i, j int) bool {
		if rollups[i].Stats.Count != rollups[j].Stats.Count {
			return rollups[i].Stats.Count > rollups[j].Stats.Count
		}
		return rollups[i].City < rollups[j].City
	})
	return rollups
}

// rankByScore returns listings with their scores, best first. Ties keep
// input order.
func rankByScore(props []models.Property, now time.Time) []ROI {
	ranked := lo.Map(props, func(p models.Property, _ int) ROI { return EstimateROI(p, now) })
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}
