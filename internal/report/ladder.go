package report

import (
	"math"
	"time"

	"homescout/server/internal/models"
)

// Rule is one rung of a threshold ladder.
type Rule struct {
	Match func(v float64) bool
	Label string
}

func above(limit float64) func(float64) bool {
	return func(v float64) bool { return v > limit }
}

func atLeast(limit float64) func(float64) bool {
	return func(v float64) bool { return v >= limit }
}

func always(float64) bool { return true }

// Ladders are ordered from most to least restrictive and end in a catch-all.
var (
	marketTone = []Rule{
		{above(1_000_000), "Luxury"},
		{above(500_000), "Premium"},
		{above(300_000), "Mid-Range"},
		{always, "Affordable"},
	}
	activityLevel = []Rule{
		{above(30), "Very Active"},
		{above(15), "Active"},
		{above(5), "Moderate"},
		{always, "Slow"},
	}
	inventoryStatus = []Rule{
		{above(100), "High"},
		{above(50), "Moderate"},
		{above(20), "Limited"},
		{always, "Low"},
	}
	scoreGrade = []Rule{
		{atLeast(80), "Excellent"},
		{atLeast(65), "Good"},
		{atLeast(50), "Fair"},
		{always, "Below Average"},
	}
)

// Classify returns the label of the first matching rule.
func Classify(rules []Rule, v float64) string {
	for _, r := range rules {
		if r.Match(v) {
			return r.Label
		}
	}
	return ""
}

// MarketTone classifies by average price.
func MarketTone(averagePrice float64) string { return Classify(marketTone, averagePrice) }

// ActivityLevel classifies by the share of recent listings.
func ActivityLevel(rate float64) string { return Classify(activityLevel, rate) }

// InventoryStatus classifies by listing count.
func InventoryStatus(count int) string { return Classify(inventoryStatus, float64(count)) }

// Grade labels an investment score.
func Grade(score int) string { return Classify(scoreGrade, float64(score)) }

const baseScore = 50

// Adjustment moves the investment score when its condition holds.
type Adjustment struct {
	Applies func(f scoreFactors) bool
	Delta   int
}

type scoreFactors struct {
	ppa    float64
	hasPPA bool
	sqft   int
	beds   int
	dom    int
}

var (
	// first match only
	pricePerSqftAdjustments = []Adjustment{
		{func(f scoreFactors) bool { return f.hasPPA && f.ppa < 200 }, 20},
		{func(f scoreFactors) bool { return f.hasPPA && f.ppa < 300 }, 10},
		{func(f scoreFactors) bool { return f.hasPPA && f.ppa > 500 }, -15},
	}
	featureAdjustments = []Adjustment{
		{func(f scoreFactors) bool { return f.sqft > 2000 }, 10},
		{func(f scoreFactors) bool { return f.beds >= 3 }, 5},
	}
	// first match only
	daysOnMarketAdjustments = []Adjustment{
		{func(f scoreFactors) bool { return f.dom < 30 }, 10},
		{func(f scoreFactors) bool { return f.dom > 90 }, -10},
	}
)

// InvestmentScore rates a listing from 0 to 100.
func InvestmentScore(p models.Property, now time.Time) int {
	ppa, hasPPA := p.PricePerSqft()
	f := scoreFactors{ppa: ppa, hasPPA: hasPPA, sqft: p.Sqft, beds: p.Bedrooms, dom: p.DaysOnMarket(now)}

	score := baseScore + firstDelta(pricePerSqftAdjustments, f) + firstDelta(daysOnMarketAdjustments, f)
	for _, adj := range featureAdjustments {
		if adj.Applies(f) {
			score += adj.Delta
		}
	}
	return clampScore(score)
}

func firstDelta(adjustments []Adjustment, f scoreFactors) int {
	for _, adj := range adjustments {
		if adj.Applies(f) {
			return adj.Delta
		}
	}
	return 0
}

func clampScore(score int) int {
	return int(math.Max(0, math.Min(100, float64(score))))
}
