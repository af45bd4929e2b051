package report

import (
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"homescout/server/internal/models"
)

// RecentDays is the age under which a listing counts as recent.
const RecentDays = 7

// Stats are the aggregate figures every sheet draws from.
type Stats struct {
	Count               int
	AveragePrice        float64
	MedianPrice         float64
	MinPrice            int64
	MaxPrice            int64
	AveragePricePerSqft float64
	PricedByArea        int
	AverageSqft         float64
	AverageDaysOnMarket float64
	MedianDaysOnMarket  float64
	RecentCount         int
	ReducedCount        int
	ActivityRate        float64
	TypeCounts          map[string]int
}

// HasPricePerSqft reports whether any listing had an area to divide by.
// PricedByArea counts those listings.
func (s Stats) HasPricePerSqft() bool {
	return s.PricedByArea > 0
}

// ComputeStats aggregates properties as of now.
func ComputeStats(props []models.Property, now time.Time) Stats {
	s := Stats{Count: len(props), TypeCounts: map[string]int{}}
	if len(props) == 0 {
		return s
	}

	prices := lo.Map(props, func(p models.Property, _ int) float64 { return float64(p.Price) })
	s.AveragePrice = Mean(prices)
	s.MedianPrice = Median(prices)
	s.MinPrice = lo.MinBy(props, func(a, b models.Property) bool { return a.Price < b.Price }).Price
	s.MaxPrice = lo.MaxBy(props, func(a, b models.Property) bool { return a.Price > b.Price }).Price

	var ppa, areas []float64
	for _, p := range props {
		if v, ok := p.PricePerSqft(); ok {
			ppa = append(ppa, v)
			areas = append(areas, float64(p.Sqft))
		}
	}
	s.PricedByArea = len(ppa)
	s.AveragePricePerSqft = Mean(ppa)
	s.AverageSqft = Mean(areas)

	days := lo.Map(props, func(p models.Property, _ int) float64 { return float64(p.DaysOnMarket(now)) })
	s.AverageDaysOnMarket = Mean(days)
	s.MedianDaysOnMarket = Median(days)

	s.RecentCount = lo.CountBy(props, func(p models.Property) bool { return p.DaysOnMarket(now) <= RecentDays })
	s.ReducedCount = lo.CountBy(props, func(p models.Property) bool { return p.PriceReduction > 0 })
	s.ActivityRate = percent(s.RecentCount, s.Count)
	s.TypeCounts = lo.CountValuesBy(props, func(p models.Property) string { return p.PropertyType })

	return s
}

// Mean returns the arithmetic mean, or 0 for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return lo.Sum(values) / float64(len(values))
}

// Median returns the middle value, averaging the two middle values for an
// even count. The input is not reordered.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
