package report

import (
	"sort"
	"strings"

	"homescout/server/internal/models"
)

// Narrative paragraphs. Each is a template over already computed figures.

func (b *builder) executiveNarrative() string {
	s := b.stats
	if s.Count == 0 {
		return b.printer.Sprintf("No active listings were found for %s at the time of this report.", b.location)
	}
	text := b.printer.Sprintf(
		"%s currently has %d active listings with an average asking price of %s and a median of %s. "+
			"Prices range from %s to %s, placing the market in the %s segment. ",
		b.location, s.Count, b.money(s.AveragePrice), b.money(s.MedianPrice),
		b.money(float64(s.MinPrice)), b.money(float64(s.MaxPrice)), MarketTone(s.AveragePrice))
	text += b.printer.Sprintf(
		"%d listings came to market in the last %d days, an activity rate of %.1f%% (%s).",
		s.RecentCount, RecentDays, s.ActivityRate, strings.ToLower(ActivityLevel(s.ActivityRate)))
	return text
}

func (b *builder) typeMixNarrative() string {
	s := b.stats
	if s.Count == 0 {
		return "There is no property type mix to describe."
	}
	dominant, count := dominantType(s.TypeCounts)
	return b.printer.Sprintf(
		"%s listings dominate the supply with %d of %d listings (%.1f%%). Inventory is %s for a market of this size.",
		typeLabel(dominant), count, s.Count, percent(count, s.Count), strings.ToLower(InventoryStatus(s.Count)))
}

func (b *builder) opportunityNarrative(top []ROI) string {
	if len(top) == 0 {
		return "No listings qualify as investment opportunities."
	}
	best := top[0]
	return b.printer.Sprintf(
		"The strongest opportunity is %s at %s with an investment score of %d (%s). "+
			"Scores weigh price per square foot, size, bedroom count and time on market.",
		best.Property.Address, b.money(float64(best.Property.Price)), best.Score, Grade(best.Score))
}

func (b *builder) forecastNarrative(rate float64, projections []Projection) string {
	if b.stats.Count == 0 || len(projections) == 0 {
		return "There is not enough data to project prices."
	}
	last := projections[len(projections)-1]
	return b.printer.Sprintf(
		"With %s activity we assume %.1f%% annual appreciation. At that pace the median price of %s "+
			"would reach %s in %d years. Projections are indicative only.",
		strings.ToLower(ActivityLevel(b.stats.ActivityRate)), rate*100, b.money(b.stats.MedianPrice),
		b.money(last.MedianPrice), last.Years)
}

func (b *builder) daysOnMarketNarrative() string {
	s := b.stats
	if s.Count == 0 {
		return "No listings are available to measure time on market."
	}
	pace := "sell slowly"
	switch {
	case s.MedianDaysOnMarket <= 14:
		pace = "move quickly"
	case s.MedianDaysOnMarket <= 45:
		pace = "sell at a steady pace"
	}
	return b.printer.Sprintf(
		"Listings spend an average of %.0f days on market (median %.0f), so homes here %s. %d listings carry a price reduction.",
		s.AverageDaysOnMarket, s.MedianDaysOnMarket, pace, s.ReducedCount)
}

func (b *builder) riskNarrative(risky int) string {
	if b.stats.Count == 0 {
		return "No listings were assessed."
	}
	share := percent(risky, b.stats.Count)
	level := "low"
	switch {
	case share > 50:
		level = "high"
	case share > 25:
		level = "moderate"
	}
	return b.printer.Sprintf(
		"%d of %d listings (%.1f%%) show at least one risk factor, an overall %s risk profile.",
		risky, b.stats.Count, share, level)
}

// recommendationLines picks advice per audience from the market
// classifications.
func (b *builder) recommendationLines() [][2]string {
	s := b.stats
	if s.Count == 0 {
		return [][2]string{{"General", "Widen the search area; there is no current inventory to analyse."}}
	}

	active := s.ActivityRate > 15
	lines := make([][2]string, 0, 4)

	if active {
		lines = append(lines, [2]string{"Buyers", "Competition is strong. Arrange financing early and be ready to act on new listings within days."})
		lines = append(lines, [2]string{"Sellers", "Demand supports pricing at or slightly above comparable listings."})
	} else {
		lines = append(lines, [2]string{"Buyers", "The pace is relaxed. There is room to negotiate, especially on listings over 60 days old."})
		lines = append(lines, [2]string{"Sellers", "Price competitively against the median and invest in presentation to stand out."})
	}

	if s.HasPricePerSqft() && s.AveragePricePerSqft < 300 {
		lines = append(lines, [2]string{"Investors", b.printer.Sprintf("An average of %s per sqft favours buy and hold rental strategies.", b.money(s.AveragePricePerSqft))})
	} else {
		lines = append(lines, [2]string{"Investors", "Focus on below median listings where rental yields are strongest."})
	}

	if s.ReducedCount > 0 {
		lines = append(lines, [2]string{"Watch", b.printer.Sprintf("%d price reduced listings may signal motivated sellers.", s.ReducedCount)})
	}
	return lines
}

func dominantType(counts map[string]int) (string, int) {
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	best, bestCount := models.TypeUnknown, 0
	for _, t := range types {
		if counts[t] > bestCount {
			best, bestCount = t, counts[t]
		}
	}
	return best, bestCount
}

func typeLabel(t string) string {
	words := strings.Fields(strings.ReplaceAll(t, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
