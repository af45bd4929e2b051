package report

import (
	"sort"

	"github.com/samber/lo"

	"homescout/server/internal/models"
)

const (
	topOpportunities = 10
	portfolioPicks   = 5
)

// property listings

func (b *builder) executiveSummary(title string) models.ReportSheet {
	sheet := models.ReportSheet{Name: "Executive Summary"}
	b.header(&sheet, title)
	b.keyMetrics(&sheet)
	sheet.AddRow()
	sheet.AddRow("Summary")
	sheet.AddRow(b.executiveNarrative())
	return sheet
}

func (b *builder) marketAnalysis() models.ReportSheet {
	sheet := models.ReportSheet{Name: "Market Analysis"}
	sheet.AddRow("Property Type", "Listings", "Share (%)", "Average Price")

	types := lo.Keys(b.stats.TypeCounts)
	sort.Strings(types)
	for _, t := range types {
		group := lo.Filter(b.props, func(p models.Property, _ int) bool { return p.PropertyType == t })
		s := ComputeStats(group, b.now)
		sheet.AddRow(typeLabel(t), s.Count, round2(percent(s.Count, b.stats.Count)), round2(s.AveragePrice))
	}

	sheet.AddRow()
	bandRows(&sheet, "Price Range", PriceBands(b.props, b.now))
	sheet.AddRow()
	sheet.AddRow(b.typeMixNarrative())
	return sheet
}

var detailColumns = []any{
	"ID", "Address", "City", "State", "Postal Code", "Price", "Bedrooms", "Bathrooms",
	"Sqft", "Price per Sqft", "Property Type", "Status", "Year Built", "Days on Market",
	"Price Reduction", "Agent", "Agent Phone", "Agent Email", "URL",
}

func (b *builder) propertyDetails() models.ReportSheet {
	sheet := models.ReportSheet{Name: "Property Details"}
	sheet.AddRow(detailColumns...)
	for _, p := range b.props {
		year := any(NotAvailable)
		if p.YearBuilt > 0 {
			year = p.YearBuilt
		}
		sheet.AddRow(
			p.ID, p.Address, p.City, p.State, p.PostalCode, p.Price, p.Bedrooms, p.Bathrooms,
			p.Sqft, b.pricePerSqft(p), typeLabel(p.PropertyType), p.Status, year, p.DaysOnMarket(b.now),
			p.PriceReduction, p.Agent.Name, p.Agent.Phone, p.Agent.Email, p.URL,
		)
	}
	return sheet
}

func (b *builder) investmentOpportunities() models.ReportSheet {
	sheet := models.ReportSheet{Name: "Investment Opportunities"}
	ranked := rankByScore(b.props, b.now)
	top := ranked[:min(len(ranked), topOpportunities)]

	sheet.AddRow("Rank", "Address", "Price", "Price per Sqft", "Days on Market", "Investment Score", "Grade")
	for i, r := range top {
		sheet.AddRow(i+1, r.Property.FullAddress(), r.Property.Price, b.pricePerSqft(r.Property),
			r.Property.DaysOnMarket(b.now), r.Score, Grade(r.Score))
	}
	sheet.AddRow()
	sheet.AddRow(b.opportunityNarrative(top))
	return sheet
}

func (b *builder) marketPredictions(name string) models.ReportSheet {
	sheet := models.ReportSheet{Name: name}
	rate, projections := Forecast(b.stats)

	sheet.AddRow("Assumed Annual Appreciation (%)", round2(rate*100))
	sheet.AddRow("Current Median Price", round2(b.stats.MedianPrice))
	sheet.AddRow()
	sheet.AddRow("Horizon (years)", "Projected Median Price", "Change")
	for _, p := range projections {
		sheet.AddRow(p.Years, round2(p.MedianPrice), round2(p.Change))
	}
	sheet.AddRow()
	sheet.AddRow(b.forecastNarrative(rate, projections))
	return sheet
}

// market intelligence

func (b *builder) marketOverview(title string) models.ReportSheet {
	sheet := models.ReportSheet{Name: "Market Overview"}
	b.header(&sheet, title)
	b.keyMetrics(&sheet)
	sheet.AddRow("Median Days on Market", round2(b.stats.MedianDaysOnMarket))
	sheet.AddRow("Price Reduced Listings", b.stats.ReducedCount)
	sheet.AddRow()
	sheet.AddRow(b.executiveNarrative())
	return sheet
}

func (b *builder) competitiveAnalysis() models.ReportSheet {
	sheet := models.ReportSheet{Name: "Competitive Analysis"}
	bands := PriceBands(b.props, b.now)
	bandRows(&sheet, "Price Band", bands)

	busiest := lo.MaxBy(bands, func(a, c BandSummary) bool { return a.Count > c.Count })
	sheet.AddRow()
	if busiest.Count > 0 {
		sheet.AddRow(b.printer.Sprintf(
			"The %s band is the most contested with %d listings (%.1f%% of supply).",
			busiest.Label, busiest.Count, busiest.Share))
	} else {
		sheet.AddRow("No listings to compare across price bands.")
	}
	return sheet
}

func (b *builder) areaBreakdown() models.ReportSheet {
	sheet := models.ReportSheet{Name: "Area Breakdown"}
	sheet.AddRow("Area", "Listings", "Average Price", "Median Price", "Average Price per Sqft",
		"Centroid Latitude", "Centroid Longitude", "North-South Spread (km)", "East-West Spread (km)")

	for _, r := range AreaRollups(b.props, b.now) {
		lat, lng := any(NotAvailable), any(NotAvailable)
		if r.Geo.Count > 0 {
			lat, lng = round6(r.Geo.Centroid.Lat()), round6(r.Geo.Centroid.Lon())
		}
		sheet.AddRow(r.City, r.Stats.Count, round2(r.Stats.AveragePrice), round2(r.Stats.MedianPrice),
			b.averagePricePerSqft(r.Stats), lat, lng, round2(r.Geo.NorthSouthKm), round2(r.Geo.EastWestKm))
	}
	return sheet
}

func (b *builder) daysOnMarketTrends() models.ReportSheet {
	sheet := models.ReportSheet{Name: "Days on Market Trends"}
	sheet.AddRow("Average Days on Market", round2(b.stats.AverageDaysOnMarket))
	sheet.AddRow("Median Days on Market", round2(b.stats.MedianDaysOnMarket))
	sheet.AddRow()
	bandRows(&sheet, "Time on Market", DaysOnMarketBands(b.props, b.now))
	sheet.AddRow()
	sheet.AddRow(b.daysOnMarketNarrative())
	return sheet
}

func (b *builder) recommendations() models.ReportSheet {
	sheet := models.ReportSheet{Name: "Recommendations"}
	sheet.AddRow("#", "Audience", "Recommendation")
	for i, line := range b.recommendationLines() {
		sheet.AddRow(i+1, line[0], line[1])
	}
	return sheet
}

// investment analysis

func (b *builder) investmentOverview(title string) models.ReportSheet {
	sheet := models.ReportSheet{Name: "Investment Overview"}
	b.header(&sheet, title)

	ranked := rankByScore(b.props, b.now)
	scores := lo.Map(ranked, func(r ROI, _ int) float64 { return float64(r.Score) })
	yields := lo.Map(ranked, func(r ROI, _ int) float64 { return r.GrossYield })

	sheet.AddRow("Metric", "Value")
	sheet.AddRow("Listings Analysed", b.stats.Count)
	sheet.AddRow("Average Investment Score", round2(Mean(scores)))
	sheet.AddRow("Average Gross Yield (%)", round2(Mean(yields)))
	sheet.AddRow("Market Tone", MarketTone(b.stats.AveragePrice))
	sheet.AddRow()
	sheet.AddRow("Grade", "Listings")
	grades := lo.CountValuesBy(ranked, func(r ROI) string { return Grade(r.Score) })
	for _, rule := range scoreGrade {
		sheet.AddRow(rule.Label, grades[rule.Label])
	}
	sheet.AddRow()
	sheet.AddRow(b.opportunityNarrative(ranked))
	return sheet
}

func (b *builder) roiAnalysis() models.ReportSheet {
	sheet := models.ReportSheet{Name: "ROI Analysis"}
	sheet.AddRow("Address", "Price", "Sqft", "Est. Monthly Rent", "Est. Annual Rent",
		"Gross Yield (%)", "Net Yield (%)", "Price to Rent Ratio", "Investment Score")
	for _, p := range b.props {
		r := EstimateROI(p, b.now)
		ratio := any(NotAvailable)
		if r.PriceToRent > 0 {
			ratio = round2(r.PriceToRent)
		}
		sheet.AddRow(p.FullAddress(), p.Price, p.Sqft, round2(r.MonthlyRent), round2(r.AnnualRent),
			round2(r.GrossYield), round2(r.NetYield), ratio, r.Score)
	}
	sheet.AddRow()
	sheet.AddRow(b.printer.Sprintf(
		"Rent is estimated at %.1f%% of price per month plus $%.2f per sqft; net yield assumes %.0f%% of rent goes to expenses.",
		rentPriceRatio*100, rentPerSqft, expenseRatio*100))
	return sheet
}

func (b *builder) riskAssessment() models.ReportSheet {
	sheet := models.ReportSheet{Name: "Risk Assessment"}
	sheet.AddRow("Risk Factor", "Listings", "Share (%)")
	for _, f := range RiskFactors(b.props, b.now) {
		sheet.AddRow(f.Label, f.Count, round2(f.Share))
	}
	sheet.AddRow()
	sheet.AddRow(b.riskNarrative(RiskyCount(b.props, b.now)))
	return sheet
}

type strategy struct {
	name  string
	pick  func(r ROI) bool
	order func(a, c ROI) bool
}

func (b *builder) portfolioSuggestions() models.ReportSheet {
	sheet := models.ReportSheet{Name: "Portfolio Suggestions"}
	sheet.AddRow("Strategy", "Address", "Price", "Investment Score", "Gross Yield (%)")

	median := b.stats.MedianPrice
	strategies := []strategy{
		{"Value", func(r ROI) bool { return r.Score >= 65 && float64(r.Property.Price) <= median },
			func(a, c ROI) bool { return a.Score > c.Score }},
		{"Growth", func(r ROI) bool { return r.Score >= 50 && r.Property.DaysOnMarket(b.now) < 30 },
			func(a, c ROI) bool { return a.Property.DaysOnMarket(b.now) < c.Property.DaysOnMarket(b.now) }},
		{"Income", func(r ROI) bool { return r.GrossYield > 0 },
			func(a, c ROI) bool { return a.GrossYield > c.GrossYield }},
	}

	ranked := rankByScore(b.props, b.now)
	for _, st := range strategies {
		picks := lo.Filter(ranked, func(r ROI, _ int) bool { return st.pick(r) })
		sort.SliceStable(picks, func(i, j int) bool { return st.order(picks[i], picks[j]) })
		if len(picks) == 0 {
			sheet.AddRow(st.name, NotAvailable, NotAvailable, NotAvailable, NotAvailable)
			continue
		}
		for _, r := range picks[:min(len(picks), portfolioPicks)] {
			sheet.AddRow(st.name, r.Property.FullAddress(), r.Property.Price, r.Score, round2(r.GrossYield))
		}
	}
	return sheet
}
