// Package report turns a list of listings into named analytical sheets with
// generated narrative text.
package report

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"homescout/server/internal/models"
)

// Variant selects the fixed sheet list of a report.
type Variant string

const (
	VariantPropertyListings   Variant = "property_listings"
	VariantMarketIntelligence Variant = "market_intelligence"
	VariantInvestmentAnalysis Variant = "investment_analysis"
)

// ErrUnknownVariant is returned for a variant name outside Variants.
var ErrUnknownVariant = errors.New("unknown report variant")

// NotAvailable is shown where a figure cannot be computed.
const NotAvailable = "N/A"

var variantTitles = map[Variant]string{
	VariantPropertyListings:   "Property Listings Report",
	VariantMarketIntelligence: "Market Intelligence Report",
	VariantInvestmentAnalysis: "Investment Analysis Report",
}

// Variants lists the supported report variants.
func Variants() []Variant {
	return []Variant{VariantPropertyListings, VariantMarketIntelligence, VariantInvestmentAnalysis}
}

// ParseVariant accepts underscore or dash separated names in any case.
func ParseVariant(raw string) (Variant, error) {
	v := Variant(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
	if _, ok := variantTitles[v]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, raw)
	}
	return v, nil
}

// Synthesizer builds reports. It holds no state between calls; the same
// input list and clock always give the same report.
type Synthesizer struct {
	logger  *logrus.Logger
	now     func() time.Time
	printer *message.Printer
}

// NewSynthesizer creates a synthesizer using the wall clock and US number
// formatting.
func NewSynthesizer(logger *logrus.Logger) *Synthesizer {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Synthesizer{
		logger:  logger,
		now:     time.Now,
		printer: message.NewPrinter(language.AmericanEnglish),
	}
}

// WithClock replaces the clock days on market are measured against.
func (s *Synthesizer) WithClock(now func() time.Time) *Synthesizer {
	s.now = now
	return s
}

// Build synthesizes the sheets of variant for props.
func (s *Synthesizer) Build(variant Variant, location string, props []models.Property) (*models.Report, error) {
	title, ok := variantTitles[variant]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, variant)
	}

	now := s.now().UTC()
	b := &builder{
		printer:  s.printer,
		location: location,
		props:    props,
		now:      now,
		stats:    ComputeStats(props, now),
	}

	var sheets []models.ReportSheet
	switch variant {
	case VariantPropertyListings:
		sheets = []models.ReportSheet{
			b.executiveSummary(title),
			b.marketAnalysis(),
			b.propertyDetails(),
			b.investmentOpportunities(),
			b.marketPredictions("Market Predictions"),
		}
	case VariantMarketIntelligence:
		sheets = []models.ReportSheet{
			b.marketOverview(title),
			b.competitiveAnalysis(),
			b.areaBreakdown(),
			b.daysOnMarketTrends(),
			b.recommendations(),
		}
	case VariantInvestmentAnalysis:
		sheets = []models.ReportSheet{
			b.investmentOverview(title),
			b.roiAnalysis(),
			b.riskAssessment(),
			b.portfolioSuggestions(),
			b.marketPredictions("Market Forecast"),
		}
	}

	s.logger.WithFields(logrus.Fields{
		"variant":  variant,
		"location": location,
		"count":    len(props),
		"sheets":   len(sheets),
	}).Info("Synthesized report")

	return &models.Report{
		Title:       title + " - " + location,
		Variant:     string(variant),
		Location:    location,
		GeneratedAt: now,
		Sheets:      sheets,
	}, nil
}

// builder carries the per report inputs shared by the sheet builders.
type builder struct {
	printer  *message.Printer
	location string
	props    []models.Property
	now      time.Time
	stats    Stats
}

func (b *builder) money(v float64) string {
	return b.printer.Sprintf("$%d", int64(v+0.5))
}

func (b *builder) pricePerSqft(p models.Property) any {
	if v, ok := p.PricePerSqft(); ok {
		return round2(v)
	}
	return NotAvailable
}

func (b *builder) averagePricePerSqft(s Stats) any {
	if !s.HasPricePerSqft() {
		return NotAvailable
	}
	return round2(s.AveragePricePerSqft)
}

func (b *builder) header(sheet *models.ReportSheet, title string) {
	sheet.AddRow(title)
	sheet.AddRow("Location", b.location)
	sheet.AddRow("Generated", b.now.Format("2006-01-02 15:04 MST"))
	sheet.AddRow()
}

func (b *builder) keyMetrics(sheet *models.ReportSheet) {
	s := b.stats
	sheet.AddRow("Metric", "Value")
	sheet.AddRow("Total Listings", s.Count)
	sheet.AddRow("Average Price", round2(s.AveragePrice))
	sheet.AddRow("Median Price", round2(s.MedianPrice))
	sheet.AddRow("Lowest Price", s.MinPrice)
	sheet.AddRow("Highest Price", s.MaxPrice)
	sheet.AddRow("Average Price per Sqft", b.averagePricePerSqft(s))
	sheet.AddRow("Average Days on Market", round2(s.AverageDaysOnMarket))
	sheet.AddRow("New This Week", s.RecentCount)
	sheet.AddRow("Activity Rate (%)", round2(s.ActivityRate))
	sheet.AddRow("Market Tone", MarketTone(s.AveragePrice))
	sheet.AddRow("Activity Level", ActivityLevel(s.ActivityRate))
	sheet.AddRow("Inventory Status", InventoryStatus(s.Count))
}

func bandRows(sheet *models.ReportSheet, first string, bands []BandSummary) {
	sheet.AddRow(first, "Listings", "Share (%)", "Average Price", "Average Price per Sqft", "Average Days on Market")
	for _, band := range bands {
		ppa := any(NotAvailable)
		if band.AveragePricePerSqft > 0 {
			ppa = round2(band.AveragePricePerSqft)
		}
		sheet.AddRow(band.Label, band.Count, round2(band.Share), round2(band.AveragePrice), ppa, round2(band.AverageDaysOnMarket))
	}
}
