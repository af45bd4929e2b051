package mockdata

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homescout/server/internal/location"
	"homescout/server/internal/models"
	"homescout/server/internal/normalizer"
)

var fixedNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestGenerator() *Generator {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewGenerator(logger).WithClock(func() time.Time { return fixedNow })
}

func TestRecordsExactLimit(t *testing.T) {
	g := newTestGenerator()
	for _, limit := range []int{1, 3, 8, 9, 25} {
		records := g.Records(location.Query{City: "Nashville", State: "TN"}, limit)
		assert.Len(t, records, limit)
	}
}

func TestRecordsDeterministic(t *testing.T) {
	g := newTestGenerator()
	loc := location.Query{City: "Austin", State: "TX"}

	first := g.Records(loc, 12)
	second := g.Records(loc, 12)
	assert.Equal(t, first, second)
}

func TestRecordsCycleVaries(t *testing.T) {
	g := newTestGenerator()
	n := normalizer.New(nil).WithClock(func() time.Time { return fixedNow })
	props := n.NormalizeAll(g.Records(location.Query{City: "Denver", State: "CO"}, len(catalog)*2))

	ids := map[string]bool{}
	for _, p := range props {
		ids[p.ID] = true
	}
	assert.Len(t, ids, len(props))
	assert.NotEqual(t, props[0].Address, props[len(catalog)].Address)
	assert.Greater(t, props[len(catalog)].Price, props[0].Price)
}

func TestRecordsNormalizeCleanly(t *testing.T) {
	g := newTestGenerator()
	n := normalizer.New(nil).WithClock(func() time.Time { return fixedNow })

	props := n.NormalizeAll(g.Records(location.Query{City: "Nashville", State: "TN"}, 8))
	require.Len(t, props, 8)

	houseTypes := []string{
		models.TypeSingleFamily, models.TypeTownhome, models.TypeCondo,
		models.TypeCoop, models.TypeApartment,
	}
	for _, p := range props {
		assert.Equal(t, "Nashville", p.City)
		assert.Equal(t, "TN", p.State)
		assert.Greater(t, p.Price, int64(0))
		assert.NotEqual(t, normalizer.UnknownAddress, p.Address)
		assert.NotEqual(t, normalizer.UnknownAgent, p.Agent.Name)
		assert.NotEqual(t, normalizer.PlaceholderImage, p.Images[0])
		assert.Contains(t, houseTypes, p.PropertyType)
		assert.True(t, p.HasCoordinates())
		assert.False(t, p.ListDate.After(fixedNow))
	}

	// baths arrive as strings and are parsed
	assert.Equal(t, 2.5, props[2].Bathrooms)
	assert.Equal(t, 12, props[0].DaysOnMarket(fixedNow))
}

func TestResolveLocation(t *testing.T) {
	tests := []struct {
		name      string
		loc       location.Query
		wantCity  string
		wantState string
	}{
		{"city and state", location.Query{City: "Austin", State: "TX"}, "Austin", "TX"},
		{"known postal prefix", location.Query{PostalCode: "37203"}, "Nashville", "TN"},
		{"unknown postal prefix", location.Query{PostalCode: "00001"}, "Springfield", "IL"},
		{"known city without state", location.Query{City: "denver"}, "Denver", "CO"},
		{"unknown city keeps its name", location.Query{City: "Smallville", State: "KS"}, "Smallville", "KS"},
		{"unparseable", location.Query{}, "Springfield", "IL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			city, state, _, center := resolve(tt.loc)
			assert.Equal(t, tt.wantCity, city)
			assert.Equal(t, tt.wantState, state)
			assert.Len(t, center, 2)
		})
	}
}

func TestFetchImplementsSource(t *testing.T) {
	g := newTestGenerator()
	records, err := g.Fetch(context.Background(), location.Query{}, models.SearchQuery{Limit: 4})
	require.NoError(t, err)
	assert.Len(t, records, 4)
	assert.Equal(t, Name, g.Name())
	assert.True(t, g.Configured())
	assert.True(t, g.PreFiltered())
}
