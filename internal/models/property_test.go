package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPricePerSqft(t *testing.T) {
	ppa, ok := Property{Price: 300000, Sqft: 1500}.PricePerSqft()
	assert.True(t, ok)
	assert.InDelta(t, 200.0, ppa, 0.0001)

	_, ok = Property{Price: 300000}.PricePerSqft()
	assert.False(t, ok, "zero area must not yield a ratio")
}

func TestDaysOnMarket(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		listDate time.Time
		want     int
	}{
		{"ten days ago", now.Add(-10 * 24 * time.Hour), 10},
		{"partial day floors", now.Add(-36 * time.Hour), 1},
		{"future date clamps", now.Add(48 * time.Hour), 0},
		{"unknown date", time.Time{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Property{ListDate: tt.listDate}.DaysOnMarket(now))
		})
	}
}

func TestSearchQuery_Bounded(t *testing.T) {
	assert.Equal(t, DefaultLimit, SearchQuery{}.Bounded().Limit)
	assert.Equal(t, MaxLimit, SearchQuery{Limit: 5000}.Bounded().Limit)
	assert.Equal(t, 3, SearchQuery{Limit: 3}.Bounded().Limit)
}

func TestSearchQuery_Fingerprint(t *testing.T) {
	a := SearchQuery{Location: "Nashville, TN", PropertyType: "house", Limit: 3}
	b := SearchQuery{Location: "  nashville, tn ", PropertyType: "House", Limit: 3}
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	c := a
	c.Bedrooms = 2
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	d := a
	d.PriceChange = PriceChangeReduced
	assert.NotEqual(t, a.Fingerprint(), d.Fingerprint())
}

func TestFullAddress(t *testing.T) {
	p := Property{Address: "12 Elm St", City: "Austin", State: "TX", PostalCode: "78701"}
	assert.Equal(t, "12 Elm St, Austin, TX 78701", p.FullAddress())
	assert.Equal(t, "Austin", Property{City: "Austin"}.FullAddress())
}
