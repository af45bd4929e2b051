package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"homescout/server/internal/cache"
	"homescout/server/internal/filter"
	"homescout/server/internal/location"
	"homescout/server/internal/mockdata"
	"homescout/server/internal/models"
	"homescout/server/internal/normalizer"
	"homescout/server/internal/upstream"
)

// MockSource is a scripted fallback step.
type MockSource struct {
	mock.Mock
	name        string
	configured  bool
	preFiltered bool
}

func (m *MockSource) Name() string      { return m.name }
func (m *MockSource) Configured() bool  { return m.configured }
func (m *MockSource) PreFiltered() bool { return m.preFiltered }

func (m *MockSource) Fetch(ctx context.Context, loc location.Query, q models.SearchQuery) ([]normalizer.Record, error) {
	args := m.Called(ctx, loc, q)
	records, _ := args.Get(0).([]normalizer.Record)
	return records, args.Error(1)
}

// MockRecorder captures search events.
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordSearch(ctx context.Context, event SearchEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

type fixture struct {
	service   *Service
	primary   *MockSource
	secondary *MockSource
	cache     *cache.ResultCache
	clock     *fakeClock
}

func newFixture(primaryConfigured, secondaryConfigured bool) *fixture {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	clock := &fakeClock{t: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
	c := cache.New(cache.DefaultTTL, cache.DefaultMaxEntries, logger).WithClock(clock.Now)
	n := normalizer.New(logger).WithClock(clock.Now)
	gen := mockdata.NewGenerator(logger).WithClock(clock.Now)

	primary := &MockSource{name: "primary", configured: primaryConfigured}
	secondary := &MockSource{name: "secondary", configured: secondaryConfigured, preFiltered: true}

	svc := NewService(c, n, gen, logger, primary, secondary).WithClock(clock.Now)
	return &fixture{service: svc, primary: primary, secondary: secondary, cache: c, clock: clock}
}

func rawListings(clock *fakeClock) []normalizer.Record {
	listed := clock.t.AddDate(0, 0, -5).Format(time.RFC3339)
	return []normalizer.Record{
		{"property_id": "p1", "list_price": 250000.0, "description": map[string]any{"beds": 3.0, "type": "single_family"}, "list_date": listed},
		{"property_id": "p2", "list_price": 900000.0, "description": map[string]any{"beds": 5.0, "type": "single_family"}, "list_date": listed},
		{"property_id": "p3", "list_price": 120000.0, "description": map[string]any{"beds": 1.0, "type": "land"}, "list_date": listed},
	}
}

func TestSearchMockOnlyNashville(t *testing.T) {
	f := newFixture(false, false)
	q := models.SearchQuery{
		Location: "Nashville, TN", PropertyType: "house",
		MinPrice: 0, MaxPrice: models.NoPriceLimit, Bedrooms: 0, Limit: 3,
	}

	props, origin, err := f.service.SearchWithOrigin(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, OriginMock, origin)
	require.Len(t, props, 3)

	house := filter.AcceptedTypes("house")
	for _, p := range props {
		assert.Contains(t, house, p.PropertyType)
		assert.Greater(t, p.Price, int64(0))
		assert.NotEmpty(t, p.Address)
		assert.NotEqual(t, normalizer.UnknownAddress, p.Address)
		assert.Equal(t, "Nashville", p.City)
	}

	f.primary.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 0, f.cache.Len())
}

func TestSearchPrimarySuccessFiltersAndCaches(t *testing.T) {
	f := newFixture(true, true)
	q := models.SearchQuery{Location: "Austin, TX", PropertyType: "house", MaxPrice: 500000, Bedrooms: 2}

	f.primary.On("Fetch", mock.Anything, location.Query{City: "Austin", State: "TX"}, mock.MatchedBy(func(q models.SearchQuery) bool {
		return q.Limit == models.DefaultLimit
	})).Return(rawListings(f.clock), nil).Once()

	props, origin, err := f.service.SearchWithOrigin(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, OriginPrimary, origin)
	require.Len(t, props, 1)
	assert.Equal(t, "p1", props[0].ID)

	cached, origin, err := f.service.SearchWithOrigin(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, OriginCache, origin)
	assert.Equal(t, props, cached)

	f.primary.AssertNumberOfCalls(t, "Fetch", 1)
	f.secondary.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchCanceledIsNotCached(t *testing.T) {
	tests := []struct {
		name      string
		primary   error
		secondary error
		source    string
	}{
		{"primary canceled", fmt.Errorf("primary pacing wait: %w", context.Canceled), nil, "primary"},
		{"canceled after quota", upstream.ErrQuotaExceeded, fmt.Errorf("secondary request: %w", context.Canceled), "secondary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(true, true)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			q := models.SearchQuery{Location: "Nashville, TN", Limit: 3}

			cancelIn := func(name string) func(mock.Arguments) {
				return func(mock.Arguments) {
					if name == tt.source {
						cancel()
					}
				}
			}
			f.primary.On("Fetch", mock.Anything, mock.Anything, mock.Anything).
				Run(cancelIn("primary")).Return(nil, tt.primary).Once()
			if tt.secondary != nil {
				f.secondary.On("Fetch", mock.Anything, mock.Anything, mock.Anything).
					Run(cancelIn("secondary")).Return(nil, tt.secondary).Once()
			}

			props, _, err := f.service.SearchWithOrigin(ctx, q)
			require.Error(t, err)
			assert.Nil(t, props)

			var upstreamErr *UpstreamError
			require.ErrorAs(t, err, &upstreamErr)
			assert.Equal(t, tt.source, upstreamErr.Source)
			assert.ErrorIs(t, err, context.Canceled)
			assert.Equal(t, 0, f.cache.Len())

			f.primary.On("Fetch", mock.Anything, mock.Anything, mock.Anything).Return(rawListings(f.clock), nil).Once()
			_, origin, err := f.service.SearchWithOrigin(context.Background(), q)
			require.NoError(t, err)
			assert.Equal(t, OriginPrimary, origin)
		})
	}
}

func TestSearchCacheExpiry(t *testing.T) {
	f := newFixture(true, false)
	q := models.SearchQuery{Location: "Denver, CO"}

	f.primary.On("Fetch", mock.Anything, mock.Anything, mock.Anything).Return(rawListings(f.clock), nil)

	_, err := f.service.Search(context.Background(), q)
	require.NoError(t, err)

	f.clock.t = f.clock.t.Add(29 * time.Minute)
	_, err = f.service.Search(context.Background(), q)
	require.NoError(t, err)
	f.primary.AssertNumberOfCalls(t, "Fetch", 1)

	f.clock.t = f.clock.t.Add(2 * time.Minute)
	_, err = f.service.Search(context.Background(), q)
	require.NoError(t, err)
	f.primary.AssertNumberOfCalls(t, "Fetch", 2)
}

func TestSearchQuotaFallsBackToSecondary(t *testing.T) {
	f := newFixture(true, true)
	q := models.SearchQuery{Location: "Austin, TX", MinPrice: 10_000_000_000}

	f.primary.On("Fetch", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("You have exceeded the MONTHLY quota")).Once()
	f.secondary.On("Fetch", mock.Anything, mock.Anything, mock.Anything).
		Return(rawListings(f.clock), nil).Once()

	props, origin, err := f.service.SearchWithOrigin(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, OriginSecondary, origin)
	// secondary results already honour the query and skip the filter engine
	assert.Len(t, props, 3)
	assert.Equal(t, 1, f.cache.Len())
}

func TestSearchQuotaFallsBackToMock(t *testing.T) {
	tests := []struct {
		name         string
		secondaryOn  bool
		secondaryErr error
	}{
		{"secondary unconfigured", false, nil},
		{"secondary quota", true, upstream.ErrQuotaExceeded},
		{"secondary hard failure", true, errors.New("status 500")},
		{"secondary unsupported location", true, upstream.ErrUnsupportedLocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(true, tt.secondaryOn)
			q := models.SearchQuery{Location: "Austin, TX", Limit: 5, PropertyType: "land"}

			f.primary.On("Fetch", mock.Anything, mock.Anything, mock.Anything).
				Return(nil, upstream.ErrQuotaExceeded).Once()
			if tt.secondaryOn {
				f.secondary.On("Fetch", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, tt.secondaryErr).Once()
			}

			props, origin, err := f.service.SearchWithOrigin(context.Background(), q)
			require.NoError(t, err)
			assert.Equal(t, OriginMock, origin)
			// mock listings are not filtered so the result is never empty
			assert.Len(t, props, 5)

			again, origin, err := f.service.SearchWithOrigin(context.Background(), q)
			require.NoError(t, err)
			assert.Equal(t, OriginCache, origin)
			assert.Equal(t, props, again)
			f.primary.AssertNumberOfCalls(t, "Fetch", 1)
		})
	}
}

func TestSearchTimeoutIsRetryable(t *testing.T) {
	f := newFixture(true, false)
	f.primary.On("Fetch", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, context.DeadlineExceeded).Once()

	props, origin, err := f.service.SearchWithOrigin(context.Background(), models.SearchQuery{Location: "37203"})
	require.NoError(t, err)
	assert.Equal(t, OriginMock, origin)
	assert.NotEmpty(t, props)
}

func TestSearchNonQuotaFailureIsUpstreamError(t *testing.T) {
	f := newFixture(true, true)
	f.primary.On("Fetch", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("primary returned status 500: internal error")).Once()

	props, err := f.service.Search(context.Background(), models.SearchQuery{Location: "Austin, TX"})
	require.Error(t, err)
	assert.Nil(t, props)

	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "primary", upErr.Source)
	assert.Contains(t, err.Error(), "internal error")

	f.secondary.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 0, f.cache.Len())
}

func TestSearchUnparseableLocationUsesMock(t *testing.T) {
	f := newFixture(true, true)

	props, origin, err := f.service.SearchWithOrigin(context.Background(), models.SearchQuery{Location: "   ", Limit: 4})
	require.NoError(t, err)
	assert.Equal(t, OriginMock, origin)
	assert.Len(t, props, 4)
	f.primary.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 0, f.cache.Len())
}

func TestSearchLimitIsBounded(t *testing.T) {
	f := newFixture(false, false)

	props, err := f.service.Search(context.Background(), models.SearchQuery{Location: "Austin, TX", Limit: 5000})
	require.NoError(t, err)
	assert.Len(t, props, models.MaxLimit)
}

func TestSearchRecordsEvents(t *testing.T) {
	f := newFixture(false, false)
	rec := &MockRecorder{}
	rec.On("RecordSearch", mock.Anything, mock.MatchedBy(func(e SearchEvent) bool {
		return e.Origin == OriginMock && e.Count == 2 && e.Location == "Austin, TX"
	})).Return(errors.New("disk full")).Once()
	f.service.WithRecorder(rec)

	props, err := f.service.Search(context.Background(), models.SearchQuery{Location: "Austin, TX", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, props, 2)
	rec.AssertExpectations(t)
}

func TestUpstreamErrorUnwrap(t *testing.T) {
	err := &UpstreamError{Source: "primary", Err: upstream.ErrNotConfigured}
	assert.ErrorIs(t, err, upstream.ErrNotConfigured)
	assert.Equal(t, "primary source failed: upstream source not configured", err.Error())
}
