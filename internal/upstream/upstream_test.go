package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homescout/server/internal/location"
	"homescout/server/internal/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig(url string) Config {
	return Config{
		APIKey:  "test-key",
		Host:    "test-host",
		URL:     url,
		Timeout: 2 * time.Second,
	}
}

func TestPrimaryFetch(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "test-host", r.Header.Get("X-RapidAPI-Host"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":{"home_search":{"total":2,"results":[
			{"property_id":"1","list_price":300000},
			{"property_id":"2","list_price":450000}
		]}}}`)
	}))
	defer server.Close()

	p := NewPrimary(testConfig(server.URL), quietLogger())
	records, err := p.Fetch(context.Background(), location.Query{City: "Nashville", State: "TN"}, models.SearchQuery{Limit: 20})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0]["property_id"])

	assert.Equal(t, "Nashville", captured["city"])
	assert.Equal(t, "TN", captured["state_code"])
	assert.EqualValues(t, 20, captured["limit"])
	assert.NotContains(t, captured, "postal_code")
	assert.False(t, p.PreFiltered())
	assert.Equal(t, "primary", p.Name())
}

func TestPrimaryFetchPostalCode(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		io.WriteString(w, `{"data":{"home_search":{"total":0,"results":[]}}}`)
	}))
	defer server.Close()

	p := NewPrimary(testConfig(server.URL), quietLogger())
	records, err := p.Fetch(context.Background(), location.Query{PostalCode: "37203"}, models.SearchQuery{Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, "37203", captured["postal_code"])
	assert.NotContains(t, captured, "city")
}

func TestPrimaryErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		quota     bool
		retryable bool
	}{
		{"too many requests", http.StatusTooManyRequests, `{"message":"slow down"}`, true, true},
		{"quota in body", http.StatusForbidden, `{"message":"You have exceeded the MONTHLY quota"}`, true, true},
		{"quota message on 200", http.StatusOK, `{"message":"Rate limit reached"}`, true, true},
		{"server error", http.StatusInternalServerError, `boom`, false, false},
		{"message without data", http.StatusOK, `{"message":"invalid key"}`, false, false},
		{"malformed json", http.StatusOK, `{`, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			p := NewPrimary(testConfig(server.URL), quietLogger())
			_, err := p.Fetch(context.Background(), location.Query{City: "Austin", State: "TX"}, models.SearchQuery{Limit: 1})
			require.Error(t, err)
			assert.Equal(t, tt.quota, IsQuotaExceeded(err))
			assert.Equal(t, tt.retryable, IsRetryable(err))
		})
	}
}

func TestPrimaryTimeoutIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Timeout = 20 * time.Millisecond
	p := NewPrimary(cfg, quietLogger())

	_, err := p.Fetch(context.Background(), location.Query{City: "Austin", State: "TX"}, models.SearchQuery{Limit: 1})
	require.Error(t, err)
	assert.False(t, IsQuotaExceeded(err))
	assert.True(t, IsRetryable(err))
}

func TestPrimaryCanceledIsNotRetryable(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPrimary(testConfig(server.URL), quietLogger())
	_, err := p.Fetch(ctx, location.Query{City: "Nashville", State: "TN"}, models.SearchQuery{Limit: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsRetryable(err))
	assert.Equal(t, 0, calls)
}

func TestNotConfigured(t *testing.T) {
	p := NewPrimary(Config{URL: "http://127.0.0.1:1"}, quietLogger())
	assert.False(t, p.Configured())

	_, err := p.Fetch(context.Background(), location.Query{City: "Austin", State: "TX"}, models.SearchQuery{Limit: 1})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestPrimaryUnparseableLocation(t *testing.T) {
	p := NewPrimary(testConfig("http://127.0.0.1:1"), quietLogger())
	_, err := p.Fetch(context.Background(), location.Query{}, models.SearchQuery{Limit: 1})
	assert.ErrorIs(t, err, ErrUnsupportedLocation)
}

func TestSecondaryFetch(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"results key", `{"results":[{"zpid":"1"},{"zpid":"2"}]}`},
		{"props key", `{"props":[{"zpid":"1"},{"zpid":"2"}]}`},
		{"listings key", `{"listings":[{"zpid":"1"},"junk",{"zpid":"2"}]}`},
		{"data key", `{"data":[{"zpid":"1"},{"zpid":"2"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "Denver", r.URL.Query().Get("city"))
				assert.Equal(t, "CO", r.URL.Query().Get("state_code"))
				assert.Equal(t, "10", r.URL.Query().Get("limit"))
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			s := NewSecondary(testConfig(server.URL), quietLogger())
			records, err := s.Fetch(context.Background(), location.Query{City: "Denver", State: "CO"}, models.SearchQuery{Limit: 10})
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, "2", records[1]["zpid"])
		})
	}
}

func TestSecondaryPostalCodeResolvesCity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Nashville", r.URL.Query().Get("city"))
		assert.Equal(t, "TN", r.URL.Query().Get("state_code"))
		io.WriteString(w, `{"results":[]}`)
	}))
	defer server.Close()

	s := NewSecondary(testConfig(server.URL), quietLogger())
	records, err := s.Fetch(context.Background(), location.Query{PostalCode: "37203"}, models.SearchQuery{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.True(t, s.PreFiltered())
}

func TestSecondaryUnsupportedLocation(t *testing.T) {
	s := NewSecondary(testConfig("http://127.0.0.1:1"), quietLogger())

	_, err := s.Fetch(context.Background(), location.Query{City: "Springfield"}, models.SearchQuery{Limit: 1})
	assert.ErrorIs(t, err, ErrUnsupportedLocation)

	_, err = s.Fetch(context.Background(), location.Query{PostalCode: "00001"}, models.SearchQuery{Limit: 1})
	assert.ErrorIs(t, err, ErrUnsupportedLocation)
}

func TestSecondaryQuotaMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"message":"You have exceeded the rate limit per second for your plan"}`)
	}))
	defer server.Close()

	s := NewSecondary(testConfig(server.URL), quietLogger())
	_, err := s.Fetch(context.Background(), location.Query{City: "Denver", State: "CO"}, models.SearchQuery{Limit: 1})
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrQuotaExceeded, true},
		{"wrapped sentinel", errors.Join(errors.New("x"), ErrQuotaExceeded), true},
		{"provider wording", errors.New("429 Too Many Requests"), true},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"canceled pacing wait", fmt.Errorf("primary pacing wait: %w", context.Canceled), false},
		{"canceled with quota wording", fmt.Errorf("rate limit check: %w", context.Canceled), false},
		{"plain", errors.New("bad request"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
