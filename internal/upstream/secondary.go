package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"homescout/server/config"
	"homescout/server/internal/location"
	"homescout/server/internal/models"
	"homescout/server/internal/normalizer"
)

// Secondary is the fallback listing source. It only understands city +
// state queries and applies its own filtering server side.
type Secondary struct {
	client
}

// Keys under which the secondary API has been seen to return its listings.
var secondaryResultKeys = []string{"results", "props", "listings", "data"}

// NewSecondary creates the fallback source client.
func NewSecondary(cfg Config, logger *logrus.Logger) *Secondary {
	return &Secondary{client: newClient("secondary", cfg, logger)}
}

// PreFiltered is true: results are already shaped by the request.
func (s *Secondary) PreFiltered() bool {
	return true
}

// Fetch returns listings for a city and state.
func (s *Secondary) Fetch(ctx context.Context, loc location.Query, q models.SearchQuery) ([]normalizer.Record, error) {
	if loc.Kind() == location.KindPostalCode {
		// The API has no postal code filter; fall back to the metro the
		// prefix belongs to.
		city := config.GetCityByPostalCode(loc.PostalCode)
		if city == nil {
			return nil, ErrUnsupportedLocation
		}
		loc = location.Query{City: city.Name, State: city.State}
	}
	if loc.City == "" || loc.State == "" {
		return nil, ErrUnsupportedLocation
	}

	params := url.Values{
		"city":       {loc.City},
		"state_code": {loc.State},
		"limit":      {strconv.Itoa(q.Limit)},
		"offset":     {"0"},
		"sort":       {"newest"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create secondary request: %w", err)
	}

	raw, err := s.do(ctx, req)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse secondary response: %w", err)
	}

	records, ok := extractRecords(payload)
	if !ok {
		if msg, _ := payload["message"].(string); msg != "" {
			if mentionsQuota(msg) {
				return nil, fmt.Errorf("%w: %s", ErrQuotaExceeded, msg)
			}
			return nil, fmt.Errorf("secondary source error: %s", msg)
		}
		return nil, fmt.Errorf("secondary response has no listings")
	}

	s.logger.WithFields(logrus.Fields{
		"location": loc.Label(),
		"count":    len(records),
	}).Info("Fetched listings from secondary source")

	return records, nil
}

func extractRecords(payload map[string]any) ([]normalizer.Record, bool) {
	for _, key := range secondaryResultKeys {
		items, ok := payload[key].([]any)
		if !ok {
			continue
		}
		records := make([]normalizer.Record, 0, len(items))
		for _, item := range items {
			if rec, ok := item.(map[string]any); ok {
				records = append(records, rec)
			}
		}
		return records, true
	}
	return nil, false
}
