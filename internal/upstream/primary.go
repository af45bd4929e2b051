package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"homescout/server/internal/location"
	"homescout/server/internal/models"
	"homescout/server/internal/normalizer"
)

// Primary queries the realtor-style listing search endpoint.
type Primary struct {
	client
}

type listSort struct {
	Direction string `json:"direction"`
	Field     string `json:"field"`
}

type listRequest struct {
	Limit      int      `json:"limit"`
	Offset     int      `json:"offset"`
	PostalCode string   `json:"postal_code,omitempty"`
	City       string   `json:"city,omitempty"`
	StateCode  string   `json:"state_code,omitempty"`
	Status     []string `json:"status"`
	Sort       listSort `json:"sort"`
}

type listResponse struct {
	Message string `json:"message"`
	Data    *struct {
		HomeSearch struct {
			Total   int                 `json:"total"`
			Results []normalizer.Record `json:"results"`
		} `json:"home_search"`
	} `json:"data"`
}

// NewPrimary creates the primary source client.
func NewPrimary(cfg Config, logger *logrus.Logger) *Primary {
	return &Primary{client: newClient("primary", cfg, logger)}
}

// PreFiltered is false: primary results go through the filter engine.
func (p *Primary) PreFiltered() bool {
	return false
}

// Fetch returns the newest for-sale listings for the location.
func (p *Primary) Fetch(ctx context.Context, loc location.Query, q models.SearchQuery) ([]normalizer.Record, error) {
	body := listRequest{
		Limit:  q.Limit,
		Offset: 0,
		Status: []string{models.StatusForSale, models.StatusReadyToBuild},
		Sort:   listSort{Direction: "desc", Field: "list_date"},
	}
	switch loc.Kind() {
	case location.KindPostalCode:
		body.PostalCode = loc.PostalCode
	case location.KindCityState, location.KindCity:
		body.City = loc.City
		body.StateCode = loc.State
	default:
		return nil, ErrUnsupportedLocation
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal primary request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create primary request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := p.do(ctx, req)
	if err != nil {
		return nil, err
	}

	var result listResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse primary response: %w", err)
	}
	if result.Data == nil {
		if result.Message != "" {
			if mentionsQuota(result.Message) {
				return nil, fmt.Errorf("%w: %s", ErrQuotaExceeded, result.Message)
			}
			return nil, fmt.Errorf("primary source error: %s", result.Message)
		}
		return nil, fmt.Errorf("primary response has no data")
	}

	p.logger.WithFields(logrus.Fields{
		"location": loc.Label(),
		"total":    result.Data.HomeSearch.Total,
		"count":    len(result.Data.HomeSearch.Results),
	}).Info("Fetched listings from primary source")

	return result.Data.HomeSearch.Results, nil
}
