// Package upstream fetches raw listing records from RapidAPI hosted
// property sources.
package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const maxErrorBody = 4096

// Config holds the connection settings of one source.
type Config struct {
	APIKey            string
	Host              string
	URL               string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// client is the transport shared by both sources.
type client struct {
	name       string
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

func newClient(name string, cfg Config, logger *logrus.Logger) client {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return client{
		name:       name,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
	}
}

// Name returns the source name used in logs and metrics.
func (c *client) Name() string {
	return c.name
}

// Configured reports whether a credential is present.
func (c *client) Configured() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

// do paces, sends and checks one request, returning the response body.
func (c *client) do(ctx context.Context, req *http.Request) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s pacing wait: %w", c.name, err)
	}

	req.Header.Set("X-RapidAPI-Key", c.cfg.APIKey)
	req.Header.Set("X-RapidAPI-Host", c.cfg.Host)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"source":      c.name,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Upstream responded")

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(body))
		if resp.StatusCode == http.StatusTooManyRequests || mentionsQuota(msg) {
			return nil, fmt.Errorf("%w: %s returned status %d: %s", ErrQuotaExceeded, c.name, resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("%s returned status %d: %s", c.name, resp.StatusCode, msg)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s failed to read response: %w", c.name, err)
	}
	return body, nil
}
