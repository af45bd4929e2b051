// Package cache holds recent search results keyed by query fingerprint.
package cache

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"homescout/server/internal/models"
)

const (
	DefaultTTL        = 30 * time.Minute
	DefaultMaxEntries = 100
)

type entry struct {
	properties []models.Property
	storedAt   time.Time
}

// ResultCache is a TTL bounded map of search results. Expired entries are
// dropped when read; once the entry ceiling is exceeded the oldest entry goes.
type ResultCache struct {
	logger     *logrus.Logger
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

// New creates a cache. Non-positive ttl or maxEntries use the defaults.
func New(ttl time.Duration, maxEntries int, logger *logrus.Logger) *ResultCache {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &ResultCache{
		logger:     logger,
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[string]entry),
	}
}

// WithClock replaces the clock used for ageing entries.
func (c *ResultCache) WithClock(now func() time.Time) *ResultCache {
	c.now = now
	return c
}

// Get returns the live entry for key.
func (c *ResultCache) Get(key string) ([]models.Property, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		c.logger.WithField("cache_key", key).Debug("Evicted expired cache entry")
		return nil, false
	}
	return clone(e.properties), true
}

// Set stores properties under key, replacing any previous entry.
func (c *ResultCache) Set(key string, properties []models.Property) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{properties: clone(properties), storedAt: c.now()}
	for len(c.entries) > c.maxEntries {
		c.evictOldest()
	}
}

// Len returns the number of stored entries, live or not.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

func (c *ResultCache) evictOldest() {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for key, e := range c.entries {
		if !found || e.storedAt.Before(oldestAt) {
			oldestKey, oldestAt, found = key, e.storedAt, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
		c.logger.WithField("cache_key", oldestKey).Debug("Evicted oldest cache entry")
	}
}

func clone(properties []models.Property) []models.Property {
	if properties == nil {
		return nil
	}
	out := make([]models.Property, len(properties))
	copy(out, properties)
	return out
}
