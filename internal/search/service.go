// Package search runs the cache, fetch, normalize and filter pipeline with
// its primary, secondary and mock fallback chain.
package search

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"homescout/server/internal/cache"
	"homescout/server/internal/filter"
	"homescout/server/internal/location"
	"homescout/server/internal/models"
	"homescout/server/internal/normalizer"
	"homescout/server/internal/upstream"
)

// Service owns the result cache. Concurrent identical searches may both
// miss the cache and both reach upstream; this is accepted.
type Service struct {
	sources    []Source
	mock       Source
	cache      *cache.ResultCache
	normalizer *normalizer.Normalizer
	recorder   Recorder
	logger     *logrus.Logger
	now        func() time.Time
}

// NewService builds the pipeline. sources are tried in order; the first one
// is the primary and decides whether the network is used at all. mock is the
// last resort and must not fail.
func NewService(c *cache.ResultCache, n *normalizer.Normalizer, mock Source, logger *logrus.Logger, sources ...Source) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if c == nil {
		c = cache.New(cache.DefaultTTL, cache.DefaultMaxEntries, logger)
	}
	if n == nil {
		n = normalizer.New(logger)
	}
	return &Service{
		sources:    sources,
		mock:       mock,
		cache:      c,
		normalizer: n,
		recorder:   NopRecorder{},
		logger:     logger,
		now:        time.Now,
	}
}

// WithRecorder sets the recorder that receives search events.
func (s *Service) WithRecorder(r Recorder) *Service {
	if r == nil {
		r = NopRecorder{}
	}
	s.recorder = r
	return s
}

// WithClock replaces the clock used by the filter engine.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Search returns the listings for q. The only error it returns is
// *UpstreamError.
func (s *Service) Search(ctx context.Context, q models.SearchQuery) ([]models.Property, error) {
	props, _, err := s.SearchWithOrigin(ctx, q)
	return props, err
}

// SearchWithOrigin is Search that also reports where the results came from.
func (s *Service) SearchWithOrigin(ctx context.Context, q models.SearchQuery) ([]models.Property, Origin, error) {
	start := time.Now()
	q = q.Bounded()
	key := q.Fingerprint()
	log := s.logger.WithFields(logrus.Fields{
		"location":  q.Location,
		"cache_key": key,
	})

	if cached, ok := s.cache.Get(key); ok {
		log.WithField("count", len(cached)).Debug("Serving search from cache")
		s.record(ctx, q, OriginCache, len(cached), start)
		return cached, OriginCache, nil
	}

	if len(s.sources) == 0 || !s.sources[0].Configured() {
		log.Info("No primary credential configured, using mock listings")
		loc, _ := location.Parse(q.Location)
		props := s.fromMock(ctx, loc, q)
		s.record(ctx, q, OriginMock, len(props), start)
		return props, OriginMock, nil
	}

	loc, ok := location.Parse(q.Location)
	if !ok {
		log.Warn("Could not parse location, using mock listings")
		props := s.fromMock(ctx, loc, q)
		s.record(ctx, q, OriginMock, len(props), start)
		return props, OriginMock, nil
	}

	for i, src := range s.sources {
		if !src.Configured() {
			continue
		}
		srcLog := log.WithField("source", src.Name())

		records, err := src.Fetch(ctx, loc, q)
		if err == nil {
			props := s.normalizer.NormalizeAll(records)
			if !src.PreFiltered() {
				props = filter.ApplyAt(props, filter.FromQuery(q), s.now())
			}
			s.cache.Set(key, props)

			origin := OriginPrimary
			if i > 0 {
				origin = OriginSecondary
			}
			srcLog.WithFields(logrus.Fields{
				"fetched": len(records),
				"count":   len(props),
			}).Info("Search served from upstream")
			s.record(ctx, q, origin, len(props), start)
			return props, origin, nil
		}

		// a caller that gave up must not get mock listings cached under its key
		if ctx.Err() != nil {
			srcLog.WithError(err).Warn("Search abandoned by caller")
			return nil, "", &UpstreamError{Source: src.Name(), Err: err}
		}
		if i == 0 && !upstream.IsRetryable(err) {
			srcLog.WithError(err).Error("Primary source failed")
			return nil, "", &UpstreamError{Source: src.Name(), Err: err}
		}
		if errors.Is(err, upstream.ErrUnsupportedLocation) {
			srcLog.Debug("Source cannot serve this location")
			continue
		}
		srcLog.WithError(err).Warn("Source unavailable, trying next fallback")
	}

	props := s.fromMock(ctx, loc, q)
	s.cache.Set(key, props)
	s.record(ctx, q, OriginMock, len(props), start)
	return props, OriginMock, nil
}

// fromMock returns unfiltered mock listings so a degraded search is never
// empty.
func (s *Service) fromMock(ctx context.Context, loc location.Query, q models.SearchQuery) []models.Property {
	if s.mock == nil {
		return []models.Property{}
	}
	records, err := s.mock.Fetch(ctx, loc, q)
	if err != nil {
		s.logger.WithError(err).Error("Mock source failed")
		return []models.Property{}
	}
	return s.normalizer.NormalizeAll(records)
}

func (s *Service) record(ctx context.Context, q models.SearchQuery, origin Origin, count int, start time.Time) {
	event := SearchEvent{
		Location: q.Location,
		Origin:   origin,
		Count:    count,
		Duration: time.Since(start),
		At:       s.now(),
	}
	if err := s.recorder.RecordSearch(ctx, event); err != nil {
		s.logger.WithError(err).Warn("Failed to record search event")
	}
}
