package search

import (
	"context"
	"fmt"
	"time"

	"homescout/server/internal/location"
	"homescout/server/internal/models"
	"homescout/server/internal/normalizer"
)

// Source is one step of the fallback chain.
type Source interface {
	Name() string
	// Configured reports whether the source can be called at all.
	Configured() bool
	// PreFiltered sources already honour the query; their results skip the
	// filter engine.
	PreFiltered() bool
	Fetch(ctx context.Context, loc location.Query, q models.SearchQuery) ([]normalizer.Record, error)
}

// Origin names where a result set came from.
type Origin string

const (
	OriginCache     Origin = "cache"
	OriginPrimary   Origin = "primary"
	OriginSecondary Origin = "secondary"
	OriginMock      Origin = "mock"
)

// SearchEvent describes one completed search.
type SearchEvent struct {
	Location string
	Origin   Origin
	Count    int
	Duration time.Duration
	At       time.Time
}

// Recorder receives an event for every successful search.
type Recorder interface {
	RecordSearch(ctx context.Context, event SearchEvent) error
}

// NopRecorder discards events.
type NopRecorder struct{}

func (NopRecorder) RecordSearch(context.Context, SearchEvent) error { return nil }

// UpstreamError is returned when the primary source fails in a way no
// fallback covers, or when the caller's context ends during a fetch.
type UpstreamError struct {
	Source string
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s source failed: %v", e.Source, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
