package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"homescout/server/internal/search"
)

const dayLayout = "2006-01-02"

// SearchRecord is one completed search.
type SearchRecord struct {
	ID         uint   `gorm:"primaryKey"`
	Location   string `gorm:"index"`
	Origin     string
	Listings   int
	DurationMs int64
	Day        string
	CreatedAt  time.Time
}

// ReportRun is one generated report file.
type ReportRun struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	Variant   string    `json:"variant"`
	Location  string    `json:"location"`
	Format    string    `json:"format"`
	Path      string    `json:"path"`
	Status    string    `json:"status"`
	Attempts  int       `json:"attempts"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Report run statuses.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// DailyStat aggregates one day of searches.
type DailyStat struct {
	Day           string  `json:"day"`
	Searches      int     `json:"searches"`
	Listings      int     `json:"listings"`
	CacheHits     int     `json:"cache_hits"`
	MockFallbacks int     `json:"mock_fallbacks"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}

// LocationStat counts searches for one location.
type LocationStat struct {
	Location string `json:"location"`
	Searches int    `json:"searches"`
}

// SearchLog records searches and report runs. It satisfies search.Recorder.
type SearchLog struct {
	db *gorm.DB
}

var _ search.Recorder = (*SearchLog)(nil)

func NewSearchLog(db *gorm.DB) *SearchLog {
	return &SearchLog{db: db}
}

// RecordSearch stores one search event.
func (l *SearchLog) RecordSearch(ctx context.Context, event search.SearchEvent) error {
	at := event.At
	if at.IsZero() {
		at = time.Now()
	}
	record := SearchRecord{
		Location:   event.Location,
		Origin:     string(event.Origin),
		Listings:   event.Count,
		DurationMs: event.Duration.Milliseconds(),
		Day:        at.UTC().Format(dayLayout),
		CreatedAt:  at,
	}
	if err := l.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	return nil
}

// DailyStats returns per day aggregates for the last days days, newest first.
func (l *SearchLog) DailyStats(ctx context.Context, days int, now time.Time) ([]DailyStat, error) {
	if days <= 0 {
		days = 7
	}
	since := now.UTC().AddDate(0, 0, -(days - 1)).Format(dayLayout)

	var stats []DailyStat
	err := l.db.WithContext(ctx).Raw(`
		SELECT
			day,
			COUNT(*) AS searches,
			COALESCE(SUM(listings), 0) AS listings,
			COALESCE(SUM(CASE WHEN origin = ? THEN 1 ELSE 0 END), 0) AS cache_hits,
			COALESCE(SUM(CASE WHEN origin = ? THEN 1 ELSE 0 END), 0) AS mock_fallbacks,
			COALESCE(AVG(duration_ms), 0) AS avg_duration_ms
		FROM search_records
		WHERE day >= ?
		GROUP BY day
		ORDER BY day DESC
	`, string(search.OriginCache), string(search.OriginMock), since).Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}
	return stats, nil
}

// TopLocations returns the most searched locations.
func (l *SearchLog) TopLocations(ctx context.Context, limit int) ([]LocationStat, error) {
	if limit <= 0 {
		limit = 10
	}
	var stats []LocationStat
	err := l.db.WithContext(ctx).Model(&SearchRecord{}).
		Select("location, COUNT(*) AS searches").
		Group("location").
		Order("searches DESC, location ASC").
		Limit(limit).
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query top locations: %w", err)
	}
	return stats, nil
}

// RecordReportRun stores the outcome of one report job.
func (l *SearchLog) RecordReportRun(ctx context.Context, run *ReportRun) error {
	if err := l.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to record report run: %w", err)
	}
	return nil
}

// RecentReportRuns returns the latest report runs, newest first.
func (l *SearchLog) RecentReportRuns(ctx context.Context, limit int) ([]ReportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []ReportRun
	err := l.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query report runs: %w", err)
	}
	return runs, nil
}
