// Package app wires the search and reporting pipeline from configuration.
package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"homescout/server/config"
	"homescout/server/internal/cache"
	"homescout/server/internal/database"
	"homescout/server/internal/export"
	"homescout/server/internal/mockdata"
	"homescout/server/internal/normalizer"
	"homescout/server/internal/report"
	"homescout/server/internal/search"
	"homescout/server/internal/upstream"
)

// Pipeline holds the components shared by the server and the CLI.
type Pipeline struct {
	DB          *gorm.DB
	SearchLog   *database.SearchLog
	Search      *search.Service
	Synthesizer *report.Synthesizer
	Exporter    *export.Exporter
}

// NewLogger builds a logger from the log settings. Unknown levels fall back
// to info.
func NewLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if strings.EqualFold(cfg.Log.Format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.WithField("level", cfg.Log.Level).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// NewPipeline opens the search log and builds the fallback chain:
// primary, secondary, then generated listings.
func NewPipeline(cfg *config.Config, logger *logrus.Logger) (*Pipeline, error) {
	db, err := database.NewDB(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open search log: %w", err)
	}
	searchLog := database.NewSearchLog(db)

	primary := upstream.NewPrimary(upstream.Config{
		APIKey:            cfg.Upstream.PrimaryAPIKey,
		Host:              cfg.Upstream.PrimaryHost,
		URL:               cfg.Upstream.PrimaryURL,
		Timeout:           cfg.Upstream.Timeout,
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		Burst:             cfg.Upstream.Burst,
	}, logger)
	secondary := upstream.NewSecondary(upstream.Config{
		APIKey:            cfg.Upstream.SecondaryAPIKey,
		Host:              cfg.Upstream.SecondaryHost,
		URL:               cfg.Upstream.SecondaryURL,
		Timeout:           cfg.Upstream.Timeout,
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		Burst:             cfg.Upstream.Burst,
	}, logger)

	if !primary.Configured() {
		logger.Warn("No primary API key configured, serving generated listings")
	}

	service := search.NewService(
		cache.New(cache.DefaultTTL, cache.DefaultMaxEntries, logger),
		normalizer.New(logger),
		mockdata.NewGenerator(logger),
		logger,
		primary, secondary,
	).WithRecorder(searchLog)

	return &Pipeline{
		DB:          db,
		SearchLog:   searchLog,
		Search:      service,
		Synthesizer: report.NewSynthesizer(logger),
		Exporter:    export.NewExporter(logger),
	}, nil
}

// Close releases the search log.
func (p *Pipeline) Close() error {
	return database.Close(p.DB)
}
