package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"homescout/server/config"
	"homescout/server/internal/database"
	"homescout/server/internal/export"
	"homescout/server/internal/geometry"
	"homescout/server/internal/models"
	"homescout/server/internal/report"
	"homescout/server/internal/search"
)

// Searcher runs property searches and reports where results came from
type Searcher interface {
	SearchWithOrigin(ctx context.Context, q models.SearchQuery) ([]models.Property, search.Origin, error)
}

// StatsStore is the read side of the search log
type StatsStore interface {
	DailyStats(ctx context.Context, days int, now time.Time) ([]database.DailyStat, error)
	TopLocations(ctx context.Context, limit int) ([]database.LocationStat, error)
	RecentReportRuns(ctx context.Context, limit int) ([]database.ReportRun, error)
}

type Handler struct {
	searcher    Searcher
	synthesizer *report.Synthesizer
	exporter    *export.Exporter
	stats       StatsStore
	logger      *logrus.Logger
	now         func() time.Time
}

type PropertiesResponse struct {
	Location   string            `json:"location"`
	Origin     search.Origin     `json:"origin"`
	Count      int               `json:"count"`
	Properties []models.Property `json:"properties"`
}

func NewHandler(searcher Searcher, synthesizer *report.Synthesizer, exporter *export.Exporter, stats StatsStore, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		searcher:    searcher,
		synthesizer: synthesizer,
		exporter:    exporter,
		stats:       stats,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock replaces the clock used for stats windows and file names
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetProperties(c *gin.Context) {
	q, ok := h.bindQuery(c)
	if !ok {
		return
	}

	props, origin, ok := h.search(c, q)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, PropertiesResponse{
		Location:   q.Location,
		Origin:     origin,
		Count:      len(props),
		Properties: props,
	})
}

// GetAreas returns per city geometry for a search as GeoJSON
func (h *Handler) GetAreas(c *gin.Context) {
	q, ok := h.bindQuery(c)
	if !ok {
		return
	}

	props, _, ok := h.search(c, q)
	if !ok {
		return
	}

	rollups := report.AreaRollups(props, h.now())
	areas := make([]geometry.Area, 0, len(rollups))
	for _, r := range rollups {
		areas = append(areas, r.Geo)
	}
	c.JSON(http.StatusOK, geometry.Collection(areas))
}

func (h *Handler) DownloadReport(c *gin.Context) {
	rep, ok := h.buildReport(c)
	if !ok {
		return
	}

	format, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatXLSX)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, err := h.exporter.Export(rep.Sheets, format)
	if err != nil {
		h.logger.WithError(err).Error("Failed to export report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export report"})
		return
	}

	filename := fmt.Sprintf("%s-%s-%s%s",
		config.NormalizeCity(rep.Location), rep.Variant, h.now().UTC().Format("20060102"), export.FileExtension(format))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, export.ContentType(format), data)
}

func (h *Handler) PreviewReport(c *gin.Context) {
	rep, ok := h.buildReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *Handler) GetReportVariants(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"variants": report.Variants()})
}

func (h *Handler) GetStats(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days <= 0 {
		days = 7
	}

	ctx := c.Request.Context()
	daily, err := h.stats.DailyStats(ctx, days, h.now())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get daily stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get search stats"})
		return
	}
	top, err := h.stats.TopLocations(ctx, 10)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get top locations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get search stats"})
		return
	}
	runs, err := h.stats.RecentReportRuns(ctx, 10)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get report runs")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get search stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"daily":         daily,
		"top_locations": top,
		"report_runs":   runs,
	})
}

func (h *Handler) bindQuery(c *gin.Context) (models.SearchQuery, bool) {
	var q models.SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.logger.WithError(err).Warn("Failed to parse search query")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid search parameters"})
		return q, false
	}
	if q.Location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "location is required"})
		return q, false
	}
	return q, true
}

// search writes the error response itself when it returns false
func (h *Handler) search(c *gin.Context, q models.SearchQuery) ([]models.Property, search.Origin, bool) {
	props, origin, err := h.searcher.SearchWithOrigin(c.Request.Context(), q)
	if err != nil {
		var upstreamErr *search.UpstreamError
		if errors.As(err, &upstreamErr) {
			h.logger.WithError(err).WithField("location", q.Location).Error("Upstream search failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": upstreamErr.Error()})
			return nil, "", false
		}
		h.logger.WithError(err).Error("Failed to search properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search properties"})
		return nil, "", false
	}
	return props, origin, true
}

func (h *Handler) buildReport(c *gin.Context) (*models.Report, bool) {
	variant, err := report.ParseVariant(c.Param("variant"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}

	q, ok := h.bindQuery(c)
	if !ok {
		return nil, false
	}
	props, _, ok := h.search(c, q)
	if !ok {
		return nil, false
	}

	rep, err := h.synthesizer.Build(variant, q.Location, props)
	if err != nil {
		h.logger.WithError(err).WithField("variant", variant).Error("Failed to build report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report"})
		return nil, false
	}
	return rep, true
}
