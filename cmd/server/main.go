package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"homescout/server/config"
	"homescout/server/internal/api"
	"homescout/server/internal/app"
	"homescout/server/internal/processor"
	"homescout/server/internal/queue"
	"homescout/server/internal/scheduler"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger := app.NewLogger(cfg)

	pipeline, err := app.NewPipeline(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize search pipeline")
	}
	defer pipeline.Close()

	// Scheduled reports
	entries, err := config.LoadSchedule(cfg.Reports.SchedulePath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load report schedule")
	}
	jobs := queue.NewJobQueue(cfg.Reports.QueueSize, logger)
	reportProcessor := processor.NewReportProcessor(pipeline.Search, pipeline.Synthesizer, pipeline.Exporter, jobs, cfg, logger).
		WithRunRecorder(pipeline.SearchLog)
	reportProcessor.Start()
	jobs.Start()

	reportScheduler, err := scheduler.NewScheduler(jobs, entries, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize report scheduler")
	}
	reportScheduler.Start(cfg.Reports.RunOnStart)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(cfg.Server.AllowedOrigins)
	handler := api.NewHandler(pipeline.Search, pipeline.Synthesizer, pipeline.Exporter, pipeline.SearchLog, logger)
	api.SetupRoutes(router, handler, api.NewScheduleHandler(reportScheduler))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shut down")
	}

	reportScheduler.Stop()
	if err := jobs.Close(); err != nil {
		logger.WithError(err).Error("Failed to close report queue")
	}
	reportProcessor.Stop()
}
