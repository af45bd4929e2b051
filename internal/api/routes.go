package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the engine with CORS for origins
func NewRouter(origins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	router.Use(cors.New(corsConfig))

	return router
}

func SetupRoutes(router *gin.Engine, handler *Handler, schedule *ScheduleHandler) {
	router.GET("/health", handler.Health)

	api := router.Group("/api")
	{
		api.GET("/properties", handler.GetProperties)
		api.GET("/areas", handler.GetAreas)
		api.GET("/stats", handler.GetStats)
		api.GET("/reports", handler.GetReportVariants)
		api.GET("/reports/:variant", handler.DownloadReport)
		api.GET("/reports/:variant/preview", handler.PreviewReport)
	}

	if schedule != nil {
		api.GET("/schedule", schedule.ListScheduledReports)
		api.POST("/schedule/:name/run", schedule.RunScheduledReport)
	}
}
