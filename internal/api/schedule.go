package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"homescout/server/internal/queue"
	"homescout/server/internal/scheduler"
)

// ScheduleRunner lists scheduled reports and queues them on demand
type ScheduleRunner interface {
	Reports() []scheduler.ScheduledReport
	Trigger(name string) error
}

type ScheduleHandler struct {
	schedule ScheduleRunner
}

func NewScheduleHandler(schedule ScheduleRunner) *ScheduleHandler {
	return &ScheduleHandler{schedule: schedule}
}

// ListScheduledReports returns every scheduled report with its next run
func (h *ScheduleHandler) ListScheduledReports(c *gin.Context) {
	c.JSON(http.StatusOK, h.schedule.Reports())
}

// RunScheduledReport queues a scheduled report right away
func (h *ScheduleHandler) RunScheduledReport(c *gin.Context) {
	name := c.Param("name")
	err := h.schedule.Trigger(name)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"status": "queued", "name": name})
	case errors.Is(err, scheduler.ErrUnknownReport):
		c.JSON(http.StatusNotFound, gin.H{"error": "Scheduled report not found"})
	case errors.Is(err, queue.ErrQueueFull), errors.Is(err, queue.ErrQueueClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
