package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/router-for-me/PlacesFinder/internal/quota"
	log "github.com/sirupsen/logrus"
)

// UsageReporter exposes quota usage.
type UsageReporter interface {
	Snapshot() quota.Snapshot
}

// UsageHandler serves the daily API usage endpoint.
type UsageHandler struct {
	reporter UsageReporter
}

// NewUsageHandler constructs a UsageHandler.
func NewUsageHandler(reporter UsageReporter) *UsageHandler {
	return &UsageHandler{reporter: reporter}
}

// Get returns today's call count, the daily limit and the quota date.
func (h *UsageHandler) Get(c *gin.Context) {
	snap := h.reporter.Snapshot()
	log.WithFields(log.Fields{
		"calls_today": snap.UsedToday,
		"remaining":   snap.Remaining(),
		"date":        snap.DateString(),
	}).Debug("api usage requested")
	c.JSON(http.StatusOK, gin.H{
		"calls_today":  snap.UsedToday,
		"daily_limit":  snap.Limit,
		"current_date": snap.DateString(),
		"status":       "success",
	})
}
