package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/router-for-me/PlacesFinder/internal/webui"
	log "github.com/sirupsen/logrus"
)

// NotFound renders the 404 page.
func NotFound(c *gin.Context) {
	log.WithField("path", c.Request.URL.Path).Error("404 error: page not found")
	c.HTML(http.StatusNotFound, webui.NotFoundTemplate, nil)
}

// Recovered renders the 500 page after a panic.
func Recovered(c *gin.Context, recovered any) {
	log.WithFields(log.Fields{
		"path":  c.Request.URL.Path,
		"panic": recovered,
	}).Error("500 error: handler panicked")
	c.HTML(http.StatusInternalServerError, webui.InternalErrorTemplate, nil)
	c.Abort()
}

// Healthz reports liveness.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
