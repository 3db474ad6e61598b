package front

import (
	"github.com/gin-gonic/gin"
	finderhttp "github.com/router-for-me/PlacesFinder/internal/http"
	"github.com/router-for-me/PlacesFinder/internal/http/api/front/handlers"
)

// RegisterFrontRoutes registers the search page, usage endpoint and error pages.
// The engine must already have the webui templates set.
func RegisterFrontRoutes(r *gin.Engine, searcher handlers.Searcher, usage handlers.UsageReporter, throttle *finderhttp.IPThrottle) {
	if r == nil {
		return
	}

	r.GET("/healthz", handlers.Healthz)

	searchHandler := handlers.NewSearchHandler(searcher)
	r.GET("/", searchHandler.Form)
	r.POST("/", throttle.Middleware(searchHandler.Throttled), searchHandler.Submit)

	usageHandler := handlers.NewUsageHandler(usage)
	r.GET("/api-usage", usageHandler.Get)

	r.NoRoute(handlers.NotFound)
}
