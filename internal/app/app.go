package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/router-for-me/PlacesFinder/internal/config"
	"github.com/router-for-me/PlacesFinder/internal/db"
	finderhttp "github.com/router-for-me/PlacesFinder/internal/http"
	"github.com/router-for-me/PlacesFinder/internal/http/api/front"
	"github.com/router-for-me/PlacesFinder/internal/http/api/front/handlers"
	"github.com/router-for-me/PlacesFinder/internal/maps"
	"github.com/router-for-me/PlacesFinder/internal/quota"
	"github.com/router-for-me/PlacesFinder/internal/search"
	"github.com/router-for-me/PlacesFinder/internal/store"
	"github.com/router-for-me/PlacesFinder/internal/webui"
	log "github.com/sirupsen/logrus"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// NewEngine builds the gin engine with middleware, templates and routes.
func NewEngine(searcher handlers.Searcher, usage handlers.UsageReporter, throttle *finderhttp.IPThrottle) (*gin.Engine, error) {
	tmpl, errLoad := webui.Load()
	if errLoad != nil {
		return nil, fmt.Errorf("load templates: %w", errLoad)
	}
	engine := gin.New()
	engine.SetHTMLTemplate(tmpl)
	engine.Use(
		finderhttp.RequestIDMiddleware(),
		finderhttp.RequestLogMiddleware(),
		gin.CustomRecovery(handlers.Recovered),
	)
	front.RegisterFrontRoutes(engine, searcher, usage, throttle)
	return engine, nil
}

// NewGuard builds the daily quota guard from cfg.
func NewGuard(cfg config.AppConfig) (*quota.DailyGuard, error) {
	loc, errLoc := cfg.Location()
	if errLoc != nil {
		return nil, errLoc
	}
	return quota.NewDailyGuard(cfg.Quota.DailyLimit, quota.WithLocation(loc))
}

// RunServer boots the finder and blocks until ctx is cancelled or the listener fails.
func RunServer(ctx context.Context, cfg config.AppConfig) error {
	if errValidate := cfg.Validate(); errValidate != nil {
		return errValidate
	}
	if ctx == nil {
		ctx = context.Background()
	}

	guard, errGuard := NewGuard(cfg)
	if errGuard != nil {
		return errGuard
	}

	var cache search.DetailCache
	if cfg.Database.DSN != "" {
		conn, errOpen := db.Open(cfg.Database.DSN)
		if errOpen != nil {
			return errOpen
		}
		defer func() {
			if errClose := db.Close(conn); errClose != nil {
				log.WithError(errClose).Warn("close place cache database")
			}
		}()
		if errMigrate := db.Migrate(conn); errMigrate != nil {
			return errMigrate
		}
		placeCache := store.NewPlaceCache(conn, cfg.Database.CacheTTL)
		placeCache.StartPruner(ctx, 0)
		cache = placeCache
		log.Infof("place detail cache enabled (dialect=%s)", db.DialectName(conn))
	}

	client := maps.NewClient(cfg.MapsAPIKey, cfg.MapsBaseURL, nil)
	service := search.NewService(client, guard, cache, search.Options{
		RadiusMeters: cfg.Search.RadiusMeters,
		MaxResults:   cfg.Search.MaxResults,
	})

	engine, errEngine := NewEngine(service, guard, finderhttp.NewIPThrottle(cfg.Search.RatePerMinute))
	if errEngine != nil {
		return errEngine
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("finder listening on %s (daily limit=%d)", srv.Addr, guard.Limit())
		if errServe := srv.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
		}
		close(errCh)
	}()

	select {
	case errServe := <-errCh:
		return errServe
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
		return fmt.Errorf("shutdown: %w", errShutdown)
	}
	return nil
}
