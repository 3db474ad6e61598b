package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestIDMiddleware())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	if generated == "" || w.Body.String() != generated {
		t.Fatalf("expected generated id in header and context, header=%q body=%q", generated, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "upstream-id" {
		t.Fatalf("expected inbound id to be reused, got %q", got)
	}
}

func TestIPThrottleAllow(t *testing.T) {
	throttle := NewIPThrottle(2)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	throttle.now = func() time.Time { return now }

	if !throttle.Allow("10.0.0.1") || !throttle.Allow("10.0.0.1") {
		t.Fatalf("expected burst of 2 to be allowed")
	}
	if throttle.Allow("10.0.0.1") {
		t.Fatalf("expected third request to be throttled")
	}
	if !throttle.Allow("10.0.0.2") {
		t.Fatalf("expected other IPs to have their own bucket")
	}

	now = now.Add(30 * time.Second)
	if !throttle.Allow("10.0.0.1") {
		t.Fatalf("expected a token to refill after 30s at 2/min")
	}
}

func TestIPThrottleSweepsIdleEntriesPeriodically(t *testing.T) {
	throttle := NewIPThrottle(10)
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	throttle.now = func() time.Time { return now }

	throttle.Allow("10.0.0.1")
	now = start.Add(9 * time.Minute)
	throttle.Allow("10.0.0.2")
	if len(throttle.entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(throttle.entries))
	}

	now = start.Add(15 * time.Minute)
	throttle.Allow("10.0.0.3")
	if _, ok := throttle.entries["10.0.0.1"]; ok {
		t.Fatalf("expected idle entry to be swept")
	}

	// 10.0.0.2 is idle by now, but the last sweep was only five minutes ago.
	now = start.Add(20 * time.Minute)
	throttle.Allow("10.0.0.4")
	if _, ok := throttle.entries["10.0.0.2"]; !ok {
		t.Fatalf("expected no sweep within the idle window")
	}
	if len(throttle.entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(throttle.entries))
	}

	now = start.Add(26 * time.Minute)
	throttle.Allow("10.0.0.3")
	if _, ok := throttle.entries["10.0.0.2"]; ok {
		t.Fatalf("expected idle entry to be swept on the next window")
	}
}

func TestIPThrottleDisabled(t *testing.T) {
	throttle := NewIPThrottle(0)
	if throttle != nil {
		t.Fatalf("expected nil throttle when disabled")
	}
	for i := 0; i < 100; i++ {
		if !throttle.Allow("10.0.0.1") {
			t.Fatalf("nil throttle must allow everything")
		}
	}
}

func TestIPThrottleMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	throttle := NewIPThrottle(1)
	engine := gin.New()
	engine.POST("/", throttle.Middleware(func(c *gin.Context) {
		c.String(http.StatusTooManyRequests, "slow down")
	}), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected first request ok, got %d", w.Code)
	}
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	if w.Code != http.StatusTooManyRequests || w.Body.String() != "slow down" {
		t.Fatalf("expected throttled response, got %d %q", w.Code, w.Body.String())
	}
}
