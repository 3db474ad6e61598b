package http

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// RequestIDHeader carries the per-request id.
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the gin context key holding the request id.
	RequestIDKey = "requestID"

	throttleIdleTTL = 10 * time.Minute
)

// RequestIDMiddleware assigns an id to every request, reusing a sane inbound one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogMiddleware writes one access log line per request.
func RequestLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"request_id": c.GetString(RequestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
		})
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request served")
		}
	}
}

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPThrottle keeps one token bucket per client IP.
type IPThrottle struct {
	mu      sync.Mutex
	entries map[string]*throttleEntry
	limit   rate.Limit
	burst   int
	now     func() time.Time

	lastSweep time.Time
}

// NewIPThrottle allows perMinute requests per IP with an equal burst. It returns nil when perMinute <= 0.
func NewIPThrottle(perMinute int) *IPThrottle {
	if perMinute <= 0 {
		return nil
	}
	return &IPThrottle{
		entries: make(map[string]*throttleEntry),
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   perMinute,
		now:     time.Now,
	}
}

// Allow reports whether ip may make another request now.
func (t *IPThrottle) Allow(ip string) bool {
	if t == nil {
		return true
	}
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()
	if now.Sub(t.lastSweep) > throttleIdleTTL {
		t.sweep(now)
	}
	entry := t.entries[ip]
	if entry == nil {
		entry = &throttleEntry{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.entries[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// sweep drops idle entries. Callers hold t.mu.
func (t *IPThrottle) sweep(now time.Time) {
	for key, entry := range t.entries {
		if now.Sub(entry.lastSeen) > throttleIdleTTL {
			delete(t.entries, key)
		}
	}
	t.lastSweep = now
}

// Middleware rejects throttled requests with onLimited, which must write the response.
func (t *IPThrottle) Middleware(onLimited gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if t.Allow(c.ClientIP()) {
			c.Next()
			return
		}
		log.WithField("client_ip", c.ClientIP()).Warn("search throttled")
		if onLimited != nil {
			onLimited(c)
		} else {
			c.Status(http.StatusTooManyRequests)
		}
		c.Abort()
	}
}
