package middleware

import (
	"sync"
	"time"

	"stayops-http-service/internal/error/code"
	"stayops-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiter pairs a token-bucket limiter with its last-seen time so
// idle entries can be evicted
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterConfig controls the per-client limiter
type RateLimiterConfig struct {
	Rate     rate.Limit    // requests per second
	Burst    int           // burst allowance
	Lifetime time.Duration // idle eviction window
}

// DefaultRateLimiterConfig allows 10 req/s with bursts of 20 per client
var DefaultRateLimiterConfig = RateLimiterConfig{
	Rate:     10,
	Burst:    20,
	Lifetime: time.Hour,
}

var (
	clients   = make(map[string]*clientLimiter)
	clientsMu sync.Mutex
)

// getClientLimiter returns the limiter for a client key, creating one on
// first sight
func getClientLimiter(key string, cfg RateLimiterConfig) *rate.Limiter {
	clientsMu.Lock()
	defer clientsMu.Unlock()

	entry, exists := clients[key]
	if !exists {
		entry = &clientLimiter{limiter: rate.NewLimiter(cfg.Rate, cfg.Burst)}
		clients[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// RateLimiter limits requests per client IP
func RateLimiter(config ...RateLimiterConfig) gin.HandlerFunc {
	cfg := DefaultRateLimiterConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRateLimiterConfig.Rate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultRateLimiterConfig.Burst
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = DefaultRateLimiterConfig.Lifetime
	}

	return func(c *gin.Context) {
		limiter := getClientLimiter(c.ClientIP(), cfg)
		if !limiter.Allow() {
			response.FailWithMessage(c, code.ErrTooManyRequests, "Request rate too high, please retry later", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// evict idle client limiters once an hour
func init() {
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			cutoff := time.Now().Add(-DefaultRateLimiterConfig.Lifetime)
			clientsMu.Lock()
			for key, entry := range clients {
				if entry.lastSeen.Before(cutoff) {
					delete(clients, key)
				}
			}
			clientsMu.Unlock()
		}
	}()
}
