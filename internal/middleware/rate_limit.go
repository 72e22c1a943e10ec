package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	// DefaultRateLimit is the default rate limit per minute
	DefaultRateLimit = 100
	// DefaultBurstSize is the default burst size
	DefaultBurstSize = 10
)

// limiterEntry tracks a rate limiter and its last use for cleanup
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides per-user rate limiting using the token bucket
// algorithm. Stale entries are evicted by a background goroutine.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[uuid.UUID]*limiterEntry
	limit    rate.Limit
	burst    int
	perMin   int
	stopCh   chan struct{}
}

// NewRateLimiter creates a rate limiter with default configuration
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithConfig(DefaultRateLimit, DefaultBurstSize)
}

// NewRateLimiterWithConfig creates a rate limiter with the given
// requests-per-minute limit and burst size
func NewRateLimiterWithConfig(requestsPerMinute int, burstSize int) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[uuid.UUID]*limiterEntry),
		limit:    rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    burstSize,
		perMin:   requestsPerMinute,
		stopCh:   make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// getLimiter returns the limiter for a user, creating one if needed
func (rl *RateLimiter) getLimiter(userID uuid.UUID) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.limiters[userID]
	if !exists {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rl.limit, rl.burst),
		}
		rl.limiters[userID] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// Allow reports whether a request from the given user may proceed
func (rl *RateLimiter) Allow(userID uuid.UUID) bool {
	return rl.getLimiter(userID).Allow()
}

// GetState returns the remaining tokens and the next reset time for a user
// without consuming any tokens
func (rl *RateLimiter) GetState(userID uuid.UUID) (remaining int, resetTime time.Time) {
	limiter := rl.getLimiter(userID)
	remaining = int(limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}
	resetTime = time.Now().Add(time.Minute)
	return remaining, resetTime
}

// cleanup periodically removes limiters that have not been used recently
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for id, entry := range rl.limiters {
				if time.Since(entry.lastSeen) > 10*time.Minute {
					delete(rl.limiters, id)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// Middleware returns an Echo middleware that enforces the rate limit for
// the authenticated user and sets X-RateLimit headers
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := GetUser(c)
			if user == nil {
				// Authentication runs first; without a user there is
				// nothing to key on.
				return next(c)
			}

			if !rl.Allow(user.ID) {
				_, resetTime := rl.GetState(user.ID)
				c.Response().Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.perMin))
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				c.Response().Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetTime.Unix()))
				c.Response().Header().Set("Retry-After", "60")
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"type":   "https://khatapro.app/errors/rate-limit",
					"title":  "Too Many Requests",
					"status": http.StatusTooManyRequests,
					"detail": "Rate limit exceeded. Please slow down.",
				})
			}

			remaining, resetTime := rl.GetState(user.ID)
			c.Response().Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.perMin))
			c.Response().Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
			c.Response().Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetTime.Unix()))

			return next(c)
		}
	}
}
