package auth

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitedMessage is the body of every 429 response.
const RateLimitedMessage = "rate limit exceeded"

// RateLimiter counts requests per key in fixed windows.
type RateLimiter struct {
	mu              sync.Mutex
	windows         map[string]*windowRecord
	limit           int
	window          time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

type windowRecord struct {
	count int
	start time.Time
}

// RateLimitConfig contains configuration for the rate limiter.
type RateLimitConfig struct {
	Limit           int           // Requests allowed per window (default: 10)
	Window          time.Duration // Window length (default: 1m)
	CleanupInterval time.Duration // How often to drop expired windows (default: 5m)
	Now             func() time.Time
}

// DefaultRateLimitConfig returns the login-with-token defaults: 10 per minute.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:           10,
		Window:          time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	rl := &RateLimiter{
		windows:         make(map[string]*windowRecord),
		limit:           cfg.Limit,
		window:          cfg.Window,
		cleanupInterval: cfg.CleanupInterval,
		now:             cfg.Now,
		stopCleanup:     make(chan struct{}),
	}

	// Start background cleanup
	go rl.cleanupLoop()

	return rl
}

// Stop stops the background cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// Allow records a request for key and reports whether it is within the limit.
// When it is not, retryAfter is the time until the current window ends.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	record, exists := rl.windows[key]
	if !exists || now.Sub(record.start) >= rl.window {
		rl.windows[key] = &windowRecord{count: 1, start: now}
		return true, 0
	}

	if record.count >= rl.limit {
		return false, record.start.Add(rl.window).Sub(now)
	}

	record.count++
	return true, 0
}

// cleanupLoop periodically removes expired records.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanup removes windows that have ended.
func (rl *RateLimiter) cleanup() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, record := range rl.windows {
		if now.Sub(record.start) >= rl.window {
			delete(rl.windows, key)
		}
	}
}

// Middleware limits requests per client IP. Rejected requests get 429 with a
// Retry-After header in whole seconds.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter := rl.Allow(c.ClientIP())
		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": RateLimitedMessage})
			return
		}

		c.Next()
	}
}
