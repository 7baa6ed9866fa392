package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RateLimitConfig is supplied by the caller per endpoint purpose
type RateLimitConfig struct {
	MaxAttempts int
	Window      time.Duration
}

type rateLimitEntry struct {
	count   int
	resetAt time.Time
}

// RateLimiter is a process-local sliding-window attempt counter. State is
// volatile (lost on restart, and per-instance when deployed multiply); a
// shared counter store can replace it behind the same IsRateLimited contract.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*rateLimitEntry

	now func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		entries: make(map[string]*rateLimitEntry),
		now:     time.Now,
	}
}

// IsRateLimited records one attempt for the key and reports whether it must
// be rejected. With MaxAttempts=N, attempt N inside the window is the last
// one allowed. Never fails: an absent entry and an expired one are the same
// thing: a fresh window.
func (rl *RateLimiter) IsRateLimited(key string, cfg RateLimitConfig) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, exists := rl.entries[key]
	if !exists || now.After(entry.resetAt) {
		rl.entries[key] = &rateLimitEntry{
			count:   1,
			resetAt: now.Add(cfg.Window),
		}
		return false
	}

	entry.count++
	return entry.count > cfg.MaxAttempts
}

// Sweep evicts entries whose window has elapsed, bounding memory growth.
// Called periodically from the scheduler. Returns the eviction count.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	var evicted int
	for key, entry := range rl.entries {
		if now.After(entry.resetAt) {
			delete(rl.entries, key)
			evicted++
		}
	}
	return evicted
}

// RateLimit builds a Fiber middleware throttling by client IP for one
// endpoint purpose, so the same caller is independently limited per purpose.
func RateLimit(limiter *RateLimiter, purpose string, cfg RateLimitConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := fmt.Sprintf("%s:%s", purpose, c.IP())
		if limiter.IsRateLimited(key, cfg) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, slow down",
			})
		}
		return c.Next()
	}
}
