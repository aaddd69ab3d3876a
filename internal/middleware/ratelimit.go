package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

type ipWindow struct {
	count int
	start time.Time
}

// RateLimit caps requests per client IP at max within each fixed window and
// answers 429 beyond that. State is in-process; the limiter guards the
// credential endpoints, not global traffic, so per-instance counting is fine.
func RateLimit(max int, window time.Duration) echo.MiddlewareFunc {
	var mu sync.Mutex
	windows := make(map[string]*ipWindow)

	// Evict stale windows so the map does not grow with every IP ever seen.
	go func() {
		for range time.Tick(time.Minute) {
			mu.Lock()
			cutoff := time.Now().Add(-2 * window)
			for ip, w := range windows {
				if w.start.Before(cutoff) {
					delete(windows, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			now := time.Now()

			mu.Lock()
			w := windows[ip]
			if w == nil || now.Sub(w.start) > window {
				windows[ip] = &ipWindow{count: 1, start: now}
				mu.Unlock()
				return next(c)
			}
			w.count++
			over := w.count > max
			mu.Unlock()

			if over {
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error":   "rate_limited",
					"message": "Too many requests. Try again later.",
				})
			}
			return next(c)
		}
	}
}
