package middleware

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// CORSConfig controls which browser origins may call the API.
type CORSConfig struct {
	// AllowedOrigins lists origins permitted to make cross-origin requests.
	// "*" allows any origin.
	AllowedOrigins []string

	// AllowCredentials lets the browser send the session cookie on
	// cross-origin requests. Needed when the client app is served from a
	// different origin than the API.
	AllowCredentials bool
}

const (
	preflightMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	preflightHeaders = "Content-Type, Authorization, X-Requested-With"
	preflightMaxAge  = "3600"
)

// CORS answers preflight requests and stamps allow headers on responses to
// whitelisted origins. Requests from unknown origins pass through without
// CORS headers and get blocked by the browser.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	wildcard := false
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			wildcard = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	// A wildcard origin combined with credentials would let any site make
	// authenticated calls. Drop credentials rather than honor that combination.
	if wildcard && cfg.AllowCredentials {
		slog.Warn("refusing to combine wildcard CORS origin with credentials; set explicit origins")
		cfg.AllowCredentials = false
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			origin := c.Request().Header.Get("Origin")
			if origin == "" {
				return next(c)
			}
			if _, ok := allowed[origin]; !ok && !wildcard {
				return next(c)
			}

			h := c.Response().Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if c.Request().Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", preflightMethods)
				h.Set("Access-Control-Allow-Headers", preflightHeaders)
				h.Set("Access-Control-Max-Age", preflightMaxAge)
				return c.NoContent(http.StatusNoContent)
			}

			return next(c)
		}
	}
}
