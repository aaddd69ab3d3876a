package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sheeplab/sheepdiary/internal/middleware"
)

// RegisterRoutes sets up authentication routes on the given echo instance.
// Register and login are public but rate-limited to slow credential stuffing;
// logout and me require a valid session.
func RegisterRoutes(e *echo.Echo, h *Handler, service AuthService) {
	limited := middleware.RateLimit(10, time.Minute)

	e.POST("/auth/register", h.Register, limited)
	e.POST("/auth/login", h.Login, limited)

	e.POST("/auth/logout", h.Logout, RequireAuth(service))
	e.GET("/auth/me", h.Me, RequireAuth(service))
}
