package photos

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sheeplab/sheepdiary/internal/auth"
	"github.com/sheeplab/sheepdiary/internal/middleware"
)

// RegisterRoutes sets up photo routes on the given echo instance.
// All photo routes require authentication.
func RegisterRoutes(e *echo.Echo, h *Handler, authSvc auth.AuthService) {
	g := e.Group("/photos", auth.RequireAuth(authSvc))

	// Uploads fan out into vision model calls, so they get their own cap.
	g.POST("", h.Upload, middleware.RateLimit(30, time.Minute))
	g.GET("/:id", h.Serve)
	g.GET("/:id/thumb", h.ServeThumbnail)
	g.DELETE("/:id", h.Delete)

	// Event-scoped listing lives under /events for a natural URL shape.
	e.GET("/events/:id/photos", h.ListByEvent, auth.RequireAuth(authSvc))
}
