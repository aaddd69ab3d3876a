package events

import (
	"github.com/labstack/echo/v4"

	"github.com/sheeplab/sheepdiary/internal/auth"
)

// RegisterRoutes sets up event routes on the given echo instance.
// All event routes require authentication.
func RegisterRoutes(e *echo.Echo, h *Handler, authSvc auth.AuthService) {
	g := e.Group("/events", auth.RequireAuth(authSvc))

	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
}
