package suggest

import (
	"github.com/labstack/echo/v4"

	"github.com/sheeplab/sheepdiary/internal/auth"
)

// RegisterRoutes sets up suggestion routes on the given echo instance.
// All suggestion routes require authentication.
func RegisterRoutes(e *echo.Echo, h *Handler, authSvc auth.AuthService) {
	g := e.Group("/suggestions", auth.RequireAuth(authSvc))

	g.POST("", h.Submit)
	g.GET("/:id", h.Poll)
	g.DELETE("/:id", h.Cancel)
}
