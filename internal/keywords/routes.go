package keywords

import (
	"github.com/labstack/echo/v4"

	"github.com/sheeplab/sheepdiary/internal/auth"
)

// RegisterRoutes sets up keyword routes on the given echo instance.
// All keyword routes require authentication.
func RegisterRoutes(e *echo.Echo, h *Handler, authSvc auth.AuthService) {
	g := e.Group("/keywords", auth.RequireAuth(authSvc))

	g.GET("", h.Search)
}
