package app

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sheeplab/sheepdiary/internal/auth"
	"github.com/sheeplab/sheepdiary/internal/diaries"
	"github.com/sheeplab/sheepdiary/internal/events"
	"github.com/sheeplab/sheepdiary/internal/keywords"
	"github.com/sheeplab/sheepdiary/internal/photos"
	"github.com/sheeplab/sheepdiary/internal/suggest"
)

// RegisterRoutes sets up all application routes. This is the single place
// where every feature package's routes are aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Health check endpoint for container orchestration.
	e.GET("/healthz", func(c echo.Context) error {
		if err := a.DB.PingContext(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "db unavailable"})
		}
		if err := a.Redis.Ping(c.Request().Context()).Err(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "redis unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	auth.RegisterRoutes(e, auth.NewHandler(a.AuthService, a.Config.Auth.SessionTTL), a.AuthService)
	events.RegisterRoutes(e, events.NewHandler(a.EventService), a.AuthService)
	photos.RegisterRoutes(e, photos.NewHandler(a.PhotoService), a.AuthService)
	keywords.RegisterRoutes(e, keywords.NewHandler(a.KeywordService), a.AuthService)
	diaries.RegisterRoutes(e, diaries.NewHandler(a.DiaryService), a.AuthService)
	suggest.RegisterRoutes(e, suggest.NewHandler(a.SuggestService), a.AuthService)
}
