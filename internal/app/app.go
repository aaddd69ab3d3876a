// Package app is the application bootstrap and dependency injection root.
// It creates and holds all shared infrastructure (DB pool, Redis client,
// Echo instance), wires every feature package together, and owns the
// suggestion worker lifecycle.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/sheeplab/sheepdiary/internal/ai"
	"github.com/sheeplab/sheepdiary/internal/apperror"
	"github.com/sheeplab/sheepdiary/internal/auth"
	"github.com/sheeplab/sheepdiary/internal/config"
	"github.com/sheeplab/sheepdiary/internal/diaries"
	"github.com/sheeplab/sheepdiary/internal/events"
	"github.com/sheeplab/sheepdiary/internal/keywords"
	"github.com/sheeplab/sheepdiary/internal/middleware"
	"github.com/sheeplab/sheepdiary/internal/photos"
	"github.com/sheeplab/sheepdiary/internal/suggest"
)

// workerConcurrency is how many suggestion jobs run at once. Each job holds
// a model-call budget, so a small pool is enough.
const workerConcurrency = 2

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB is the MariaDB connection pool shared by all feature packages.
	DB *sql.DB

	// Redis is the Redis client shared for sessions and the job queue.
	Redis *redis.Client

	// Echo is the HTTP server instance.
	Echo *echo.Echo

	// Services, exposed for route registration and tests.
	AuthService    auth.AuthService
	EventService   events.EventService
	KeywordService keywords.KeywordService
	PhotoService   photos.PhotoService
	DiaryService   diaries.DiaryService
	SuggestService suggest.SuggestService

	worker *suggest.Worker
}

// New creates a new App instance, configures the Echo server with global
// middleware and error handling, and builds the full service graph.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client) *App {
	e := echo.New()

	e.HideBanner = true
	e.HidePort = true

	// Configure trusted reverse proxy IPs so c.RealIP() returns the actual
	// client IP instead of the proxy's IP. Rate limiting and audit logs
	// depend on it.
	middleware.TrustedProxies(e, []string{
		"127.0.0.0/8",    // Localhost
		"10.0.0.0/8",     // Docker default bridge
		"172.16.0.0/12",  // Docker bridge (alternate range)
		"192.168.0.0/16", // Common LAN
		"fd00::/8",       // IPv6 private
	})

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Echo:   e,
	}

	app.setupMiddleware()
	app.setupServices()

	e.HTTPErrorHandler = app.errorHandler

	return app
}

// setupMiddleware registers global middleware in order of execution.
func (a *App) setupMiddleware() {
	// Panic recovery must be outermost to catch panics from everything else.
	a.Echo.Use(middleware.Recovery())

	a.Echo.Use(middleware.RequestLogger())

	a.Echo.Use(middleware.SecurityHeaders())

	// CORS for the mobile client and local development frontends.
	a.Echo.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   []string{a.Config.BaseURL},
		AllowCredentials: true,
	}))
}

// setupServices builds the repository and service graph. Construction order
// follows the dependency edges: events and keywords first, then photos (which
// needs both plus the model client), then diaries and the suggestion pipeline.
func (a *App) setupServices() {
	geoCodec := events.NewGeoCodec(a.Config.Geo.Bypass)
	aiClient := ai.NewClient(a.Config.AI)

	userRepo := auth.NewUserRepository(a.DB)
	a.AuthService = auth.NewAuthService(userRepo, a.Redis, a.Config.Auth.SessionTTL)

	eventRepo := events.NewEventRepository(a.DB, geoCodec)
	a.EventService = events.NewEventService(eventRepo, geoCodec)

	keywordRepo := keywords.NewKeywordRepository(a.DB)
	a.KeywordService = keywords.NewKeywordService(keywordRepo)

	photoRepo := photos.NewPhotoRepository(a.DB)
	a.PhotoService = photos.NewPhotoService(
		photoRepo,
		a.EventService,
		a.KeywordService,
		aiClient,
		a.Config.Upload.MediaPath,
		a.Config.Upload.MaxSize,
	)

	diaryRepo := diaries.NewDiaryRepository(a.DB, keywordRepo)
	a.DiaryService = diaries.NewDiaryService(diaryRepo, a.KeywordService)

	jobStore := suggest.NewJobStore(a.Redis)
	a.SuggestService = suggest.NewSuggestService(jobStore)

	pipeline := suggest.NewPipeline(a.EventService, a.PhotoService, a.DiaryService, aiClient)
	a.worker = suggest.NewWorker(jobStore, pipeline, workerConcurrency)
}

// StartWorker launches the suggestion worker pool. It runs until ctx is
// cancelled.
func (a *App) StartWorker(ctx context.Context) {
	a.worker.Start(ctx)
}

// WaitWorker blocks until the worker pool has drained after cancellation.
func (a *App) WaitWorker() {
	a.worker.Wait()
}

// errorHandler is the custom Echo error handler. It maps domain errors
// (AppError) to JSON responses; validation errors additionally carry a
// per-field error map.
func (a *App) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "An unexpected error occurred"
	var fields map[string]string

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		message = appErr.Message
		fields = appErr.Fields

		// Log internal errors with the underlying cause.
		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.String("message", appErr.Message),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
			)
		}
	} else {
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			code = echoErr.Code
			if msg, ok := echoErr.Message.(string); ok {
				message = msg
			}
		} else {
			slog.Error("unhandled error",
				slog.Any("error", err),
				slog.String("path", c.Request().URL.Path),
			)
		}
	}

	body := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
	}
	if len(fields) > 0 {
		body["fields"] = fields
	}

	if err := c.JSON(code, body); err != nil {
		slog.Error("writing error response", slog.Any("error", err))
	}
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting sheepdiary server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
	)
	return a.Echo.Start(addr)
}
