package events

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sheeplab/sheepdiary/internal/apperror"
	"github.com/sheeplab/sheepdiary/internal/auth"
)

// Handler handles HTTP requests for event operations.
type Handler struct {
	service EventService
}

// NewHandler creates a new event handler backed by the given service.
func NewHandler(service EventService) *Handler {
	return &Handler{service: service}
}

// Create logs a new event (POST /events).
func (h *Handler) Create(c echo.Context) error {
	var req CreateEventRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}

	event, err := h.service.Create(c.Request().Context(), auth.GetUserID(c), req)
	if err != nil {
		return err
	}

	resp, err := h.service.Render(event)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

// Get returns one event (GET /events/:id).
func (h *Handler) Get(c echo.Context) error {
	id, err := parseEventID(c)
	if err != nil {
		return err
	}

	event, err := h.service.Get(c.Request().Context(), auth.GetUserID(c), id)
	if err != nil {
		return err
	}

	resp, err := h.service.Render(event)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// List returns the user's events for a day (GET /events?date=YYYY-MM-DD).
func (h *Handler) List(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		return apperror.NewBadRequest("date query parameter is required")
	}

	events, err := h.service.ListByDate(c.Request().Context(), auth.GetUserID(c), date)
	if err != nil {
		return err
	}

	resp, err := renderAll(h.service, events)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Update edits an event (PATCH /events/:id).
func (h *Handler) Update(c echo.Context) error {
	id, err := parseEventID(c)
	if err != nil {
		return err
	}

	var req UpdateEventRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}

	event, err := h.service.Update(c.Request().Context(), auth.GetUserID(c), id, req)
	if err != nil {
		return err
	}

	resp, err := h.service.Render(event)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// parseEventID extracts the numeric :id path parameter.
func parseEventID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewBadRequest("invalid event id")
	}
	return id, nil
}
