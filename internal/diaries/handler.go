package diaries

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sheeplab/sheepdiary/internal/apperror"
	"github.com/sheeplab/sheepdiary/internal/auth"
)

// Handler handles HTTP requests for diary operations. Most diaries come out
// of the suggestion pipeline; POST is for users who write the entry
// themselves.
type Handler struct {
	service DiaryService
}

// NewHandler creates a new diary handler backed by the given service.
func NewHandler(service DiaryService) *Handler {
	return &Handler{service: service}
}

// Create persists a user-written diary (POST /diaries).
func (h *Handler) Create(c echo.Context) error {
	var req CreateDiaryRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}

	resp, err := h.service.CreateDirect(c.Request().Context(), auth.GetUserID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

// Get returns one diary (GET /diaries/:id).
func (h *Handler) Get(c echo.Context) error {
	resp, err := h.service.Get(c.Request().Context(), auth.GetUserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// List returns diaries by date or month (GET /diaries?date=... or
// GET /diaries?year=...&month=...).
func (h *Handler) List(c echo.Context) error {
	userID := auth.GetUserID(c)

	if date := c.QueryParam("date"); date != "" {
		resp, err := h.service.GetByDate(c.Request().Context(), userID, date)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, resp)
	}

	year, errY := strconv.Atoi(c.QueryParam("year"))
	month, errM := strconv.Atoi(c.QueryParam("month"))
	if errY != nil || errM != nil {
		return apperror.NewBadRequest("date or year and month query parameters are required")
	}

	resp, err := h.service.ListByMonth(c.Request().Context(), userID, year, month)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Update edits a diary (PATCH /diaries/:id).
func (h *Handler) Update(c echo.Context) error {
	var req UpdateDiaryRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}

	resp, err := h.service.Update(c.Request().Context(), auth.GetUserID(c), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Delete removes a diary (DELETE /diaries/:id).
func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), auth.GetUserID(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
