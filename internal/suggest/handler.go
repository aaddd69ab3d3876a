package suggest

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sheeplab/sheepdiary/internal/apperror"
	"github.com/sheeplab/sheepdiary/internal/auth"
)

// Handler handles HTTP requests for the suggestion job lifecycle.
type Handler struct {
	service SuggestService
}

// NewHandler creates a new suggestion handler backed by the given service.
func NewHandler(service SuggestService) *Handler {
	return &Handler{service: service}
}

// Submit queues a new suggestion job (POST /suggestions).
func (h *Handler) Submit(c echo.Context) error {
	var req SubmitRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return apperror.NewBadRequest("invalid JSON body")
	}

	resp, err := h.service.Submit(c.Request().Context(), auth.GetUserID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, resp)
}

// Poll returns a job's status (GET /suggestions/:id).
func (h *Handler) Poll(c echo.Context) error {
	resp, err := h.service.Poll(c.Request().Context(), auth.GetUserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Cancel stops a pending job (DELETE /suggestions/:id).
func (h *Handler) Cancel(c echo.Context) error {
	if err := h.service.Cancel(c.Request().Context(), auth.GetUserID(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
