package keywords

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sheeplab/sheepdiary/internal/auth"
)

// Handler handles HTTP requests for keyword operations.
type Handler struct {
	service KeywordService
}

// NewHandler creates a new keyword handler backed by the given service.
func NewHandler(service KeywordService) *Handler {
	return &Handler{service: service}
}

// Search finds keywords by content prefix (GET /keywords?q=...).
func (h *Handler) Search(c echo.Context) error {
	userID := auth.GetUserID(c)

	kws, err := h.service.Search(c.Request().Context(), userID, c.QueryParam("q"))
	if err != nil {
		return err
	}

	// Return empty array instead of null when nothing matches.
	if kws == nil {
		kws = []Keyword{}
	}

	return c.JSON(http.StatusOK, kws)
}
