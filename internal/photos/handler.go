package photos

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sheeplab/sheepdiary/internal/apperror"
	"github.com/sheeplab/sheepdiary/internal/auth"
)

// Handler handles HTTP requests for photo operations.
type Handler struct {
	service PhotoService
}

// NewHandler creates a new photo handler backed by the given service.
func NewHandler(service PhotoService) *Handler {
	return &Handler{service: service}
}

// Upload handles multipart photo uploads (POST /photos).
func (h *Handler) Upload(c echo.Context) error {
	eventID, err := strconv.ParseInt(c.FormValue("event_id"), 10, 64)
	if err != nil || eventID <= 0 {
		return apperror.NewBadRequest("valid event_id form value is required")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return apperror.NewBadRequest("no file provided")
	}

	src, err := file.Open()
	if err != nil {
		return apperror.NewInternal(err)
	}
	defer src.Close()

	fileBytes, err := io.ReadAll(src)
	if err != nil {
		return apperror.NewInternal(err)
	}

	resp, err := h.service.Upload(c.Request().Context(), UploadInput{
		EventID:      eventID,
		UserID:       auth.GetUserID(c),
		OriginalName: file.Filename,
		MimeType:     file.Header.Get("Content-Type"),
		FileSize:     int64(len(fileBytes)),
		FileBytes:    fileBytes,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, resp)
}

// Serve streams the original photo file (GET /photos/:id).
func (h *Handler) Serve(c echo.Context) error {
	photo, err := h.service.Get(c.Request().Context(), auth.GetUserID(c), c.Param("id"))
	if err != nil {
		return err
	}

	// UUID filenames never change, so the content is immutable.
	c.Response().Header().Set("Cache-Control", "private, max-age=31536000, immutable")
	c.Response().Header().Set("Content-Type", photo.MimeType)
	return c.File(h.service.FilePath(photo))
}

// ServeThumbnail streams the photo's thumbnail (GET /photos/:id/thumb).
func (h *Handler) ServeThumbnail(c echo.Context) error {
	photo, err := h.service.Get(c.Request().Context(), auth.GetUserID(c), c.Param("id"))
	if err != nil {
		return err
	}

	c.Response().Header().Set("Cache-Control", "private, max-age=31536000, immutable")
	return c.File(h.service.ThumbnailPath(photo))
}

// ListByEvent returns an event's photos (GET /events/:id/photos).
func (h *Handler) ListByEvent(c echo.Context) error {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || eventID <= 0 {
		return apperror.NewBadRequest("invalid event id")
	}

	photos, err := h.service.ListByEvent(c.Request().Context(), auth.GetUserID(c), eventID)
	if err != nil {
		return err
	}
	if photos == nil {
		photos = []Photo{}
	}
	return c.JSON(http.StatusOK, photos)
}

// Delete removes a photo (DELETE /photos/:id).
func (h *Handler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), auth.GetUserID(c), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
