// Package photos manages photo uploads for sheepdiary. Photos attach to
// events, are stored on the local filesystem in a date-based directory
// structure, and get a caption plus suggested keywords extracted at upload
// time. The extraction is best-effort: a failed model call never fails the
// upload.
package photos

import (
	"time"

	"github.com/sheeplab/sheepdiary/internal/keywords"
)

// Photo represents an uploaded photo stored on disk and attached to an event.
type Photo struct {
	ID            string    `json:"id"`
	EventID       int64     `json:"event_id"`
	UserID        int64     `json:"user_id"`
	Filename      string    `json:"-"` // Path relative to the media root.
	OriginalName  string    `json:"original_name"`
	MimeType      string    `json:"mime_type"`
	FileSize      int64     `json:"file_size"`
	Caption       string    `json:"caption,omitempty"` // One-line caption from upload-time extraction.
	ThumbnailPath string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// UploadInput holds the validated input for storing a photo.
type UploadInput struct {
	EventID      int64
	UserID       int64
	OriginalName string
	MimeType     string
	FileSize     int64
	FileBytes    []byte
}

// UploadResponse is returned after a successful upload. SuggestedKeywords
// carries whatever the extractor produced; empty when extraction failed.
type UploadResponse struct {
	Photo             *Photo             `json:"photo"`
	URL               string             `json:"url"`
	ThumbnailURL      string             `json:"thumbnail_url,omitempty"`
	SuggestedKeywords []keywords.Keyword `json:"suggested_keywords"`
}

// --- MIME Type Validation ---

// AllowedMimeTypes defines which MIME types are accepted for upload.
var AllowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// MimeToExtension maps MIME types to file extensions.
var MimeToExtension = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}
