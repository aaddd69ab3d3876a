package photos

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/sheeplab/sheepdiary/internal/ai"
	"github.com/sheeplab/sheepdiary/internal/apperror"
	"github.com/sheeplab/sheepdiary/internal/events"
	"github.com/sheeplab/sheepdiary/internal/keywords"
)

// thumbDim is the max dimension of the generated thumbnail.
const thumbDim = 300

// PhotoService defines the business logic contract for photos.
type PhotoService interface {
	// Upload validates and stores a photo, attaches it to an event, and
	// runs best-effort keyword extraction.
	Upload(ctx context.Context, input UploadInput) (*UploadResponse, error)

	// Get retrieves one photo, enforcing ownership.
	Get(ctx context.Context, userID int64, id string) (*Photo, error)

	// ListByEvent returns an event's photos, enforcing ownership.
	ListByEvent(ctx context.Context, userID, eventID int64) ([]Photo, error)

	// Delete removes a photo from disk and database.
	Delete(ctx context.Context, userID int64, id string) error

	// FilePath returns the absolute path to a photo on disk.
	FilePath(photo *Photo) string

	// ThumbnailPath returns the absolute path to a photo's thumbnail, or
	// the original when no thumbnail exists.
	ThumbnailPath(photo *Photo) string

	// VisionBytes loads a photo from disk downscaled for a model call.
	VisionBytes(photo *Photo) ([]byte, error)
}

// photoService implements PhotoService.
type photoService struct {
	repo      PhotoRepository
	eventSvc  events.EventService
	keywords  keywords.KeywordService
	aiClient  ai.Client
	mediaPath string
	maxSize   int64
}

// NewPhotoService creates a new PhotoService.
func NewPhotoService(
	repo PhotoRepository,
	eventSvc events.EventService,
	keywordSvc keywords.KeywordService,
	aiClient ai.Client,
	mediaPath string,
	maxSize int64,
) PhotoService {
	return &photoService{
		repo:      repo,
		eventSvc:  eventSvc,
		keywords:  keywordSvc,
		aiClient:  aiClient,
		mediaPath: mediaPath,
		maxSize:   maxSize,
	}
}

// Upload validates, stores, and records a new photo, then runs keyword
// extraction. Extraction failure degrades to an empty caption and no
// suggested keywords; the upload itself always succeeds once the file is
// stored.
func (s *photoService) Upload(ctx context.Context, input UploadInput) (*UploadResponse, error) {
	if !AllowedMimeTypes[input.MimeType] {
		return nil, apperror.NewBadRequest("unsupported file type: " + input.MimeType)
	}
	if input.FileSize > s.maxSize {
		return nil, apperror.NewBadRequest(fmt.Sprintf("file too large; maximum size is %d MB", s.maxSize/(1024*1024)))
	}
	if !validateMagicBytes(input.FileBytes, input.MimeType) {
		return nil, apperror.NewBadRequest("file content does not match declared type")
	}

	// The target event must exist, belong to the uploader, and still be
	// editable.
	event, err := s.eventSvc.Get(ctx, input.UserID, input.EventID)
	if err != nil {
		return nil, err
	}
	if event.DiaryID != nil {
		return nil, apperror.NewConflict("event is part of a diary and can no longer be changed")
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	relDir := now.Format("2006/01")
	dir := filepath.Join(s.mediaPath, relDir)
	ext := MimeToExtension[input.MimeType]
	filename := id + ext

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating media directory: %w", err))
	}

	fullPath := filepath.Join(dir, filename)
	if err := os.WriteFile(fullPath, input.FileBytes, 0644); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("writing photo file: %w", err))
	}

	photo := &Photo{
		ID:           id,
		EventID:      input.EventID,
		UserID:       input.UserID,
		Filename:     filepath.Join(relDir, filename),
		OriginalName: input.OriginalName,
		MimeType:     input.MimeType,
		FileSize:     input.FileSize,
		CreatedAt:    now,
	}

	if thumbFile, err := s.generateThumbnail(input.FileBytes, dir, id, ext); err != nil {
		slog.Warn("thumbnail generation failed",
			slog.String("photo_id", id),
			slog.Any("error", err),
		)
	} else {
		photo.ThumbnailPath = filepath.Join(relDir, thumbFile)
	}

	// Best-effort extraction. Anything that fails here leaves the photo
	// with an empty caption and no suggestions.
	suggested := s.extractKeywords(ctx, photo, input.FileBytes)

	if err := s.repo.Create(ctx, photo); err != nil {
		os.Remove(fullPath)
		if photo.ThumbnailPath != "" {
			os.Remove(filepath.Join(s.mediaPath, photo.ThumbnailPath))
		}
		return nil, apperror.NewInternal(fmt.Errorf("saving photo record: %w", err))
	}

	slog.Info("photo uploaded",
		slog.String("id", id),
		slog.Int64("event_id", input.EventID),
		slog.Int64("size", input.FileSize),
		slog.Int("suggested_keywords", len(suggested)),
	)

	resp := &UploadResponse{
		Photo:             photo,
		URL:               "/photos/" + id,
		SuggestedKeywords: suggested,
	}
	if photo.ThumbnailPath != "" {
		resp.ThumbnailURL = "/photos/" + id + "/thumb"
	}
	if resp.SuggestedKeywords == nil {
		resp.SuggestedKeywords = []keywords.Keyword{}
	}
	return resp, nil
}

// extractKeywords runs the vision extractor over a downscaled copy of the
// upload and registers the results in the shared keyword pool. Every
// failure path logs a warning and returns what succeeded so far.
func (s *photoService) extractKeywords(ctx context.Context, photo *Photo, data []byte) []keywords.Keyword {
	visionData, err := downscaleForVision(data)
	if err != nil {
		slog.Warn("photo downscale for extraction failed",
			slog.String("photo_id", photo.ID),
			slog.Any("error", err),
		)
		return nil
	}

	extraction, err := s.aiClient.ExtractKeywords(ctx, visionData)
	if err != nil {
		slog.Warn("keyword extraction failed",
			slog.String("photo_id", photo.ID),
			slog.Any("error", err),
		)
		return nil
	}

	photo.Caption = extraction.Caption

	// Translated copies join the pool alongside the originals. A failed
	// translation only costs the copies.
	contents := extraction.Keywords
	translated, err := s.aiClient.TranslateKeywords(ctx, extraction.Keywords)
	if err != nil {
		slog.Warn("keyword translation failed",
			slog.String("photo_id", photo.ID),
			slog.Any("error", err),
		)
	} else {
		contents = append(contents, translated...)
	}

	var suggested []keywords.Keyword
	for _, content := range contents {
		kw, err := s.keywords.GetOrCreate(ctx, content, keywords.SourcePhoto)
		if err != nil {
			slog.Warn("registering extracted keyword failed",
				slog.String("photo_id", photo.ID),
				slog.String("keyword", content),
				slog.Any("error", err),
			)
			continue
		}
		suggested = append(suggested, *kw)
	}
	return suggested
}

// Get retrieves one photo, enforcing ownership.
func (s *photoService) Get(ctx context.Context, userID int64, id string) (*Photo, error) {
	photo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if photo.UserID != userID {
		return nil, apperror.NewNotFound("photo not found")
	}
	return photo, nil
}

// ListByEvent returns an event's photos, enforcing ownership of the event.
func (s *photoService) ListByEvent(ctx context.Context, userID, eventID int64) ([]Photo, error) {
	if _, err := s.eventSvc.Get(ctx, userID, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListByEvent(ctx, eventID)
}

// Delete removes a photo from disk and database.
func (s *photoService) Delete(ctx context.Context, userID int64, id string) error {
	photo, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	os.Remove(s.FilePath(photo))
	if photo.ThumbnailPath != "" {
		os.Remove(filepath.Join(s.mediaPath, photo.ThumbnailPath))
	}

	slog.Info("photo deleted", slog.String("id", id))
	return nil
}

// FilePath returns the absolute path to a photo on disk.
func (s *photoService) FilePath(photo *Photo) string {
	return filepath.Join(s.mediaPath, photo.Filename)
}

// ThumbnailPath returns the absolute path to a photo's thumbnail, falling
// back to the original file.
func (s *photoService) ThumbnailPath(photo *Photo) string {
	if photo.ThumbnailPath == "" {
		return s.FilePath(photo)
	}
	return filepath.Join(s.mediaPath, photo.ThumbnailPath)
}

// VisionBytes loads a photo from disk downscaled for a model call.
func (s *photoService) VisionBytes(photo *Photo) ([]byte, error) {
	data, err := os.ReadFile(s.FilePath(photo))
	if err != nil {
		return nil, fmt.Errorf("reading photo file: %w", err)
	}
	return downscaleForVision(data)
}

// generateThumbnail creates a resized copy of an image next to the original.
func (s *photoService) generateThumbnail(data []byte, dir, id, ext string) (string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decoding image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= thumbDim && h <= thumbDim {
		return "", fmt.Errorf("image already smaller than %d", thumbDim)
	}

	newW, newH := thumbDim, thumbDim
	if w > h {
		newH = h * thumbDim / w
	} else {
		newW = w * thumbDim / h
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	thumbFilename := fmt.Sprintf("%s_%d%s", id, thumbDim, ext)
	thumbPath := filepath.Join(dir, thumbFilename)

	f, err := os.Create(thumbPath)
	if err != nil {
		return "", fmt.Errorf("creating thumbnail file: %w", err)
	}
	defer f.Close()

	switch ext {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, dst, &jpeg.Options{Quality: 85})
	case ".png":
		err = png.Encode(f, dst)
	default:
		// WebP thumbnails are encoded as JPEG.
		err = jpeg.Encode(f, dst, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		os.Remove(thumbPath)
		return "", fmt.Errorf("encoding thumbnail: %w", err)
	}

	return thumbFilename, nil
}

// validateMagicBytes checks that the file content's magic bytes match the
// declared MIME type. Prevents uploading non-image files with a spoofed
// Content-Type header.
func validateMagicBytes(data []byte, declaredMIME string) bool {
	if len(data) < 4 {
		return false
	}
	switch declaredMIME {
	case "image/jpeg":
		return data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF
	case "image/png":
		return len(data) >= 8 &&
			data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 &&
			data[4] == 0x0D && data[5] == 0x0A && data[6] == 0x1A && data[7] == 0x0A
	case "image/webp":
		return len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP"
	default:
		return false
	}
}
