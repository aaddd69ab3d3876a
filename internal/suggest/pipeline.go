package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sheeplab/sheepdiary/internal/ai"
	"github.com/sheeplab/sheepdiary/internal/diaries"
	"github.com/sheeplab/sheepdiary/internal/events"
	"github.com/sheeplab/sheepdiary/internal/keywords"
	"github.com/sheeplab/sheepdiary/internal/photos"
)

// EventSource is the slice of the events service the pipeline needs.
type EventSource interface {
	Get(ctx context.Context, userID, eventID int64) (*events.Event, error)
}

// PhotoSource is the slice of the photos service the pipeline needs.
type PhotoSource interface {
	ListByEvent(ctx context.Context, userID, eventID int64) ([]photos.Photo, error)
	VisionBytes(photo *photos.Photo) ([]byte, error)
}

// DiaryWriter is the slice of the diaries service the pipeline needs.
type DiaryWriter interface {
	Create(ctx context.Context, diary *diaries.Diary, links []keywords.DiaryLink, eventIDs []int64) (*diaries.Diary, error)
}

// Pipeline turns one job into a persisted diary: aggregate the events,
// caption their photos, compose the narrative, persist atomically.
type Pipeline struct {
	events  EventSource
	photos  PhotoSource
	diaries DiaryWriter
	ai      ai.Client
}

// NewPipeline creates a pipeline over the given services.
func NewPipeline(eventSrc EventSource, photoSrc PhotoSource, diaryWriter DiaryWriter, aiClient ai.Client) *Pipeline {
	return &Pipeline{
		events:  eventSrc,
		photos:  photoSrc,
		diaries: diaryWriter,
		ai:      aiClient,
	}
}

// Run executes the pipeline for one job and returns the resulting diary id.
// Event order follows the job's event id list. Events that no longer exist
// are skipped with a warning; photo captioning failures degrade to fewer
// captions. Only a day with no usable events at all, a model failure, or a
// persistence failure fails the job.
func (p *Pipeline) Run(ctx context.Context, job *Job) (string, error) {
	date, err := time.Parse("2006-01-02", job.Date)
	if err != nil {
		return "", fmt.Errorf("parsing job date: %w", err)
	}

	var (
		drafts  []ai.DiaryDraft
		usedIDs []int64
		usedEv  []*events.Event
	)
	for _, eventID := range job.EventIDs {
		event, err := p.events.Get(ctx, job.UserID, eventID)
		if err != nil {
			slog.Warn("skipping missing event",
				slog.String("job_id", job.ID),
				slog.Int64("event_id", eventID),
				slog.Any("error", err),
			)
			continue
		}
		if event.Date.Format("2006-01-02") != job.Date {
			slog.Warn("skipping event from another date",
				slog.String("job_id", job.ID),
				slog.Int64("event_id", eventID),
			)
			continue
		}

		drafts = append(drafts, ai.DiaryDraft{
			EventID:   event.ID,
			StartTime: event.StartTime,
			Place:     event.Place,
			Emotion:   event.Emotion,
			Keywords:  event.Keywords,
			Captions:  p.captionPhotos(ctx, job, event),
		})
		usedIDs = append(usedIDs, event.ID)
		usedEv = append(usedEv, event)
	}

	if len(drafts) == 0 {
		return "", fmt.Errorf("none of the requested events could be used")
	}

	content, err := p.ai.Compose(ctx, drafts)
	if err != nil {
		return "", fmt.Errorf("composing diary: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("composer returned empty text")
	}

	diary := &diaries.Diary{
		UserID:  job.UserID,
		Date:    date,
		Title:   date.Format("January 2, 2006"),
		Content: content,
		Emotion: dominantEmotion(usedEv),
	}

	created, err := p.diaries.Create(ctx, diary, diaryLinks(usedEv), usedIDs)
	if err != nil {
		return "", fmt.Errorf("persisting diary: %w", err)
	}
	return created.ID, nil
}

// captionPhotos captions each of an event's photos, passing the event's
// keywords as context. Any failure drops that photo's caption and moves on.
func (p *Pipeline) captionPhotos(ctx context.Context, job *Job, event *events.Event) []string {
	evPhotos, err := p.photos.ListByEvent(ctx, job.UserID, event.ID)
	if err != nil {
		slog.Warn("listing event photos failed",
			slog.String("job_id", job.ID),
			slog.Int64("event_id", event.ID),
			slog.Any("error", err),
		)
		return nil
	}

	var captions []string
	for i := range evPhotos {
		photo := &evPhotos[i]

		data, err := p.photos.VisionBytes(photo)
		if err != nil {
			slog.Warn("loading photo for captioning failed",
				slog.String("job_id", job.ID),
				slog.String("photo_id", photo.ID),
				slog.Any("error", err),
			)
			continue
		}

		caption, err := p.ai.Caption(ctx, data, event.Keywords)
		if err != nil {
			slog.Warn("captioning photo failed",
				slog.String("job_id", job.ID),
				slog.String("photo_id", photo.ID),
				slog.Any("error", err),
			)
			continue
		}
		captions = append(captions, caption)
	}
	return captions
}

// diaryLinks collects the keyword links for the diary: the union of the
// used events' keywords, first occurrence wins, order preserved.
func diaryLinks(used []*events.Event) []keywords.DiaryLink {
	seen := make(map[string]bool)
	var links []keywords.DiaryLink
	for _, event := range used {
		for _, content := range event.Keywords {
			normalized := keywords.Normalize(content)
			if normalized == "" || seen[normalized] {
				continue
			}
			seen[normalized] = true
			links = append(links, keywords.DiaryLink{
				Content:         normalized,
				Source:          keywords.SourceUser,
				IsSelected:      true,
				IsAutoGenerated: true,
			})
		}
	}
	return links
}

// dominantEmotion picks the most frequent emotion across the used events,
// earliest event breaking ties. Nil when no event carries an emotion.
func dominantEmotion(used []*events.Event) *string {
	counts := make(map[string]int)
	var best string
	for _, event := range used {
		if event.Emotion == "" {
			continue
		}
		counts[event.Emotion]++
		if best == "" || counts[event.Emotion] > counts[best] {
			best = event.Emotion
		}
	}
	if best == "" {
		return nil
	}
	return &best
}
