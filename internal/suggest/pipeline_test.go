package suggest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sheeplab/sheepdiary/internal/ai"
	"github.com/sheeplab/sheepdiary/internal/apperror"
	"github.com/sheeplab/sheepdiary/internal/diaries"
	"github.com/sheeplab/sheepdiary/internal/events"
	"github.com/sheeplab/sheepdiary/internal/keywords"
	"github.com/sheeplab/sheepdiary/internal/photos"
)

// --- Mocks ---

type mockEventSource struct {
	getFn func(ctx context.Context, userID, eventID int64) (*events.Event, error)
}

func (m *mockEventSource) Get(ctx context.Context, userID, eventID int64) (*events.Event, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, eventID)
	}
	return nil, apperror.NewNotFound("event not found")
}

type mockPhotoSource struct {
	listByEventFn func(ctx context.Context, userID, eventID int64) ([]photos.Photo, error)
	visionBytesFn func(photo *photos.Photo) ([]byte, error)
}

func (m *mockPhotoSource) ListByEvent(ctx context.Context, userID, eventID int64) ([]photos.Photo, error) {
	if m.listByEventFn != nil {
		return m.listByEventFn(ctx, userID, eventID)
	}
	return nil, nil
}

func (m *mockPhotoSource) VisionBytes(photo *photos.Photo) ([]byte, error) {
	if m.visionBytesFn != nil {
		return m.visionBytesFn(photo)
	}
	return []byte("img"), nil
}

type mockDiaryWriter struct {
	createFn func(ctx context.Context, diary *diaries.Diary, links []keywords.DiaryLink, eventIDs []int64) (*diaries.Diary, error)
}

func (m *mockDiaryWriter) Create(ctx context.Context, diary *diaries.Diary, links []keywords.DiaryLink, eventIDs []int64) (*diaries.Diary, error) {
	if m.createFn != nil {
		return m.createFn(ctx, diary, links, eventIDs)
	}
	diary.ID = "diary-1"
	return diary, nil
}

type mockAIClient struct {
	captionFn func(ctx context.Context, image []byte, contextKeywords []string) (string, error)
	composeFn func(ctx context.Context, drafts []ai.DiaryDraft) (string, error)
}

func (m *mockAIClient) Caption(ctx context.Context, image []byte, contextKeywords []string) (string, error) {
	if m.captionFn != nil {
		return m.captionFn(ctx, image, contextKeywords)
	}
	return "a caption", nil
}

func (m *mockAIClient) ExtractKeywords(ctx context.Context, image []byte) (*ai.Extraction, error) {
	return nil, errors.New("not used")
}

func (m *mockAIClient) Compose(ctx context.Context, drafts []ai.DiaryDraft) (string, error) {
	if m.composeFn != nil {
		return m.composeFn(ctx, drafts)
	}
	return "Today happened.", nil
}

func (m *mockAIClient) TranslateKeywords(ctx context.Context, kws []string) ([]string, error) {
	return kws, nil
}

// --- Helpers ---

func eventOn(id int64, date, emotion string, kws ...string) *events.Event {
	d, _ := time.Parse("2006-01-02", date)
	return &events.Event{
		ID:       id,
		UserID:   7,
		Date:     d,
		Place:    "somewhere",
		Emotion:  emotion,
		Keywords: kws,
	}
}

func pendingJob(eventIDs ...int64) *Job {
	return &Job{
		ID:       "job-1",
		UserID:   7,
		Date:     "2025-03-14",
		EventIDs: eventIDs,
		Status:   StatusPending,
	}
}

// --- Run Tests ---

func TestRun_PreservesSubmittedEventOrder(t *testing.T) {
	eventSrc := &mockEventSource{
		getFn: func(ctx context.Context, userID, eventID int64) (*events.Event, error) {
			return eventOn(eventID, "2025-03-14", "happy"), nil
		},
	}

	var gotDrafts []ai.DiaryDraft
	aiClient := &mockAIClient{
		composeFn: func(ctx context.Context, drafts []ai.DiaryDraft) (string, error) {
			gotDrafts = drafts
			return "Today happened.", nil
		},
	}

	pipeline := NewPipeline(eventSrc, &mockPhotoSource{}, &mockDiaryWriter{}, aiClient)
	diaryID, err := pipeline.Run(context.Background(), pendingJob(3, 1, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diaryID != "diary-1" {
		t.Errorf("expected diary-1, got %s", diaryID)
	}

	if len(gotDrafts) != 3 {
		t.Fatalf("expected 3 drafts, got %d", len(gotDrafts))
	}
	// Submitted order, not chronological or id order.
	if gotDrafts[0].EventID != 3 || gotDrafts[1].EventID != 1 || gotDrafts[2].EventID != 2 {
		t.Errorf("expected order [3 1 2], got [%d %d %d]",
			gotDrafts[0].EventID, gotDrafts[1].EventID, gotDrafts[2].EventID)
	}
}

func TestRun_SkipsMissingEvents(t *testing.T) {
	eventSrc := &mockEventSource{
		getFn: func(ctx context.Context, userID, eventID int64) (*events.Event, error) {
			if eventID == 2 {
				return nil, apperror.NewNotFound("event not found")
			}
			return eventOn(eventID, "2025-03-14", "calm"), nil
		},
	}

	var gotIDs []int64
	writer := &mockDiaryWriter{
		createFn: func(ctx context.Context, diary *diaries.Diary, links []keywords.DiaryLink, eventIDs []int64) (*diaries.Diary, error) {
			gotIDs = eventIDs
			diary.ID = "diary-1"
			return diary, nil
		},
	}

	pipeline := NewPipeline(eventSrc, &mockPhotoSource{}, writer, &mockAIClient{})
	if _, err := pipeline.Run(context.Background(), pendingJob(1, 2, 3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotIDs) != 2 || gotIDs[0] != 1 || gotIDs[1] != 3 {
		t.Errorf("expected frozen events [1 3], got %v", gotIDs)
	}
}

func TestRun_SkipsEventsFromOtherDates(t *testing.T) {
	eventSrc := &mockEventSource{
		getFn: func(ctx context.Context, userID, eventID int64) (*events.Event, error) {
			if eventID == 2 {
				return eventOn(eventID, "2025-03-15", "happy"), nil
			}
			return eventOn(eventID, "2025-03-14", "happy"), nil
		},
	}

	var gotDrafts []ai.DiaryDraft
	aiClient := &mockAIClient{
		composeFn: func(ctx context.Context, drafts []ai.DiaryDraft) (string, error) {
			gotDrafts = drafts
			return "ok", nil
		},
	}

	pipeline := NewPipeline(eventSrc, &mockPhotoSource{}, &mockDiaryWriter{}, aiClient)
	if _, err := pipeline.Run(context.Background(), pendingJob(1, 2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotDrafts) != 1 || gotDrafts[0].EventID != 1 {
		t.Errorf("expected only event 1, got %v", gotDrafts)
	}
}

func TestRun_NoUsableEvents(t *testing.T) {
	pipeline := NewPipeline(&mockEventSource{}, &mockPhotoSource{}, &mockDiaryWriter{}, &mockAIClient{})

	if _, err := pipeline.Run(context.Background(), pendingJob(1, 2)); err == nil {
		t.Fatal("expected error when no events can be used")
	}
}

func TestRun_CaptionFailureDegrades(t *testing.T) {
	eventSrc := &mockEventSource{
		getFn: func(ctx context.Context, userID, eventID int64) (*events.Event, error) {
			return eventOn(eventID, "2025-03-14", "happy", "market"), nil
		},
	}
	photoSrc := &mockPhotoSource{
		listByEventFn: func(ctx context.Context, userID, eventID int64) ([]photos.Photo, error) {
			return []photos.Photo{{ID: "p1"}, {ID: "p2"}}, nil
		},
	}
	aiClient := &mockAIClient{
		captionFn: func(ctx context.Context, image []byte, contextKeywords []string) (string, error) {
			return "", errors.New("vision model down")
		},
		composeFn: func(ctx context.Context, drafts []ai.DiaryDraft) (string, error) {
			if len(drafts[0].Captions) != 0 {
				t.Errorf("expected no captions after failures, got %v", drafts[0].Captions)
			}
			return "Composed without captions.", nil
		},
	}

	pipeline := NewPipeline(eventSrc, photoSrc, &mockDiaryWriter{}, aiClient)
	if _, err := pipeline.Run(context.Background(), pendingJob(1)); err != nil {
		t.Fatalf("expected degradation, not failure: %v", err)
	}
}

func TestRun_ComposeFailureFailsJob(t *testing.T) {
	eventSrc := &mockEventSource{
		getFn: func(ctx context.Context, userID, eventID int64) (*events.Event, error) {
			return eventOn(eventID, "2025-03-14", "happy"), nil
		},
	}
	aiClient := &mockAIClient{
		composeFn: func(ctx context.Context, drafts []ai.DiaryDraft) (string, error) {
			return "", errors.New("model down")
		},
	}

	pipeline := NewPipeline(eventSrc, &mockPhotoSource{}, &mockDiaryWriter{}, aiClient)
	if _, err := pipeline.Run(context.Background(), pendingJob(1)); err == nil {
		t.Fatal("expected error when composition fails")
	}
}

func TestRun_DedupesKeywordLinks(t *testing.T) {
	eventSrc := &mockEventSource{
		getFn: func(ctx context.Context, userID, eventID int64) (*events.Event, error) {
			if eventID == 1 {
				return eventOn(1, "2025-03-14", "happy", "Market", "lunch"), nil
			}
			return eventOn(2, "2025-03-14", "calm", "market", "walk"), nil
		},
	}

	var gotLinks []keywords.DiaryLink
	writer := &mockDiaryWriter{
		createFn: func(ctx context.Context, diary *diaries.Diary, links []keywords.DiaryLink, eventIDs []int64) (*diaries.Diary, error) {
			gotLinks = links
			diary.ID = "diary-1"
			return diary, nil
		},
	}

	pipeline := NewPipeline(eventSrc, &mockPhotoSource{}, writer, &mockAIClient{})
	if _, err := pipeline.Run(context.Background(), pendingJob(1, 2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gotLinks) != 3 {
		t.Fatalf("expected 3 deduped links, got %d: %v", len(gotLinks), gotLinks)
	}
	if gotLinks[0].Content != "market" || gotLinks[1].Content != "lunch" || gotLinks[2].Content != "walk" {
		t.Errorf("unexpected link order/content: %v", gotLinks)
	}
	for _, link := range gotLinks {
		if !link.IsAutoGenerated || !link.IsSelected {
			t.Errorf("pipeline links must be auto-generated and selected, got %+v", link)
		}
	}
}

func TestRun_EmptyCompositionFailsJob(t *testing.T) {
	eventSrc := &mockEventSource{
		getFn: func(ctx context.Context, userID, eventID int64) (*events.Event, error) {
			return eventOn(eventID, "2025-03-14", "happy"), nil
		},
	}
	aiClient := &mockAIClient{
		composeFn: func(ctx context.Context, drafts []ai.DiaryDraft) (string, error) {
			return "   ", nil
		},
	}

	pipeline := NewPipeline(eventSrc, &mockPhotoSource{}, &mockDiaryWriter{}, aiClient)
	if _, err := pipeline.Run(context.Background(), pendingJob(1)); err == nil {
		t.Fatal("expected error when the composer returns empty text")
	}
}

func TestRun_DominantEmotion(t *testing.T) {
	eventSrc := &mockEventSource{
		getFn: func(ctx context.Context, userID, eventID int64) (*events.Event, error) {
			emotions := map[int64]string{1: "happy", 2: "calm", 3: "calm"}
			return eventOn(eventID, "2025-03-14", emotions[eventID]), nil
		},
	}

	var gotDiary *diaries.Diary
	writer := &mockDiaryWriter{
		createFn: func(ctx context.Context, diary *diaries.Diary, links []keywords.DiaryLink, eventIDs []int64) (*diaries.Diary, error) {
			gotDiary = diary
			diary.ID = "diary-1"
			return diary, nil
		},
	}

	pipeline := NewPipeline(eventSrc, &mockPhotoSource{}, writer, &mockAIClient{})
	if _, err := pipeline.Run(context.Background(), pendingJob(1, 2, 3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotDiary.Emotion == nil || *gotDiary.Emotion != "calm" {
		t.Errorf("expected dominant emotion calm, got %v", gotDiary.Emotion)
	}
}
