package diaries

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sheeplab/sheepdiary/internal/apperror"
	"github.com/sheeplab/sheepdiary/internal/keywords"
)

// --- Mock Repository ---

type mockDiaryRepo struct {
	createWithKeywordsFn func(ctx context.Context, diary *Diary, links []keywords.DiaryLink, eventIDs []int64) error
	findByIDFn           func(ctx context.Context, id string) (*Diary, error)
	findByUserAndDateFn  func(ctx context.Context, userID int64, date string) (*Diary, error)
	listByMonthFn        func(ctx context.Context, userID int64, year, month int) ([]Diary, error)
	updateFn             func(ctx context.Context, diary *Diary) error
	deleteFn             func(ctx context.Context, id string) error
}

func (m *mockDiaryRepo) CreateWithKeywords(ctx context.Context, diary *Diary, links []keywords.DiaryLink, eventIDs []int64) error {
	if m.createWithKeywordsFn != nil {
		return m.createWithKeywordsFn(ctx, diary, links, eventIDs)
	}
	return nil
}

func (m *mockDiaryRepo) FindByID(ctx context.Context, id string) (*Diary, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("diary not found")
}

func (m *mockDiaryRepo) FindByUserAndDate(ctx context.Context, userID int64, date string) (*Diary, error) {
	if m.findByUserAndDateFn != nil {
		return m.findByUserAndDateFn(ctx, userID, date)
	}
	return nil, apperror.NewNotFound("diary not found")
}

func (m *mockDiaryRepo) ListByMonth(ctx context.Context, userID int64, year, month int) ([]Diary, error) {
	if m.listByMonthFn != nil {
		return m.listByMonthFn(ctx, userID, year, month)
	}
	return nil, nil
}

func (m *mockDiaryRepo) Update(ctx context.Context, diary *Diary) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, diary)
	}
	return nil
}

func (m *mockDiaryRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Mock Keyword Service ---

type mockKeywordService struct{}

func (m *mockKeywordService) GetOrCreate(ctx context.Context, content, source string) (*keywords.Keyword, error) {
	return &keywords.Keyword{ID: 1, Content: content, Source: source}, nil
}

func (m *mockKeywordService) ListByDiary(ctx context.Context, diaryID string) ([]keywords.DiaryKeywordView, error) {
	return nil, nil
}

func (m *mockKeywordService) Search(ctx context.Context, userID int64, query string) ([]keywords.Keyword, error) {
	return nil, nil
}

// --- Test Helpers ---

func newTestDiaryService(repo *mockDiaryRepo) DiaryService {
	return NewDiaryService(repo, &mockKeywordService{})
}

func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

func testDiary() *Diary {
	return &Diary{
		UserID:  7,
		Date:    time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Title:   "March 14",
		Content: "Today was a good day.",
	}
}

func strPtr(s string) *string { return &s }

// --- Create Tests ---

func TestCreate_GeneratesIDAndNormalizesKeywords(t *testing.T) {
	var gotLinks []keywords.DiaryLink
	repo := &mockDiaryRepo{
		createWithKeywordsFn: func(ctx context.Context, diary *Diary, links []keywords.DiaryLink, eventIDs []int64) error {
			gotLinks = links
			return nil
		},
	}

	svc := newTestDiaryService(repo)
	diary, err := svc.Create(context.Background(), testDiary(), []keywords.DiaryLink{
		{Content: "  Bibimbap ", Source: keywords.SourcePhoto, IsAutoGenerated: true},
		{Content: "", Source: keywords.SourceUser},
		{Content: "Market", Source: keywords.SourceUser, IsSelected: true},
	}, []int64{1, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diary.ID == "" {
		t.Error("expected generated diary id")
	}
	if len(gotLinks) != 2 {
		t.Fatalf("expected 2 links after dropping empty content, got %d", len(gotLinks))
	}
	if gotLinks[0].Content != "bibimbap" {
		t.Errorf("expected normalized keyword, got %q", gotLinks[0].Content)
	}
}

func TestCreate_IdempotentOnExistingDate(t *testing.T) {
	existing := testDiary()
	existing.ID = "existing-diary"

	repo := &mockDiaryRepo{
		createWithKeywordsFn: func(ctx context.Context, diary *Diary, links []keywords.DiaryLink, eventIDs []int64) error {
			return apperror.NewConflict("a diary already exists for this date")
		},
		findByUserAndDateFn: func(ctx context.Context, userID int64, date string) (*Diary, error) {
			return existing, nil
		},
	}

	svc := newTestDiaryService(repo)
	diary, err := svc.Create(context.Background(), testDiary(), nil, nil)
	if err != nil {
		t.Fatalf("expected idempotent success, got %v", err)
	}
	if diary.ID != "existing-diary" {
		t.Errorf("expected existing diary returned, got %s", diary.ID)
	}
}

func TestCreate_PropagatesOtherErrors(t *testing.T) {
	repo := &mockDiaryRepo{
		createWithKeywordsFn: func(ctx context.Context, diary *Diary, links []keywords.DiaryLink, eventIDs []int64) error {
			return errors.New("db down")
		},
	}

	svc := newTestDiaryService(repo)
	if _, err := svc.Create(context.Background(), testDiary(), nil, nil); err == nil {
		t.Fatal("expected error")
	}
}

// --- Read Tests ---

func TestGet_NotOwner(t *testing.T) {
	repo := &mockDiaryRepo{
		findByIDFn: func(ctx context.Context, id string) (*Diary, error) {
			d := testDiary()
			d.ID = id
			d.UserID = 99
			return d, nil
		},
	}

	svc := newTestDiaryService(repo)
	_, err := svc.Get(context.Background(), 7, "abc")
	assertAppError(t, err, http.StatusNotFound)
}

func TestGetByDate_InvalidDate(t *testing.T) {
	svc := newTestDiaryService(&mockDiaryRepo{})
	_, err := svc.GetByDate(context.Background(), 7, "tomorrow")
	assertAppError(t, err, http.StatusBadRequest)
}

// --- Update Tests ---

func TestUpdate_InvalidEmotion(t *testing.T) {
	repo := &mockDiaryRepo{
		findByIDFn: func(ctx context.Context, id string) (*Diary, error) {
			d := testDiary()
			d.ID = id
			return d, nil
		},
	}

	svc := newTestDiaryService(repo)
	_, err := svc.Update(context.Background(), 7, "abc", UpdateDiaryRequest{
		Emotion: strPtr("euphoric"),
	})
	assertAppError(t, err, http.StatusUnprocessableEntity)
}

func TestUpdate_ClearsEmotion(t *testing.T) {
	var updated *Diary
	repo := &mockDiaryRepo{
		findByIDFn: func(ctx context.Context, id string) (*Diary, error) {
			d := testDiary()
			d.ID = id
			d.Emotion = strPtr("happy")
			return d, nil
		},
		updateFn: func(ctx context.Context, diary *Diary) error {
			updated = diary
			return nil
		},
	}

	svc := newTestDiaryService(repo)
	_, err := svc.Update(context.Background(), 7, "abc", UpdateDiaryRequest{
		Emotion: strPtr(""),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Emotion != nil {
		t.Errorf("expected emotion cleared, got %v", *updated.Emotion)
	}
}

func TestUpdate_SanitizesContent(t *testing.T) {
	var updated *Diary
	repo := &mockDiaryRepo{
		findByIDFn: func(ctx context.Context, id string) (*Diary, error) {
			d := testDiary()
			d.ID = id
			return d, nil
		},
		updateFn: func(ctx context.Context, diary *Diary) error {
			updated = diary
			return nil
		},
	}

	svc := newTestDiaryService(repo)
	_, err := svc.Update(context.Background(), 7, "abc", UpdateDiaryRequest{
		Content: strPtr("<b>bold</b> day"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Content != "bold day" {
		t.Errorf("expected sanitized content, got %q", updated.Content)
	}
}

// --- Delete Tests ---

func TestDelete_NotOwner(t *testing.T) {
	repo := &mockDiaryRepo{
		findByIDFn: func(ctx context.Context, id string) (*Diary, error) {
			d := testDiary()
			d.ID = id
			d.UserID = 99
			return d, nil
		},
	}

	svc := newTestDiaryService(repo)
	err := svc.Delete(context.Background(), 7, "abc")
	assertAppError(t, err, http.StatusNotFound)
}

func TestCreateDirect_UserKeywordsAreNotAutoGenerated(t *testing.T) {
	var gotLinks []keywords.DiaryLink
	var gotEventIDs []int64
	repo := &mockDiaryRepo{
		createWithKeywordsFn: func(ctx context.Context, diary *Diary, links []keywords.DiaryLink, eventIDs []int64) error {
			gotLinks = links
			gotEventIDs = eventIDs
			return nil
		},
		findByIDFn: func(ctx context.Context, id string) (*Diary, error) {
			return &Diary{ID: id, UserID: 7, Date: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)}, nil
		},
	}
	svc := newTestDiaryService(repo)

	resp, err := svc.CreateDirect(context.Background(), 7, CreateDiaryRequest{
		Date:     "2025-03-14",
		Title:    "A quiet day",
		Content:  "Walked to the market and back.",
		Keywords: []string{"Market", "market", "", "walk"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ID == "" {
		t.Error("expected a generated diary id")
	}
	if len(gotEventIDs) != 0 {
		t.Errorf("direct submission must not freeze events, got %v", gotEventIDs)
	}
	if len(gotLinks) != 2 {
		t.Fatalf("expected deduped keywords [market walk], got %v", gotLinks)
	}
	for _, link := range gotLinks {
		if link.IsAutoGenerated {
			t.Errorf("user-entered keyword %q must not be auto-generated", link.Content)
		}
		if link.Source != keywords.SourceUser || !link.IsSelected {
			t.Errorf("unexpected link flags for %q: %+v", link.Content, link)
		}
	}
}

func TestCreateDirect_DuplicateDateIsConflict(t *testing.T) {
	repo := &mockDiaryRepo{
		createWithKeywordsFn: func(ctx context.Context, diary *Diary, links []keywords.DiaryLink, eventIDs []int64) error {
			return apperror.NewConflict("a diary already exists for this date")
		},
	}
	svc := newTestDiaryService(repo)

	_, err := svc.CreateDirect(context.Background(), 7, CreateDiaryRequest{
		Date:    "2025-03-14",
		Title:   "Second attempt",
		Content: "Should not overwrite the first entry.",
	})
	assertAppError(t, err, http.StatusConflict)
}

func TestCreateDirect_Validation(t *testing.T) {
	svc := newTestDiaryService(&mockDiaryRepo{})
	bad := "confused"

	_, err := svc.CreateDirect(context.Background(), 7, CreateDiaryRequest{
		Date:    "14-03-2025",
		Title:   "",
		Content: "",
		Emotion: &bad,
	})
	assertAppError(t, err, http.StatusUnprocessableEntity)

	var appErr *apperror.AppError
	errors.As(err, &appErr)
	for _, field := range []string{"date", "title", "content", "emotion"} {
		if appErr.Fields[field] == "" {
			t.Errorf("expected a validation message for %q", field)
		}
	}
}
