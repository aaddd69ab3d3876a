package diaries

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sheeplab/sheepdiary/internal/apperror"
	"github.com/sheeplab/sheepdiary/internal/events"
	"github.com/sheeplab/sheepdiary/internal/keywords"
	"github.com/sheeplab/sheepdiary/internal/sanitize"
)

const (
	maxTitleLength   = 200
	maxContentLength = 20000
)

// DiaryService defines the business logic contract for diaries.
type DiaryService interface {
	// Create persists a new diary with its keyword links, freezing the
	// source events. Creation is idempotent per (user, date): when a diary
	// already exists for that day, the existing one is returned unchanged.
	Create(ctx context.Context, diary *Diary, links []keywords.DiaryLink, eventIDs []int64) (*Diary, error)

	// CreateDirect persists a diary the user wrote themselves, with the
	// user's own keyword picks. An existing diary for that date is a
	// conflict here, not an idempotent success.
	CreateDirect(ctx context.Context, userID int64, req CreateDiaryRequest) (*DiaryResponse, error)

	// Get retrieves one diary with keywords, enforcing ownership.
	Get(ctx context.Context, userID int64, id string) (*DiaryResponse, error)

	// GetByDate retrieves a user's diary for one calendar day.
	GetByDate(ctx context.Context, userID int64, date string) (*DiaryResponse, error)

	// ListByMonth returns a user's diaries for one month.
	ListByMonth(ctx context.Context, userID int64, year, month int) ([]DiaryResponse, error)

	// Update edits a diary's title, content, or emotion.
	Update(ctx context.Context, userID int64, id string, req UpdateDiaryRequest) (*DiaryResponse, error)

	// Delete removes a diary and unfreezes its events.
	Delete(ctx context.Context, userID int64, id string) error
}

// diaryService implements DiaryService.
type diaryService struct {
	repo       DiaryRepository
	keywordSvc keywords.KeywordService
}

// NewDiaryService creates a new DiaryService.
func NewDiaryService(repo DiaryRepository, keywordSvc keywords.KeywordService) DiaryService {
	return &diaryService{repo: repo, keywordSvc: keywordSvc}
}

// Create persists a new diary atomically with its keyword links. Keyword
// content is normalized here so the links hit the same rows as every other
// writer. Idempotent per (user, date): a duplicate returns the existing
// diary, which makes the suggestion pipeline's retry safe.
func (s *diaryService) Create(ctx context.Context, diary *Diary, links []keywords.DiaryLink, eventIDs []int64) (*Diary, error) {
	if diary.ID == "" {
		diary.ID = uuid.NewString()
	}
	diary.Title = sanitize.Text(diary.Title)
	diary.Content = sanitize.Text(diary.Content)

	normalized := make([]keywords.DiaryLink, 0, len(links))
	for _, link := range links {
		link.Content = keywords.Normalize(link.Content)
		if link.Content == "" {
			continue
		}
		normalized = append(normalized, link)
	}

	err := s.repo.CreateWithKeywords(ctx, diary, normalized, eventIDs)
	if err == nil {
		return diary, nil
	}

	if appErr, ok := err.(*apperror.AppError); ok && appErr.Type == "conflict" {
		existing, findErr := s.repo.FindByUserAndDate(ctx, diary.UserID, diary.Date.Format("2006-01-02"))
		if findErr == nil {
			slog.Info("diary already exists for date, returning existing",
				slog.Int64("user_id", diary.UserID),
				slog.String("date", diary.Date.Format("2006-01-02")),
			)
			return existing, nil
		}
	}
	return nil, err
}

// CreateDirect validates and persists a user-submitted diary. Keyword links
// carry is_auto_generated=false to distinguish them from pipeline output.
func (s *diaryService) CreateDirect(ctx context.Context, userID int64, req CreateDiaryRequest) (*DiaryResponse, error) {
	fields := make(map[string]string)

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		fields["date"] = "Date must be in YYYY-MM-DD format"
	}

	title := sanitize.Text(req.Title)
	if title == "" {
		fields["title"] = "Title is required"
	} else if len(title) > maxTitleLength {
		fields["title"] = "Title is too long"
	}

	content := sanitize.Text(req.Content)
	if content == "" {
		fields["content"] = "Content is required"
	} else if len(content) > maxContentLength {
		fields["content"] = "Content is too long"
	}

	if req.Emotion != nil && !events.ValidEmotions[*req.Emotion] {
		fields["emotion"] = "Emotion must be one of: happy, sad, angry, anxious, calm"
	}

	if len(fields) > 0 {
		return nil, apperror.NewValidation(fields)
	}

	seen := make(map[string]bool)
	var links []keywords.DiaryLink
	for _, content := range req.Keywords {
		normalized := keywords.Normalize(content)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		links = append(links, keywords.DiaryLink{
			Content:    normalized,
			Source:     keywords.SourceUser,
			IsSelected: true,
		})
	}

	diary := &Diary{
		ID:      uuid.NewString(),
		UserID:  userID,
		Date:    date,
		Title:   title,
		Content: content,
		Emotion: req.Emotion,
	}
	if err := s.repo.CreateWithKeywords(ctx, diary, links, nil); err != nil {
		return nil, err
	}

	// Re-read for the DB-assigned timestamps.
	created, err := s.repo.FindByID(ctx, diary.ID)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, created)
}

// Get retrieves one diary with keywords, enforcing ownership.
func (s *diaryService) Get(ctx context.Context, userID int64, id string) (*DiaryResponse, error) {
	diary, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if diary.UserID != userID {
		return nil, apperror.NewNotFound("diary not found")
	}
	return s.render(ctx, diary)
}

// GetByDate retrieves a user's diary for one calendar day.
func (s *diaryService) GetByDate(ctx context.Context, userID int64, date string) (*DiaryResponse, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, apperror.NewBadRequest("date must be in YYYY-MM-DD format")
	}
	diary, err := s.repo.FindByUserAndDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, diary)
}

// ListByMonth returns a user's diaries for one month.
func (s *diaryService) ListByMonth(ctx context.Context, userID int64, year, month int) ([]DiaryResponse, error) {
	if year < 2000 || year > 2200 || month < 1 || month > 12 {
		return nil, apperror.NewBadRequest("invalid year or month")
	}

	diaries, err := s.repo.ListByMonth(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}

	out := make([]DiaryResponse, 0, len(diaries))
	for i := range diaries {
		resp, err := s.render(ctx, &diaries[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

// Update edits a diary's title, content, or emotion.
func (s *diaryService) Update(ctx context.Context, userID int64, id string, req UpdateDiaryRequest) (*DiaryResponse, error) {
	diary, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if diary.UserID != userID {
		return nil, apperror.NewNotFound("diary not found")
	}

	fields := make(map[string]string)

	if req.Title != nil {
		title := sanitize.Text(*req.Title)
		if title == "" {
			fields["title"] = "Title is required"
		} else if len(title) > maxTitleLength {
			fields["title"] = "Title is too long"
		} else {
			diary.Title = title
		}
	}

	if req.Content != nil {
		content := sanitize.Text(*req.Content)
		if content == "" {
			fields["content"] = "Content is required"
		} else if len(content) > maxContentLength {
			fields["content"] = "Content is too long"
		} else {
			diary.Content = content
		}
	}

	if req.Emotion != nil {
		if *req.Emotion == "" {
			diary.Emotion = nil
		} else if !events.ValidEmotions[*req.Emotion] {
			fields["emotion"] = "Emotion must be one of: happy, sad, angry, anxious, calm"
		} else {
			diary.Emotion = req.Emotion
		}
	}

	if len(fields) > 0 {
		return nil, apperror.NewValidation(fields)
	}

	if err := s.repo.Update(ctx, diary); err != nil {
		return nil, err
	}
	return s.render(ctx, diary)
}

// Delete removes a diary and unfreezes its events.
func (s *diaryService) Delete(ctx context.Context, userID int64, id string) error {
	diary, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if diary.UserID != userID {
		return apperror.NewNotFound("diary not found")
	}
	return s.repo.Delete(ctx, id)
}

// render attaches a diary's keywords and formats it for the API.
func (s *diaryService) render(ctx context.Context, diary *Diary) (*DiaryResponse, error) {
	kws, err := s.keywordSvc.ListByDiary(ctx, diary.ID)
	if err != nil {
		return nil, err
	}
	if kws == nil {
		kws = []keywords.DiaryKeywordView{}
	}
	return &DiaryResponse{
		ID:        diary.ID,
		Date:      diary.Date.Format("2006-01-02"),
		Title:     diary.Title,
		Content:   diary.Content,
		Emotion:   diary.Emotion,
		Keywords:  kws,
		CreatedAt: diary.CreatedAt,
		UpdatedAt: diary.UpdatedAt,
	}, nil
}
