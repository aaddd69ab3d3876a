package keywords

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sheeplab/sheepdiary/internal/apperror"
	"github.com/sheeplab/sheepdiary/internal/sanitize"
)

// searchLimit caps the number of results per keyword search.
const searchLimit = 20

// KeywordService defines the business logic contract for keyword operations.
type KeywordService interface {
	// GetOrCreate resolves a content string to a keyword, creating it if
	// absent. Content is sanitized and lowercased before lookup so the
	// dedup invariant holds regardless of input casing.
	GetOrCreate(ctx context.Context, content, source string) (*Keyword, error)

	// ListByDiary returns a diary's keywords with link flags.
	ListByDiary(ctx context.Context, diaryID string) ([]DiaryKeywordView, error)

	// Search finds keywords by content prefix and logs the search.
	Search(ctx context.Context, userID int64, query string) ([]Keyword, error)
}

// keywordService implements KeywordService.
type keywordService struct {
	repo KeywordRepository
}

// NewKeywordService creates a new KeywordService backed by the given repository.
func NewKeywordService(repo KeywordRepository) KeywordService {
	return &keywordService{repo: repo}
}

// Normalize cleans a raw keyword: HTML stripped, trimmed, lowercased.
// Exported because the diaries package must apply the same normalization
// before linking keywords inside its transaction.
func Normalize(content string) string {
	return strings.ToLower(sanitize.Text(content))
}

// GetOrCreate resolves a content string to a keyword, creating it if absent.
func (s *keywordService) GetOrCreate(ctx context.Context, content, source string) (*Keyword, error) {
	content = Normalize(content)
	if content == "" {
		return nil, apperror.NewBadRequest("keyword content is required")
	}
	if source != SourceUser && source != SourcePhoto {
		return nil, apperror.NewBadRequest("unknown keyword source: " + source)
	}

	return s.repo.GetOrCreate(ctx, content, source)
}

// ListByDiary returns a diary's keywords with link flags.
func (s *keywordService) ListByDiary(ctx context.Context, diaryID string) ([]DiaryKeywordView, error) {
	return s.repo.ListByDiary(ctx, diaryID)
}

// Search finds keywords by content prefix. Each search is recorded in the
// search log; a logging failure doesn't fail the search itself.
func (s *keywordService) Search(ctx context.Context, userID int64, query string) ([]Keyword, error) {
	query = Normalize(query)
	if query == "" {
		return nil, apperror.NewBadRequest("search query is required")
	}

	if err := s.repo.LogSearch(ctx, userID, query); err != nil {
		slog.Warn("failed to record keyword search",
			slog.Int64("user_id", userID),
			slog.String("keyword", query),
			slog.Any("error", err),
		)
	}

	return s.repo.Search(ctx, query, searchLimit)
}
