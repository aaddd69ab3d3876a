// Package keywords implements the shared keyword pool for sheepdiary.
// A keyword is a short descriptive tag, either typed by the user or derived
// from a photo. Keyword content is globally deduplicated: the same string
// always resolves to the same row, no matter how many diaries or pipelines
// reference it concurrently. Diaries link to keywords through the
// diary_keywords join table.
package keywords

import "time"

// Keyword source tags. The original string constants are kept so existing
// mobile clients keep working.
const (
	// SourceUser marks keywords typed by the user.
	SourceUser = "from_user"

	// SourcePhoto marks keywords derived from a photo by the extractor.
	SourcePhoto = "from_picture"
)

// Keyword is a deduplicated descriptive tag.
type Keyword struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// DiaryKeyword is one row of the diary_keywords join table.
type DiaryKeyword struct {
	DiaryID         string `json:"diary_id"`
	KeywordID       int64  `json:"keyword_id"`
	IsSelected      bool   `json:"is_selected"`
	IsAutoGenerated bool   `json:"is_auto_generated"`
}

// DiaryLink describes one keyword-to-diary association to create. Used by
// the diaries package when persisting a diary and its keywords atomically.
type DiaryLink struct {
	Content         string
	Source          string
	IsSelected      bool
	IsAutoGenerated bool
}

// SearchLog records one keyword search for usage analysis.
type SearchLog struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Keyword    string    `json:"keyword"`
	SearchedAt time.Time `json:"searched_at"`
}
