// Package diaries manages generated diary entries. A diary is the narrative
// output of the suggestion pipeline for one (user, date) pair; that pair is
// unique, so a day has at most one diary. The diary row, its keyword links,
// and the freeze of its source events are written in a single transaction.
package diaries

import (
	"time"

	"github.com/sheeplab/sheepdiary/internal/keywords"
)

// Diary is one generated diary entry.
type Diary struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Date      time.Time `json:"-"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Emotion   *string   `json:"emotion,omitempty"` // Dominant emotion of the day, when one exists.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateDiaryRequest holds a diary submitted directly by the user, bypassing
// the suggestion pipeline. Keywords are the user's own picks for the day.
type CreateDiaryRequest struct {
	Date     string   `json:"date"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Emotion  *string  `json:"emotion,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// UpdateDiaryRequest holds the editable diary fields. Pointer fields
// distinguish "not provided" from zero values.
type UpdateDiaryRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Emotion *string `json:"emotion,omitempty"`
}

// DiaryResponse is the API representation of a diary with its keywords.
type DiaryResponse struct {
	ID        string                      `json:"id"`
	Date      string                      `json:"date"`
	Title     string                      `json:"title"`
	Content   string                      `json:"content"`
	Emotion   *string                     `json:"emotion,omitempty"`
	Keywords  []keywords.DiaryKeywordView `json:"keywords"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}
