// Package events implements the event store for sheepdiary. An event is one
// logged daily activity: a place, a start time, an emotion, a keyword list,
// and attached photos. Events are the raw material the diary-suggestion
// pipeline aggregates into a narrative entry; once an event has been woven
// into a diary it becomes immutable.
package events

import (
	"encoding/json"
	"time"
)

// Emotion labels shared by events and diaries.
const (
	EmotionHappy   = "happy"
	EmotionSad     = "sad"
	EmotionAngry   = "angry"
	EmotionAnxious = "anxious"
	EmotionCalm    = "calm"
)

// ValidEmotions is the set of accepted emotion labels. The migration lint
// test checks the diaries.emotion ENUM against this set.
var ValidEmotions = map[string]bool{
	EmotionHappy:   true,
	EmotionSad:     true,
	EmotionAngry:   true,
	EmotionAnxious: true,
	EmotionCalm:    true,
}

// Event represents one logged daily activity.
type Event struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Date      time.Time `json:"-"`
	Place     string    `json:"place"`
	Emotion   string    `json:"emotion"`
	StartTime string    `json:"start_time"` // "HH:MM"
	Memos     string    `json:"memos,omitempty"`
	Keywords  []string  `json:"keywords"`

	// Location is the event's coordinates, nil when the user logged no
	// location. Serialized through the configured geo codec (see geo.go).
	Location *Location `json:"-"`

	// DiaryID is set once the event has been included in a generated diary.
	// A non-nil value freezes the event against further edits.
	DiaryID *string `json:"diary_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Location is the single internal location value type. Storage and API
// shape are decided by the geo codec, never by branching field sets.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// --- Request DTOs (bound from HTTP requests) ---

// CreateEventRequest holds the data submitted when logging an event.
type CreateEventRequest struct {
	Date      string          `json:"date"` // "YYYY-MM-DD"
	Place     string          `json:"place"`
	Emotion   string          `json:"emotion"`
	StartTime string          `json:"start_time"` // "HH:MM"
	Memos     string          `json:"memos"`
	Keywords  []string        `json:"keywords"`
	Location  json.RawMessage `json:"location,omitempty"`
}

// UpdateEventRequest holds the data submitted when editing an event.
// Pointer fields distinguish "not provided" from zero values for partial
// updates.
type UpdateEventRequest struct {
	Place     *string         `json:"place,omitempty"`
	Emotion   *string         `json:"emotion,omitempty"`
	StartTime *string         `json:"start_time,omitempty"`
	Memos     *string         `json:"memos,omitempty"`
	Keywords  *[]string       `json:"keywords,omitempty"`
	Location  json.RawMessage `json:"location,omitempty"`
}

// EventResponse is the API representation of an event. Location appears in
// whatever shape the configured geo codec produces.
type EventResponse struct {
	ID        int64           `json:"id"`
	Date      string          `json:"date"`
	Place     string          `json:"place"`
	Emotion   string          `json:"emotion"`
	StartTime string          `json:"start_time"`
	Memos     string          `json:"memos,omitempty"`
	Keywords  []string        `json:"keywords"`
	Location  json.RawMessage `json:"location,omitempty"`
	DiaryID   *string         `json:"diary_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
