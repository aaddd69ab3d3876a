package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sheeplab/sheepdiary/internal/apperror"
)

// EventRepository defines the data access contract for events. All SQL for
// the events table lives here. Keywords are stored as a JSON array column;
// locations as a single geo column written by the configured codec.
type EventRepository interface {
	// Create inserts a new event. The event's ID is set on the struct after insert.
	Create(ctx context.Context, event *Event) error

	// FindByID retrieves a single event by its primary key.
	FindByID(ctx context.Context, id int64) (*Event, error)

	// ListByUserAndDate returns a user's events for one calendar day,
	// ordered by start time then id.
	ListByUserAndDate(ctx context.Context, userID int64, date string) ([]Event, error)

	// Update modifies an event's editable fields.
	Update(ctx context.Context, event *Event) error
}

// eventRepository implements EventRepository using MariaDB with hand-written SQL.
type eventRepository struct {
	db    *sql.DB
	codec GeoCodec
}

// NewEventRepository creates a new EventRepository backed by the given
// database connection, serializing locations with the given codec.
func NewEventRepository(db *sql.DB, codec GeoCodec) EventRepository {
	return &eventRepository{db: db, codec: codec}
}

// Create inserts a new event and sets the auto-generated ID on the struct.
func (r *eventRepository) Create(ctx context.Context, event *Event) error {
	keywordsJSON, err := json.Marshal(event.Keywords)
	if err != nil {
		return fmt.Errorf("marshaling event keywords: %w", err)
	}
	geo, err := r.codec.Encode(event.Location)
	if err != nil {
		return fmt.Errorf("encoding event location: %w", err)
	}

	query := `INSERT INTO events (user_id, date, place, emotion, start_time, memos, keywords, geo)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		event.UserID, event.Date, event.Place, event.Emotion,
		event.StartTime, event.Memos, keywordsJSON, nullableRaw(geo),
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	event.ID = id

	return nil
}

// FindByID retrieves a single event by its primary key.
func (r *eventRepository) FindByID(ctx context.Context, id int64) (*Event, error) {
	query := `SELECT id, user_id, date, place, emotion, start_time, memos, keywords, geo,
	                 diary_id, created_at, updated_at
	           FROM events WHERE id = ?`

	event, err := r.scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperror.NewNotFound("event not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying event by id: %w", err)
	}
	return event, nil
}

// ListByUserAndDate returns a user's events for one calendar day, ordered
// by start time then id for a stable timeline.
func (r *eventRepository) ListByUserAndDate(ctx context.Context, userID int64, date string) ([]Event, error) {
	query := `SELECT id, user_id, date, place, emotion, start_time, memos, keywords, geo,
	                 diary_id, created_at, updated_at
	           FROM events
	           WHERE user_id = ? AND date = ?
	           ORDER BY start_time ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID, date)
	if err != nil {
		return nil, fmt.Errorf("listing events by date: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		event, err := r.scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating event rows: %w", err)
	}

	return events, nil
}

// Update modifies an event's editable fields.
func (r *eventRepository) Update(ctx context.Context, event *Event) error {
	keywordsJSON, err := json.Marshal(event.Keywords)
	if err != nil {
		return fmt.Errorf("marshaling event keywords: %w", err)
	}
	geo, err := r.codec.Encode(event.Location)
	if err != nil {
		return fmt.Errorf("encoding event location: %w", err)
	}

	query := `UPDATE events
	           SET place = ?, emotion = ?, start_time = ?, memos = ?, keywords = ?, geo = ?
	           WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		event.Place, event.Emotion, event.StartTime, event.Memos,
		keywordsJSON, nullableRaw(geo), event.ID,
	)
	if err != nil {
		return fmt.Errorf("updating event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFound("event not found")
	}

	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEvent scans one event row, decoding the keywords JSON column and the
// geo column through the configured codec.
func (r *eventRepository) scanEvent(row rowScanner) (*Event, error) {
	var e Event
	var keywordsJSON []byte
	var geo sql.NullString

	err := row.Scan(
		&e.ID, &e.UserID, &e.Date, &e.Place, &e.Emotion, &e.StartTime,
		&e.Memos, &keywordsJSON, &geo, &e.DiaryID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(keywordsJSON) > 0 {
		if err := json.Unmarshal(keywordsJSON, &e.Keywords); err != nil {
			return nil, fmt.Errorf("unmarshaling event keywords: %w", err)
		}
	}
	if e.Keywords == nil {
		e.Keywords = []string{}
	}

	if geo.Valid {
		loc, err := r.codec.Decode([]byte(geo.String))
		if err != nil {
			return nil, fmt.Errorf("decoding event location: %w", err)
		}
		e.Location = loc
	}

	return &e, nil
}

// nullableRaw converts an empty raw message to nil so the geo column stores
// SQL NULL instead of an empty string.
func nullableRaw(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
