package events

import (
	"context"
	"time"

	"github.com/sheeplab/sheepdiary/internal/apperror"
	"github.com/sheeplab/sheepdiary/internal/sanitize"
)

const (
	maxPlaceLength = 200
	maxMemosLength = 5000
	maxKeywords    = 20
)

// EventService defines the business logic contract for events.
type EventService interface {
	// Create validates and stores a new event for the given user.
	Create(ctx context.Context, userID int64, req CreateEventRequest) (*Event, error)

	// Get retrieves one event, enforcing ownership.
	Get(ctx context.Context, userID, eventID int64) (*Event, error)

	// ListByDate returns the user's events for one calendar day.
	ListByDate(ctx context.Context, userID int64, date string) ([]Event, error)

	// Update applies a partial update to an event. Events already woven into
	// a diary are frozen and reject edits.
	Update(ctx context.Context, userID, eventID int64, req UpdateEventRequest) (*Event, error)

	// Render converts an event to its API representation, serializing the
	// location through the active geo codec.
	Render(event *Event) (*EventResponse, error)
}

// eventService implements EventService.
type eventService struct {
	repo  EventRepository
	codec GeoCodec
}

// NewEventService creates a new EventService.
func NewEventService(repo EventRepository, codec GeoCodec) EventService {
	return &eventService{repo: repo, codec: codec}
}

// Create validates and stores a new event for the given user.
func (s *eventService) Create(ctx context.Context, userID int64, req CreateEventRequest) (*Event, error) {
	fields := make(map[string]string)

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		fields["date"] = "Date must be in YYYY-MM-DD format"
	}

	place := sanitize.Text(req.Place)
	if place == "" {
		fields["place"] = "Place is required"
	} else if len(place) > maxPlaceLength {
		fields["place"] = "Place is too long"
	}

	if !ValidEmotions[req.Emotion] {
		fields["emotion"] = "Emotion must be one of: happy, sad, angry, anxious, calm"
	}

	if !validStartTime(req.StartTime) {
		fields["start_time"] = "Start time must be in HH:MM format"
	}

	memos := sanitize.Text(req.Memos)
	if len(memos) > maxMemosLength {
		fields["memos"] = "Memos are too long"
	}

	keywords := sanitize.Keywords(req.Keywords)
	if len(keywords) > maxKeywords {
		fields["keywords"] = "Too many keywords"
	}

	loc, err := s.codec.Decode(req.Location)
	if err != nil {
		fields["location"] = "Location could not be parsed"
	}

	if len(fields) > 0 {
		return nil, apperror.NewValidation(fields)
	}

	event := &Event{
		UserID:    userID,
		Date:      date,
		Place:     place,
		Emotion:   req.Emotion,
		StartTime: req.StartTime,
		Memos:     memos,
		Keywords:  keywords,
		Location:  loc,
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

// Get retrieves one event, enforcing ownership.
func (s *eventService) Get(ctx context.Context, userID, eventID int64) (*Event, error) {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.UserID != userID {
		return nil, apperror.NewNotFound("event not found")
	}
	return event, nil
}

// ListByDate returns the user's events for one calendar day.
func (s *eventService) ListByDate(ctx context.Context, userID int64, date string) ([]Event, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, apperror.NewBadRequest("date must be in YYYY-MM-DD format")
	}
	return s.repo.ListByUserAndDate(ctx, userID, date)
}

// Update applies a partial update to an event. Events already woven into a
// diary are frozen and reject edits with a conflict.
func (s *eventService) Update(ctx context.Context, userID, eventID int64, req UpdateEventRequest) (*Event, error) {
	event, err := s.Get(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	if event.DiaryID != nil {
		return nil, apperror.NewConflict("event is part of a diary and can no longer be edited")
	}

	fields := make(map[string]string)

	if req.Place != nil {
		place := sanitize.Text(*req.Place)
		if place == "" {
			fields["place"] = "Place is required"
		} else if len(place) > maxPlaceLength {
			fields["place"] = "Place is too long"
		} else {
			event.Place = place
		}
	}

	if req.Emotion != nil {
		if !ValidEmotions[*req.Emotion] {
			fields["emotion"] = "Emotion must be one of: happy, sad, angry, anxious, calm"
		} else {
			event.Emotion = *req.Emotion
		}
	}

	if req.StartTime != nil {
		if !validStartTime(*req.StartTime) {
			fields["start_time"] = "Start time must be in HH:MM format"
		} else {
			event.StartTime = *req.StartTime
		}
	}

	if req.Memos != nil {
		memos := sanitize.Text(*req.Memos)
		if len(memos) > maxMemosLength {
			fields["memos"] = "Memos are too long"
		} else {
			event.Memos = memos
		}
	}

	if req.Keywords != nil {
		keywords := sanitize.Keywords(*req.Keywords)
		if len(keywords) > maxKeywords {
			fields["keywords"] = "Too many keywords"
		} else {
			event.Keywords = keywords
		}
	}

	if len(req.Location) > 0 {
		loc, err := s.codec.Decode(req.Location)
		if err != nil {
			fields["location"] = "Location could not be parsed"
		} else {
			event.Location = loc
		}
	}

	if len(fields) > 0 {
		return nil, apperror.NewValidation(fields)
	}

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

// Render converts an event to its API representation.
func (s *eventService) Render(event *Event) (*EventResponse, error) {
	loc, err := s.codec.Encode(event.Location)
	if err != nil {
		return nil, err
	}
	return &EventResponse{
		ID:        event.ID,
		Date:      event.Date.Format("2006-01-02"),
		Place:     event.Place,
		Emotion:   event.Emotion,
		StartTime: event.StartTime,
		Memos:     event.Memos,
		Keywords:  event.Keywords,
		Location:  loc,
		DiaryID:   event.DiaryID,
		CreatedAt: event.CreatedAt,
		UpdatedAt: event.UpdatedAt,
	}, nil
}

// validStartTime reports whether s is a valid "HH:MM" clock time.
func validStartTime(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

// renderAll maps a slice of events through Render.
func renderAll(svc EventService, events []Event) ([]EventResponse, error) {
	out := make([]EventResponse, 0, len(events))
	for i := range events {
		resp, err := svc.Render(&events[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}
