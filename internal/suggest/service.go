package suggest

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sheeplab/sheepdiary/internal/apperror"
)

// maxJobEvents caps how many events one job may reference.
const maxJobEvents = 50

// SuggestService defines the job lifecycle contract: submit, poll, cancel.
type SuggestService interface {
	// Submit validates the request and queues a new job, returning
	// immediately with the job id.
	Submit(ctx context.Context, userID int64, req SubmitRequest) (*SubmitResponse, error)

	// Poll returns the job's current status. The diary id or error message
	// appear only once the job reaches a terminal status.
	Poll(ctx context.Context, userID int64, jobID string) (*StatusResponse, error)

	// Cancel stops a job that has not started producing a result. Only
	// PENDING jobs can be cancelled.
	Cancel(ctx context.Context, userID int64, jobID string) error
}

// suggestService implements SuggestService.
type suggestService struct {
	store *JobStore
}

// NewSuggestService creates a new SuggestService backed by the given store.
func NewSuggestService(store *JobStore) SuggestService {
	return &suggestService{store: store}
}

// Submit validates the request and queues a new job. Placeholder event ids
// (-1) are dropped before validation; submitting nothing but placeholders
// is an error. The surviving ids keep their submitted order, which is the
// order the diary narrative will follow.
func (s *suggestService) Submit(ctx context.Context, userID int64, req SubmitRequest) (*SubmitResponse, error) {
	fields := make(map[string]string)

	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		fields["date"] = "Date must be in YYYY-MM-DD format"
	}

	eventIDs := make([]int64, 0, len(req.EventIDs))
	for _, id := range req.EventIDs {
		if id == -1 {
			continue
		}
		if id <= 0 {
			fields["event_ids"] = "Event ids must be positive"
			break
		}
		eventIDs = append(eventIDs, id)
	}
	if len(eventIDs) == 0 && fields["event_ids"] == "" {
		fields["event_ids"] = "At least one event is required"
	}
	if len(eventIDs) > maxJobEvents {
		fields["event_ids"] = "Too many events"
	}

	if len(fields) > 0 {
		return nil, apperror.NewValidation(fields)
	}

	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.NewString(),
		UserID:    userID,
		Date:      req.Date,
		EventIDs:  eventIDs,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Enqueue(ctx, job); err != nil {
		return nil, apperror.NewInternal(err)
	}

	slog.Info("suggestion job queued",
		slog.String("job_id", job.ID),
		slog.Int64("user_id", userID),
		slog.String("date", req.Date),
		slog.Int("events", len(eventIDs)),
	)

	return &SubmitResponse{JobID: job.ID, Status: job.Status}, nil
}

// Poll returns the job's current status.
func (s *suggestService) Poll(ctx context.Context, userID int64, jobID string) (*StatusResponse, error) {
	job, err := s.loadOwned(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}

	resp := &StatusResponse{JobID: job.ID, Status: job.Status}
	switch job.Status {
	case StatusSuccess:
		resp.DiaryID = job.DiaryID
	case StatusFailure:
		resp.Error = job.Error
	}
	return resp, nil
}

// Cancel stops a PENDING job. A job that already reached a terminal status
// cannot be cancelled.
func (s *suggestService) Cancel(ctx context.Context, userID int64, jobID string) error {
	job, err := s.loadOwned(ctx, userID, jobID)
	if err != nil {
		return err
	}
	if terminal(job.Status) {
		return apperror.NewConflict("job has already finished")
	}

	ok, err := s.store.Cancel(ctx, jobID)
	if err != nil {
		return apperror.NewInternal(err)
	}
	if !ok {
		// The worker finished between the load and the cancel.
		return apperror.NewConflict("job has already finished")
	}

	slog.Info("suggestion job cancelled", slog.String("job_id", jobID))
	return nil
}

// loadOwned loads a job and enforces ownership.
func (s *suggestService) loadOwned(ctx context.Context, userID int64, jobID string) (*Job, error) {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, apperror.NewNotFound("suggestion job not found")
	}
	return job, nil
}
