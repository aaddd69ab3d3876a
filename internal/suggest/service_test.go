package suggest

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/sheeplab/sheepdiary/internal/apperror"
)

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

func TestSubmit_FiltersPlaceholderIDs(t *testing.T) {
	store := newTestStore(t)
	svc := NewSuggestService(store)
	ctx := context.Background()

	resp, err := svc.Submit(ctx, 7, SubmitRequest{
		Date:     "2025-03-14",
		EventIDs: []int64{-1, 5, -1, 3},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != StatusPending {
		t.Errorf("expected PENDING, got %s", resp.Status)
	}

	job, err := store.Get(ctx, resp.JobID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(job.EventIDs) != 2 || job.EventIDs[0] != 5 || job.EventIDs[1] != 3 {
		t.Errorf("expected [5 3] after filtering, got %v", job.EventIDs)
	}
}

func TestSubmit_OnlyPlaceholders(t *testing.T) {
	svc := NewSuggestService(newTestStore(t))

	_, err := svc.Submit(context.Background(), 7, SubmitRequest{
		Date:     "2025-03-14",
		EventIDs: []int64{-1, -1},
	})
	assertAppError(t, err, http.StatusUnprocessableEntity)
}

func TestSubmit_InvalidDate(t *testing.T) {
	svc := NewSuggestService(newTestStore(t))

	_, err := svc.Submit(context.Background(), 7, SubmitRequest{
		Date:     "03/14/2025",
		EventIDs: []int64{1},
	})
	assertAppError(t, err, http.StatusUnprocessableEntity)
}

func TestPoll_PendingHasNoResult(t *testing.T) {
	store := newTestStore(t)
	svc := NewSuggestService(store)
	ctx := context.Background()

	resp, err := svc.Submit(ctx, 7, SubmitRequest{Date: "2025-03-14", EventIDs: []int64{1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status, err := svc.Poll(ctx, 7, resp.JobID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Status != StatusPending {
		t.Errorf("expected PENDING, got %s", status.Status)
	}
	if status.DiaryID != "" || status.Error != "" {
		t.Errorf("expected no result fields while pending, got %+v", status)
	}
}

func TestPoll_SuccessCarriesDiaryID(t *testing.T) {
	store := newTestStore(t)
	svc := NewSuggestService(store)
	ctx := context.Background()

	resp, _ := svc.Submit(ctx, 7, SubmitRequest{Date: "2025-03-14", EventIDs: []int64{1}})
	store.Complete(ctx, resp.JobID, "diary-9")

	status, err := svc.Poll(ctx, 7, resp.JobID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.Status != StatusSuccess || status.DiaryID != "diary-9" {
		t.Errorf("expected SUCCESS with diary-9, got %+v", status)
	}
	if status.Error != "" {
		t.Errorf("expected no error on success, got %q", status.Error)
	}
}

func TestPoll_OtherUsersJobHidden(t *testing.T) {
	store := newTestStore(t)
	svc := NewSuggestService(store)
	ctx := context.Background()

	resp, _ := svc.Submit(ctx, 7, SubmitRequest{Date: "2025-03-14", EventIDs: []int64{1}})

	_, err := svc.Poll(ctx, 8, resp.JobID)
	assertAppError(t, err, http.StatusNotFound)
}

func TestCancel_PendingJob(t *testing.T) {
	store := newTestStore(t)
	svc := NewSuggestService(store)
	ctx := context.Background()

	resp, _ := svc.Submit(ctx, 7, SubmitRequest{Date: "2025-03-14", EventIDs: []int64{1}})

	if err := svc.Cancel(ctx, 7, resp.JobID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status, _ := svc.Poll(ctx, 7, resp.JobID)
	if status.Status != StatusCancelled {
		t.Errorf("expected CANCELLED, got %s", status.Status)
	}
}

func TestCancel_FinishedJob(t *testing.T) {
	store := newTestStore(t)
	svc := NewSuggestService(store)
	ctx := context.Background()

	resp, _ := svc.Submit(ctx, 7, SubmitRequest{Date: "2025-03-14", EventIDs: []int64{1}})
	store.Complete(ctx, resp.JobID, "diary-9")

	err := svc.Cancel(ctx, 7, resp.JobID)
	assertAppError(t, err, http.StatusConflict)
}
