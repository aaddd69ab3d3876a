package suggest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sheeplab/sheepdiary/internal/apperror"
)

func newTestStore(t *testing.T) *JobStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewJobStore(rdb)
}

func testJob() *Job {
	now := time.Now().UTC().Truncate(time.Second)
	return &Job{
		ID:        "job-1",
		UserID:    7,
		Date:      "2025-03-14",
		EventIDs:  []int64{3, 1, 2},
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestEnqueueAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Enqueue(ctx, testJob()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	job, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status != StatusPending {
		t.Errorf("expected PENDING, got %s", job.Status)
	}
	if job.UserID != 7 {
		t.Errorf("expected user 7, got %d", job.UserID)
	}
	// Submitted order survives the round trip.
	if len(job.EventIDs) != 3 || job.EventIDs[0] != 3 || job.EventIDs[1] != 1 || job.EventIDs[2] != 2 {
		t.Errorf("expected event ids [3 1 2], got %v", job.EventIDs)
	}

	// The job id must be on the queue.
	id, err := store.NextJob(ctx, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "job-1" {
		t.Errorf("expected job-1 from queue, got %q", id)
	}
}

func TestGet_Missing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "nope")
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Type != "not_found" {
		t.Fatalf("expected not_found error, got %v", err)
	}
}

func TestComplete_SetsDiaryOnlyOnPending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.Enqueue(ctx, testJob())

	ok, err := store.Complete(ctx, "job-1", "diary-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected transition to succeed")
	}

	job, _ := store.Get(ctx, "job-1")
	if job.Status != StatusSuccess || job.DiaryID != "diary-9" {
		t.Errorf("expected SUCCESS with diary-9, got %s / %s", job.Status, job.DiaryID)
	}

	// A second terminal transition must be refused.
	ok, err = store.Fail(ctx, "job-1", "too late")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected transition from terminal state to be refused")
	}
	job, _ = store.Get(ctx, "job-1")
	if job.Status != StatusSuccess || job.Error != "" {
		t.Errorf("expected state unchanged, got %s / %q", job.Status, job.Error)
	}
}

func TestCancel_BlocksLateCompletion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.Enqueue(ctx, testJob())

	ok, err := store.Cancel(ctx, "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected cancel to succeed")
	}

	ok, err = store.Complete(ctx, "job-1", "diary-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected completion after cancel to be refused")
	}

	job, _ := store.Get(ctx, "job-1")
	if job.Status != StatusCancelled {
		t.Errorf("expected CANCELLED, got %s", job.Status)
	}
	if job.DiaryID != "" {
		t.Errorf("expected no diary id on cancelled job, got %q", job.DiaryID)
	}
}

func TestFail_SetsErrorMessage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	store.Enqueue(ctx, testJob())

	ok, err := store.Fail(ctx, "job-1", "diary generation failed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected fail transition to succeed")
	}

	job, _ := store.Get(ctx, "job-1")
	if job.Status != StatusFailure {
		t.Errorf("expected FAILURE, got %s", job.Status)
	}
	if job.Error != "diary generation failed" {
		t.Errorf("unexpected error message %q", job.Error)
	}
	if job.DiaryID != "" {
		t.Errorf("expected no diary id on failed job, got %q", job.DiaryID)
	}
}
