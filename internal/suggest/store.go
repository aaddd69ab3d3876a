package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sheeplab/sheepdiary/internal/apperror"
)

const (
	jobKeyPrefix = "suggest:job:"
	queueKey     = "suggest:queue"

	// jobTTL keeps finished jobs around long enough for the client to
	// poll the result, then lets Redis clean up.
	jobTTL = 24 * time.Hour
)

// transitionScript moves a job from PENDING to a terminal status in one
// atomic step. The extra field (diary_id or error) is only written when the
// transition happens, so a result can never appear on a non-terminal or
// cancelled job.
var transitionScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'status') == 'PENDING' then
	redis.call('HSET', KEYS[1], 'status', ARGV[1], ARGV[2], ARGV[3], 'updated_at', ARGV[4])
	return 1
end
return 0
`)

// JobStore persists suggestion jobs in Redis: one hash per job for state,
// one list as the work queue.
type JobStore struct {
	rdb *redis.Client
}

// NewJobStore creates a JobStore on the given Redis client.
func NewJobStore(rdb *redis.Client) *JobStore {
	return &JobStore{rdb: rdb}
}

func jobKey(id string) string {
	return jobKeyPrefix + id
}

// Enqueue writes a new job hash and pushes its id onto the work queue.
func (s *JobStore) Enqueue(ctx context.Context, job *Job) error {
	eventIDs, err := json.Marshal(job.EventIDs)
	if err != nil {
		return fmt.Errorf("encoding job event ids: %w", err)
	}

	key := jobKey(job.ID)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"user_id":    job.UserID,
		"date":       job.Date,
		"event_ids":  string(eventIDs),
		"status":     job.Status,
		"diary_id":   job.DiaryID,
		"error":      job.Error,
		"created_at": job.CreatedAt.Format(time.RFC3339),
		"updated_at": job.UpdatedAt.Format(time.RFC3339),
	})
	pipe.Expire(ctx, key, jobTTL)
	pipe.LPush(ctx, queueKey, job.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueueing suggestion job: %w", err)
	}
	return nil
}

// Get loads a job by id.
func (s *JobStore) Get(ctx context.Context, id string) (*Job, error) {
	fields, err := s.rdb.HGetAll(ctx, jobKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("loading suggestion job: %w", err)
	}
	if len(fields) == 0 {
		return nil, apperror.NewNotFound("suggestion job not found")
	}

	job := &Job{
		ID:      id,
		Date:    fields["date"],
		Status:  fields["status"],
		DiaryID: fields["diary_id"],
		Error:   fields["error"],
	}
	job.UserID, _ = strconv.ParseInt(fields["user_id"], 10, 64)
	if raw := fields["event_ids"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &job.EventIDs); err != nil {
			return nil, fmt.Errorf("decoding job event ids: %w", err)
		}
	}
	if t, err := time.Parse(time.RFC3339, fields["created_at"]); err == nil {
		job.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, fields["updated_at"]); err == nil {
		job.UpdatedAt = t
	}
	return job, nil
}

// NextJob blocks until a job id is available on the queue or the timeout
// elapses. Returns an empty id on timeout.
func (s *JobStore) NextJob(ctx context.Context, timeout time.Duration) (string, error) {
	result, err := s.rdb.BRPop(ctx, timeout, queueKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("popping suggestion queue: %w", err)
	}
	// BRPOP returns [key, value].
	return result[1], nil
}

// Complete transitions a job to SUCCESS with its diary id. Returns false
// when the job was no longer PENDING (cancelled or already finished).
func (s *JobStore) Complete(ctx context.Context, id, diaryID string) (bool, error) {
	return s.transition(ctx, id, StatusSuccess, "diary_id", diaryID)
}

// Fail transitions a job to FAILURE with an error message. Returns false
// when the job was no longer PENDING.
func (s *JobStore) Fail(ctx context.Context, id, message string) (bool, error) {
	return s.transition(ctx, id, StatusFailure, "error", message)
}

// Cancel transitions a job to CANCELLED. Returns false when the job was no
// longer PENDING.
func (s *JobStore) Cancel(ctx context.Context, id string) (bool, error) {
	return s.transition(ctx, id, StatusCancelled, "error", "")
}

func (s *JobStore) transition(ctx context.Context, id, status, field, value string) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	result, err := transitionScript.Run(ctx, s.rdb, []string{jobKey(id)}, status, field, value, now).Int()
	if err != nil {
		return false, fmt.Errorf("transitioning job to %s: %w", status, err)
	}
	return result == 1, nil
}
