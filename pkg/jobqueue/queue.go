package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// Job is one unit of background work. Payload is handler specific JSON.
type Job struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Priority      Priority        `json:"priority"`
	Payload       json.RawMessage `json:"payload"`
	Retries       int             `json:"retries"`
	MaxRetries    int             `json:"max_retries"`
	CreatedAt     time.Time       `json:"created_at"`
	ScheduledAt   *time.Time      `json:"scheduled_at,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
}

// NewJob builds a job with a JSON encoded payload
func NewJob(jobType string, priority Priority, payload interface{}) (*Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job payload: %w", err)
	}
	return &Job{
		ID:       uuid.NewString(),
		Type:     jobType,
		Priority: priority,
		Payload:  data,
	}, nil
}

// Decode unmarshals the payload into v
func (j *Job) Decode(v interface{}) error {
	return json.Unmarshal(j.Payload, v)
}

// JobQueue is a Redis backed priority queue with delayed retries and a dead letter list
type JobQueue struct {
	client    redis.UniversalClient
	logger    *zap.Logger
	queues    map[Priority]string
	scheduled string
	dlq       string
}

func NewJobQueue(client redis.UniversalClient, prefix string, logger *zap.Logger) *JobQueue {
	if prefix == "" {
		prefix = "queue"
	}
	return &JobQueue{
		client: client,
		logger: logger,
		queues: map[Priority]string{
			PriorityLow:      prefix + ":low",
			PriorityNormal:   prefix + ":normal",
			PriorityHigh:     prefix + ":high",
			PriorityCritical: prefix + ":critical",
		},
		scheduled: prefix + ":scheduled",
		dlq:       prefix + ":dead_letter",
	}
}

func (jq *JobQueue) Enqueue(ctx context.Context, job *Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = 3
	}
	queueName, ok := jq.queues[job.Priority]
	if !ok {
		return fmt.Errorf("unknown job priority %d", job.Priority)
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if job.ScheduledAt != nil && job.ScheduledAt.After(time.Now()) {
		return jq.client.ZAdd(ctx, jq.scheduled, &redis.Z{
			Score:  float64(job.ScheduledAt.Unix()),
			Member: data,
		}).Err()
	}

	return jq.client.LPush(ctx, queueName, data).Err()
}

// Dequeue pops the oldest job of the highest non-empty priority, or nil when all are empty
func (jq *JobQueue) Dequeue(ctx context.Context, priorities []Priority) (*Job, error) {
	for _, priority := range priorities {
		result, err := jq.client.RPop(ctx, jq.queues[priority]).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}

		var job Job
		if err := json.Unmarshal([]byte(result), &job); err != nil {
			jq.logger.Error("Failed to unmarshal job", zap.Error(err))
			continue
		}
		return &job, nil
	}

	return nil, nil
}

func (jq *JobQueue) MoveToDeadLetter(ctx context.Context, job *Job, reason string) error {
	job.FailureReason = reason
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return jq.client.LPush(ctx, jq.dlq, data).Err()
}

// Retry reschedules a failed job with quadratic backoff until MaxRetries
func (jq *JobQueue) Retry(ctx context.Context, job *Job) error {
	job.Retries++
	if job.Retries >= job.MaxRetries {
		return jq.MoveToDeadLetter(ctx, job, "max retries exceeded")
	}

	scheduledAt := time.Now().Add(time.Duration(job.Retries*job.Retries) * time.Second)
	job.ScheduledAt = &scheduledAt
	return jq.Enqueue(ctx, job)
}

// ProcessScheduled moves due delayed jobs onto their queues. A job is only
// moved by the caller that removed it from the scheduled set.
func (jq *JobQueue) ProcessScheduled(ctx context.Context) error {
	results, err := jq.client.ZRangeByScore(ctx, jq.scheduled, &redis.ZRangeBy{
		Min: "0",
		Max: strconv.FormatInt(time.Now().Unix(), 10),
	}).Result()
	if err != nil {
		return err
	}

	for _, result := range results {
		removed, err := jq.client.ZRem(ctx, jq.scheduled, result).Result()
		if err != nil || removed == 0 {
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(result), &job); err != nil {
			continue
		}
		job.ScheduledAt = nil
		if err := jq.Enqueue(ctx, &job); err != nil {
			jq.logger.Error("Failed to enqueue scheduled job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}

	return nil
}

func (jq *JobQueue) GetQueueSize(ctx context.Context, priority Priority) (int64, error) {
	return jq.client.LLen(ctx, jq.queues[priority]).Result()
}

func (jq *JobQueue) GetDeadLetterSize(ctx context.Context) (int64, error) {
	return jq.client.LLen(ctx, jq.dlq).Result()
}
