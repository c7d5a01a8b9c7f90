// Package notification delivers fraud notifications through the Redis job queue
package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
	"github.com/fraud-desk/alert_service/pkg/jobqueue"
)

// JobTypeFraudConfirmed is the queue job type for confirmed fraud notifications
const JobTypeFraudConfirmed = "alert.fraud_confirmed"

// Sender delivers a fraud notification synchronously
type Sender interface {
	NotifyFraudConfirmed(ctx context.Context, alert entities.Alert, feedback, analyst string) error
}

type fraudConfirmedPayload struct {
	Alert    entities.Alert `json:"alert"`
	Feedback string         `json:"feedback"`
	Analyst  string         `json:"analyst"`
}

// QueuedNotifier defers notifications to the job queue so dispositions do not
// wait on the mail provider
type QueuedNotifier struct {
	queue  *jobqueue.JobQueue
	logger *zap.Logger
}

func NewQueuedNotifier(queue *jobqueue.JobQueue, logger *zap.Logger) *QueuedNotifier {
	return &QueuedNotifier{queue: queue, logger: logger}
}

func (n *QueuedNotifier) NotifyFraudConfirmed(ctx context.Context, alert entities.Alert, feedback, analyst string) error {
	job, err := jobqueue.NewJob(JobTypeFraudConfirmed, jobqueue.PriorityHigh, fraudConfirmedPayload{
		Alert:    alert,
		Feedback: feedback,
		Analyst:  analyst,
	})
	if err != nil {
		return err
	}
	if err := n.queue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue fraud notification: %w", err)
	}

	n.logger.Debug("Fraud notification queued",
		zap.String("job_id", job.ID),
		zap.String("alert_id", alert.ID))
	return nil
}

// Handler returns the job handler that sends queued notifications through sender
func Handler(sender Sender) jobqueue.JobHandler {
	return func(ctx context.Context, job *jobqueue.Job) error {
		var p fraudConfirmedPayload
		if err := job.Decode(&p); err != nil {
			return fmt.Errorf("invalid fraud notification payload: %w", err)
		}
		return sender.NotifyFraudConfirmed(ctx, p.Alert, p.Feedback, p.Analyst)
	}
}
