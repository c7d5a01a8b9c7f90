package notification

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
	"github.com/fraud-desk/alert_service/pkg/jobqueue"
)

type recordingSender struct {
	alerts    []entities.Alert
	feedbacks []string
}

func (r *recordingSender) NotifyFraudConfirmed(_ context.Context, alert entities.Alert, feedback, _ string) error {
	r.alerts = append(r.alerts, alert)
	r.feedbacks = append(r.feedbacks, feedback)
	return nil
}

func TestQueuedNotifier_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	queue := jobqueue.NewJobQueue(client, "alerts:queue", zaptest.NewLogger(t))
	ctx := context.Background()

	alert := entities.Alert{ID: "AL-0", CIF: "12345600", Amount: decimal.RequireFromString("120.5"), Currency: "JOD"}
	require.NoError(t, NewQueuedNotifier(queue, zaptest.NewLogger(t)).NotifyFraudConfirmed(ctx, alert, "card skimmed", "analyst-7"))

	job, err := queue.Dequeue(ctx, []jobqueue.Priority{jobqueue.PriorityHigh})
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, JobTypeFraudConfirmed, job.Type)

	sender := &recordingSender{}
	require.NoError(t, Handler(sender)(ctx, job))
	require.Len(t, sender.alerts, 1)
	assert.Equal(t, "AL-0", sender.alerts[0].ID)
	assert.True(t, sender.alerts[0].Amount.Equal(decimal.RequireFromString("120.5")))
	assert.Equal(t, "card skimmed", sender.feedbacks[0])
}

func TestHandler_RejectsBadPayload(t *testing.T) {
	err := Handler(&recordingSender{})(context.Background(), &jobqueue.Job{Payload: []byte(`[`)})
	assert.Error(t, err)
}
