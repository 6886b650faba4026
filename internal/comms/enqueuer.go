package comms

import (
	"context"

	"github.com/helix-id/helix/jobs"
)

// JobsEnqueuer submits send-message commands through the shared queue client.
type JobsEnqueuer struct {
	client *jobs.Client
}

// NewJobsEnqueuer builds the production Enqueuer.
func NewJobsEnqueuer(client *jobs.Client) *JobsEnqueuer {
	return &JobsEnqueuer{client: client}
}

// EnqueueSendMessage enqueues the payload onto the notifications queue.
func (e *JobsEnqueuer) EnqueueSendMessage(ctx context.Context, payload SendMessagePayload) error {
	return e.client.Enqueue(ctx, jobs.QueueNotifications, TaskTypeSendMessage, payload)
}
