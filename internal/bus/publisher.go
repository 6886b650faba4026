// Package bus publishes domain events onto the platform's message bus.
package bus

import (
	"context"

	"github.com/helix-id/helix/jobs"
)

// Publisher emits one domain event per successful mutation. No event is
// published on failure.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// AsynqPublisher publishes events onto the events queue.
type AsynqPublisher struct {
	client *jobs.Client
}

// NewAsynqPublisher builds the production publisher.
func NewAsynqPublisher(client *jobs.Client) *AsynqPublisher {
	return &AsynqPublisher{client: client}
}

// Publish enqueues the event under its type name.
func (p *AsynqPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	return p.client.Enqueue(ctx, jobs.QueueEvents, eventType, payload)
}
