package queue

import (
	"context"
)

// JobQueue is the interface for job queues
type JobQueue interface {
	// Enqueue adds a job to the queue
	Enqueue(ctx context.Context, job *Job) error

	// Consume returns a channel of messages from the queue. Messages are
	// delivered asynchronously as they arrive; the caller acknowledges
	// each one. Prefetch bounds unacknowledged messages per consumer.
	// The channels close when the context is cancelled or an error occurs.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	// Close closes the queue connection
	Close() error

	// HealthCheck verifies the queue connection is healthy
	HealthCheck(ctx context.Context) error
}
