// Package queue carries background goal jobs, currently streak recomputation
// after tracked progress, over RabbitMQ or an in-process queue.
package queue

import (
	"context"
)

// Delivery is one received job. Exactly one of Ack or Nack must be called;
// Nack without requeue dead-letters the job.
type Delivery interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// JobQueue publishes and consumes jobs. RabbitMQQueue is used when a broker
// is configured and MemoryQueue otherwise; both honor Job.NotBefore for
// debounced and retried jobs.
type JobQueue interface {
	Enqueue(ctx context.Context, job *Job) error

	// Consume streams deliveries until ctx is done, with at most
	// prefetchCount unacknowledged at once. The delivery channel is closed
	// when consumption stops; a broker failure is sent on the error channel first.
	Consume(ctx context.Context, prefetchCount int) (<-chan Delivery, <-chan error, error)

	Close() error
	HealthCheck(ctx context.Context) error
}
