package workers

import (
	"context"
	"fmt"

	logpkg "github.com/benvon/smart-goals/internal/logger"
	"github.com/benvon/smart-goals/internal/queue"
	"go.uber.org/zap"
)

// Processor settles one consumed message
type Processor interface {
	ProcessJob(ctx context.Context, msg queue.Delivery) error
}

// Run consumes jobQueue and hands every message to proc until ctx is
// cancelled or the delivery channel closes. Processing errors are logged;
// the message has already been settled by proc.
func Run(ctx context.Context, jobQueue queue.JobQueue, prefetch int, proc Processor, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	msgChan, errChan, err := jobQueue.Consume(ctx, prefetch)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	log.Info("worker_consuming", zap.Int("prefetch", prefetch))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			log.Error("queue_error", zap.String("error", logpkg.SanitizeError(err)))
		case msg, ok := <-msgChan:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("message channel closed")
			}
			job := msg.GetJob()
			if err := proc.ProcessJob(ctx, msg); err != nil {
				log.Error("failed_to_process_job",
					zap.String("error", logpkg.SanitizeError(err)),
					zap.String("job_id", job.ID.String()),
					zap.String("job_type", string(job.Type)),
				)
			}
		}
	}
}
