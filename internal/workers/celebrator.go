// Package workers contains the background job processors.
package workers

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"taskline/internal/queue"
	"taskline/internal/services/ai"
)

// Notifier delivers a message to a user through the chat transport.
type Notifier interface {
	Notify(ctx context.Context, ownerID int64, text string) error
}

// Celebrator processes celebration jobs: it asks the AI provider for a
// short congratulation and delivers it to the user. Generation failures
// degrade to ai.FallbackMessage; only delivery failures are retried.
type Celebrator struct {
	provider ai.CelebrationProvider
	notifier Notifier
	logger   *zap.Logger
}

// NewCelebrator creates a celebrator worker. provider may be nil, in
// which case every celebration uses the fallback text.
func NewCelebrator(provider ai.CelebrationProvider, notifier Notifier, logger *zap.Logger) *Celebrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Celebrator{provider: provider, notifier: notifier, logger: logger}
}

// ProcessJob handles a single celebration job.
func (c *Celebrator) ProcessJob(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeCelebration {
		return fmt.Errorf("unexpected job type %q", job.Type)
	}

	text := ai.FallbackMessage
	if c.provider != nil {
		generated, err := c.provider.Celebrate(ctx, job.TaskText)
		if err != nil {
			c.logger.Warn("celebration_generation_failed_using_fallback",
				zap.String("job_id", job.ID.String()),
				zap.Int64("owner_id", job.OwnerID),
				zap.Error(err),
			)
		} else {
			text = generated
		}
	}

	if err := c.notifier.Notify(ctx, job.OwnerID, text); err != nil {
		return fmt.Errorf("failed to deliver celebration: %w", err)
	}

	c.logger.Info("celebration_delivered",
		zap.String("job_id", job.ID.String()),
		zap.Int64("owner_id", job.OwnerID),
		zap.Int64("task_id", job.TaskID),
	)
	return nil
}

// Run consumes celebration jobs until the context is cancelled. Jobs that
// fail delivery are nacked with requeue while retries remain, then dropped
// to the DLQ.
func (c *Celebrator) Run(ctx context.Context, jobQueue queue.JobQueue, prefetch int) error {
	msgChan, errChan, err := jobQueue.Consume(ctx, prefetch)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("celebrator_started", zap.Int("prefetch", prefetch))

	for {
		select {
		case <-ctx.Done():
			return nil

		case qErr, ok := <-errChan:
			if !ok {
				return nil
			}
			c.logger.Error("queue_error", zap.Error(qErr))

		case msg, ok := <-msgChan:
			if !ok {
				c.logger.Info("message_channel_closed")
				return nil
			}

			if err := c.ProcessJob(ctx, msg.Job); err != nil {
				c.logger.Error("failed_to_process_job",
					zap.String("job_id", msg.Job.ID.String()),
					zap.Error(err),
				)
				msg.Job.IncrementRetry()
				// Out of retries: off to the DLQ
				if err := msg.Nack(msg.Job.CanRetry()); err != nil {
					c.logger.Warn("failed_to_nack_message", zap.Error(err))
				}
				continue
			}

			if err := msg.Ack(); err != nil {
				c.logger.Warn("failed_to_ack_message", zap.Error(err))
			}
		}
	}
}
