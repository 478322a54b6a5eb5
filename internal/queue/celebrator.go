package queue

import (
	"context"

	"taskline/internal/dialog"
	"taskline/internal/models"
)

// CelebrationEnqueuer adapts the job queue to the dialogue controller's
// Celebrator contract.
type CelebrationEnqueuer struct {
	queue JobQueue
}

// NewCelebrationEnqueuer creates the adapter.
func NewCelebrationEnqueuer(q JobQueue) *CelebrationEnqueuer {
	return &CelebrationEnqueuer{queue: q}
}

// CelebrateCompletion queues a celebration job for the completed task.
func (e *CelebrationEnqueuer) CelebrateCompletion(ctx context.Context, task *models.Task) error {
	return e.queue.Enqueue(ctx, NewCelebrationJob(task.OwnerID, task.ID, task.Text))
}

var _ dialog.Celebrator = (*CelebrationEnqueuer)(nil)
