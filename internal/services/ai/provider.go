package ai

import (
	"context"
)

// FallbackMessage is used whenever generation fails. Task completion is
// never blocked or failed because of the celebration text.
const FallbackMessage = "🎉 Task completed — nice work!"

// CelebrationProvider generates a short celebratory message for a
// completed task.
type CelebrationProvider interface {
	// Celebrate returns up to two sentences of friendly praise for
	// completing the given task.
	Celebrate(ctx context.Context, taskText string) (string, error)
}
