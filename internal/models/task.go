package models

import (
	"time"
)

// TaskStatus represents the lifecycle status of a task
type TaskStatus string

const (
	TaskStatusActive TaskStatus = "active"
	TaskStatusDone   TaskStatus = "done"
)

// Task represents a single task owned by a user.
// IDs are store-generated and monotonic; CreatedAt is always UTC.
type Task struct {
	ID          int64      `json:"id"`
	OwnerID     int64      `json:"owner_id"`
	Text        string     `json:"text"`
	Status      TaskStatus `json:"status"`
	Hidden      bool       `json:"hidden"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IsDone reports whether the task has been completed.
func (t *Task) IsDone() bool {
	return t.Status == TaskStatusDone
}
