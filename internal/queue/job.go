package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeCelebration asks the worker to generate and deliver a
	// celebratory message for a freshly completed task
	JobTypeCelebration JobType = "celebration"
)

// Job represents a queued unit of work. Celebration jobs carry the task
// text so the worker never has to read the store.
type Job struct {
	ID         uuid.UUID  `json:"id"`
	Type       JobType    `json:"type"`
	OwnerID    int64      `json:"owner_id"`
	TaskID     int64      `json:"task_id"`
	TaskText   string     `json:"task_text"`
	NotBefore  *time.Time `json:"not_before,omitempty"` // earliest time to process (nil = immediate)
	NotAfter   *time.Time `json:"not_after,omitempty"`  // latest time to process (nil = no expiration)
	CreatedAt  time.Time  `json:"created_at"`
	RetryCount int        `json:"retry_count"`
	MaxRetries int        `json:"max_retries"`
}

// NewCelebrationJob creates a celebration job for a completed task. A
// stale celebration is worse than none, so jobs expire after an hour.
func NewCelebrationJob(ownerID, taskID int64, taskText string) *Job {
	notAfter := time.Now().Add(time.Hour)
	return &Job{
		ID:         uuid.New(),
		Type:       JobTypeCelebration,
		OwnerID:    ownerID,
		TaskID:     taskID,
		TaskText:   taskText,
		NotAfter:   &notAfter,
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}

	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}
	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
