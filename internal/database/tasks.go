package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"taskline/internal/models"
	"taskline/internal/validation"
)

// TaskRepository handles task database operations. Every query filters by
// (id, owner_id) so another owner's tasks are indistinguishable from
// missing ones.
type TaskRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db, logger: zap.NewNop()}
}

// SetLogger attaches a logger for operation-level events.
func (r *TaskRepository) SetLogger(logger *zap.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Create persists a new active task and returns its id. Text is validated
// and trimmed first; invalid text yields *validation.Error and no row.
func (r *TaskRepository) Create(ctx context.Context, ownerID int64, text string) (int64, error) {
	cleaned, err := validation.TaskText(text)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO tasks (owner_id, task_text)
		VALUES ($1, $2)
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, ownerID, cleaned).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create task: %w", err)
	}

	r.logger.Info("task_created",
		zap.Int64("task_id", id),
		zap.Int64("owner_id", ownerID),
	)
	return id, nil
}

const taskColumns = `id, owner_id, task_text, done, hidden, created_at, completed_at`

func scanTask(row interface{ Scan(...any) error }) (*models.Task, error) {
	task := &models.Task{}
	var done bool
	var completedAt sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Text,
		&done,
		&task.Hidden,
		&task.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Status = models.TaskStatusActive
	if done {
		task.Status = models.TaskStatusDone
	}
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}

	return task, nil
}

// Get retrieves a task by id. Returns (nil, nil) when the task does not
// exist or belongs to another owner.
func (r *TaskRepository) Get(ctx context.Context, id, ownerID int64) (*models.Task, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM tasks
		WHERE id = $1 AND owner_id = $2
	`, taskColumns)

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// List returns the owner's tasks ordered newest-first. With includeDone
// false only active tasks are returned; with true, both statuses minus
// hidden ones.
func (r *TaskRepository) List(ctx context.Context, ownerID int64, includeDone bool, limit, offset int) ([]*models.Task, error) {
	filter := "AND NOT done"
	if includeDone {
		filter = "AND NOT hidden"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM tasks
		WHERE owner_id = $1 %s
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, taskColumns, filter)

	rows, err := r.db.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// Count returns the active task count when includeDone is false, and the
// count of non-hidden done tasks when true. The latter backs the
// "show completed (N)" toggle label.
func (r *TaskRepository) Count(ctx context.Context, ownerID int64, includeDone bool) (int, error) {
	filter := "AND NOT done"
	if includeDone {
		filter = "AND done AND NOT hidden"
	}

	query := fmt.Sprintf(`SELECT COUNT(*) FROM tasks WHERE owner_id = $1 %s`, filter)

	var count int
	if err := r.db.QueryRowContext(ctx, query, ownerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}

// UpdateText replaces the text of an owned, active task. Invalid text
// yields *validation.Error; a missing, foreign, or done task yields false.
func (r *TaskRepository) UpdateText(ctx context.Context, id, ownerID int64, newText string) (bool, error) {
	cleaned, err := validation.TaskText(newText)
	if err != nil {
		return false, err
	}

	query := `
		UPDATE tasks
		SET task_text = $3
		WHERE id = $1 AND owner_id = $2 AND NOT done
		RETURNING id
	`

	ok, err := r.execReturning(ctx, query, id, ownerID, cleaned)
	if err != nil {
		return false, fmt.Errorf("failed to update task text: %w", err)
	}
	if ok {
		r.logger.Info("task_text_updated",
			zap.Int64("task_id", id),
			zap.Int64("owner_id", ownerID),
		)
	}
	return ok, nil
}

// Complete transitions an active task to done, stamping completed_at. The
// status predicate makes the call race-safe: a second caller sees false.
func (r *TaskRepository) Complete(ctx context.Context, id, ownerID int64) (bool, error) {
	query := `
		UPDATE tasks
		SET done = TRUE, completed_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND owner_id = $2 AND NOT done
		RETURNING id
	`

	ok, err := r.execReturning(ctx, query, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to complete task: %w", err)
	}
	if ok {
		r.logger.Info("task_completed",
			zap.Int64("task_id", id),
			zap.Int64("owner_id", ownerID),
		)
	}
	return ok, nil
}

// Reactivate transitions a done task back to active and clears
// completed_at. The hidden flag is left untouched.
func (r *TaskRepository) Reactivate(ctx context.Context, id, ownerID int64) (bool, error) {
	query := `
		UPDATE tasks
		SET done = FALSE, completed_at = NULL
		WHERE id = $1 AND owner_id = $2 AND done
		RETURNING id
	`

	ok, err := r.execReturning(ctx, query, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to reactivate task: %w", err)
	}
	if ok {
		r.logger.Info("task_reactivated",
			zap.Int64("task_id", id),
			zap.Int64("owner_id", ownerID),
		)
	}
	return ok, nil
}

// Hide marks a done task as hidden, removing it from all list views while
// keeping the row. Active tasks cannot be hidden.
func (r *TaskRepository) Hide(ctx context.Context, id, ownerID int64) (bool, error) {
	query := `
		UPDATE tasks
		SET hidden = TRUE
		WHERE id = $1 AND owner_id = $2 AND done
		RETURNING id
	`

	ok, err := r.execReturning(ctx, query, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to hide task: %w", err)
	}
	if ok {
		r.logger.Info("task_hidden",
			zap.Int64("task_id", id),
			zap.Int64("owner_id", ownerID),
		)
	}
	return ok, nil
}

// Delete removes an owned task unconditionally.
func (r *TaskRepository) Delete(ctx context.Context, id, ownerID int64) (bool, error) {
	query := `DELETE FROM tasks WHERE id = $1 AND owner_id = $2 RETURNING id`

	ok, err := r.execReturning(ctx, query, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	if ok {
		r.logger.Info("task_deleted",
			zap.Int64("task_id", id),
			zap.Int64("owner_id", ownerID),
		)
	}
	return ok, nil
}

// execReturning runs a single-row mutation with a RETURNING id clause and
// reports whether a row was affected.
func (r *TaskRepository) execReturning(ctx context.Context, query string, args ...any) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
