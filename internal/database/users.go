package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"taskline/internal/models"
)

// UserRepository handles per-user preference rows
type UserRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db, logger: zap.NewNop()}
}

// SetLogger attaches a logger for operation-level events.
func (r *UserRepository) SetLogger(logger *zap.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// SetTimezone upserts the user's display timezone. The zone string must
// already be validated by the caller.
func (r *UserRepository) SetTimezone(ctx context.Context, ownerID int64, tz string) error {
	query := `
		INSERT INTO users (owner_id, timezone, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (owner_id)
		DO UPDATE SET
			timezone = EXCLUDED.timezone,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := r.db.ExecContext(ctx, query, ownerID, tz); err != nil {
		return fmt.Errorf("failed to set timezone: %w", err)
	}

	r.logger.Info("timezone_updated",
		zap.Int64("owner_id", ownerID),
		zap.String("timezone", tz),
	)
	return nil
}

// GetTimezone returns the stored timezone, or the UTC default when no
// preference row exists.
func (r *UserRepository) GetTimezone(ctx context.Context, ownerID int64) (string, error) {
	query := `SELECT timezone FROM users WHERE owner_id = $1`

	var tz string
	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(&tz)
	if err == sql.ErrNoRows {
		return models.DefaultTimezone, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get timezone: %w", err)
	}
	if tz == "" {
		return models.DefaultTimezone, nil
	}
	return tz, nil
}

// GetPreference returns the full preference row, or nil when none exists.
func (r *UserRepository) GetPreference(ctx context.Context, ownerID int64) (*models.UserPreference, error) {
	query := `
		SELECT owner_id, timezone, created_at, updated_at
		FROM users
		WHERE owner_id = $1
	`

	pref := &models.UserPreference{}
	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(
		&pref.OwnerID,
		&pref.Timezone,
		&pref.CreatedAt,
		&pref.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}

	return pref, nil
}
