package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/ieltsprep/pkg/models"
)

// AttemptRepository keeps per-day tallies of completed tasks
type AttemptRepository struct {
	db *sqlx.DB
}

// NewAttemptRepository creates a new repository instance
func NewAttemptRepository(db *sqlx.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Increment adds n completed tasks to the user's tally for day. The upsert is
// a single statement, so concurrent increments for the same day add up.
func (r *AttemptRepository) Increment(ctx context.Context, userID int64, day string, n int) error {
	query := r.db.Rebind(`
		INSERT INTO daily_attempts (user_id, day, completed) VALUES (?, ?, ?)
		ON CONFLICT (user_id, day) DO UPDATE SET completed = daily_attempts.completed + excluded.completed
	`)
	if _, err := r.db.ExecContext(ctx, query, userID, day, n); err != nil {
		return fmt.Errorf("failed to record attempts: %w", err)
	}
	return nil
}

// History returns tallies between fromDay and toDay inclusive, oldest first.
// Days without activity are absent.
func (r *AttemptRepository) History(ctx context.Context, userID int64, fromDay, toDay string) ([]models.AttemptCount, error) {
	var history []models.AttemptCount
	query := r.db.Rebind(`
		SELECT day, completed FROM daily_attempts
		WHERE user_id = ? AND day >= ? AND day <= ?
		ORDER BY day ASC
	`)
	if err := r.db.SelectContext(ctx, &history, query, userID, fromDay, toDay); err != nil {
		return nil, fmt.Errorf("failed to get attempt history: %w", err)
	}
	return history, nil
}

// Total returns all tasks the user has ever completed
func (r *AttemptRepository) Total(ctx context.Context, userID int64) (int, error) {
	var total int
	query := r.db.Rebind("SELECT COALESCE(SUM(completed), 0) FROM daily_attempts WHERE user_id = ?")
	if err := r.db.GetContext(ctx, &total, query, userID); err != nil {
		return 0, fmt.Errorf("failed to get attempt total: %w", err)
	}
	return total, nil
}
