package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/ieltsprep/pkg/models"
)

// StreakRepository stores streak state with optimistic concurrency on a version column
type StreakRepository struct {
	db *sqlx.DB
}

// NewStreakRepository creates a new repository instance
func NewStreakRepository(db *sqlx.DB) *StreakRepository {
	return &StreakRepository{db: db}
}

// Get returns the user's streak, or the zero state (version 0) if none is stored yet
func (r *StreakRepository) Get(ctx context.Context, userID int64) (models.StreakState, error) {
	var state models.StreakState
	query := r.db.Rebind(`
		SELECT user_id, current_streak, longest_streak, last_day_key, version
		FROM streaks WHERE user_id = ?
	`)
	err := r.db.GetContext(ctx, &state, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StreakState{UserID: userID}, nil
	}
	if err != nil {
		return models.StreakState{}, fmt.Errorf("failed to get streak: %w", err)
	}
	return state, nil
}

// Save writes state if the stored version still equals state.Version and
// returns the state with its new version. A concurrent writer that saved first
// makes Save return ErrConflict; callers reload and retry.
func (r *StreakRepository) Save(ctx context.Context, state models.StreakState) (models.StreakState, error) {
	var (
		result sql.Result
		err    error
	)
	if state.Version == 0 {
		result, err = r.db.ExecContext(ctx, r.db.Rebind(`
			INSERT INTO streaks (user_id, current_streak, longest_streak, last_day_key, version)
			VALUES (?, ?, ?, ?, 1)
			ON CONFLICT (user_id) DO NOTHING
		`), state.UserID, state.CurrentStreak, state.LongestStreak, state.LastDayKey)
	} else {
		result, err = r.db.ExecContext(ctx, r.db.Rebind(`
			UPDATE streaks SET
				current_streak = ?,
				longest_streak = ?,
				last_day_key = ?,
				version = version + 1,
				updated_at = CURRENT_TIMESTAMP
			WHERE user_id = ? AND version = ?
		`), state.CurrentStreak, state.LongestStreak, state.LastDayKey, state.UserID, state.Version)
	}
	if err != nil {
		return models.StreakState{}, fmt.Errorf("failed to save streak: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return models.StreakState{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return models.StreakState{}, fmt.Errorf("streak of user %d: %w", state.UserID, ErrConflict)
	}

	state.Version++
	return state, nil
}
