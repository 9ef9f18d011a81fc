package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/ieltsprep/pkg/models"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new repository instance
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, first_name, timezone, daily_target, goal_total,
	notification_enabled, notification_hour, created_at, updated_at`

// Get returns a user by ID
func (r *UserRepository) Get(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind("SELECT "+userColumns+" FROM users WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// Upsert creates the user or overwrites its settings
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (
			id, username, first_name, timezone, daily_target, goal_total,
			notification_enabled, notification_hour
		) VALUES (
			:id, :username, :first_name, :timezone, :daily_target, :goal_total,
			:notification_enabled, :notification_hour
		)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			timezone = excluded.timezone,
			daily_target = excluded.daily_target,
			goal_total = excluded.goal_total,
			notification_enabled = excluded.notification_enabled,
			notification_hour = excluded.notification_hour,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// ListNotifiable returns users that have reminders switched on
func (r *UserRepository) ListNotifiable(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users,
		r.db.Rebind("SELECT "+userColumns+" FROM users WHERE notification_enabled = ? ORDER BY id"), true)
	if err != nil {
		return nil, fmt.Errorf("failed to list users for notification: %w", err)
	}
	return users, nil
}
