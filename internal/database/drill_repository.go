package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/ieltsprep/pkg/models"
)

// DrillRepository handles database operations for drills and their schedule
type DrillRepository struct {
	db *sqlx.DB
}

// NewDrillRepository creates a new repository instance
func NewDrillRepository(db *sqlx.DB) *DrillRepository {
	return &DrillRepository{db: db}
}

const drillColumns = `id, user_id, module, prompt, answer, notes, interval_days, repetition, ease,
	due, last_grade, last_review, review_count, created_at, updated_at`

// Get returns one drill of a user
func (r *DrillRepository) Get(ctx context.Context, userID int64, id string) (*models.Drill, error) {
	var drill models.Drill
	query := r.db.Rebind("SELECT " + drillColumns + " FROM drills WHERE user_id = ? AND id = ?")
	err := r.db.GetContext(ctx, &drill, query, userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("drill %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get drill: %w", err)
	}
	return &drill, nil
}

// Upsert inserts the drill or replaces its content and schedule
func (r *DrillRepository) Upsert(ctx context.Context, drill *models.Drill) error {
	query := `
		INSERT INTO drills (
			id, user_id, module, prompt, answer, notes, interval_days, repetition, ease,
			due, last_grade, last_review, review_count
		) VALUES (
			:id, :user_id, :module, :prompt, :answer, :notes, :interval_days, :repetition, :ease,
			:due, :last_grade, :last_review, :review_count
		)
		ON CONFLICT (user_id, id) DO UPDATE SET
			module = excluded.module,
			prompt = excluded.prompt,
			answer = excluded.answer,
			notes = excluded.notes,
			interval_days = excluded.interval_days,
			repetition = excluded.repetition,
			ease = excluded.ease,
			due = excluded.due,
			last_grade = excluded.last_grade,
			last_review = excluded.last_review,
			review_count = excluded.review_count,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := r.db.NamedExecContext(ctx, query, drill); err != nil {
		return fmt.Errorf("failed to upsert drill: %w", err)
	}
	return nil
}

// ListDue returns the user's drills due on or before asOfDay (YYYY-MM-DD)
func (r *DrillRepository) ListDue(ctx context.Context, userID int64, asOfDay string) ([]models.Drill, error) {
	var drills []models.Drill
	query := r.db.Rebind("SELECT " + drillColumns + " FROM drills WHERE user_id = ? AND due <= ? ORDER BY due ASC, ease ASC")
	if err := r.db.SelectContext(ctx, &drills, query, userID, asOfDay); err != nil {
		return nil, fmt.Errorf("failed to get due drills: %w", err)
	}
	return drills, nil
}

// ListByUser returns all drills of a user
func (r *DrillRepository) ListByUser(ctx context.Context, userID int64) ([]models.Drill, error) {
	var drills []models.Drill
	query := r.db.Rebind("SELECT " + drillColumns + " FROM drills WHERE user_id = ? ORDER BY created_at ASC, id ASC")
	if err := r.db.SelectContext(ctx, &drills, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get drills: %w", err)
	}
	return drills, nil
}

// CountDue returns how many drills are due on or before asOfDay
func (r *DrillRepository) CountDue(ctx context.Context, userID int64, asOfDay string) (int, error) {
	var count int
	query := r.db.Rebind("SELECT COUNT(*) FROM drills WHERE user_id = ? AND due <= ?")
	if err := r.db.GetContext(ctx, &count, query, userID, asOfDay); err != nil {
		return 0, fmt.Errorf("failed to count due drills: %w", err)
	}
	return count, nil
}
