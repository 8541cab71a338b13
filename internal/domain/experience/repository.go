package experience

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Grant adds XP to a user and records a history entry in one
// transaction. The level only moves up, never down.
func (r *Repository) Grant(ctx context.Context, userID uuid.UUID, amount int64, source, description string) (*HistoryEntry, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current struct {
		XP    int64 `db:"xp"`
		Level int   `db:"level"`
	}
	err = tx.GetContext(ctx, &current,
		`SELECT xp, level FROM users WHERE id = $1 FOR UPDATE`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lock user: %w", err)
	}

	entry := HistoryEntry{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		XPBefore:    current.XP,
		XPAfter:     current.XP + amount,
		LevelBefore: current.Level,
		LevelAfter:  current.Level,
		Source:      source,
		Description: description,
		CreatedAt:   time.Now(),
	}
	if computed := LevelForXP(entry.XPAfter); computed > current.Level {
		entry.LevelAfter = computed
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET xp = $1, level = $2, updated_at = NOW() WHERE id = $3`,
		entry.XPAfter, entry.LevelAfter, userID)
	if err != nil {
		return nil, fmt.Errorf("update user xp: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO xp_history (id, user_id, amount, xp_before, xp_after, level_before, level_after, source, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, entry.UserID, entry.Amount, entry.XPBefore, entry.XPAfter,
		entry.LevelBefore, entry.LevelAfter, entry.Source, entry.Description, entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert xp history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &entry, nil
}

func (r *Repository) ListHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]HistoryEntry, error) {
	entries := []HistoryEntry{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, user_id, amount, xp_before, xp_after, level_before, level_after, source, description, created_at
		FROM xp_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list xp history: %w", err)
	}
	return entries, nil
}
