package cycle

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context) (*Config, error) {
	var cfg Config
	err := r.db.GetContext(ctx, &cfg, `SELECT * FROM cycle_config WHERE id = 1`)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// TryAdvanceCycle performs a cycle rollover iff the stored cycle_number
// still equals prevCycle. Among N concurrent callers exactly one wins
// the conditional write and performs the archive + score reset; the
// rest return advanced=false and simply re-read. Currency balances are
// never touched here.
func (r *Repository) TryAdvanceCycle(ctx context.Context, prevCycle int64, now time.Time) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE cycle_config
		SET cycle_number = cycle_number + 1, cycle_start = $1, updated_at = now()
		WHERE id = 1 AND cycle_number = $2
	`, now, prevCycle)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	if err := r.archiveAndResetScores(ctx, tx, prevCycle); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// TryAdvanceSeason performs a season rollover iff the stored
// season_number still equals prevSeason. It advances both counters,
// resets both windows and purges the ephemeral per-season aggregates.
func (r *Repository) TryAdvanceSeason(ctx context.Context, prevSeason int64, now time.Time) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var prevCycle int64
	err = tx.GetContext(ctx, &prevCycle, `SELECT cycle_number FROM cycle_config WHERE id = 1 AND season_number = $1 FOR UPDATE`, prevSeason)
	if err == sql.ErrNoRows {
		// Another caller already rolled the season
		return false, nil
	}
	if err != nil {
		return false, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE cycle_config
		SET season_number = season_number + 1, season_start = $1,
		    cycle_number = cycle_number + 1, cycle_start = $1,
		    updated_at = now()
		WHERE id = 1 AND season_number = $2
	`, now, prevSeason)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	if err := r.archiveAndResetScores(ctx, tx, prevCycle); err != nil {
		return false, err
	}

	// Per-season aggregates are ephemeral; all-time totals stay
	if _, err := tx.ExecContext(ctx, `UPDATE creator_profiles SET season_content_count = 0, updated_at = now() WHERE season_content_count <> 0`); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE partner_profiles SET season_sales = 0, updated_at = now() WHERE season_sales <> 0`); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// archiveAndResetScores snapshots the closing cycle's ranking and zeros
// pontuacao for everyone. Sementes balances are not touched.
func (r *Repository) archiveAndResetScores(ctx context.Context, tx *sqlx.Tx, closedCycle int64) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO ranking_archive (id, user_id, cycle_number, pontuacao, archived_at)
		SELECT gen_random_uuid(), id, $1, pontuacao, now()
		FROM users
		WHERE pontuacao > 0
	`, closedCycle); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET pontuacao = 0, updated_at = now() WHERE pontuacao <> 0`); err != nil {
		return err
	}
	return nil
}

func (r *Repository) SetPaused(ctx context.Context, paused bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE cycle_config SET paused = $1, updated_at = now() WHERE id = 1`, paused)
	return err
}

// ListArchive returns the archived ranking for one cycle
func (r *Repository) ListArchive(ctx context.Context, cycleNumber int64, limit int) ([]ArchiveEntry, error) {
	entries := []ArchiveEntry{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM ranking_archive
		WHERE cycle_number = $1
		ORDER BY pontuacao DESC
		LIMIT $2
	`, cycleNumber, limit)
	return entries, err
}
