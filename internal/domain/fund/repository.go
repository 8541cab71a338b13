package fund

import (
	"context"
	"database/sql"
	"errors"
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

func (r *Repository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// ContributeTx adds to the cycle's open fund inside the caller's
// transaction, creating the fund lazily on the first contribution of
// the cycle. The partial unique index on (cycle_number) where not
// distributed makes the upsert race-safe.
func (r *Repository) ContributeTx(ctx context.Context, tx *sqlx.Tx, cycleNumber int64, windowStart, windowEnd time.Time, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO funds (id, cycle_number, total, distributed, window_start, window_end)
		VALUES ($1, $2, $3, false, $4, $5)
		ON CONFLICT (cycle_number) WHERE NOT distributed
		DO UPDATE SET total = funds.total + EXCLUDED.total, updated_at = now()
	`, uuid.New(), cycleNumber, amount, windowStart, windowEnd)
	return err
}

// PendingTotal reads the accumulated total of the cycle's open fund
func (r *Repository) PendingTotal(ctx context.Context, cycleNumber int64) (int64, error) {
	var total int64
	err := r.db.GetContext(ctx, &total, `
		SELECT total FROM funds WHERE cycle_number = $1 AND NOT distributed
	`, cycleNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return total, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Fund, error) {
	var f Fund
	err := r.db.GetContext(ctx, &f, `SELECT * FROM funds WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoOpenFund
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// lockOldestOpenFund takes the row lock on the oldest undistributed
// fund, serialising concurrent distribution attempts. Picking the
// oldest means a fund left over from a completed cycle is paid out
// before the active cycle's fund, so rollover never strands money.
func (r *Repository) lockOldestOpenFund(ctx context.Context, tx *sqlx.Tx) (*Fund, error) {
	var f Fund
	err := tx.GetContext(ctx, &f, `
		SELECT * FROM funds WHERE NOT distributed
		ORDER BY cycle_number
		LIMIT 1
		FOR UPDATE
	`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoOpenFund
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// sealTx flips distributed false→true. The conditional write is the
// single mutual-exclusion gate: only one caller can win it.
func (r *Repository) sealTx(ctx context.Context, tx *sqlx.Tx, fundID uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE funds SET distributed = true, updated_at = now()
		WHERE id = $1 AND distributed = false
	`, fundID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlreadyDistributed
	}
	return nil
}

func (r *Repository) insertEntryTx(ctx context.Context, tx *sqlx.Tx, e *DistributionEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO distribution_entries (id, fund_id, beneficiary_id, beneficiary_type, amount)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ID, e.FundID, e.BeneficiaryID, e.BeneficiaryType, e.Amount)
	return err
}

func (r *Repository) ListEntries(ctx context.Context, fundID uuid.UUID) ([]DistributionEntry, error) {
	entries := []DistributionEntry{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM distribution_entries WHERE fund_id = $1 ORDER BY amount DESC, beneficiary_id
	`, fundID)
	return entries, err
}

type weightRow struct {
	UserID uuid.UUID `db:"user_id"`
	Weight int64     `db:"weight"`
}

// activeCreators returns creators with published content inside the
// fund window, weighted by total content count
func (r *Repository) activeCreators(ctx context.Context, tx *sqlx.Tx, windowStart, windowEnd time.Time) ([]Beneficiary, error) {
	rows := []weightRow{}
	err := tx.SelectContext(ctx, &rows, `
		SELECT user_id, content_count AS weight
		FROM creator_profiles
		WHERE content_count > 0
		  AND last_content_at >= $1 AND last_content_at < $2
	`, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	out := make([]Beneficiary, 0, len(rows))
	for _, row := range rows {
		out = append(out, Beneficiary{UserID: row.UserID, Type: BeneficiaryCreator, Weight: row.Weight})
	}
	return out, nil
}

// activeBuyers returns users whose purchases were released inside the
// fund window, weighted by purchase count
func (r *Repository) activeBuyers(ctx context.Context, tx *sqlx.Tx, windowStart, windowEnd time.Time) ([]Beneficiary, error) {
	rows := []weightRow{}
	err := tx.SelectContext(ctx, &rows, `
		SELECT buyer_id AS user_id, COUNT(*) AS weight
		FROM purchases
		WHERE status = 'cashback_released'
		  AND updated_at >= $1 AND updated_at < $2
		GROUP BY buyer_id
	`, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	out := make([]Beneficiary, 0, len(rows))
	for _, row := range rows {
		out = append(out, Beneficiary{UserID: row.UserID, Type: BeneficiaryUser, Weight: row.Weight})
	}
	return out, nil
}
