package cashback

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
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

// Insert stores a freshly generated code. A unique-violation on the
// code column surfaces as ErrCodeCollision so the generator can retry.
func (r *Repository) Insert(ctx context.Context, c *Code) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cashback_codes (id, partner_id, code, value, used, redeemed_by, expires_at)
		VALUES ($1, $2, $3, $4, false, NULL, $5)
	`, c.ID, c.PartnerID, c.Code, c.Value, c.ExpiresAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrCodeCollision
		}
		return err
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Code, error) {
	var c Code
	err := r.db.GetContext(ctx, &c, `SELECT * FROM cashback_codes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) ListByPartner(ctx context.Context, partnerID uuid.UUID, limit, offset int) ([]Code, error) {
	codes := []Code{}
	err := r.db.SelectContext(ctx, &codes, `
		SELECT * FROM cashback_codes
		WHERE partner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, partnerID, limit, offset)
	return codes, err
}

// lockByID takes the code row lock for the redemption transaction
func (r *Repository) lockByID(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Code, error) {
	var c Code
	err := tx.GetContext(ctx, &c, `SELECT * FROM cashback_codes WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// markRedeemedTx flips used exactly once; the conditional write means a
// concurrent redeemer cannot flip it twice even without the row lock
func (r *Repository) markRedeemedTx(ctx context.Context, tx *sqlx.Tx, id, userID uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE cashback_codes
		SET used = true, redeemed_by = $1, updated_at = now()
		WHERE id = $2 AND used = false
	`, userID, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlreadyUsed
	}
	return nil
}

// CountUnused backs the unused counter in the partner's code listing
func (r *Repository) CountUnused(ctx context.Context, partnerID uuid.UUID, at time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM cashback_codes
		WHERE partner_id = $1 AND used = false AND expires_at > $2
	`, partnerID, at)
	return count, err
}
