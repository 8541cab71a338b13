package profile

import (
	"context"
	"database/sql"
	"errors"

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

func (r *Repository) CreateCreator(ctx context.Context, p *CreatorProfile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO creator_profiles (id, user_id, bio, content_count, season_content_count, created_at, updated_at)
		VALUES ($1, $2, $3, 0, 0, now(), now())
	`, p.ID, p.UserID, p.Bio)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repository) CreatePartner(ctx context.Context, p *PartnerProfile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO partner_profiles (id, user_id, store_name, sales_total, season_sales, created_at, updated_at)
		VALUES ($1, $2, $3, 0, 0, now(), now())
	`, p.ID, p.UserID, p.StoreName)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repository) GetCreatorByUserID(ctx context.Context, userID uuid.UUID) (*CreatorProfile, error) {
	var p CreatorProfile
	err := r.db.GetContext(ctx, &p, `SELECT * FROM creator_profiles WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) GetPartnerByUserID(ctx context.Context, userID uuid.UUID) (*PartnerProfile, error) {
	var p PartnerProfile
	err := r.db.GetContext(ctx, &p, `SELECT * FROM partner_profiles WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PartnerExists is the existence check used at purchase submission.
// Partners are keyed by their user id everywhere outside this package;
// the profile's own id never leaves it.
func (r *Repository) PartnerExists(ctx context.Context, partnerUserID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM partner_profiles WHERE user_id = $1)`, partnerUserID)
	return exists, err
}

// RegisterContent bumps a creator's content counters. This is the
// activity signal the distribution engine weighs.
func (r *Repository) RegisterContent(ctx context.Context, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE creator_profiles
		SET content_count = content_count + 1,
		    season_content_count = season_content_count + 1,
		    last_content_at = now(),
		    updated_at = now()
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddSalesTx bumps a partner's sales aggregates inside the caller's
// transaction, keyed by the partner's user id
func (r *Repository) AddSalesTx(ctx context.Context, tx *sqlx.Tx, partnerUserID uuid.UUID, amount int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE partner_profiles
		SET sales_total = sales_total + $1,
		    season_sales = season_sales + $1,
		    updated_at = now()
		WHERE user_id = $2
	`, amount, partnerUserID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
