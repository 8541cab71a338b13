package settlement

import (
	"context"
	"database/sql"
	"errors"

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

func (r *Repository) CreatePurchase(ctx context.Context, p *Purchase) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO purchases (id, buyer_id, partner_id, amount, coupon, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
	`, p.ID, p.BuyerID, p.PartnerID, p.Amount, p.Coupon, p.Status)
	return err
}

func (r *Repository) GetPurchase(ctx context.Context, id uuid.UUID) (*Purchase, error) {
	var p Purchase
	err := r.db.GetContext(ctx, &p, `SELECT * FROM purchases WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) ListPurchasesByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]Purchase, error) {
	purchases := []Purchase{}
	err := r.db.SelectContext(ctx, &purchases, `
		SELECT * FROM purchases
		WHERE buyer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, buyerID, limit, offset)
	return purchases, err
}

// lockPurchase takes the purchase row lock inside the transaction
func (r *Repository) lockPurchase(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Purchase, error) {
	var p Purchase
	err := tx.GetContext(ctx, &p, `SELECT * FROM purchases WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPurchaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// setPurchaseStatusTx is a conditional status write: the requested edge
// must walk the lattice forward (or bail out to rejected), and the
// update only succeeds if the row still carries the expected prior
// status, so racing transitions cannot overwrite each other.
func (r *Repository) setPurchaseStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, from, to PurchaseStatus) error {
	if to != PurchaseRejected && !CanAdvance(from, to) {
		return ErrInvalidTransition
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE purchases SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (r *Repository) createSettlementTx(ctx context.Context, tx *sqlx.Tx, s *Settlement) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO settlements (id, purchase_id, partner_id, amount, status, payment_ref, proof_ref, buyer_amount, fund_amount, platform_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, 0, now(), now())
	`, s.ID, s.PurchaseID, s.PartnerID, s.Amount, s.Status, s.PaymentRef, s.ProofRef)
	return err
}

func (r *Repository) GetSettlement(ctx context.Context, id uuid.UUID) (*Settlement, error) {
	var s Settlement
	err := r.db.GetContext(ctx, &s, `SELECT * FROM settlements WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettlementNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) GetSettlementByPaymentRef(ctx context.Context, paymentRef string) (*Settlement, error) {
	var s Settlement
	err := r.db.GetContext(ctx, &s, `SELECT * FROM settlements WHERE payment_ref = $1`, paymentRef)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettlementNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) GetSettlementByPurchase(ctx context.Context, purchaseID uuid.UUID) (*Settlement, error) {
	var s Settlement
	err := r.db.GetContext(ctx, &s, `SELECT * FROM settlements WHERE purchase_id = $1`, purchaseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettlementNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) lockSettlement(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Settlement, error) {
	var s Settlement
	err := tx.GetContext(ctx, &s, `SELECT * FROM settlements WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettlementNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) lockSettlementByPaymentRef(ctx context.Context, tx *sqlx.Tx, paymentRef string) (*Settlement, error) {
	var s Settlement
	err := tx.GetContext(ctx, &s, `SELECT * FROM settlements WHERE payment_ref = $1 FOR UPDATE`, paymentRef)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettlementNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) setSettlementStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, from, to SettlementStatus) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE settlements SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// setSettlementReleasedTx persists the split alongside the released flip
func (r *Repository) setSettlementReleasedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, split Split) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE settlements
		SET status = $1, buyer_amount = $2, fund_amount = $3, platform_amount = $4, updated_at = now()
		WHERE id = $5 AND status = $6
	`, SettlementReleased, split.Buyer, split.Fund, split.Platform, id, SettlementConfirmed)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInvalidTransition
	}
	return nil
}
