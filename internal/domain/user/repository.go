package user

import (
	"bytes"
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

func (r *Repository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

func (r *Repository) Create(ctx context.Context, u *User) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, sementes, pontuacao, xp, level, created_at, updated_at)
		VALUES (:id, :email, :password_hash, :name, :role, 0, 0, 0, 1, now(), now())
	`, u)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var balance int64
	err := r.db.GetContext(ctx, &balance, `SELECT sementes FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return balance, err
}

func (r *Repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error) {
	txs := []Transaction{}
	err := r.db.SelectContext(ctx, &txs, `
		SELECT id, user_id, amount, type, reference_id, description, created_at
		FROM sementes_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return txs, err
}

// lockBalance takes the wallet row lock for the duration of the transaction
func (r *Repository) lockBalance(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (int64, error) {
	var balance int64
	err := tx.GetContext(ctx, &balance, `SELECT sementes FROM users WHERE id = $1 FOR UPDATE`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return balance, err
}

func (r *Repository) getTransactionAmountByRef(ctx context.Context, tx *sqlx.Tx, txType TransactionType, referenceID string) (int64, bool, error) {
	if referenceID == "" {
		return 0, false, nil
	}

	var amount int64
	err := tx.GetContext(ctx, &amount, `
		SELECT amount
		FROM sementes_transactions
		WHERE type = $1 AND reference_id = $2
		LIMIT 1
	`, string(txType), referenceID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return amount, true, nil
}

// insertTransaction writes the ledger row. ON CONFLICT DO NOTHING keeps
// the caller's transaction usable after losing the insert race on the
// unique (type, reference_id) index, where a raised 23505 would abort it.
func (r *Repository) insertTransaction(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, txType TransactionType, referenceID, description string) error {
	var ref interface{}
	if referenceID == "" {
		ref = nil
	} else {
		ref = referenceID
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO sementes_transactions (id, user_id, amount, type, reference_id, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (type, reference_id) WHERE reference_id IS NOT NULL DO NOTHING
	`, uuid.New(), userID, amount, string(txType), ref, description)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrDuplicateReference
	}
	return nil
}

// ApplyTx applies a signed balance change inside the caller's transaction.
// Idempotent on (type, referenceID): replaying the same reference with the
// same amount is a no-op, a different amount is a conflict.
func (r *Repository) ApplyTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, txType TransactionType, referenceID, description string) error {
	balance, err := r.lockBalance(ctx, tx, userID)
	if err != nil {
		return err
	}

	existingAmount, exists, err := r.getTransactionAmountByRef(ctx, tx, txType, referenceID)
	if err != nil {
		return err
	}
	if exists {
		if existingAmount != amount {
			return ErrReferenceConflict
		}
		return nil
	}

	nextBalance := balance + amount
	if nextBalance < 0 {
		return ErrInsufficientFunds
	}

	// The ledger row goes in before the balance moves. If the insert
	// loses the race on the unique reference, the balance in the
	// caller's still-open transaction is untouched, so the no-op return
	// cannot commit a credit without its ledger row.
	if err := r.insertTransaction(ctx, tx, userID, amount, txType, referenceID, description); err != nil {
		if errors.Is(err, ErrDuplicateReference) {
			existingAmount, exists, checkErr := r.getTransactionAmountByRef(ctx, tx, txType, referenceID)
			if checkErr != nil {
				return checkErr
			}
			if !exists || existingAmount != amount {
				return ErrReferenceConflict
			}
			return nil
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET sementes = $1, updated_at = now() WHERE id = $2`, nextBalance, userID); err != nil {
		return err
	}

	return nil
}

// CreditTx credits inside the caller's transaction
func (r *Repository) CreditTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, txType TransactionType, referenceID, description string) error {
	return r.ApplyTx(ctx, tx, userID, amount, txType, referenceID, description)
}

// DebitTx debits inside the caller's transaction
func (r *Repository) DebitTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, txType TransactionType, referenceID, description string) error {
	return r.ApplyTx(ctx, tx, userID, -amount, txType, referenceID, description)
}

// AddScoreTx bumps pontuacao inside the caller's transaction. Scores are
// ranking state, not currency, so no ledger entry is written.
func (r *Repository) AddScoreTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, points int64) error {
	_, err := tx.ExecContext(ctx, `UPDATE users SET pontuacao = pontuacao + $1, updated_at = now() WHERE id = $2`, points, userID)
	return err
}

func (r *Repository) apply(ctx context.Context, userID uuid.UUID, amount int64, txType TransactionType, referenceID, description string) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.ApplyTx(ctx, tx, userID, amount, txType, referenceID, description); err != nil {
		return err
	}

	return tx.Commit()
}

// Credit credits in its own transaction
func (r *Repository) Credit(ctx context.Context, userID uuid.UUID, amount int64, txType TransactionType, referenceID, description string) error {
	return r.apply(ctx, userID, amount, txType, referenceID, description)
}

// Transfer moves sementes between two users in one transaction. Both
// wallet rows are locked up front in id order so opposing transfers
// cannot deadlock. Each side gets its own ledger row, keyed off the
// shared reference.
func (r *Repository) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount int64, txType TransactionType, referenceID, description string) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	first, second := fromID, toID
	if bytes.Compare(second[:], first[:]) < 0 {
		first, second = second, first
	}
	if _, err := r.lockBalance(ctx, tx, first); err != nil {
		return err
	}
	if _, err := r.lockBalance(ctx, tx, second); err != nil {
		return err
	}

	if err := r.ApplyTx(ctx, tx, fromID, -amount, txType, referenceID+":sent", description); err != nil {
		return err
	}
	if err := r.ApplyTx(ctx, tx, toID, amount, txType, referenceID+":received", description); err != nil {
		return err
	}

	return tx.Commit()
}

// Debit debits in its own transaction
func (r *Repository) Debit(ctx context.Context, userID uuid.UUID, amount int64, txType TransactionType, referenceID, description string) error {
	return r.apply(ctx, userID, -amount, txType, referenceID, description)
}
