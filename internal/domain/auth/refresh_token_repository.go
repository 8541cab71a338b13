package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type RefreshTokenRecord struct {
	ID        uuid.UUID    `db:"id"`
	UserID    uuid.UUID    `db:"user_id"`
	TokenHash string       `db:"token_hash"`
	JTI       string       `db:"jti"`
	ExpiresAt time.Time    `db:"expires_at"`
	UsedAt    sql.NullTime `db:"used_at"`
	RevokedAt sql.NullTime `db:"revoked_at"`
	CreatedAt time.Time    `db:"created_at"`
}

type RefreshTokenRepository struct {
	db *sqlx.DB
}

func NewRefreshTokenRepository(db *sqlx.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, rec *RefreshTokenRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_refresh_tokens (id, user_id, token_hash, jti, expires_at, used_at, revoked_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NULL, NULL, now())
	`, rec.ID, rec.UserID, rec.TokenHash, rec.JTI, rec.ExpiresAt)
	return err
}

func (r *RefreshTokenRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*RefreshTokenRecord, error) {
	var rec RefreshTokenRecord
	err := r.db.GetContext(ctx, &rec, `
		SELECT id, user_id, token_hash, jti, expires_at, used_at, revoked_at, created_at
		FROM user_refresh_tokens
		WHERE token_hash = $1
	`, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidRefresh
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// MarkUsed flips used_at exactly once; a second caller gets ErrRefreshReused
func (r *RefreshTokenRepository) MarkUsed(ctx context.Context, tokenHash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE user_refresh_tokens SET used_at = now() WHERE token_hash = $1 AND used_at IS NULL`, tokenHash)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRefreshReused
	}
	return nil
}

func (r *RefreshTokenRepository) RevokeByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE user_refresh_tokens SET revoked_at = now() WHERE token_hash = $1 AND revoked_at IS NULL`, tokenHash)
	return err
}

func (r *RefreshTokenRepository) RevokeAllByUserID(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE user_refresh_tokens SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL`, userID)
	return err
}
