package cashback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const maxBatchSize = 500

// Ledger credits the redeemer inside the redemption transaction
type Ledger interface {
	CreditTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, referenceID, description string) error
}

type Service struct {
	repo    *Repository
	ledger  Ledger
	codeTTL time.Duration
}

func NewService(repo *Repository, ledger Ledger, codeTTL time.Duration) *Service {
	return &Service{repo: repo, ledger: ledger, codeTTL: codeTTL}
}

// GenerateCodes produces count unique single-use codes for a partner.
// Collisions are retried a bounded number of times per code; repeated
// collisions escalate the code length instead of looping forever.
func (s *Service) GenerateCodes(ctx context.Context, partnerID uuid.UUID, value int64, count int) ([]Code, error) {
	if value <= 0 {
		return nil, ErrInvalidValue
	}
	if count <= 0 || count > maxBatchSize {
		return nil, ErrInvalidCount
	}

	expiresAt := time.Now().Add(s.codeTTL)
	codes := make([]Code, 0, count)
	length := baseCodeLength

	for len(codes) < count {
		var inserted *Code
		for attempt := 0; attempt < collisionRetries; attempt++ {
			raw, err := generateCode(length)
			if err != nil {
				return nil, err
			}

			c := Code{
				ID:        uuid.New(),
				PartnerID: partnerID,
				Code:      raw,
				Value:     value,
				ExpiresAt: expiresAt,
			}
			err = s.repo.Insert(ctx, &c)
			if err == nil {
				inserted = &c
				break
			}
			if !errors.Is(err, ErrCodeCollision) {
				return nil, err
			}
		}

		if inserted == nil {
			if length >= maxCodeLength {
				return nil, ErrGenerationFailed
			}
			length = escalateLength(length)
			log.Warn().Int("length", length).Msg("cashback code collisions, escalating code length")
			continue
		}
		codes = append(codes, *inserted)
	}

	log.Info().Str("partner_id", partnerID.String()).Int("count", len(codes)).Int64("value", value).Msg("cashback codes generated")
	return codes, nil
}

// Redeem consumes a code and credits the redeemer in one transaction.
// A second attempt on the same code fails with ErrAlreadyUsed and
// leaves the balance unchanged.
func (s *Service) Redeem(ctx context.Context, codeID, userID uuid.UUID) (int64, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	c, err := s.repo.lockByID(ctx, tx, codeID)
	if err != nil {
		return 0, err
	}
	if c.Used {
		return 0, ErrAlreadyUsed
	}
	if time.Now().After(c.ExpiresAt) {
		return 0, ErrExpired
	}

	if err := s.repo.markRedeemedTx(ctx, tx, c.ID, userID); err != nil {
		return 0, err
	}

	ref := fmt.Sprintf("cashback_code:%s", c.ID)
	if err := s.ledger.CreditTx(ctx, tx, userID, c.Value, ref, "cashback code redemption"); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	log.Info().Str("code_id", c.ID.String()).Str("user_id", userID.String()).Int64("value", c.Value).Msg("cashback code redeemed")
	return c.Value, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Code, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPartner(ctx context.Context, partnerID uuid.UUID, limit, offset int) ([]Code, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByPartner(ctx, partnerID, limit, offset)
}

// UnusedCount reports how many of the partner's codes are still
// redeemable right now
func (s *Service) UnusedCount(ctx context.Context, partnerID uuid.UUID) (int, error) {
	return s.repo.CountUnused(ctx, partnerID, time.Now())
}
