package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListTransactions(ctx, userID, limit, offset)
}

// Credit applies a positive balance change with an idempotency reference
func (s *Service) Credit(ctx context.Context, userID uuid.UUID, amount int64, txType TransactionType, referenceID, description string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if err := s.repo.Credit(ctx, userID, amount, txType, referenceID, description); err != nil {
		return err
	}
	log.Info().Str("user_id", userID.String()).Int64("amount", amount).Str("type", string(txType)).Str("reference_id", referenceID).Msg("sementes credit applied")
	return nil
}

// Debit applies a negative balance change with an idempotency reference
func (s *Service) Debit(ctx context.Context, userID uuid.UUID, amount int64, txType TransactionType, referenceID, description string) error {
	if amount <= 0 || referenceID == "" {
		return ErrInvalidAmount
	}
	if err := s.repo.Debit(ctx, userID, amount, txType, referenceID, description); err != nil {
		return err
	}
	log.Info().Str("user_id", userID.String()).Int64("amount", amount).Str("type", string(txType)).Str("reference_id", referenceID).Msg("sementes debit applied")
	return nil
}

// Donate moves sementes from one user to another. The generated
// donation id keys both ledger rows.
func (s *Service) Donate(ctx context.Context, fromID, toID uuid.UUID, amount int64, description string) (uuid.UUID, error) {
	if amount <= 0 {
		return uuid.Nil, ErrInvalidAmount
	}
	if fromID == toID {
		return uuid.Nil, ErrSelfDonation
	}

	donationID := uuid.New()
	ref := fmt.Sprintf("donation:%s", donationID)
	if err := s.repo.Transfer(ctx, fromID, toID, amount, TransactionTypeDonation, ref, description); err != nil {
		return uuid.Nil, err
	}

	log.Info().
		Str("from", fromID.String()).
		Str("to", toID.String()).
		Int64("amount", amount).
		Str("donation_id", donationID.String()).
		Msg("donation applied")
	return donationID, nil
}

// Adjust applies a signed admin balance correction, idempotent on the
// caller-supplied reference
func (s *Service) Adjust(ctx context.Context, userID uuid.UUID, amount int64, referenceID, description string) error {
	if amount > 0 {
		return s.Credit(ctx, userID, amount, TransactionTypeAdjustment, referenceID, description)
	}
	return s.Debit(ctx, userID, -amount, TransactionTypeAdjustment, referenceID, description)
}
