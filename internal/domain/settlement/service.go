package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/sementes/sementes-api/internal/pkg/storage"
)

// BuyerLedger credits the buyer's sementes balance and ranking score
// inside the release transaction.
type BuyerLedger interface {
	CreditTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, referenceID, description string) error
	AddScoreTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, points int64) error
}

// FundContributor accumulates the fund share of a released settlement.
type FundContributor interface {
	ContributeTx(ctx context.Context, tx *sqlx.Tx, cycleNumber int64, windowStart, windowEnd time.Time, amount int64) error
}

// PartnerDirectory resolves partners and tracks their sales aggregates.
type PartnerDirectory interface {
	PartnerExists(ctx context.Context, partnerID uuid.UUID) (bool, error)
	AddSalesTx(ctx context.Context, tx *sqlx.Tx, partnerID uuid.UUID, amount int64) error
}

// CycleWindow is the active cycle as reported by the cycle controller.
type CycleWindow struct {
	Number int64
	Start  time.Time
	End    time.Time
}

// CycleClock reports the active cycle, performing lazy rollover if due.
type CycleClock interface {
	Current(ctx context.Context) (CycleWindow, error)
}

// XPGranter awards experience points outside the money transaction.
type XPGranter interface {
	Grant(ctx context.Context, userID uuid.UUID, amount int64, source, description string) error
}

// Rates carries the fixed settlement economics. All values are basis
// points of 10000.
type Rates struct {
	SettlementBps int64
	BuyerBps      int64
	PlatformBps   int64
}

type Service struct {
	repo     *Repository
	ledger   BuyerLedger
	fund     FundContributor
	partners PartnerDirectory
	cycles   CycleClock
	xp       XPGranter
	proofs   storage.ProofStorage
	rates    Rates
}

func NewService(repo *Repository, ledger BuyerLedger, fund FundContributor, partners PartnerDirectory, cycles CycleClock, xp XPGranter, proofs storage.ProofStorage, rates Rates) *Service {
	return &Service{
		repo:     repo,
		ledger:   ledger,
		fund:     fund,
		partners: partners,
		cycles:   cycles,
		xp:       xp,
		proofs:   proofs,
		rates:    rates,
	}
}

// SubmitPurchase creates a purchase in the submitted state
func (s *Service) SubmitPurchase(ctx context.Context, buyerID, partnerID uuid.UUID, amount int64, coupon *string) (*Purchase, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	exists, err := s.partners.PartnerExists(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrPartnerNotFound
	}

	p := &Purchase{
		ID:        uuid.New(),
		BuyerID:   buyerID,
		PartnerID: partnerID,
		Amount:    amount,
		Coupon:    coupon,
		Status:    PurchaseSubmitted,
	}
	if err := s.repo.CreatePurchase(ctx, p); err != nil {
		return nil, err
	}

	log.Info().Str("purchase_id", p.ID.String()).Int64("amount", amount).Msg("purchase submitted")
	return p, nil
}

// RequestSettlement moves a submitted purchase into settlement_pending
// and creates the settlement row. The payout amount is computed here,
// once, and is immutable afterwards.
func (s *Service) RequestSettlement(ctx context.Context, purchaseID uuid.UUID, proofRef string) (*Settlement, error) {
	if proofRef != "" && s.proofs != nil {
		uploaded, err := s.proofs.Exists(ctx, proofRef)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProofCheckFailed, err)
		}
		if !uploaded {
			return nil, ErrProofNotUploaded
		}
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p, err := s.repo.lockPurchase(ctx, tx, purchaseID)
	if err != nil {
		return nil, err
	}
	if p.Status != PurchaseSubmitted {
		return nil, ErrInvalidTransition
	}

	// Walk the lattice forward one edge at a time
	if err := s.repo.setPurchaseStatusTx(ctx, tx, p.ID, PurchaseSubmitted, PurchaseAwaitingSettlement); err != nil {
		return nil, err
	}
	if err := s.repo.setPurchaseStatusTx(ctx, tx, p.ID, PurchaseAwaitingSettlement, PurchaseSettlementPending); err != nil {
		return nil, err
	}

	st := &Settlement{
		ID:         uuid.New(),
		PurchaseID: p.ID,
		PartnerID:  p.PartnerID,
		Amount:     PayoutAmount(p.Amount, s.rates.SettlementBps),
		Status:     SettlementPending,
		PaymentRef: uuid.New().String(),
	}
	if proofRef != "" {
		st.ProofRef = &proofRef
	}
	if err := s.repo.createSettlementTx(ctx, tx, st); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Info().
		Str("purchase_id", p.ID.String()).
		Str("settlement_id", st.ID.String()).
		Str("payment_ref", st.PaymentRef).
		Int64("amount", st.Amount).
		Msg("settlement requested")
	return st, nil
}

// ConfirmSettlement processes a payment confirmation. Idempotent on
// paymentRef: a settlement that is already confirmed or released is
// returned as-is with no further effect, so at-least-once webhook
// delivery never double-credits.
func (s *Service) ConfirmSettlement(ctx context.Context, paymentRef string, amount int64) (*Settlement, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	st, err := s.repo.lockSettlementByPaymentRef(ctx, tx, paymentRef)
	if err != nil {
		return nil, err
	}

	switch st.Status {
	case SettlementConfirmed, SettlementReleased:
		// Duplicate delivery
		return st, nil
	case SettlementRejected:
		return nil, ErrAlreadyRejected
	}

	if amount > 0 && amount != st.Amount {
		return nil, ErrAmountMismatch
	}

	if err := s.repo.setSettlementStatusTx(ctx, tx, st.ID, SettlementPending, SettlementConfirmed); err != nil {
		return nil, err
	}
	if err := s.repo.setPurchaseStatusTx(ctx, tx, st.PurchaseID, PurchaseSettlementPending, PurchaseSettlementConfirmed); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	st.Status = SettlementConfirmed
	log.Info().Str("settlement_id", st.ID.String()).Str("payment_ref", paymentRef).Msg("settlement confirmed")
	return st, nil
}

// FailSettlement rejects a pending settlement after the provider
// reported a failed payment
func (s *Service) FailSettlement(ctx context.Context, paymentRef string) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	st, err := s.repo.lockSettlementByPaymentRef(ctx, tx, paymentRef)
	if err != nil {
		return err
	}
	if st.Status != SettlementPending {
		return ErrInvalidTransition
	}

	if err := s.repo.setSettlementStatusTx(ctx, tx, st.ID, SettlementPending, SettlementRejected); err != nil {
		return err
	}
	if err := s.repo.setPurchaseStatusTx(ctx, tx, st.PurchaseID, PurchaseSettlementPending, PurchaseRejected); err != nil {
		return err
	}

	return tx.Commit()
}

// ReleaseCashback splits a confirmed settlement and applies all effects
// in one transaction: buyer credit, fund contribution, partner sales
// bump and the terminal status flip. A failure anywhere rolls the whole
// release back.
func (s *Service) ReleaseCashback(ctx context.Context, settlementID uuid.UUID) (*Settlement, error) {
	// Resolving the cycle first also triggers lazy rollover, so the
	// contribution lands in the window it belongs to.
	window, err := s.cycles.Current(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	st, err := s.repo.lockSettlement(ctx, tx, settlementID)
	if err != nil {
		return nil, err
	}
	switch st.Status {
	case SettlementReleased:
		return nil, ErrAlreadyReleased
	case SettlementConfirmed:
	default:
		return nil, ErrInvalidTransition
	}

	p, err := s.repo.lockPurchase(ctx, tx, st.PurchaseID)
	if err != nil {
		return nil, err
	}

	split := ComputeSplit(st.Amount, s.rates.BuyerBps, s.rates.PlatformBps)

	cashbackRef := fmt.Sprintf("settlement:%s:cashback", st.ID)
	if split.Buyer > 0 {
		if err := s.ledger.CreditTx(ctx, tx, p.BuyerID, split.Buyer, cashbackRef, "cashback from partner purchase"); err != nil {
			return nil, err
		}
	}
	if split.Fund > 0 {
		if err := s.fund.ContributeTx(ctx, tx, window.Number, window.Start, window.End, split.Fund); err != nil {
			return nil, err
		}
	}
	if err := s.partners.AddSalesTx(ctx, tx, st.PartnerID, p.Amount); err != nil {
		return nil, err
	}
	if points := p.Amount / 100; points > 0 {
		if err := s.ledger.AddScoreTx(ctx, tx, p.BuyerID, points); err != nil {
			return nil, err
		}
	}

	if err := s.repo.setSettlementReleasedTx(ctx, tx, st.ID, split); err != nil {
		return nil, err
	}
	if err := s.repo.setPurchaseStatusTx(ctx, tx, p.ID, PurchaseSettlementConfirmed, PurchaseCashbackReleased); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	st.Status = SettlementReleased
	st.BuyerAmount = split.Buyer
	st.FundAmount = split.Fund
	st.PlatformAmount = split.Platform

	log.Info().
		Str("settlement_id", st.ID.String()).
		Int64("buyer", split.Buyer).
		Int64("fund", split.Fund).
		Int64("platform", split.Platform).
		Msg("cashback released")

	// XP is its own atomic operation; a failure here never claws back money
	if s.xp != nil {
		if xpAmount := st.Amount / 100; xpAmount > 0 {
			if err := s.xp.Grant(ctx, p.BuyerID, xpAmount, "purchase", "cashback released for purchase"); err != nil {
				log.Error().Err(err).Str("user_id", p.BuyerID.String()).Msg("failed to grant purchase XP")
			}
		}
	}

	return st, nil
}

// RejectPurchase moves any non-terminal purchase (and its settlement,
// if one exists) to rejected
func (s *Service) RejectPurchase(ctx context.Context, purchaseID uuid.UUID) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	p, err := s.repo.lockPurchase(ctx, tx, purchaseID)
	if err != nil {
		return err
	}
	if IsTerminal(p.Status) {
		return ErrInvalidTransition
	}

	if err := s.repo.setPurchaseStatusTx(ctx, tx, p.ID, p.Status, PurchaseRejected); err != nil {
		return err
	}

	st, err := s.repo.GetSettlementByPurchase(ctx, p.ID)
	if err != nil && !errors.Is(err, ErrSettlementNotFound) {
		return err
	}
	if st != nil && (st.Status == SettlementPending || st.Status == SettlementConfirmed) {
		if err := s.repo.setSettlementStatusTx(ctx, tx, st.ID, st.Status, SettlementRejected); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Service) GetPurchase(ctx context.Context, id uuid.UUID) (*Purchase, error) {
	return s.repo.GetPurchase(ctx, id)
}

func (s *Service) GetSettlement(ctx context.Context, id uuid.UUID) (*Settlement, error) {
	return s.repo.GetSettlement(ctx, id)
}

func (s *Service) ListPurchasesByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]Purchase, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListPurchasesByBuyer(ctx, buyerID, limit, offset)
}

// CreateProofUpload issues a pre-signed upload slot for a payment proof
func (s *Service) CreateProofUpload(ctx context.Context, partnerID uuid.UUID, contentType string) (key, url string, err error) {
	if s.proofs == nil {
		return "", "", ErrProofsDisabled
	}
	key = fmt.Sprintf("proofs/%s/%s", partnerID, uuid.New())
	url, err = s.proofs.PresignPut(ctx, key, contentType, 15*time.Minute)
	if err != nil {
		return "", "", err
	}
	return key, url, nil
}
