package fund

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Ledger credits beneficiaries inside the distribution transaction
type Ledger interface {
	CreditTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, referenceID, description string) error
}

// CycleWindow is the active cycle as reported by the cycle controller
type CycleWindow struct {
	Number int64
	Start  time.Time
	End    time.Time
}

// CycleClock reports the active cycle, performing lazy rollover if due
type CycleClock interface {
	Current(ctx context.Context) (CycleWindow, error)
}

type Service struct {
	repo   *Repository
	ledger Ledger
	cycles CycleClock
}

func NewService(repo *Repository, ledger Ledger, cycles CycleClock) *Service {
	return &Service{repo: repo, ledger: ledger, cycles: cycles}
}

// PendingTotal reads the accumulated total of the active cycle's fund
func (s *Service) PendingTotal(ctx context.Context) (int64, int64, error) {
	window, err := s.cycles.Current(ctx)
	if err != nil {
		return 0, 0, err
	}
	total, err := s.repo.PendingTotal(ctx, window.Number)
	if err != nil {
		return 0, 0, err
	}
	return window.Number, total, nil
}

// DistributionResult summarises one successful distribution run
type DistributionResult struct {
	FundID      uuid.UUID `json:"fund_id"`
	CycleNumber int64     `json:"cycle_number"`
	Total       int64     `json:"total"`
	Entries     int       `json:"entries"`
}

// Distribute seals and distributes the oldest open fund exactly once.
// Everything runs in one transaction behind the fund row lock and the
// conditional distributed flip, so of N concurrent invocations exactly
// one performs the payout and the rest observe ErrAlreadyDistributed
// or ErrNoOpenFund. A trigger arriving after a cycle boundary rolls
// the clock first and then pays the completed cycle's fund; the active
// cycle's fund waits for the next trigger.
func (s *Service) Distribute(ctx context.Context) (*DistributionResult, error) {
	// Roll the clock first so contributions racing with this run land
	// in the new cycle's fund, not the one being sealed.
	if _, err := s.cycles.Current(ctx); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	f, err := s.repo.lockOldestOpenFund(ctx, tx)
	if err != nil {
		return nil, err
	}

	// The flip is the mutual-exclusion gate; losers of the row lock see
	// distributed=true here and stop.
	if err := s.repo.sealTx(ctx, tx, f.ID); err != nil {
		return nil, err
	}

	creators, err := s.repo.activeCreators(ctx, tx, f.WindowStart, f.WindowEnd)
	if err != nil {
		return nil, err
	}
	buyers, err := s.repo.activeBuyers(ctx, tx, f.WindowStart, f.WindowEnd)
	if err != nil {
		return nil, err
	}

	shares := SplitFund(f.Total, append(creators, buyers...))
	if len(shares) == 0 {
		// Nothing to pay out; leave the fund open for a later attempt
		return nil, ErrNoBeneficiaries
	}

	for _, share := range shares {
		entry := &DistributionEntry{
			ID:              uuid.New(),
			FundID:          f.ID,
			BeneficiaryID:   share.UserID,
			BeneficiaryType: share.Type,
			Amount:          share.Amount,
		}
		if err := s.repo.insertEntryTx(ctx, tx, entry); err != nil {
			return nil, err
		}

		ref := fmt.Sprintf("fund:%s:%s", f.ID, share.UserID)
		if err := s.ledger.CreditTx(ctx, tx, share.UserID, share.Amount, ref, "community fund distribution"); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Info().
		Str("fund_id", f.ID.String()).
		Int64("cycle", f.CycleNumber).
		Int64("total", f.Total).
		Int("entries", len(shares)).
		Msg("fund distributed")

	return &DistributionResult{
		FundID:      f.ID,
		CycleNumber: f.CycleNumber,
		Total:       f.Total,
		Entries:     len(shares),
	}, nil
}

func (s *Service) ListEntries(ctx context.Context, fundID uuid.UUID) ([]DistributionEntry, error) {
	return s.repo.ListEntries(ctx, fundID)
}
