package fund

import (
	"time"

	"github.com/google/uuid"
)

// Fund is the pooled balance for one cycle. At most one undistributed
// fund exists per cycle (partial unique index); Distributed flips
// false→true exactly once.
type Fund struct {
	ID          uuid.UUID `db:"id" json:"id"`
	CycleNumber int64     `db:"cycle_number" json:"cycle_number"`
	Total       int64     `db:"total" json:"total"`
	Distributed bool      `db:"distributed" json:"distributed"`
	WindowStart time.Time `db:"window_start" json:"window_start"`
	WindowEnd   time.Time `db:"window_end" json:"window_end"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type BeneficiaryType string

const (
	BeneficiaryCreator BeneficiaryType = "creator"
	BeneficiaryUser    BeneficiaryType = "user"
)

// DistributionEntry records one beneficiary's share of a sealed fund
type DistributionEntry struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	FundID          uuid.UUID       `db:"fund_id" json:"fund_id"`
	BeneficiaryID   uuid.UUID       `db:"beneficiary_id" json:"beneficiary_id"`
	BeneficiaryType BeneficiaryType `db:"beneficiary_type" json:"beneficiary_type"`
	Amount          int64           `db:"amount" json:"amount"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}
