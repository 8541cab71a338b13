package settlement

import (
	"time"

	"github.com/google/uuid"
)

// PurchaseStatus is the forward-only purchase lattice. Rejected is
// reachable from any non-terminal state; cashback_released is terminal.
type PurchaseStatus string

const (
	PurchaseSubmitted           PurchaseStatus = "submitted"
	PurchaseAwaitingSettlement  PurchaseStatus = "awaiting_settlement"
	PurchaseSettlementPending   PurchaseStatus = "settlement_pending"
	PurchaseSettlementConfirmed PurchaseStatus = "settlement_confirmed"
	PurchaseCashbackReleased    PurchaseStatus = "cashback_released"
	PurchaseRejected            PurchaseStatus = "rejected"
)

// forwardTransitions encodes the legal forward edges of the lattice
var forwardTransitions = map[PurchaseStatus]PurchaseStatus{
	PurchaseSubmitted:           PurchaseAwaitingSettlement,
	PurchaseAwaitingSettlement:  PurchaseSettlementPending,
	PurchaseSettlementPending:   PurchaseSettlementConfirmed,
	PurchaseSettlementConfirmed: PurchaseCashbackReleased,
}

// CanAdvance reports whether from→to walks the lattice forward without
// skipping a state
func CanAdvance(from, to PurchaseStatus) bool {
	next, ok := forwardTransitions[from]
	return ok && next == to
}

// IsTerminal reports whether no further transition is legal
func IsTerminal(s PurchaseStatus) bool {
	return s == PurchaseCashbackReleased || s == PurchaseRejected
}

type SettlementStatus string

const (
	SettlementPending   SettlementStatus = "pending"
	SettlementConfirmed SettlementStatus = "confirmed"
	SettlementReleased  SettlementStatus = "released"
	SettlementRejected  SettlementStatus = "rejected"
)

// Purchase is immutable once confirmed; only the state machine moves it.
type Purchase struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	BuyerID   uuid.UUID      `db:"buyer_id" json:"buyer_id"`
	PartnerID uuid.UUID      `db:"partner_id" json:"partner_id"`
	Amount    int64          `db:"amount" json:"amount"`
	Coupon    *string        `db:"coupon" json:"coupon,omitempty"`
	Status    PurchaseStatus `db:"status" json:"status"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// Settlement is the partner payout owed for one purchase. Amount is
// purchase.amount × the settlement rate, computed once at creation and
// never recomputed. PaymentRef is the idempotency key the payment
// provider echoes back.
type Settlement struct {
	ID             uuid.UUID        `db:"id" json:"id"`
	PurchaseID     uuid.UUID        `db:"purchase_id" json:"purchase_id"`
	PartnerID      uuid.UUID        `db:"partner_id" json:"partner_id"`
	Amount         int64            `db:"amount" json:"amount"`
	Status         SettlementStatus `db:"status" json:"status"`
	PaymentRef     string           `db:"payment_ref" json:"payment_ref"`
	ProofRef       *string          `db:"proof_ref" json:"proof_ref,omitempty"`
	BuyerAmount    int64            `db:"buyer_amount" json:"buyer_amount"`
	FundAmount     int64            `db:"fund_amount" json:"fund_amount"`
	PlatformAmount int64            `db:"platform_amount" json:"platform_amount"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}
