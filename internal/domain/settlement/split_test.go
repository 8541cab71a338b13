package settlement_test

import (
	"testing"

	"github.com/sementes/sementes-api/internal/domain/settlement"
)

func TestPayoutAmount(t *testing.T) {
	cases := []struct {
		name     string
		purchase int64
		rateBps  int64
		want     int64
	}{
		{"ten percent of 100.00", 10000, 1000, 1000},
		{"ten percent of 99.99 floors", 9999, 1000, 999},
		{"zero purchase", 0, 1000, 0},
		{"full rate", 5000, 10000, 5000},
		{"one centavo below threshold", 9, 1000, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := settlement.PayoutAmount(tc.purchase, tc.rateBps)
			if got != tc.want {
				t.Fatalf("PayoutAmount(%d, %d) = %d, want %d", tc.purchase, tc.rateBps, got, tc.want)
			}
		})
	}
}

func TestComputeSplit(t *testing.T) {
	// 50% buyer, 25% platform, remainder to the fund
	split := settlement.ComputeSplit(1000, 5000, 2500)
	if split.Buyer != 500 {
		t.Fatalf("buyer share = %d, want 500", split.Buyer)
	}
	if split.Platform != 250 {
		t.Fatalf("platform share = %d, want 250", split.Platform)
	}
	if split.Fund != 250 {
		t.Fatalf("fund share = %d, want 250", split.Fund)
	}
}

func TestComputeSplitRemainderGoesToFund(t *testing.T) {
	// 999 does not divide evenly: buyer and platform floor, the fund
	// absorbs the leftover centavos so the sum stays exact
	split := settlement.ComputeSplit(999, 5000, 2500)
	if split.Buyer != 499 {
		t.Fatalf("buyer share = %d, want 499", split.Buyer)
	}
	if split.Platform != 249 {
		t.Fatalf("platform share = %d, want 249", split.Platform)
	}
	if split.Fund != 251 {
		t.Fatalf("fund share = %d, want 251", split.Fund)
	}
	if split.Buyer+split.Platform+split.Fund != 999 {
		t.Fatalf("split does not sum to the amount")
	}
}

func TestComputeSplitAlwaysSumsExactly(t *testing.T) {
	for amount := int64(0); amount < 2000; amount++ {
		split := settlement.ComputeSplit(amount, 5000, 2500)
		if split.Buyer+split.Platform+split.Fund != amount {
			t.Fatalf("amount %d: split %+v does not sum", amount, split)
		}
		if split.Buyer < 0 || split.Platform < 0 || split.Fund < 0 {
			t.Fatalf("amount %d: negative share in %+v", amount, split)
		}
	}
}

func TestCanAdvance(t *testing.T) {
	cases := []struct {
		from, to settlement.PurchaseStatus
		want     bool
	}{
		{settlement.PurchaseSubmitted, settlement.PurchaseAwaitingSettlement, true},
		{settlement.PurchaseAwaitingSettlement, settlement.PurchaseSettlementPending, true},
		{settlement.PurchaseSettlementPending, settlement.PurchaseSettlementConfirmed, true},
		{settlement.PurchaseSettlementConfirmed, settlement.PurchaseCashbackReleased, true},
		// skipping a state
		{settlement.PurchaseSubmitted, settlement.PurchaseSettlementPending, false},
		// walking backwards
		{settlement.PurchaseSettlementConfirmed, settlement.PurchaseSubmitted, false},
		// out of a terminal state
		{settlement.PurchaseCashbackReleased, settlement.PurchaseSubmitted, false},
		{settlement.PurchaseRejected, settlement.PurchaseSubmitted, false},
	}
	for _, c := range cases {
		if got := settlement.CanAdvance(c.from, c.to); got != c.want {
			t.Errorf("CanAdvance(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}
