package fund_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/sementes/sementes-api/internal/domain/fund"
)

func TestSplitFundProportional(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	shares := fund.SplitFund(300, []fund.Beneficiary{
		{UserID: a, Type: fund.BeneficiaryCreator, Weight: 2},
		{UserID: b, Type: fund.BeneficiaryUser, Weight: 1},
	})

	if len(shares) != 2 {
		t.Fatalf("expected 2 shares, got %d", len(shares))
	}
	if shares[0].UserID != a || shares[0].Amount != 200 {
		t.Fatalf("top share = %+v, want user %s with 200", shares[0], a)
	}
	if shares[1].UserID != b || shares[1].Amount != 100 {
		t.Fatalf("second share = %+v, want user %s with 100", shares[1], b)
	}
}

func TestSplitFundSumEqualsPool(t *testing.T) {
	beneficiaries := []fund.Beneficiary{
		{UserID: uuid.New(), Type: fund.BeneficiaryCreator, Weight: 7},
		{UserID: uuid.New(), Type: fund.BeneficiaryCreator, Weight: 3},
		{UserID: uuid.New(), Type: fund.BeneficiaryUser, Weight: 5},
		{UserID: uuid.New(), Type: fund.BeneficiaryUser, Weight: 1},
	}

	for pool := int64(1); pool < 10000; pool += 97 {
		shares := fund.SplitFund(pool, beneficiaries)
		var sum int64
		for _, s := range shares {
			if s.Amount <= 0 {
				t.Fatalf("pool %d: non-positive share %+v", pool, s)
			}
			sum += s.Amount
		}
		if sum != pool {
			t.Fatalf("pool %d: shares sum to %d", pool, sum)
		}
	}
}

func TestSplitFundRemainderToTopWeight(t *testing.T) {
	top := uuid.New()
	shares := fund.SplitFund(100, []fund.Beneficiary{
		{UserID: top, Type: fund.BeneficiaryCreator, Weight: 2},
		{UserID: uuid.New(), Type: fund.BeneficiaryUser, Weight: 1},
		{UserID: uuid.New(), Type: fund.BeneficiaryUser, Weight: 1},
	})

	// 100/4 per weight unit: 50, 25, 25 exactly. Now force a remainder.
	if shares[0].UserID != top {
		t.Fatalf("expected top-weight beneficiary first")
	}

	shares = fund.SplitFund(101, []fund.Beneficiary{
		{UserID: top, Type: fund.BeneficiaryCreator, Weight: 2},
		{UserID: uuid.New(), Type: fund.BeneficiaryUser, Weight: 1},
		{UserID: uuid.New(), Type: fund.BeneficiaryUser, Weight: 1},
	})
	if shares[0].Amount != 51 {
		t.Fatalf("top share = %d, want 51 (floor 50 plus remainder 1)", shares[0].Amount)
	}
}

func TestSplitFundMergesDuplicates(t *testing.T) {
	dup := uuid.New()
	shares := fund.SplitFund(90, []fund.Beneficiary{
		{UserID: dup, Type: fund.BeneficiaryCreator, Weight: 1},
		{UserID: dup, Type: fund.BeneficiaryCreator, Weight: 1},
		{UserID: uuid.New(), Type: fund.BeneficiaryUser, Weight: 1},
	})

	if len(shares) != 2 {
		t.Fatalf("expected duplicates merged into 2 shares, got %d", len(shares))
	}
	if shares[0].UserID != dup || shares[0].Amount != 60 {
		t.Fatalf("merged share = %+v, want user %s with 60", shares[0], dup)
	}
}

func TestSplitFundSkipsZeroWeights(t *testing.T) {
	kept := uuid.New()
	shares := fund.SplitFund(100, []fund.Beneficiary{
		{UserID: uuid.New(), Type: fund.BeneficiaryUser, Weight: 0},
		{UserID: uuid.New(), Type: fund.BeneficiaryUser, Weight: -3},
		{UserID: kept, Type: fund.BeneficiaryCreator, Weight: 1},
	})

	if len(shares) != 1 || shares[0].UserID != kept || shares[0].Amount != 100 {
		t.Fatalf("shares = %+v, want single share of 100 for %s", shares, kept)
	}
}

func TestSplitFundDeterministicOrder(t *testing.T) {
	beneficiaries := []fund.Beneficiary{
		{UserID: uuid.New(), Type: fund.BeneficiaryUser, Weight: 1},
		{UserID: uuid.New(), Type: fund.BeneficiaryUser, Weight: 1},
		{UserID: uuid.New(), Type: fund.BeneficiaryCreator, Weight: 4},
	}

	first := fund.SplitFund(1001, beneficiaries)
	for i := 0; i < 50; i++ {
		again := fund.SplitFund(1001, beneficiaries)
		if len(again) != len(first) {
			t.Fatalf("run %d: share count changed", i)
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("run %d: share %d differs: %+v vs %+v", i, j, again[j], first[j])
			}
		}
	}
}

func TestSplitFundEmptyAndZeroPool(t *testing.T) {
	if shares := fund.SplitFund(0, []fund.Beneficiary{{UserID: uuid.New(), Weight: 1}}); shares != nil {
		t.Fatalf("zero pool should yield no shares, got %+v", shares)
	}
	if shares := fund.SplitFund(100, nil); shares != nil {
		t.Fatalf("no beneficiaries should yield no shares, got %+v", shares)
	}
}
