package fund

import (
	"sort"

	"github.com/google/uuid"
)

// Beneficiary is one candidate for a fund payout with its raw weight
// (content count for creators, released purchase count for buyers).
type Beneficiary struct {
	UserID uuid.UUID
	Type   BeneficiaryType
	Weight int64
}

// Share is the computed payout for one beneficiary.
type Share struct {
	UserID uuid.UUID
	Type   BeneficiaryType
	Amount int64
}

// SplitFund deterministically allocates the pool across beneficiaries
// proportionally to weight. Duplicate users are merged, zero weights
// are skipped, and ordering is stabilised (weight desc, then id) before
// flooring each share; the combined rounding remainder goes to the
// highest-weight beneficiary so the share sum equals the pool exactly.
func SplitFund(pool int64, beneficiaries []Beneficiary) []Share {
	if pool <= 0 {
		return nil
	}

	merged := make(map[uuid.UUID]*Beneficiary)
	var totalWeight int64
	for _, b := range beneficiaries {
		if b.Weight <= 0 {
			continue
		}
		if acc, ok := merged[b.UserID]; ok {
			acc.Weight += b.Weight
		} else {
			entry := b
			merged[b.UserID] = &entry
		}
		totalWeight += b.Weight
	}
	if totalWeight == 0 {
		return nil
	}

	ordered := make([]Beneficiary, 0, len(merged))
	for _, b := range merged {
		ordered = append(ordered, *b)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Weight != ordered[j].Weight {
			return ordered[i].Weight > ordered[j].Weight
		}
		return ordered[i].UserID.String() < ordered[j].UserID.String()
	})

	shares := make([]Share, 0, len(ordered))
	var assigned int64
	for _, b := range ordered {
		amount := pool * b.Weight / totalWeight
		assigned += amount
		shares = append(shares, Share{UserID: b.UserID, Type: b.Type, Amount: amount})
	}

	// Rounding remainder goes to the top-weighted beneficiary
	if remainder := pool - assigned; remainder > 0 && len(shares) > 0 {
		shares[0].Amount += remainder
	}

	// Zero-amount shares can appear when the pool is smaller than the
	// beneficiary count; they get no entry
	filtered := shares[:0]
	for _, s := range shares {
		if s.Amount > 0 {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
