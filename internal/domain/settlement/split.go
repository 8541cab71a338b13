package settlement

const bpsDenominator = 10000

// Split is the three-way division of a settlement amount. The shares
// always sum to exactly the settlement amount: buyer and platform are
// floored and the fund carries the combined remainder.
type Split struct {
	Buyer    int64
	Fund     int64
	Platform int64
}

// PayoutAmount computes the settlement owed for a purchase amount at
// the given rate in basis points, floored to whole centavos.
func PayoutAmount(purchaseAmount, rateBps int64) int64 {
	return purchaseAmount * rateBps / bpsDenominator
}

// ComputeSplit divides a settlement amount between the buyer cashback,
// the community fund and the platform. buyerBps and platformBps are the
// fixed shares; the fund takes whatever remains, including rounding
// leftovers, so Buyer+Fund+Platform == amount holds exactly.
func ComputeSplit(amount, buyerBps, platformBps int64) Split {
	buyer := amount * buyerBps / bpsDenominator
	platform := amount * platformBps / bpsDenominator
	return Split{
		Buyer:    buyer,
		Platform: platform,
		Fund:     amount - buyer - platform,
	}
}
