package domain

import "math/bits"

// RoyaltyAmount computes the creator's cut of a sale: floor(price * rate / 100).
// The multiplication is widened to 128 bits so the full uint64 price range is
// safe. Truncation always favors the seller. rate must be within [0,100].
func RoyaltyAmount(price uint64, rate int) uint64 {
	if rate <= 0 || price == 0 {
		return 0
	}

	hi, lo := bits.Mul64(price, uint64(rate))
	quo, _ := bits.Div64(hi, lo, 100)
	return quo
}
