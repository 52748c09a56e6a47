// Package primitives - Block pricing primitives
// Handles area pricing where the first block is billed at one rate
// and the remainder at another.
package primitives

import "github.com/shopspring/decimal"

// BlockCost computes the cost of quantity across stepped pricing tiers.
// Tiers must be ordered by UpTo; a zero UpTo absorbs everything remaining.
func BlockCost(quantity decimal.Decimal, tiers []PricingTier) decimal.Decimal {
	if !quantity.IsPositive() || len(tiers) == 0 {
		return decimal.Zero
	}

	total := decimal.Zero
	remaining := quantity
	previousLimit := decimal.Zero

	for _, tier := range tiers {
		if !remaining.IsPositive() {
			break
		}

		if tier.Unlimited() {
			total = total.Add(remaining.Mul(tier.UnitRate))
			remaining = decimal.Zero
			break
		}

		size := tier.UpTo.Sub(previousLimit)
		inTier := decimal.Min(remaining, size)
		total = total.Add(inTier.Mul(tier.UnitRate))
		remaining = remaining.Sub(inTier)
		previousLimit = tier.UpTo
	}

	// Quantity beyond a bounded final tier is billed at that tier's rate
	if remaining.IsPositive() {
		total = total.Add(remaining.Mul(tiers[len(tiers)-1].UnitRate))
	}

	return total
}

// TwoBlock builds the common first-block/remainder tier pair
func TwoBlock(firstBlock, firstRate, additionalRate decimal.Decimal) []PricingTier {
	return []PricingTier{
		{UpTo: firstBlock, UnitRate: firstRate},
		{UnitRate: additionalRate},
	}
}
