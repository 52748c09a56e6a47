// Package primitives - Centralized pricing math
// Rule tables declare intent, not do math.
// All money arithmetic flows through these primitives.
package primitives

import "github.com/shopspring/decimal"

// PricingTier represents one block of stepped pricing
type PricingTier struct {
	UpTo     decimal.Decimal // Upper limit (zero = unlimited)
	UnitRate decimal.Decimal // Rate per unit in this block
}

// Unlimited reports whether the tier has no upper bound
func (t PricingTier) Unlimited() bool {
	return t.UpTo.IsZero()
}
