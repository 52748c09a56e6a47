package primitives

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// RoundCents rounds an amount half away from zero to two decimal places
func RoundCents(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// NonNegative returns amount, or zero when it is negative
func NonNegative(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// Units returns the number of whole billing units needed to cover quantity.
// A unit size of zero or less bills the quantity as-is.
func Units(quantity, unitSize decimal.Decimal) decimal.Decimal {
	if !unitSize.IsPositive() {
		return quantity
	}
	if !quantity.IsPositive() {
		return decimal.Zero
	}
	return quantity.Div(unitSize).Ceil()
}

// RoundVisits returns months/cycle rounded half up, never less than 1
func RoundVisits(months, cycle int) int {
	if cycle <= 0 {
		return 1
	}
	visits := int(decimal.NewFromInt(int64(months)).Div(decimal.NewFromInt(int64(cycle))).Round(0).IntPart())
	if visits < 1 {
		return 1
	}
	return visits
}

// Cents converts an amount to integer cents
func Cents(amount decimal.Decimal) int64 {
	return RoundCents(amount).Mul(hundred).IntPart()
}
