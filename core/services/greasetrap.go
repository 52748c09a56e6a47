package services

import (
	"github.com/shopspring/decimal"

	"cleanquote/core/frequency"
	"cleanquote/core/pricing"
)

// GreaseTrapID identifies the grease trap pumping service
const GreaseTrapID = "greasetrap"

// GreaseTrap prices trap pump-outs plus hauled gallons. Frequent pumping
// lowers the per-trap rate; no installation applies.
func GreaseTrap() *pricing.Rules {
	return &pricing.Rules{
		ID:   GreaseTrapID,
		Name: "Grease Trap",
		Frequencies: []frequency.Frequency{
			frequency.OneTime, frequency.Weekly, frequency.Biweekly,
			frequency.Monthly, frequency.Bimonthly, frequency.Quarterly,
		},
		DefaultFrequency: frequency.Monthly,
		Tiers: tiers(map[string][]frequency.Frequency{
			"frequent": {frequency.Weekly, frequency.Biweekly},
		}),
		DefaultTier: pricing.DefaultTier,
		Components: []pricing.Component{
			{Label: "Traps", Quantity: "traps", Unit: "traps", Rate: "trapRate", Tiered: true},
			{Label: "Hauled volume", Quantity: "gallons", Unit: "gal", Rate: "gallonRate"},
		},
		TieredMinimum: true,
		Defaults: map[string]decimal.Decimal{
			"trapRate.frequent": d("100"),
			"trapRate.standard": d("125"),
			"gallonRate":        d("0.5"),
			"minimum.frequent":  d("250"),
			"minimum.standard":  d("250"),
		},
		Contract: shortContract,
	}
}
