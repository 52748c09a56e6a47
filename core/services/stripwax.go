package services

import (
	"github.com/shopspring/decimal"

	"cleanquote/core/frequency"
	"cleanquote/core/pricing"
)

// StripWaxID identifies the floor strip and wax service
const StripWaxID = "stripwax"

// StripWax prices floor area; recurring programs get a lower rate per sq ft
func StripWax() *pricing.Rules {
	return &pricing.Rules{
		ID:   StripWaxID,
		Name: "Strip & Wax",
		Frequencies: []frequency.Frequency{
			frequency.OneTime, frequency.Monthly, frequency.Bimonthly,
			frequency.Quarterly, frequency.Biannual, frequency.Annual,
		},
		DefaultFrequency: frequency.OneTime,
		Tiers: tiers(map[string][]frequency.Frequency{
			"oneTime": {frequency.OneTime},
		}),
		DefaultTier: "recurring",
		Components: []pricing.Component{
			{Label: "Floor area", Quantity: "floorSqFt", Unit: "sq ft", Rate: "sqFtRate", Tiered: true},
		},
		TieredMinimum: true,
		Defaults: map[string]decimal.Decimal{
			"sqFtRate.oneTime":   d("0.75"),
			"sqFtRate.recurring": d("0.6"),
			"minimum.oneTime":    d("550"),
			"minimum.recurring":  d("550"),
		},
		Contract: shortContract,
	}
}
