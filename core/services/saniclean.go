package services

import (
	"github.com/shopspring/decimal"

	"cleanquote/core/frequency"
	"cleanquote/core/pricing"
)

// SaniCleanID identifies the restroom sanitation service
const SaniCleanID = "saniclean"

// SaniClean prices fixtures at a lower rate when serviced at least every two weeks
func SaniClean() *pricing.Rules {
	return &pricing.Rules{
		ID:               SaniCleanID,
		Name:             "SaniClean",
		Frequencies:      []frequency.Frequency{frequency.Weekly, frequency.Biweekly, frequency.TwicePerMonth, frequency.Monthly},
		DefaultFrequency: frequency.Weekly,
		Tiers: tiers(map[string][]frequency.Frequency{
			"weekly":  {frequency.Weekly, frequency.Biweekly, frequency.TwicePerMonth},
			"monthly": {frequency.Monthly},
		}),
		DefaultTier: "monthly",
		Components: []pricing.Component{
			{Label: "Restroom fixtures", Quantity: "fixtures", Unit: "fixtures", Rate: "fixtureRate", Tiered: true},
			{Label: "Soap dispenser warranty", Quantity: "soapDispensers", Unit: "dispensers", Rate: "warrantyRate"},
		},
		TieredMinimum: true,
		Install:       true,
		Defaults: map[string]decimal.Decimal{
			"fixtureRate.weekly":     d("7"),
			"fixtureRate.monthly":    d("9"),
			"warrantyRate":           d("1"),
			"minimum.weekly":         d("40"),
			"minimum.monthly":        d("50"),
			pricing.RateInstallDirty: d("3"),
			pricing.RateInstallClean: d("1"),
		},
		Contract: standardContract,
	}
}
