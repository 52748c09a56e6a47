package services

import (
	"github.com/shopspring/decimal"

	"cleanquote/core/frequency"
	"cleanquote/core/pricing"
)

// SaniScrubID identifies the bathroom deep-scrub service
const SaniScrubID = "saniscrub"

// SaniScrub prices restroom fixtures with three frequency tiers. Non-bathroom
// floor area is billed per started 500 sq ft block.
func SaniScrub() *pricing.Rules {
	return &pricing.Rules{
		ID:               SaniScrubID,
		Name:             "SaniScrub",
		Frequencies:      frequency.All,
		DefaultFrequency: frequency.Monthly,
		Tiers: tiers(map[string][]frequency.Frequency{
			"monthly":   {frequency.OneTime, frequency.Weekly, frequency.Biweekly, frequency.TwicePerMonth, frequency.Monthly},
			"bimonthly": {frequency.Bimonthly},
			"quarterly": {frequency.Quarterly, frequency.Biannual, frequency.Annual},
		}),
		DefaultTier: "monthly",
		Components: []pricing.Component{
			{Label: "Restroom fixtures", Quantity: "fixtures", Unit: "fixtures", Rate: "fixtureRate", Tiered: true},
			{Label: "Non-bathroom area", Quantity: "nonBathroomSqFt", Unit: "sq ft", Rate: "nonBathroomRate", UnitKey: "nonBathroomUnitSqFt"},
		},
		TieredMinimum: true,
		Install:       true,
		Defaults: map[string]decimal.Decimal{
			"fixtureRate.monthly":             d("25"),
			"fixtureRate.bimonthly":           d("35"),
			"fixtureRate.quarterly":           d("40"),
			"minimum.monthly":                 d("175"),
			"minimum.bimonthly":               d("200"),
			"minimum.quarterly":               d("250"),
			"nonBathroomRate":                 d("250"),
			"nonBathroomUnitSqFt":             d("500"),
			pricing.RateInstallDirty:          d("3"),
			pricing.RateInstallClean:          d("1"),
			pricing.RateTwicePerMonthDiscount: d("15"),
		},
		Contract: standardContract,
	}
}
