package services

import (
	"github.com/shopspring/decimal"

	"cleanquote/core/frequency"
	"cleanquote/core/pricing"
)

// JanitorialID identifies the hourly janitorial service
const JanitorialID = "janitorial"

// Janitorial prices labour hours; a one-time clean carries a higher hourly
// rate and minimum than recurring service.
func Janitorial() *pricing.Rules {
	return &pricing.Rules{
		ID:   JanitorialID,
		Name: "Pure Janitorial",
		Frequencies: []frequency.Frequency{
			frequency.OneTime, frequency.Weekly, frequency.Biweekly,
			frequency.TwicePerMonth, frequency.Monthly,
		},
		DefaultFrequency: frequency.Weekly,
		Tiers: tiers(map[string][]frequency.Frequency{
			"oneTime": {frequency.OneTime},
		}),
		DefaultTier: "recurring",
		Components: []pricing.Component{
			{Label: "Janitorial hours", Quantity: "hours", Unit: "hr", Rate: "hourlyRate", Tiered: true},
			{Label: "Vacuuming hours", Quantity: "vacuumingHours", Unit: "hr", Rate: "vacuumingRate"},
		},
		TieredMinimum: true,
		Install:       true,
		Defaults: map[string]decimal.Decimal{
			"hourlyRate.oneTime":              d("50"),
			"hourlyRate.recurring":            d("30"),
			"vacuumingRate":                   d("40"),
			"minimum.oneTime":                 d("200"),
			"minimum.recurring":               d("120"),
			pricing.RateInstallDirty:          d("3"),
			pricing.RateInstallClean:          d("1"),
			pricing.RateTwicePerMonthDiscount: d("10"),
		},
		Contract: standardContract,
	}
}
