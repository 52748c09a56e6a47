package services

import (
	"github.com/shopspring/decimal"

	"cleanquote/core/frequency"
	"cleanquote/core/pricing"
)

// FoamingDrainID identifies the foaming drain treatment service
const FoamingDrainID = "foamingdrain"

// FoamingDrain prices standard and grease drains
func FoamingDrain() *pricing.Rules {
	return &pricing.Rules{
		ID:               FoamingDrainID,
		Name:             "Foaming Drain",
		Frequencies:      []frequency.Frequency{frequency.Weekly, frequency.Biweekly, frequency.Monthly},
		DefaultFrequency: frequency.Weekly,
		Components: []pricing.Component{
			{Label: "Standard drains", Quantity: "standardDrains", Unit: "drains", Rate: "drainRate"},
			{Label: "Grease drains", Quantity: "greaseDrains", Unit: "drains", Rate: "greaseDrainRate"},
		},
		Install: true,
		Defaults: map[string]decimal.Decimal{
			"drainRate":              d("10"),
			"greaseDrainRate":        d("20"),
			pricing.RateMinimum:      d("50"),
			pricing.RateInstallDirty: d("3"),
			pricing.RateInstallClean: d("1"),
		},
		Contract: standardContract,
	}
}
