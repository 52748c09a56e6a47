package services

import (
	"github.com/shopspring/decimal"

	"cleanquote/core/frequency"
	"cleanquote/core/pricing"
)

// ElectrostaticID identifies the electrostatic disinfection service
const ElectrostaticID = "electrostatic"

// Electrostatic prices sprayed area per started 1000 sq ft
func Electrostatic() *pricing.Rules {
	return &pricing.Rules{
		ID:   ElectrostaticID,
		Name: "Electrostatic Spray",
		Frequencies: []frequency.Frequency{
			frequency.Weekly, frequency.Biweekly, frequency.TwicePerMonth,
			frequency.Monthly, frequency.Bimonthly, frequency.Quarterly,
		},
		DefaultFrequency: frequency.Monthly,
		Components: []pricing.Component{
			{Label: "Sprayed area", Quantity: "sqFt", Unit: "sq ft", Rate: "perThousandRate", UnitKey: "unitSqFt"},
		},
		Defaults: map[string]decimal.Decimal{
			"perThousandRate":                 d("50"),
			"unitSqFt":                        d("1000"),
			pricing.RateMinimum:               d("100"),
			pricing.RateTwicePerMonthDiscount: d("10"),
		},
		Contract: standardContract,
	}
}
