package services

import (
	"github.com/shopspring/decimal"

	"cleanquote/core/frequency"
	"cleanquote/core/pricing"
)

// MicrofiberID identifies the microfiber mopping service
const MicrofiberID = "microfiber"

// Microfiber prices bathrooms plus any extra floor area
func Microfiber() *pricing.Rules {
	return &pricing.Rules{
		ID:               MicrofiberID,
		Name:             "Microfiber Mopping",
		Frequencies:      []frequency.Frequency{frequency.Weekly, frequency.Biweekly, frequency.TwicePerMonth, frequency.Monthly},
		DefaultFrequency: frequency.Weekly,
		Components: []pricing.Component{
			{Label: "Bathrooms", Quantity: "bathrooms", Unit: "bathrooms", Rate: "bathroomRate"},
			{Label: "Extra floor area", Quantity: "extraSqFt", Unit: "sq ft", Rate: "sqFtRate"},
		},
		Defaults: map[string]decimal.Decimal{
			"bathroomRate":                    d("10"),
			"sqFtRate":                        d("0.025"),
			pricing.RateMinimum:               d("40"),
			pricing.RateTwicePerMonthDiscount: d("5"),
		},
		Contract: standardContract,
	}
}
