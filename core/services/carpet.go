package services

import (
	"github.com/shopspring/decimal"

	"cleanquote/core/frequency"
	"cleanquote/core/pricing"
)

// CarpetID identifies the carpet cleaning service
const CarpetID = "carpet"

// Carpet prices area in two blocks: the first block at a higher rate,
// the remainder at a reduced one.
func Carpet() *pricing.Rules {
	return &pricing.Rules{
		ID:   CarpetID,
		Name: "Carpet Cleaning",
		Frequencies: []frequency.Frequency{
			frequency.OneTime, frequency.Monthly, frequency.Bimonthly,
			frequency.Quarterly, frequency.Biannual, frequency.Annual,
		},
		DefaultFrequency: frequency.Quarterly,
		Components: []pricing.Component{
			{
				Label:    "Carpet area",
				Quantity: "carpetSqFt",
				Unit:     "sq ft",
				Block: &pricing.BlockRates{
					FirstBlockKey:     "firstBlockSqFt",
					FirstRateKey:      "firstBlockRate",
					AdditionalRateKey: "additionalRate",
				},
			},
		},
		Install: true,
		Defaults: map[string]decimal.Decimal{
			"firstBlockSqFt":         d("500"),
			"firstBlockRate":         d("0.5"),
			"additionalRate":         d("0.25"),
			pricing.RateMinimum:      d("250"),
			pricing.RateInstallDirty: d("1.5"),
			pricing.RateInstallClean: d("1"),
		},
		Contract: standardContract,
	}
}
