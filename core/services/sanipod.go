package services

import (
	"github.com/shopspring/decimal"

	"cleanquote/core/frequency"
	"cleanquote/core/pricing"
)

// SaniPodID identifies the feminine-hygiene unit service
const SaniPodID = "sanipod"

// SaniPod prices hygiene pods and extra liner bags
func SaniPod() *pricing.Rules {
	return &pricing.Rules{
		ID:               SaniPodID,
		Name:             "SaniPod",
		Frequencies:      []frequency.Frequency{frequency.Weekly, frequency.Biweekly, frequency.Monthly},
		DefaultFrequency: frequency.Weekly,
		Components: []pricing.Component{
			{Label: "Pods", Quantity: "pods", Unit: "pods", Rate: "podRate"},
			{Label: "Extra bags", Quantity: "extraBags", Unit: "bags", Rate: "bagRate"},
		},
		Install: true,
		Defaults: map[string]decimal.Decimal{
			"podRate":                d("3"),
			"bagRate":                d("2"),
			pricing.RateMinimum:      d("40"),
			pricing.RateInstallDirty: d("2"),
			pricing.RateInstallClean: d("1"),
		},
		Contract: standardContract,
	}
}
