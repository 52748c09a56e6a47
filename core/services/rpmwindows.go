package services

import (
	"github.com/shopspring/decimal"

	"cleanquote/core/frequency"
	"cleanquote/core/pricing"
)

// RPMWindowsID identifies the window cleaning service
const RPMWindowsID = "rpmwindows"

// RPMWindows prices small, medium and large panes. Each size has its own
// rate per tier; infrequent visits cost more per pane.
func RPMWindows() *pricing.Rules {
	return &pricing.Rules{
		ID:   RPMWindowsID,
		Name: "RPM Windows",
		Frequencies: []frequency.Frequency{
			frequency.Weekly, frequency.Biweekly, frequency.TwicePerMonth, frequency.Monthly,
			frequency.Bimonthly, frequency.Quarterly, frequency.OneTime,
		},
		DefaultFrequency: frequency.Monthly,
		Tiers: tiers(map[string][]frequency.Frequency{
			"frequent": {frequency.Weekly, frequency.Biweekly, frequency.TwicePerMonth},
			"monthly":  {frequency.Monthly},
		}),
		DefaultTier: "periodic",
		Components: []pricing.Component{
			{Label: "Small windows", Quantity: "smallWindows", Unit: "panes", Rate: "smallRate", Tiered: true},
			{Label: "Medium windows", Quantity: "mediumWindows", Unit: "panes", Rate: "mediumRate", Tiered: true},
			{Label: "Large windows", Quantity: "largeWindows", Unit: "panes", Rate: "largeRate", Tiered: true},
		},
		Install: true,
		Defaults: map[string]decimal.Decimal{
			"smallRate.frequent":     d("1.5"),
			"smallRate.monthly":      d("2"),
			"smallRate.periodic":     d("3"),
			"mediumRate.frequent":    d("3"),
			"mediumRate.monthly":     d("4"),
			"mediumRate.periodic":    d("6"),
			"largeRate.frequent":     d("7"),
			"largeRate.monthly":      d("9"),
			"largeRate.periodic":     d("12"),
			pricing.RateMinimum:      d("50"),
			pricing.RateInstallDirty: d("3"),
			pricing.RateInstallClean: d("1"),
		},
		Contract: standardContract,
	}
}
