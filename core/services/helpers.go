package services

import (
	"github.com/shopspring/decimal"

	"cleanquote/core/frequency"
	"cleanquote/core/types"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// standardContract is the contract window most services sell
var standardContract = types.ContractLimits{MinMonths: 2, MaxMonths: 36, DefaultMonths: 12}

// shortContract allows single-month engagements
var shortContract = types.ContractLimits{MinMonths: 1, MaxMonths: 36, DefaultMonths: 12}

func tiers(groups map[string][]frequency.Frequency) map[frequency.Frequency]string {
	out := make(map[frequency.Frequency]string)
	for tier, freqs := range groups {
		for _, f := range freqs {
			out[f] = tier
		}
	}
	return out
}
