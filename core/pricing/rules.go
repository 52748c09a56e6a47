// Package pricing - Shared tiered-recurring pricing engine.
// Every service calculator is a Rules table evaluated by Calculate;
// services declare rate keys and tiers, never arithmetic.
package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"cleanquote/core/frequency"
	"cleanquote/core/types"
)

// Rate keys shared by all services
const (
	RateMinimum               = "minimum"
	RateInstallDirty          = "installMultiplier.dirty"
	RateInstallClean          = "installMultiplier.clean"
	RateTwicePerMonthDiscount = "twicePerMonthDiscount"
)

// DefaultTier is the tier name for services without frequency tiers
const DefaultTier = "standard"

// BlockRates names the rate keys for first-block/remainder area pricing
type BlockRates struct {
	FirstBlockKey     string
	FirstRateKey      string
	AdditionalRateKey string
}

// Component is one billable input of a service
type Component struct {
	// Label is shown on the quote line item
	Label string

	// Quantity is the form quantity field this component bills
	Quantity string

	// Unit describes the quantity (fixture, sq ft, hour)
	Unit string

	// Rate is the rate key. Tiered components read Rate + "." + tier.
	Rate   string
	Tiered bool

	// UnitKey names a rate key holding a billing unit size; the quantity is
	// billed as ceil(quantity / size) whole units
	UnitKey string

	// Block switches the component to stepped area pricing
	Block *BlockRates
}

// RateKey returns the rate key read for tier
func (c Component) RateKey(tier string) string {
	if c.Tiered {
		return c.Rate + "." + tier
	}
	return c.Rate
}

// Rules describes how one service is priced
type Rules struct {
	// ID is the stable service identifier (saniscrub, carpet, ...)
	ID string

	// Name is the display name
	Name string

	// Frequencies lists the cadences the service is sold at
	Frequencies []frequency.Frequency

	// DefaultFrequency is used when a form does not choose one
	DefaultFrequency frequency.Frequency

	// Tiers maps a frequency to its rate tier; missing entries use DefaultTier
	Tiers       map[frequency.Frequency]string
	DefaultTier string

	// Components are summed into the raw amount
	Components []Component

	// TieredMinimum reads minimum.<tier> instead of minimum
	TieredMinimum bool

	// Install enables the installation fee
	Install bool

	// Defaults are the statically compiled rates used when no config loads
	Defaults map[string]decimal.Decimal

	// Contract is the default contract window
	Contract types.ContractLimits
}

// TierFor returns the rate tier for f. Unknown frequencies price as monthly.
func (r *Rules) TierFor(f frequency.Frequency) string {
	if !f.IsKnown() {
		f = frequency.Monthly
	}
	if tier, ok := r.Tiers[f]; ok {
		return tier
	}
	if r.DefaultTier != "" {
		return r.DefaultTier
	}
	return DefaultTier
}

// MinimumKey returns the minimum rate key for tier
func (r *Rules) MinimumKey(tier string) string {
	if r.TieredMinimum {
		return RateMinimum + "." + tier
	}
	return RateMinimum
}

// Supports reports whether the service is sold at f
func (r *Rules) Supports(f frequency.Frequency) bool {
	for _, s := range r.Frequencies {
		if s == f {
			return true
		}
	}
	return false
}

// HasCombinedDiscount reports whether the service defines a twice-per-month discount
func (r *Rules) HasCombinedDiscount() bool {
	_, ok := r.Defaults[RateTwicePerMonthDiscount]
	return ok
}

// QuantityFields returns the quantity keys the service bills, in component order
func (r *Rules) QuantityFields() []string {
	seen := make(map[string]bool, len(r.Components))
	fields := make([]string, 0, len(r.Components))
	for _, c := range r.Components {
		if !seen[c.Quantity] {
			seen[c.Quantity] = true
			fields = append(fields, c.Quantity)
		}
	}
	return fields
}

// HasQuantity reports whether key is a quantity field of the service
func (r *Rules) HasQuantity(key string) bool {
	for _, c := range r.Components {
		if c.Quantity == key {
			return true
		}
	}
	return false
}

// RateKeys returns the service's rate keys in sorted order
func (r *Rules) RateKeys() []string {
	keys := make([]string, 0, len(r.Defaults))
	for k := range r.Defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HasRate reports whether key is a rate of the service
func (r *Rules) HasRate(key string) bool {
	_, ok := r.Defaults[key]
	return ok
}

// DefaultConfig returns the statically compiled pricing config
func (r *Rules) DefaultConfig() types.PricingConfig {
	rates := make(map[string]decimal.Decimal, len(r.Defaults))
	for k, v := range r.Defaults {
		rates[k] = v
	}
	return types.PricingConfig{
		ServiceID:      r.ID,
		Source:         SourceDefaults,
		Rates:          rates,
		Frequencies:    frequency.DefaultTable(),
		ContractLimits: r.Contract,
	}
}
