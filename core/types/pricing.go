// Package types - Pricing config types
package types

import (
	"sort"

	"github.com/shopspring/decimal"

	"cleanquote/core/frequency"
)

// ContractLimits bounds the contract length a service accepts
type ContractLimits struct {
	MinMonths     int `json:"minMonths" yaml:"min_months"`
	MaxMonths     int `json:"maxMonths" yaml:"max_months"`
	DefaultMonths int `json:"defaultMonths" yaml:"default_months"`
}

// Valid reports whether the limits are internally consistent
func (l ContractLimits) Valid() bool {
	return l.MinMonths >= 1 && l.MinMonths <= l.MaxMonths &&
		l.DefaultMonths >= l.MinMonths && l.DefaultMonths <= l.MaxMonths
}

// Clamp bounds months to [MinMonths, MaxMonths]
func (l ContractLimits) Clamp(months int) int {
	if months < l.MinMonths {
		return l.MinMonths
	}
	if months > l.MaxMonths {
		return l.MaxMonths
	}
	return months
}

// PricingConfig is the resolved rate set for one service. It is immutable
// once resolved; calculators copy rates into their own form state.
type PricingConfig struct {
	// ServiceID is the service this config prices
	ServiceID string `json:"service_id"`

	// Version is the document version, empty for static defaults
	Version string `json:"version,omitempty"`

	// Source indicates where the config came from (defaults, file, http, store)
	Source string `json:"source"`

	// Rates maps flattened rate keys to values (fixtureRate.monthly, ...)
	Rates map[string]decimal.Decimal `json:"rates"`

	// Frequencies holds monthly multipliers and visits per year
	Frequencies frequency.Table `json:"frequencies"`

	// ContractLimits bounds contract length
	ContractLimits ContractLimits `json:"contract_limits"`

	// Degraded lists keys that fell back to static defaults
	Degraded []string `json:"degraded,omitempty"`
}

// Rate returns the rate for key, or zero when absent
func (c PricingConfig) Rate(key string) decimal.Decimal {
	return c.Rates[key]
}

// HasRate reports whether key is present
func (c PricingConfig) HasRate(key string) bool {
	_, ok := c.Rates[key]
	return ok
}

// RateKeys returns rate keys in sorted order
func (c PricingConfig) RateKeys() []string {
	keys := make([]string, 0, len(c.Rates))
	for k := range c.Rates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsDegraded reports whether any value fell back to defaults
func (c PricingConfig) IsDegraded() bool {
	return len(c.Degraded) > 0
}

// Clone returns a deep copy
func (c PricingConfig) Clone() PricingConfig {
	out := c
	out.Rates = make(map[string]decimal.Decimal, len(c.Rates))
	for k, v := range c.Rates {
		out.Rates[k] = v
	}
	out.Frequencies = c.Frequencies.Clone()
	out.Degraded = append([]string(nil), c.Degraded...)
	return out
}
