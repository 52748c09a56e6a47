// Package form - Calculator form state and its reducer.
// Every edit is an Action; Reduce is the only way state changes.
package form

import (
	"github.com/shopspring/decimal"

	"cleanquote/core/frequency"
	"cleanquote/core/pricing"
	"cleanquote/core/types"
)

// FieldKind classifies an editable field
type FieldKind string

const (
	KindQuantity       FieldKind = "quantity"
	KindRate           FieldKind = "rate"
	KindContractMonths FieldKind = "contractMonths"
	KindOverride       FieldKind = "override"
)

// FieldRef identifies an editable field. Key is empty for contract months.
type FieldRef struct {
	Kind FieldKind
	Key  string
}

// Quantity refers to a quantity field
func Quantity(key string) FieldRef { return FieldRef{Kind: KindQuantity, Key: key} }

// Rate refers to a rate field
func Rate(key string) FieldRef { return FieldRef{Kind: KindRate, Key: key} }

// Override refers to a custom total (types.FieldPerVisit, ...)
func Override(field string) FieldRef { return FieldRef{Kind: KindOverride, Key: field} }

// ContractMonths refers to the contract length field
func ContractMonths() FieldRef { return FieldRef{Kind: KindContractMonths} }

// Flag names a boolean form option
type Flag string

const (
	FlagIncludeInstall      Flag = "includeInstall"
	FlagIsDirtyInstall      Flag = "isDirtyInstall"
	FlagHasCombinedDiscount Flag = "hasCombinedDiscount"
)

// State is one calculator's form. Reduce never mutates a State in place;
// it returns a modified copy.
type State struct {
	ServiceID string

	Quantities     map[string]decimal.Decimal
	Frequency      frequency.Frequency
	ContractMonths int

	IncludeInstall      bool
	IsDirtyInstall      bool
	HasCombinedDiscount bool

	// Rates mirror the config; the last write wins
	Rates map[string]decimal.Decimal

	// Pinned rates were supplied by the caller and survive config loads
	Pinned map[string]bool

	Overrides             pricing.Overrides
	CustomInstallationFee *decimal.Decimal

	// Drafts hold raw text of fields being edited
	Drafts map[FieldRef]string

	// Limits is the contract window of the loaded config
	Limits types.ContractLimits
}

// Initial is the caller-supplied starting point of a form
type Initial struct {
	Quantities          map[string]decimal.Decimal
	Frequency           frequency.Frequency
	ContractMonths      int
	IncludeInstall      bool
	IsDirtyInstall      bool
	HasCombinedDiscount bool

	// Rates are explicit rate overrides; they are pinned
	Rates map[string]decimal.Decimal

	Overrides             pricing.Overrides
	CustomInstallationFee *decimal.Decimal
}

// New builds the starting form for rules priced by cfg
func New(rules *pricing.Rules, cfg types.PricingConfig, init Initial) State {
	s := State{
		ServiceID:             rules.ID,
		Quantities:            make(map[string]decimal.Decimal),
		Frequency:             init.Frequency,
		IncludeInstall:        init.IncludeInstall,
		IsDirtyInstall:        init.IsDirtyInstall,
		HasCombinedDiscount:   init.HasCombinedDiscount,
		Rates:                 make(map[string]decimal.Decimal),
		Pinned:                make(map[string]bool),
		Overrides:             init.Overrides,
		CustomInstallationFee: init.CustomInstallationFee,
		Drafts:                make(map[FieldRef]string),
		Limits:                limitsOf(rules, cfg),
	}
	if s.Frequency == "" {
		s.Frequency = rules.DefaultFrequency
	}

	for _, key := range rules.QuantityFields() {
		s.Quantities[key] = nonNegative(init.Quantities[key])
	}

	for _, key := range rules.RateKeys() {
		if v, ok := init.Rates[key]; ok {
			s.Rates[key] = nonNegative(v)
			s.Pinned[key] = true
			continue
		}
		if v, ok := cfg.Rates[key]; ok {
			s.Rates[key] = v
			continue
		}
		s.Rates[key] = rules.Defaults[key]
	}

	months := init.ContractMonths
	if months == 0 {
		months = s.Limits.DefaultMonths
	}
	s.ContractMonths = s.Limits.Clamp(months)
	return s
}

// Inputs converts the form into calculation inputs
func (s State) Inputs() pricing.Inputs {
	return pricing.Inputs{
		Quantities:            s.Quantities,
		Frequency:             s.Frequency,
		ContractMonths:        s.ContractMonths,
		IncludeInstall:        s.IncludeInstall,
		IsDirtyInstall:        s.IsDirtyInstall,
		HasCombinedDiscount:   s.HasCombinedDiscount,
		Rates:                 s.Rates,
		Overrides:             s.Overrides,
		CustomInstallationFee: s.CustomInstallationFee,
	}
}

// HasOverrides reports whether any custom total or install fee is set
func (s State) HasOverrides() bool {
	return !s.Overrides.IsEmpty() || s.CustomInstallationFee != nil
}

// Draft returns the raw text of a field being edited
func (s State) Draft(ref FieldRef) (string, bool) {
	text, ok := s.Drafts[ref]
	return text, ok
}

// Clone returns a deep copy that can be modified freely
func (s State) Clone() State {
	out := s
	out.Quantities = copyDecimals(s.Quantities)
	out.Rates = copyDecimals(s.Rates)
	out.Pinned = make(map[string]bool, len(s.Pinned))
	for k, v := range s.Pinned {
		out.Pinned[k] = v
	}
	out.Drafts = make(map[FieldRef]string, len(s.Drafts))
	for k, v := range s.Drafts {
		out.Drafts[k] = v
	}
	out.Overrides = pricing.Overrides{
		PerVisit:         copyPtr(s.Overrides.PerVisit),
		MonthlyRecurring: copyPtr(s.Overrides.MonthlyRecurring),
		FirstMonth:       copyPtr(s.Overrides.FirstMonth),
		ContractTotal:    copyPtr(s.Overrides.ContractTotal),
	}
	out.CustomInstallationFee = copyPtr(s.CustomInstallationFee)
	return out
}

// clearOverrides restores auto-calculation of every total
func (s *State) clearOverrides() {
	s.Overrides = pricing.Overrides{}
	s.CustomInstallationFee = nil
}

func limitsOf(rules *pricing.Rules, cfg types.PricingConfig) types.ContractLimits {
	if cfg.ContractLimits.Valid() {
		return cfg.ContractLimits
	}
	return rules.Contract
}

func copyDecimals(m map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyPtr(p *decimal.Decimal) *decimal.Decimal {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func nonNegative(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
