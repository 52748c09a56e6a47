// Package types - Quote and proposal types
package types

import "github.com/shopspring/decimal"

// Currency represents a currency code
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

// String returns the string representation
func (c Currency) String() string {
	return string(c)
}

// Symbol returns the display symbol for the currency
func (c Currency) Symbol() string {
	switch c {
	case CurrencyEUR:
		return "€"
	case CurrencyGBP:
		return "£"
	default:
		return "$"
	}
}

// Override field names reported in QuoteBreakdown.Overridden
const (
	FieldPerVisit         = "perVisit"
	FieldMonthlyRecurring = "monthlyRecurring"
	FieldFirstMonth       = "firstMonth"
	FieldContractTotal    = "contractTotal"
	FieldInstallationFee  = "installationFee"
)

// LineItem is one billable component of a quote
type LineItem struct {
	// Label is a human-readable label
	Label string `json:"label" yaml:"label"`

	// Quantity is the billed quantity (after unit rounding)
	Quantity decimal.Decimal `json:"quantity" yaml:"quantity"`

	// Rate is the unit price applied
	Rate decimal.Decimal `json:"rate" yaml:"rate"`

	// Formula describes how the amount was calculated
	Formula string `json:"formula" yaml:"formula"`

	// Amount is the component cost
	Amount decimal.Decimal `json:"amount" yaml:"amount"`
}

// QuoteBreakdown is the derived price of one service. It is a value:
// every recomputation replaces it wholesale.
type QuoteBreakdown struct {
	ServiceID   string `json:"service_id" yaml:"service_id"`
	ServiceName string `json:"service_name" yaml:"service_name"`
	Frequency   string `json:"frequency" yaml:"frequency"`
	Tier        string `json:"tier" yaml:"tier"`

	// IsVisitBased is set for one-time and multi-month cadences
	IsVisitBased bool `json:"is_visit_based" yaml:"is_visit_based"`

	// RawAmount is the sum of components before the minimum floor
	RawAmount decimal.Decimal `json:"raw_amount" yaml:"raw_amount"`

	// BaseAmount is RawAmount floored at the tier minimum
	BaseAmount     decimal.Decimal `json:"base_amount" yaml:"base_amount"`
	MinimumApplied bool            `json:"minimum_applied" yaml:"minimum_applied"`

	PerVisit         decimal.Decimal `json:"per_visit" yaml:"per_visit"`
	MonthlyRecurring decimal.Decimal `json:"monthly_recurring" yaml:"monthly_recurring"`

	// ApproxMonthly is informational for visit-based cadences only
	ApproxMonthly decimal.Decimal `json:"approx_monthly" yaml:"approx_monthly"`

	InstallFee       decimal.Decimal `json:"install_fee" yaml:"install_fee"`
	FirstPeriodTotal decimal.Decimal `json:"first_period_total" yaml:"first_period_total"`
	ContractMonths   int             `json:"contract_months" yaml:"contract_months"`
	TotalVisits      int             `json:"total_visits,omitempty" yaml:"total_visits,omitempty"`
	ContractTotal    decimal.Decimal `json:"contract_total" yaml:"contract_total"`

	// Overridden lists the fields that carry a custom value
	Overridden []string `json:"overridden,omitempty" yaml:"overridden,omitempty"`

	LineItems []LineItem `json:"line_items,omitempty" yaml:"line_items,omitempty"`
	Currency  Currency   `json:"currency" yaml:"currency"`

	// ConfigSource and ConfigVersion record which rate document priced the quote
	ConfigSource  string `json:"config_source,omitempty" yaml:"config_source,omitempty"`
	ConfigVersion string `json:"config_version,omitempty" yaml:"config_version,omitempty"`
}

// IsOverridden reports whether field carries a custom value
func (q QuoteBreakdown) IsOverridden(field string) bool {
	for _, f := range q.Overridden {
		if f == field {
			return true
		}
	}
	return false
}

// IsZero reports whether the quote prices nothing
func (q QuoteBreakdown) IsZero() bool {
	return q.PerVisit.IsZero() && q.FirstPeriodTotal.IsZero() && q.ContractTotal.IsZero()
}

// ProposalSummary aggregates the quotes of every service on a proposal
type ProposalSummary struct {
	// Name is the proposal or customer name
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Services holds quotes in insertion order
	Services []QuoteBreakdown `json:"services" yaml:"services"`

	TotalPerVisit         decimal.Decimal `json:"total_per_visit" yaml:"total_per_visit"`
	TotalMonthlyRecurring decimal.Decimal `json:"total_monthly_recurring" yaml:"total_monthly_recurring"`
	TotalApproxMonthly    decimal.Decimal `json:"total_approx_monthly" yaml:"total_approx_monthly"`
	TotalInstallFees      decimal.Decimal `json:"total_install_fees" yaml:"total_install_fees"`
	TotalFirstPeriod      decimal.Decimal `json:"total_first_period" yaml:"total_first_period"`
	TotalContract         decimal.Decimal `json:"total_contract" yaml:"total_contract"`

	Currency Currency `json:"currency" yaml:"currency"`
}

// Add appends a quote and updates totals
func (s *ProposalSummary) Add(q QuoteBreakdown) {
	s.Services = append(s.Services, q)
	s.TotalPerVisit = s.TotalPerVisit.Add(q.PerVisit)
	s.TotalMonthlyRecurring = s.TotalMonthlyRecurring.Add(q.MonthlyRecurring)
	s.TotalApproxMonthly = s.TotalApproxMonthly.Add(q.ApproxMonthly)
	s.TotalInstallFees = s.TotalInstallFees.Add(q.InstallFee)
	s.TotalFirstPeriod = s.TotalFirstPeriod.Add(q.FirstPeriodTotal)
	s.TotalContract = s.TotalContract.Add(q.ContractTotal)
}
