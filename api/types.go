package api

import (
	"time"

	"cleanquote/core/calculator"
	"cleanquote/core/pricing"
	"cleanquote/core/types"
)

// ServiceInfo describes one priceable service
type ServiceInfo struct {
	ID               string               `json:"id"`
	Name             string               `json:"name"`
	Frequencies      []string             `json:"frequencies"`
	DefaultFrequency string               `json:"default_frequency"`
	Quantities       []string             `json:"quantities"`
	Rates            []string             `json:"rates"`
	Install          bool                 `json:"install"`
	CombinedDiscount bool                 `json:"combined_discount"`
	Contract         types.ContractLimits `json:"contract"`
}

// PublishResponse is returned by PUT /active-config/{serviceId}
type PublishResponse struct {
	ID        string    `json:"id"`
	ServiceID string    `json:"service_id"`
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`

	// Degraded lists keys that will fall back to built-in defaults
	Degraded []string `json:"degraded,omitempty"`
}

// QuoteResponse is returned by POST /quote
type QuoteResponse struct {
	RequestID  string                       `json:"request_id"`
	Summary    types.ProposalSummary        `json:"summary"`
	Statuses   map[string]calculator.Status `json:"statuses"`
	DurationMs int64                        `json:"duration_ms"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries a stable error code
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

func newServiceInfo(r *pricing.Rules) ServiceInfo {
	freqs := make([]string, len(r.Frequencies))
	for i, f := range r.Frequencies {
		freqs[i] = string(f)
	}
	return ServiceInfo{
		ID:               r.ID,
		Name:             r.Name,
		Frequencies:      freqs,
		DefaultFrequency: string(r.DefaultFrequency),
		Quantities:       r.QuantityFields(),
		Rates:            r.RateKeys(),
		Install:          r.Install,
		CombinedDiscount: r.HasCombinedDiscount(),
		Contract:         r.Contract,
	}
}
