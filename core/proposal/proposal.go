// Package proposal - Proposal documents and their calculators.
// A proposal lists the services a customer is quoted for; loading one
// builds a calculator per service, all publishing into one aggregator.
package proposal

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"cleanquote/core/form"
	"cleanquote/core/frequency"
	"cleanquote/core/pricing"
	"cleanquote/core/types"
	cqerrors "cleanquote/internal/errors"
)

// Proposal is a customer quote request
type Proposal struct {
	Name     string         `json:"name" yaml:"name"`
	Currency types.Currency `json:"currency,omitempty" yaml:"currency,omitempty"`
	Services []Item         `json:"services" yaml:"services"`
}

// Item is one service on a proposal
type Item struct {
	Service        string             `json:"service" yaml:"service"`
	Frequency      string             `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	ContractMonths int                `json:"contract_months,omitempty" yaml:"contract_months,omitempty"`
	Quantities     map[string]float64 `json:"quantities" yaml:"quantities"`

	IncludeInstall   bool `json:"include_install,omitempty" yaml:"include_install,omitempty"`
	DirtyInstall     bool `json:"dirty_install,omitempty" yaml:"dirty_install,omitempty"`
	CombinedDiscount bool `json:"combined_discount,omitempty" yaml:"combined_discount,omitempty"`

	// Rates are negotiated rates; they are pinned against config loads
	Rates map[string]float64 `json:"rates,omitempty" yaml:"rates,omitempty"`

	Overrides       *ItemOverrides `json:"overrides,omitempty" yaml:"overrides,omitempty"`
	InstallationFee *float64       `json:"installation_fee,omitempty" yaml:"installation_fee,omitempty"`
}

// ItemOverrides are custom totals for one item
type ItemOverrides struct {
	PerVisit         *float64 `json:"per_visit,omitempty" yaml:"per_visit,omitempty"`
	MonthlyRecurring *float64 `json:"monthly_recurring,omitempty" yaml:"monthly_recurring,omitempty"`
	FirstMonth       *float64 `json:"first_month,omitempty" yaml:"first_month,omitempty"`
	ContractTotal    *float64 `json:"contract_total,omitempty" yaml:"contract_total,omitempty"`
}

// Parse decodes a proposal. JSON is accepted as well as YAML.
func Parse(data []byte) (*Proposal, error) {
	var p Proposal
	trimmed := bytes.TrimSpace(data)
	var err error
	if len(trimmed) > 0 && trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.DisallowUnknownFields()
		err = dec.Decode(&p)
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(trimmed))
		dec.KnownFields(true)
		err = dec.Decode(&p)
	}
	if err != nil {
		return nil, cqerrors.Parsing("decode proposal", err)
	}
	return &p, nil
}

// ParseFile reads and decodes a proposal file
func ParseFile(path string) (*Proposal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read proposal %s", path)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// Validate checks every item against its service rules
func (p *Proposal) Validate(lookup func(id string) (*pricing.Rules, error)) error {
	if len(p.Services) == 0 {
		return cqerrors.InvalidInput("proposal has no services")
	}
	for i, item := range p.Services {
		rules, err := lookup(item.Service)
		if err != nil {
			return err
		}
		if err := item.validate(rules); err != nil {
			return cqerrors.Wrapf(cqerrors.TypeInvalidInput, err, "services[%d] (%s)", i, item.Service)
		}
	}
	return nil
}

func (item Item) validate(rules *pricing.Rules) error {
	if item.Frequency != "" {
		f, _ := frequency.Parse(item.Frequency)
		if !rules.Supports(f) {
			return cqerrors.Newf(cqerrors.TypeInvalidInput, "%s is not sold %s", rules.Name, item.Frequency)
		}
	}
	for key := range item.Quantities {
		if !rules.HasQuantity(key) {
			return cqerrors.Newf(cqerrors.TypeInvalidInput, "unknown quantity %q (want one of %v)", key, rules.QuantityFields())
		}
	}
	for key := range item.Rates {
		if !rules.HasRate(key) {
			return cqerrors.Newf(cqerrors.TypeInvalidInput, "unknown rate %q", key)
		}
	}
	return nil
}

// Initial converts the item into starting form values
func (item Item) Initial() form.Initial {
	init := form.Initial{
		Quantities:          decimals(item.Quantities),
		ContractMonths:      item.ContractMonths,
		IncludeInstall:      item.IncludeInstall,
		IsDirtyInstall:      item.DirtyInstall,
		HasCombinedDiscount: item.CombinedDiscount,
		Rates:               decimals(item.Rates),
	}
	if item.Frequency != "" {
		init.Frequency, _ = frequency.Parse(item.Frequency)
	}
	if o := item.Overrides; o != nil {
		init.Overrides = pricing.Overrides{
			PerVisit:         decimalPtr(o.PerVisit),
			MonthlyRecurring: decimalPtr(o.MonthlyRecurring),
			FirstMonth:       decimalPtr(o.FirstMonth),
			ContractTotal:    decimalPtr(o.ContractTotal),
		}
	}
	init.CustomInstallationFee = decimalPtr(item.InstallationFee)
	return init
}

func decimals(m map[string]float64) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		out[k] = decimal.NewFromFloat(v)
	}
	return out
}

func decimalPtr(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}
