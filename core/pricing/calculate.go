package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"cleanquote/core/frequency"
	"cleanquote/core/pricing/primitives"
	"cleanquote/core/types"
)

// Overrides are the custom totals a user may pin. Nil means auto-calculated.
type Overrides struct {
	PerVisit         *decimal.Decimal `json:"customPerVisitPrice,omitempty" yaml:"per_visit,omitempty"`
	MonthlyRecurring *decimal.Decimal `json:"customMonthlyRecurring,omitempty" yaml:"monthly_recurring,omitempty"`
	FirstMonth       *decimal.Decimal `json:"customFirstMonthPrice,omitempty" yaml:"first_month,omitempty"`
	ContractTotal    *decimal.Decimal `json:"customContractTotal,omitempty" yaml:"contract_total,omitempty"`
}

// IsEmpty reports whether no override is set
func (o Overrides) IsEmpty() bool {
	return o.PerVisit == nil && o.MonthlyRecurring == nil && o.FirstMonth == nil && o.ContractTotal == nil
}

// Inputs is everything a calculation reads besides the pricing config
type Inputs struct {
	// Quantities keyed by the service's quantity fields
	Quantities map[string]decimal.Decimal

	Frequency      frequency.Frequency
	ContractMonths int

	IncludeInstall      bool
	IsDirtyInstall      bool
	HasCombinedDiscount bool

	// Rates are form-level rate values; they win over the config
	Rates map[string]decimal.Decimal

	Overrides Overrides

	// CustomInstallationFee replaces the computed install fee while install is included
	CustomInstallationFee *decimal.Decimal
}

// Calculate prices one service. It is pure: the same rules, inputs and
// config always produce the same breakdown.
func Calculate(rules *Rules, in Inputs, cfg types.PricingConfig) types.QuoteBreakdown {
	c := calc{rules: rules, in: in, cfg: cfg}
	return c.run()
}

type calc struct {
	rules *Rules
	in    Inputs
	cfg   types.PricingConfig
}

func (c *calc) rate(key string) decimal.Decimal {
	if v, ok := c.in.Rates[key]; ok {
		return v
	}
	if v, ok := c.cfg.Rates[key]; ok {
		return v
	}
	return c.rules.Defaults[key]
}

func (c *calc) quantity(key string) decimal.Decimal {
	return primitives.NonNegative(c.in.Quantities[key])
}

func (c *calc) table() frequency.Table {
	if len(c.cfg.Frequencies.MonthlyMultipliers) == 0 || len(c.cfg.Frequencies.VisitsPerYear) == 0 {
		return frequency.DefaultTable()
	}
	return c.cfg.Frequencies
}

func (c *calc) limits() types.ContractLimits {
	if c.cfg.ContractLimits.Valid() {
		return c.cfg.ContractLimits
	}
	return c.rules.Contract
}

func (c *calc) run() types.QuoteBreakdown {
	freq := c.in.Frequency
	if freq == "" {
		freq = c.rules.DefaultFrequency
	}
	res := c.table().Resolve(freq)
	tier := c.rules.TierFor(freq)

	q := types.QuoteBreakdown{
		ServiceID:     c.rules.ID,
		ServiceName:   c.rules.Name,
		Frequency:     string(freq),
		Tier:          tier,
		IsVisitBased:  res.IsVisitBased,
		ConfigSource:  c.cfg.Source,
		ConfigVersion: c.cfg.Version,
		Currency:      types.CurrencyUSD,
	}

	// Base amount
	raw, active := c.components(tier, &q)
	q.RawAmount = primitives.RoundCents(raw)
	if active {
		minimum := c.rate(c.rules.MinimumKey(tier))
		q.BaseAmount = q.RawAmount
		if q.RawAmount.LessThan(minimum) {
			q.BaseAmount = primitives.RoundCents(minimum)
			q.MinimumApplied = true
			q.LineItems = append(q.LineItems, types.LineItem{
				Label:   "Minimum charge",
				Formula: fmt.Sprintf("max(%s, %s)", q.RawAmount.StringFixed(2), minimum.StringFixed(2)),
				Amount:  q.BaseAmount.Sub(q.RawAmount),
			})
		}
	}

	// Per visit
	q.PerVisit = q.BaseAmount
	if o := c.in.Overrides.PerVisit; o != nil {
		q.PerVisit = *o
		q.Overridden = append(q.Overridden, types.FieldPerVisit)
	}

	// Install fee is always on the undiscounted base
	if c.rules.Install && c.in.IncludeInstall {
		multKey := RateInstallClean
		if c.in.IsDirtyInstall {
			multKey = RateInstallDirty
		}
		mult := c.rate(multKey)
		q.InstallFee = primitives.RoundCents(q.BaseAmount.Mul(mult))
		formula := fmt.Sprintf("%s × %s", q.BaseAmount.StringFixed(2), mult.String())
		if o := c.in.CustomInstallationFee; o != nil {
			q.InstallFee = *o
			formula = "custom"
			q.Overridden = append(q.Overridden, types.FieldInstallationFee)
		}
		q.LineItems = append(q.LineItems, types.LineItem{Label: "Installation", Formula: formula, Amount: q.InstallFee})
	}
	install := c.rules.Install && c.in.IncludeInstall

	discount := decimal.Zero
	if res.Class == frequency.ClassTwicePerMonth && c.in.HasCombinedDiscount && c.rules.HasCombinedDiscount() {
		discount = c.rate(RateTwicePerMonthDiscount)
		q.LineItems = append(q.LineItems, types.LineItem{
			Label:   "Combined service discount",
			Formula: "flat per month",
			Amount:  discount.Neg(),
		})
	}

	// Monthly recurring
	switch res.Class {
	case frequency.ClassSubMonthly:
		q.MonthlyRecurring = primitives.RoundCents(q.PerVisit.Mul(res.MonthlyMultiplier))
	case frequency.ClassTwicePerMonth:
		q.MonthlyRecurring = primitives.NonNegative(q.PerVisit.Mul(decimal.NewFromInt(2)).Sub(discount))
	case frequency.ClassMonthly:
		q.MonthlyRecurring = q.PerVisit
	case frequency.ClassVisitBased:
		q.ApproxMonthly = primitives.RoundCents(q.PerVisit.Mul(res.MonthlyMultiplier))
	}
	if o := c.in.Overrides.MonthlyRecurring; o != nil {
		q.MonthlyRecurring = *o
		q.Overridden = append(q.Overridden, types.FieldMonthlyRecurring)
	}

	// First period
	switch res.Class {
	case frequency.ClassSubMonthly:
		if install {
			q.FirstPeriodTotal = q.InstallFee.Add(res.MonthlyMultiplier.Sub(decimal.NewFromInt(1)).Mul(q.PerVisit))
		} else {
			q.FirstPeriodTotal = res.MonthlyMultiplier.Mul(q.PerVisit)
		}
	case frequency.ClassTwicePerMonth:
		if install {
			q.FirstPeriodTotal = primitives.NonNegative(q.InstallFee.Add(q.PerVisit).Sub(discount))
		} else {
			q.FirstPeriodTotal = primitives.NonNegative(q.PerVisit.Mul(decimal.NewFromInt(2)).Sub(discount))
		}
	default:
		if install {
			q.FirstPeriodTotal = q.InstallFee
		} else {
			q.FirstPeriodTotal = q.PerVisit
		}
	}
	q.FirstPeriodTotal = primitives.RoundCents(q.FirstPeriodTotal)
	if o := c.in.Overrides.FirstMonth; o != nil {
		q.FirstPeriodTotal = *o
		q.Overridden = append(q.Overridden, types.FieldFirstMonth)
	}

	// Contract
	limits := c.limits()
	months := c.in.ContractMonths
	if months == 0 {
		months = limits.DefaultMonths
	}
	q.ContractMonths = limits.Clamp(months)

	switch res.Class {
	case frequency.ClassOneTime:
		q.TotalVisits = 1
		q.ContractTotal = q.FirstPeriodTotal
	case frequency.ClassVisitBased:
		q.TotalVisits = primitives.RoundVisits(q.ContractMonths, res.CycleMonths)
		q.ContractTotal = q.FirstPeriodTotal.Add(decimal.NewFromInt(int64(q.TotalVisits - 1)).Mul(q.PerVisit))
	default:
		q.ContractTotal = q.FirstPeriodTotal.Add(decimal.NewFromInt(int64(q.ContractMonths - 1)).Mul(q.MonthlyRecurring))
	}
	q.ContractTotal = primitives.RoundCents(q.ContractTotal)
	if o := c.in.Overrides.ContractTotal; o != nil {
		q.ContractTotal = *o
		q.Overridden = append(q.Overridden, types.FieldContractTotal)
	}

	return q
}

// components sums the billable components for tier and appends line items.
// active is false when every quantity is zero.
func (c *calc) components(tier string, q *types.QuoteBreakdown) (decimal.Decimal, bool) {
	raw := decimal.Zero
	active := false

	for _, comp := range c.rules.Components {
		qty := c.quantity(comp.Quantity)
		if !qty.IsPositive() {
			continue
		}
		active = true

		var item types.LineItem
		switch {
		case comp.Block != nil:
			first := c.rate(comp.Block.FirstBlockKey)
			firstRate := c.rate(comp.Block.FirstRateKey)
			addRate := c.rate(comp.Block.AdditionalRateKey)
			item = types.LineItem{
				Label:    comp.Label,
				Quantity: qty,
				Rate:     firstRate,
				Formula: fmt.Sprintf("first %s %s × %s, remainder × %s",
					first.String(), comp.Unit, firstRate.String(), addRate.String()),
				Amount: primitives.BlockCost(qty, primitives.TwoBlock(first, firstRate, addRate)),
			}
		default:
			rate := c.rate(comp.RateKey(tier))
			units := qty
			formula := fmt.Sprintf("%s %s × %s", qty.String(), comp.Unit, rate.String())
			if comp.UnitKey != "" {
				size := c.rate(comp.UnitKey)
				units = primitives.Units(qty, size)
				formula = fmt.Sprintf("ceil(%s / %s) × %s", qty.String(), size.String(), rate.String())
			}
			item = types.LineItem{
				Label:    comp.Label,
				Quantity: units,
				Rate:     rate,
				Formula:  formula,
				Amount:   units.Mul(rate),
			}
		}

		item.Amount = primitives.RoundCents(item.Amount)
		raw = raw.Add(item.Amount)
		q.LineItems = append(q.LineItems, item)
	}

	return raw, active
}
