package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleanquote/core/frequency"
	"cleanquote/core/pricing"
	cqerrors "cleanquote/internal/errors"
)

func qty(pairs ...interface{}) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for i := 0; i < len(pairs); i += 2 {
		out[pairs[i].(string)] = decimal.RequireFromString(pairs[i+1].(string))
	}
	return out
}

func TestBuiltinRulesValidate(t *testing.T) {
	for _, rules := range Builtin() {
		t.Run(rules.ID, func(t *testing.T) {
			require.NoError(t, Validate(rules))
		})
	}
}

func TestDefaultRegistryHasElevenServices(t *testing.T) {
	reg := Default()
	assert.Len(t, reg.GetAll(), 11)
	assert.Equal(t, SaniScrubID, reg.GetAll()[0].ID)

	_, err := reg.Lookup("window-tint")
	require.Error(t, err)
	assert.True(t, cqerrors.IsType(err, cqerrors.TypeNotFound))
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(SaniPod()))
	assert.Error(t, reg.Register(SaniPod()))
}

func TestValidateReportsMissingRates(t *testing.T) {
	rules := SaniClean()
	delete(rules.Defaults, "fixtureRate.monthly")

	err := Validate(rules)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixtureRate.monthly")
}

func TestSaniScrubScenarios(t *testing.T) {
	rules := SaniScrub()
	cfg := rules.DefaultConfig()

	q := pricing.Calculate(rules, pricing.Inputs{Quantities: qty("fixtures", "10"), Frequency: frequency.Monthly, ContractMonths: 12}, cfg)
	assert.True(t, q.ContractTotal.Equal(decimal.NewFromInt(3000)))

	q = pricing.Calculate(rules, pricing.Inputs{Quantities: qty("fixtures", "3"), Frequency: frequency.Monthly, ContractMonths: 12}, cfg)
	assert.True(t, q.BaseAmount.Equal(decimal.NewFromInt(175)))
	assert.True(t, q.MonthlyRecurring.Equal(decimal.NewFromInt(175)))

	q = pricing.Calculate(rules, pricing.Inputs{
		Quantities: qty("fixtures", "10"), Frequency: frequency.Quarterly, ContractMonths: 12,
		IncludeInstall: true, IsDirtyInstall: true,
	}, cfg)
	assert.True(t, q.InstallFee.Equal(decimal.NewFromInt(1200)))
	assert.True(t, q.ContractTotal.Equal(decimal.NewFromInt(2400)))

	q = pricing.Calculate(rules, pricing.Inputs{
		Quantities: qty("fixtures", "3"), Frequency: frequency.TwicePerMonth, HasCombinedDiscount: true,
	}, cfg)
	assert.True(t, q.MonthlyRecurring.Equal(decimal.NewFromInt(335)))
}

func TestServiceBaseAmounts(t *testing.T) {
	tests := []struct {
		name    string
		rules   *pricing.Rules
		freq    frequency.Frequency
		qty     map[string]decimal.Decimal
		tier    string
		base    string
		minimum bool
	}{
		{"saniclean weekly", SaniClean(), frequency.Weekly, qty("fixtures", "10"), "weekly", "70", false},
		{"saniclean monthly minimum", SaniClean(), frequency.Monthly, qty("fixtures", "4", "soapDispensers", "2"), "monthly", "50", true},
		{"sanipod minimum", SaniPod(), frequency.Monthly, qty("pods", "5", "extraBags", "10"), "standard", "40", true},
		{"greasetrap frequent", GreaseTrap(), frequency.Weekly, qty("traps", "2", "gallons", "100"), "frequent", "250", false},
		{"greasetrap standard", GreaseTrap(), frequency.Quarterly, qty("traps", "2", "gallons", "100"), "standard", "300", false},
		{"janitorial one-time minimum", Janitorial(), frequency.OneTime, qty("hours", "3"), "oneTime", "200", true},
		{"janitorial recurring", Janitorial(), frequency.Weekly, qty("hours", "5", "vacuumingHours", "1"), "recurring", "190", false},
		{"microfiber", Microfiber(), frequency.Weekly, qty("bathrooms", "3", "extraSqFt", "1000"), "standard", "55", false},
		{"rpmwindows periodic", RPMWindows(), frequency.Quarterly, qty("smallWindows", "10", "largeWindows", "5"), "periodic", "90", false},
		{"rpmwindows frequent", RPMWindows(), frequency.Weekly, qty("smallWindows", "10", "mediumWindows", "10"), "frequent", "50", true},
		{"carpet blocks", Carpet(), frequency.Quarterly, qty("carpetSqFt", "1300"), "standard", "450", false},
		{"foamingdrain minimum", FoamingDrain(), frequency.Weekly, qty("standardDrains", "2", "greaseDrains", "1"), "standard", "50", true},
		{"stripwax one-time", StripWax(), frequency.OneTime, qty("floorSqFt", "1000"), "oneTime", "750", false},
		{"stripwax recurring minimum", StripWax(), frequency.Quarterly, qty("floorSqFt", "500"), "recurring", "550", true},
		{"electrostatic units", Electrostatic(), frequency.Monthly, qty("sqFt", "2500"), "standard", "150", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := pricing.Calculate(tt.rules, pricing.Inputs{Quantities: tt.qty, Frequency: tt.freq}, tt.rules.DefaultConfig())
			assert.Equal(t, tt.tier, q.Tier)
			assert.True(t, decimal.RequireFromString(tt.base).Equal(q.BaseAmount), "base %s", q.BaseAmount)
			assert.Equal(t, tt.minimum, q.MinimumApplied)
		})
	}
}

func TestServicesWithoutInstallIgnoreFlag(t *testing.T) {
	for _, rules := range []*pricing.Rules{GreaseTrap(), Microfiber(), StripWax(), Electrostatic()} {
		q := pricing.Calculate(rules, pricing.Inputs{
			Quantities:     map[string]decimal.Decimal{rules.QuantityFields()[0]: decimal.NewFromInt(5000)},
			Frequency:      rules.DefaultFrequency,
			IncludeInstall: true,
			IsDirtyInstall: true,
		}, rules.DefaultConfig())
		assert.True(t, q.InstallFee.IsZero(), rules.ID)
	}
}

func TestCombinedDiscountOnlyWhereDefined(t *testing.T) {
	in := pricing.Inputs{Frequency: frequency.TwicePerMonth, HasCombinedDiscount: true}

	rules := SaniClean()
	in.Quantities = qty("fixtures", "10")
	q := pricing.Calculate(rules, in, rules.DefaultConfig())
	assert.True(t, q.MonthlyRecurring.Equal(decimal.NewFromInt(140)), "saniclean has no discount")

	rules = Janitorial()
	in.Quantities = qty("hours", "5")
	q = pricing.Calculate(rules, in, rules.DefaultConfig())
	assert.True(t, q.MonthlyRecurring.Equal(decimal.NewFromInt(290)))
}

func TestShortContractServices(t *testing.T) {
	for _, rules := range []*pricing.Rules{GreaseTrap(), StripWax()} {
		assert.Equal(t, 1, rules.Contract.MinMonths, rules.ID)
	}
	assert.Equal(t, 2, SaniScrub().Contract.MinMonths)
}
