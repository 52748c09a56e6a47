package form

import (
	"strings"

	"github.com/shopspring/decimal"

	"cleanquote/core/pricing"
	"cleanquote/core/types"
	cqerrors "cleanquote/internal/errors"
)

// Reduce applies action to state and returns the new state. The input state
// is never modified. An error is returned only for edits that name a field
// the service does not have; the returned state is then unchanged.
func Reduce(rules *pricing.Rules, state State, action Action) (State, error) {
	s := state.Clone()

	switch a := action.(type) {
	case SetQuantity:
		if !rules.HasQuantity(a.Field) {
			return state, unknownField(rules, "quantity", a.Field)
		}
		v := nonNegative(a.Value)
		if !s.Quantities[a.Field].Equal(v) {
			s.Quantities[a.Field] = v
			s.clearOverrides()
		}
		delete(s.Drafts, Quantity(a.Field))

	case SetFrequency:
		if s.Frequency != a.Frequency {
			s.Frequency = a.Frequency
			s.clearOverrides()
		}

	case SetContractMonths:
		s.ContractMonths = s.Limits.Clamp(a.Months)
		delete(s.Drafts, ContractMonths())

	case SetRate:
		if !rules.HasRate(a.Key) {
			return state, unknownField(rules, "rate", a.Key)
		}
		v := nonNegative(a.Value)
		if !s.Rates[a.Key].Equal(v) {
			s.Rates[a.Key] = v
			s.clearOverrides()
		}
		delete(s.Drafts, Rate(a.Key))

	case SetFlag:
		switch a.Flag {
		case FlagIncludeInstall:
			s.IncludeInstall = a.Value
		case FlagIsDirtyInstall:
			s.IsDirtyInstall = a.Value
		case FlagHasCombinedDiscount:
			s.HasCombinedDiscount = a.Value
		default:
			return state, unknownField(rules, "flag", string(a.Flag))
		}

	case SetOverride:
		v := a.Value
		if !setOverride(&s, a.Field, &v) {
			return state, unknownField(rules, "override", a.Field)
		}
		delete(s.Drafts, Override(a.Field))

	case ClearOverride:
		if !setOverride(&s, a.Field, nil) {
			return state, unknownField(rules, "override", a.Field)
		}
		delete(s.Drafts, Override(a.Field))

	case EditDraft:
		if err := checkRef(rules, a.Field); err != nil {
			return state, err
		}
		s.Drafts[a.Field] = a.Text

	case CommitDraft:
		if err := checkRef(rules, a.Field); err != nil {
			return state, err
		}
		text, ok := s.Drafts[a.Field]
		if !ok {
			return state, nil
		}
		delete(s.Drafts, a.Field)
		return Reduce(rules, s, commitAction(a.Field, text))

	case LoadConfig:
		for key, v := range a.Config.Rates {
			if !rules.HasRate(key) || s.Pinned[key] {
				continue
			}
			s.Rates[key] = v
		}
		s.Limits = limitsOf(rules, a.Config)
		s.ContractMonths = s.Limits.Clamp(s.ContractMonths)
		s.clearOverrides()

	default:
		return state, cqerrors.Newf(cqerrors.TypeInternal, "unhandled form action %T", action)
	}

	return s, nil
}

// commitAction converts draft text into the action it stands for. Text that
// is not a number, or is negative, commits as zero; an empty override draft
// clears the override.
func commitAction(ref FieldRef, text string) Action {
	text = strings.TrimSpace(text)

	if ref.Kind == KindOverride && text == "" {
		return ClearOverride{Field: ref.Key}
	}

	v := parseLenient(text)
	switch ref.Kind {
	case KindQuantity:
		return SetQuantity{Field: ref.Key, Value: v}
	case KindRate:
		return SetRate{Key: ref.Key, Value: v}
	case KindContractMonths:
		return SetContractMonths{Months: int(v.IntPart())}
	default:
		return SetOverride{Field: ref.Key, Value: v}
	}
}

// parseLenient reads user text as a non-negative amount, coercing anything
// else to zero
func parseLenient(text string) decimal.Decimal {
	text = strings.ReplaceAll(strings.TrimPrefix(text, "$"), ",", "")
	v, err := decimal.NewFromString(text)
	if err != nil || v.IsNegative() {
		return decimal.Zero
	}
	return v
}

func setOverride(s *State, field string, v *decimal.Decimal) bool {
	switch field {
	case types.FieldPerVisit:
		s.Overrides.PerVisit = v
	case types.FieldMonthlyRecurring:
		s.Overrides.MonthlyRecurring = v
	case types.FieldFirstMonth:
		s.Overrides.FirstMonth = v
	case types.FieldContractTotal:
		s.Overrides.ContractTotal = v
	case types.FieldInstallationFee:
		s.CustomInstallationFee = v
	default:
		return false
	}
	return true
}

func checkRef(rules *pricing.Rules, ref FieldRef) error {
	switch ref.Kind {
	case KindQuantity:
		if !rules.HasQuantity(ref.Key) {
			return unknownField(rules, "quantity", ref.Key)
		}
	case KindRate:
		if !rules.HasRate(ref.Key) {
			return unknownField(rules, "rate", ref.Key)
		}
	case KindContractMonths:
	case KindOverride:
		switch ref.Key {
		case types.FieldPerVisit, types.FieldMonthlyRecurring, types.FieldFirstMonth,
			types.FieldContractTotal, types.FieldInstallationFee:
		default:
			return unknownField(rules, "override", ref.Key)
		}
	default:
		return unknownField(rules, "field kind", string(ref.Kind))
	}
	return nil
}

func unknownField(rules *pricing.Rules, kind, name string) error {
	return cqerrors.Newf(cqerrors.TypeInvalidInput, "%s has no %s %q", rules.ID, kind, name).
		WithContext("service", rules.ID)
}
