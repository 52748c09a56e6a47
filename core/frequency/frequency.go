// Package frequency - Service frequency keys and billing conversion tables.
// Every calculator resolves its frequency through a Table so that monthly
// multipliers and visit counts stay consistent across services.
package frequency

import (
	"strings"

	"github.com/shopspring/decimal"

	cqerrors "cleanquote/internal/errors"
)

// Frequency is a service cadence key
type Frequency string

const (
	OneTime       Frequency = "oneTime"
	Weekly        Frequency = "weekly"
	Biweekly      Frequency = "biweekly"
	TwicePerMonth Frequency = "twicePerMonth"
	Monthly       Frequency = "monthly"
	Bimonthly     Frequency = "bimonthly"
	Quarterly     Frequency = "quarterly"
	Biannual      Frequency = "biannual"
	Annual        Frequency = "annual"
)

// All lists every known frequency from most to least frequent, one-time last
var All = []Frequency{Weekly, Biweekly, TwicePerMonth, Monthly, Bimonthly, Quarterly, Biannual, Annual, OneTime}

// Class groups frequencies that share first-period and contract rules
type Class int

const (
	// ClassOneTime is a single visit with no recurrence
	ClassOneTime Class = iota
	// ClassSubMonthly is more than one visit a month (weekly, biweekly)
	ClassSubMonthly
	// ClassTwicePerMonth is exactly two visits a month with discount stacking
	ClassTwicePerMonth
	// ClassMonthly is one visit a month
	ClassMonthly
	// ClassVisitBased is billed per visit on a multi-month cycle
	ClassVisitBased
)

// String returns the class name
func (c Class) String() string {
	switch c {
	case ClassOneTime:
		return "one-time"
	case ClassSubMonthly:
		return "sub-monthly"
	case ClassTwicePerMonth:
		return "twice-per-month"
	case ClassMonthly:
		return "monthly"
	case ClassVisitBased:
		return "visit-based"
	default:
		return "unknown"
	}
}

var cycleMonths = map[Frequency]int{
	Bimonthly: 2,
	Quarterly: 3,
	Biannual:  6,
	Annual:    12,
}

var aliases = map[string]Frequency{
	"onetime":       OneTime,
	"one-time":      OneTime,
	"one_time":      OneTime,
	"once":          OneTime,
	"weekly":        Weekly,
	"biweekly":      Biweekly,
	"bi-weekly":     Biweekly,
	"every2weeks":   Biweekly,
	"twicepermonth": TwicePerMonth,
	"2x-monthly":    TwicePerMonth,
	"2xmonth":       TwicePerMonth,
	"semimonthly":   TwicePerMonth,
	"monthly":       Monthly,
	"bimonthly":     Bimonthly,
	"bi-monthly":    Bimonthly,
	"every2months":  Bimonthly,
	"quarterly":     Quarterly,
	"biannual":      Biannual,
	"bi-annual":     Biannual,
	"semiannual":    Biannual,
	"annual":        Annual,
	"annually":      Annual,
	"yearly":        Annual,
}

// Parse converts user text into a Frequency. Unrecognised text is returned
// as-is with ok=false so callers can still resolve it leniently.
func Parse(s string) (Frequency, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if f, ok := aliases[key]; ok {
		return f, true
	}
	return Frequency(strings.TrimSpace(s)), false
}

// IsKnown reports whether f is one of the defined keys
func (f Frequency) IsKnown() bool {
	switch f {
	case OneTime, Weekly, Biweekly, TwicePerMonth, Monthly, Bimonthly, Quarterly, Biannual, Annual:
		return true
	}
	return false
}

// Class returns the billing class. Unknown keys behave like monthly.
func (f Frequency) Class() Class {
	switch f {
	case OneTime:
		return ClassOneTime
	case Weekly, Biweekly:
		return ClassSubMonthly
	case TwicePerMonth:
		return ClassTwicePerMonth
	case Bimonthly, Quarterly, Biannual, Annual:
		return ClassVisitBased
	default:
		return ClassMonthly
	}
}

// IsVisitBased reports whether f is billed per discrete visit
func (f Frequency) IsVisitBased() bool {
	c := f.Class()
	return c == ClassOneTime || c == ClassVisitBased
}

// CycleMonths returns the months between visits for visit-based cadences, 0 otherwise
func (f Frequency) CycleMonths() int {
	return cycleMonths[f]
}

// Table maps frequencies to their monthly multiplier and annual visit count
type Table struct {
	MonthlyMultipliers map[Frequency]decimal.Decimal `json:"frequencyMultipliers"`
	VisitsPerYear      map[Frequency]decimal.Decimal `json:"annualFrequencies"`
}

// DefaultTable returns the static frequency table used when no config supplies one
func DefaultTable() Table {
	return Table{
		MonthlyMultipliers: map[Frequency]decimal.Decimal{
			OneTime:       decimal.Zero,
			Weekly:        decimal.RequireFromString("4.33"),
			Biweekly:      decimal.RequireFromString("2.165"),
			TwicePerMonth: decimal.NewFromInt(2),
			Monthly:       decimal.NewFromInt(1),
			Bimonthly:     decimal.RequireFromString("0.5"),
			Quarterly:     decimal.RequireFromString("0.3333"),
			Biannual:      decimal.RequireFromString("0.1667"),
			Annual:        decimal.RequireFromString("0.0833"),
		},
		VisitsPerYear: map[Frequency]decimal.Decimal{
			OneTime:       decimal.NewFromInt(1),
			Weekly:        decimal.NewFromInt(52),
			Biweekly:      decimal.NewFromInt(26),
			TwicePerMonth: decimal.NewFromInt(24),
			Monthly:       decimal.NewFromInt(12),
			Bimonthly:     decimal.NewFromInt(6),
			Quarterly:     decimal.NewFromInt(4),
			Biannual:      decimal.NewFromInt(2),
			Annual:        decimal.NewFromInt(1),
		},
	}
}

// Clone returns a deep copy of the table
func (t Table) Clone() Table {
	out := Table{
		MonthlyMultipliers: make(map[Frequency]decimal.Decimal, len(t.MonthlyMultipliers)),
		VisitsPerYear:      make(map[Frequency]decimal.Decimal, len(t.VisitsPerYear)),
	}
	for k, v := range t.MonthlyMultipliers {
		out.MonthlyMultipliers[k] = v
	}
	for k, v := range t.VisitsPerYear {
		out.VisitsPerYear[k] = v
	}
	return out
}

// Resolution is the outcome of resolving a frequency against a table
type Resolution struct {
	Frequency         Frequency
	Class             Class
	MonthlyMultiplier decimal.Decimal
	VisitsPerYear     decimal.Decimal
	IsVisitBased      bool
	CycleMonths       int

	// Known is false when the key fell back to monthly's values
	Known bool
}

// Resolve looks f up in the table. A key missing from the table resolves to
// monthly's multiplier and visit count and never fails.
//
// The silent fallback hides typos in config documents; callers that need
// to tell them apart should use ResolveStrict.
func (t Table) Resolve(f Frequency) Resolution {
	mult, okMult := t.MonthlyMultipliers[f]
	visits, okVisits := t.VisitsPerYear[f]
	known := f.IsKnown() && okMult && okVisits

	if !known {
		mult = t.lookup(t.MonthlyMultipliers, Monthly, decimal.NewFromInt(1))
		visits = t.lookup(t.VisitsPerYear, Monthly, decimal.NewFromInt(12))
		return Resolution{
			Frequency:         f,
			Class:             ClassMonthly,
			MonthlyMultiplier: mult,
			VisitsPerYear:     visits,
			IsVisitBased:      false,
			Known:             false,
		}
	}

	return Resolution{
		Frequency:         f,
		Class:             f.Class(),
		MonthlyMultiplier: mult,
		VisitsPerYear:     visits,
		IsVisitBased:      f.IsVisitBased(),
		CycleMonths:       f.CycleMonths(),
		Known:             true,
	}
}

// ResolveStrict is Resolve but reports an UNKNOWN_FREQUENCY error instead of falling back
func (t Table) ResolveStrict(f Frequency) (Resolution, error) {
	r := t.Resolve(f)
	if !r.Known {
		return r, cqerrors.UnknownFrequency(string(f))
	}
	return r, nil
}

func (t Table) lookup(m map[Frequency]decimal.Decimal, f Frequency, fallback decimal.Decimal) decimal.Decimal {
	if v, ok := m[f]; ok {
		return v
	}
	return fallback
}
