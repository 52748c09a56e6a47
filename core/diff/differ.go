// Package diff provides rate-level config diffing.
// Compares two resolved pricing configs of the same service value by value.
package diff

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"cleanquote/core/pricing"
	"cleanquote/core/types"
)

// DiffResult is the complete diff between two resolved configs
type DiffResult struct {
	ServiceID     string `json:"service_id"`
	BeforeVersion string `json:"before_version,omitempty"`
	AfterVersion  string `json:"after_version,omitempty"`

	// Value-level changes
	Added     []*ValueDiff `json:"added"`
	Removed   []*ValueDiff `json:"removed"`
	Changed   []*ValueDiff `json:"changed"`
	Unchanged []*ValueDiff `json:"-"`

	// Counts
	AddedCount     int `json:"added_count"`
	RemovedCount   int `json:"removed_count"`
	ChangedCount   int `json:"changed_count"`
	UnchangedCount int `json:"unchanged_count"`
}

// HasChanges reports whether anything differs
func (r *DiffResult) HasChanges() bool {
	return r.AddedCount+r.RemovedCount+r.ChangedCount > 0
}

// ValueDiff describes changes to a single config value
type ValueDiff struct {
	Key        string          `json:"key"`
	ChangeType ChangeType      `json:"change"`
	Before     decimal.Decimal `json:"before"`
	After      decimal.Decimal `json:"after"`
	Delta      decimal.Decimal `json:"delta"`

	// DeltaPercent is relative to Before, zero when Before is zero
	DeltaPercent float64 `json:"delta_percent"`

	// BeforeDefault and AfterDefault are set when the value fell back to
	// the built-in rate on that side
	BeforeDefault bool `json:"before_default,omitempty"`
	AfterDefault  bool `json:"after_default,omitempty"`
}

// ChangeType indicates the type of change
type ChangeType int

const (
	ChangeAdded     ChangeType = iota // Value now supplied by the document
	ChangeRemoved                     // Value now falls back to the built-in rate
	ChangeModified                    // Value changed
	ChangeUnchanged                   // No change
)

// String returns the change type name
func (c ChangeType) String() string {
	switch c {
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	case ChangeModified:
		return "modified"
	case ChangeUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// MarshalText encodes the change type by name
func (c ChangeType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Differ computes diffs between resolved configs
type Differ struct {
	// Threshold below which a relative change counts as unchanged (0.001 = 0.1%)
	ChangeThreshold float64
}

// NewDiffer creates a new differ
func NewDiffer(changeThreshold float64) *Differ {
	if changeThreshold < 0 {
		changeThreshold = 0
	}
	return &Differ{ChangeThreshold: changeThreshold}
}

// Diff computes the diff between before and after. Both configs must have
// been resolved against the same service rules.
func (d *Differ) Diff(before, after types.PricingConfig) *DiffResult {
	result := &DiffResult{
		ServiceID:     after.ServiceID,
		BeforeVersion: before.Version,
		AfterVersion:  after.Version,
		Added:         []*ValueDiff{},
		Removed:       []*ValueDiff{},
		Changed:       []*ValueDiff{},
		Unchanged:     []*ValueDiff{},
	}

	beforeValues := Values(before)
	afterValues := Values(after)
	beforeDefault := degradedSet(before)
	afterDefault := degradedSet(after)

	for key, a := range afterValues {
		b := beforeValues[key]
		vd := &ValueDiff{
			Key:           key,
			Before:        b,
			After:         a,
			Delta:         a.Sub(b),
			BeforeDefault: isDefault(before, beforeDefault, key),
			AfterDefault:  isDefault(after, afterDefault, key),
		}
		if !b.IsZero() {
			vd.DeltaPercent = vd.Delta.Div(b).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}

		switch {
		case vd.BeforeDefault && !vd.AfterDefault:
			vd.ChangeType = ChangeAdded
			result.Added = append(result.Added, vd)
			result.AddedCount++
		case !vd.BeforeDefault && vd.AfterDefault:
			vd.ChangeType = ChangeRemoved
			result.Removed = append(result.Removed, vd)
			result.RemovedCount++
		case d.significant(b, a):
			vd.ChangeType = ChangeModified
			result.Changed = append(result.Changed, vd)
			result.ChangedCount++
		default:
			vd.ChangeType = ChangeUnchanged
			result.Unchanged = append(result.Unchanged, vd)
			result.UnchangedCount++
		}
	}

	// Sort all lists by key for determinism
	sortDiffs(result.Added)
	sortDiffs(result.Removed)
	sortDiffs(result.Changed)
	sortDiffs(result.Unchanged)

	return result
}

func (d *Differ) significant(before, after decimal.Decimal) bool {
	if before.Equal(after) {
		return false
	}
	if before.IsZero() || d.ChangeThreshold == 0 {
		return true
	}
	rel := after.Sub(before).Div(before).Abs().InexactFloat64()
	return rel >= d.ChangeThreshold
}

// Values flattens a resolved config into keyed values: rate keys, frequency
// table entries and contract limits, named the way degraded keys are.
func Values(cfg types.PricingConfig) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(cfg.Rates)+20)
	for k, v := range cfg.Rates {
		out[k] = v
	}
	for f, v := range cfg.Frequencies.MonthlyMultipliers {
		out["frequencyMultipliers."+string(f)] = v
	}
	for f, v := range cfg.Frequencies.VisitsPerYear {
		out["annualFrequencies."+string(f)] = v
	}
	l := cfg.ContractLimits
	out["contractLimits.minMonths"] = decimal.NewFromInt(int64(l.MinMonths))
	out["contractLimits.maxMonths"] = decimal.NewFromInt(int64(l.MaxMonths))
	out["contractLimits.defaultMonths"] = decimal.NewFromInt(int64(l.DefaultMonths))
	return out
}

func degradedSet(cfg types.PricingConfig) map[string]bool {
	set := make(map[string]bool, len(cfg.Degraded))
	for _, k := range cfg.Degraded {
		set[k] = true
	}
	return set
}

// isDefault reports whether key of cfg is a built-in value, either because
// cfg is the static defaults or because key or its group is degraded
func isDefault(cfg types.PricingConfig, set map[string]bool, key string) bool {
	if cfg.Source == pricing.SourceDefaults || set[key] {
		return true
	}
	for i := len(key) - 1; i > 0; i-- {
		if key[i] == '.' {
			return set[key[:i]]
		}
	}
	return false
}

func sortDiffs(diffs []*ValueDiff) {
	sort.Slice(diffs, func(i, j int) bool {
		return diffs[i].Key < diffs[j].Key
	})
}

// FormatPercent renders a delta percent with sign ("+12.5%")
func FormatPercent(p float64) string {
	s := strconv.FormatFloat(p, 'f', 1, 64)
	if p > 0 {
		s = "+" + s
	}
	return s + "%"
}
