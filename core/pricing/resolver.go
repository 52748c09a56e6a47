package pricing

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"cleanquote/core/frequency"
	"cleanquote/core/types"
	cqerrors "cleanquote/internal/errors"
)

// Config sources
const (
	SourceDefaults = "defaults"
	SourceFile     = "file"
	SourceHTTP     = "http"
	SourceStore    = "store"
	SourceStatic   = "static"

	// SourceCandidate marks a document under review that is not published
	SourceCandidate = "candidate"
)

// Reserved document keys
const (
	KeyFrequencyMultipliers = "frequencyMultipliers"
	KeyAnnualFrequencies    = "annualFrequencies"
	KeyContractLimits       = "contractLimits"
)

// Document is an active rate document as served by the configuration service:
// {"serviceId": "...", "version": "...", "config": {...}}
type Document struct {
	ServiceID string         `json:"serviceId" yaml:"service_id"`
	Version   string         `json:"version,omitempty" yaml:"version,omitempty"`
	Config    map[string]any `json:"config" yaml:"config"`

	// Source is set by the adapter that produced the document
	Source string `json:"-" yaml:"-"`
}

// DecodeDocument parses a JSON rate document. A body without a config
// object is reported as MALFORMED_CONFIG.
func DecodeDocument(data []byte) (*Document, error) {
	var raw struct {
		ServiceID string          `json:"serviceId"`
		Version   string          `json:"version"`
		Config    json.RawMessage `json:"config"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, cqerrors.Wrap(cqerrors.TypeMalformedConfig, "decode rate document", err)
	}
	if len(raw.Config) == 0 || string(raw.Config) == "null" {
		return nil, cqerrors.MalformedConfig("rate document has no config object")
	}

	dec := json.NewDecoder(strings.NewReader(string(raw.Config)))
	dec.UseNumber()
	var cfg map[string]any
	if err := dec.Decode(&cfg); err != nil {
		return nil, cqerrors.Wrap(cqerrors.TypeMalformedConfig, "config is not an object", err)
	}

	return &Document{ServiceID: raw.ServiceID, Version: raw.Version, Config: cfg}, nil
}

// Flatten returns the numeric leaves of the document's rate section keyed by
// dotted path. Reserved keys and non-numeric leaves are skipped.
func (d *Document) Flatten() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	if d == nil {
		return out
	}
	for k, v := range d.Config {
		if k == KeyFrequencyMultipliers || k == KeyAnnualFrequencies || k == KeyContractLimits {
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			for nk, nv := range nested {
				if num, ok := toDecimal(nv); ok {
					out[k+"."+nk] = num
				}
			}
			continue
		}
		if num, ok := toDecimal(v); ok {
			out[k] = num
		}
	}
	return out
}

// Unflatten builds a document config from dotted rate keys
func Unflatten(rates map[string]decimal.Decimal) map[string]any {
	out := make(map[string]any)
	keys := make([]string, 0, len(rates))
	for k := range rates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := rates[k].InexactFloat64()
		parent, child, nested := strings.Cut(k, ".")
		if !nested {
			out[k] = v
			continue
		}
		m, ok := out[parent].(map[string]any)
		if !ok {
			m = make(map[string]any)
			out[parent] = m
		}
		m[child] = v
	}
	return out
}

// NewDocument renders a resolved config back into document form
func NewDocument(cfg types.PricingConfig) *Document {
	body := Unflatten(cfg.Rates)

	mult := make(map[string]any, len(cfg.Frequencies.MonthlyMultipliers))
	for f, v := range cfg.Frequencies.MonthlyMultipliers {
		mult[string(f)] = v.InexactFloat64()
	}
	visits := make(map[string]any, len(cfg.Frequencies.VisitsPerYear))
	for f, v := range cfg.Frequencies.VisitsPerYear {
		visits[string(f)] = v.InexactFloat64()
	}
	body[KeyFrequencyMultipliers] = mult
	body[KeyAnnualFrequencies] = visits
	body[KeyContractLimits] = map[string]any{
		"minMonths":     cfg.ContractLimits.MinMonths,
		"maxMonths":     cfg.ContractLimits.MaxMonths,
		"defaultMonths": cfg.ContractLimits.DefaultMonths,
	}

	return &Document{ServiceID: cfg.ServiceID, Version: cfg.Version, Config: body, Source: cfg.Source}
}

// Resolve builds the service's PricingConfig from doc. Every value the
// document lacks, or carries with the wrong shape, falls back to the static
// default on its own and is listed in Degraded. A nil doc yields the defaults.
func Resolve(rules *Rules, doc *Document) types.PricingConfig {
	if doc == nil {
		return rules.DefaultConfig()
	}

	cfg := types.PricingConfig{
		ServiceID: rules.ID,
		Version:   doc.Version,
		Source:    doc.Source,
		Rates:     make(map[string]decimal.Decimal, len(rules.Defaults)),
	}
	if cfg.Source == "" {
		cfg.Source = SourceHTTP
	}
	var degraded []string

	flat := doc.Flatten()
	for _, key := range rules.RateKeys() {
		v, ok := flat[key]
		if !ok || v.IsNegative() {
			cfg.Rates[key] = rules.Defaults[key]
			degraded = append(degraded, key)
			continue
		}
		cfg.Rates[key] = v
	}

	table, tableDegraded := resolveTable(rules, doc.Config)
	cfg.Frequencies = table
	degraded = append(degraded, tableDegraded...)

	limits, ok := resolveLimits(doc.Config[KeyContractLimits])
	if !ok {
		limits = rules.Contract
		degraded = append(degraded, KeyContractLimits)
	}
	cfg.ContractLimits = limits

	sort.Strings(degraded)
	cfg.Degraded = degraded
	return cfg
}

func resolveTable(rules *Rules, body map[string]any) (frequency.Table, []string) {
	defaults := frequency.DefaultTable()
	table := frequency.DefaultTable()
	var degraded []string

	mult, _ := body[KeyFrequencyMultipliers].(map[string]any)
	visits, _ := body[KeyAnnualFrequencies].(map[string]any)

	// Monthly is always resolved: it is the fallback for unknown keys
	needed := append([]frequency.Frequency{frequency.Monthly}, rules.Frequencies...)
	seen := make(map[frequency.Frequency]bool, len(needed))
	for _, f := range needed {
		if seen[f] {
			continue
		}
		seen[f] = true

		if v, ok := toDecimal(mult[string(f)]); ok && !v.IsNegative() {
			table.MonthlyMultipliers[f] = v
		} else {
			table.MonthlyMultipliers[f] = defaults.MonthlyMultipliers[f]
			degraded = append(degraded, KeyFrequencyMultipliers+"."+string(f))
		}

		if v, ok := toDecimal(visits[string(f)]); ok && v.IsPositive() {
			table.VisitsPerYear[f] = v
		} else {
			table.VisitsPerYear[f] = defaults.VisitsPerYear[f]
			degraded = append(degraded, KeyAnnualFrequencies+"."+string(f))
		}
	}

	return table, degraded
}

func resolveLimits(v any) (types.ContractLimits, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return types.ContractLimits{}, false
	}
	minM, ok1 := toInt(m["minMonths"])
	maxM, ok2 := toInt(m["maxMonths"])
	defM, ok3 := toInt(m["defaultMonths"])
	if !ok1 || !ok2 || !ok3 {
		return types.ContractLimits{}, false
	}
	limits := types.ContractLimits{MinMonths: minM, MaxMonths: maxM, DefaultMonths: defM}
	return limits, limits.Valid()
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}

func toInt(v any) (int, bool) {
	d, ok := toDecimal(v)
	if !ok || !d.Equal(d.Truncate(0)) {
		return 0, false
	}
	return int(d.IntPart()), true
}

// String describes the document for logs
func (d *Document) String() string {
	return fmt.Sprintf("%s@%s (%s)", d.ServiceID, d.Version, d.Source)
}
