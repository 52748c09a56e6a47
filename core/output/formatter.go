// Package output renders proposal summaries.
// This package produces human and machine-readable outputs.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"cleanquote/core/calculator"
	"cleanquote/core/types"
	"cleanquote/core/ui"
	cqerrors "cleanquote/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable CLI table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"

	// FormatYAML is machine-readable YAML
	FormatYAML Format = "yaml"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render produces output for the given result
	Render(w io.Writer, result *Result) error
}

// Result is everything a formatter may show
type Result struct {
	// Summary is the priced proposal
	Summary types.ProposalSummary `json:"summary" yaml:"summary"`

	// Statuses holds config load state per service
	Statuses map[string]calculator.Status `json:"statuses,omitempty" yaml:"statuses,omitempty"`

	// ShowLineItems prints each service's line items (cli only)
	ShowLineItems bool `json:"-" yaml:"-"`

	// NoColor disables ANSI colours (cli only)
	NoColor bool `json:"-" yaml:"-"`
}

// Registry manages formatter registration
type Registry struct {
	mu         sync.RWMutex
	formatters map[Format]Formatter
}

// NewRegistry creates a registry with the built-in formatters
func NewRegistry() *Registry {
	r := &Registry{formatters: make(map[Format]Formatter)}
	r.Register(CLIFormatter{})
	r.Register(JSONFormatter{Indent: true})
	r.Register(YAMLFormatter{})
	return r
}

// Register adds a formatter to the registry
func (r *Registry) Register(f Formatter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formatters[f.Format()] = f
}

// Get returns the formatter for a format
func (r *Registry) Get(format Format) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formatters[Format(strings.ToLower(string(format)))]
	if !ok {
		return nil, cqerrors.InvalidInput(fmt.Sprintf("unknown output format %q", format)).
			WithContext("valid", r.formatsLocked())
	}
	return f, nil
}

// Formats lists the registered format names
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.formatsLocked()
}

func (r *Registry) formatsLocked() []string {
	out := make([]string, 0, len(r.formatters))
	for f := range r.formatters {
		out = append(out, string(f))
	}
	sort.Strings(out)
	return out
}

// JSONFormatter renders JSON
type JSONFormatter struct {
	Indent bool
}

func (JSONFormatter) Format() Format { return FormatJSON }

func (f JSONFormatter) Render(w io.Writer, result *Result) error {
	enc := json.NewEncoder(w)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

// YAMLFormatter renders YAML
type YAMLFormatter struct{}

func (YAMLFormatter) Format() Format { return FormatYAML }

func (YAMLFormatter) Render(w io.Writer, result *Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlResult(result)); err != nil {
		return err
	}
	return enc.Close()
}

// yamlResult converts decimals to strings; yaml.v3 has no decimal support
func yamlResult(result *Result) map[string]any {
	data, _ := json.Marshal(result)
	var generic map[string]any
	_ = json.Unmarshal(data, &generic)
	return generic
}

// CLIFormatter renders a terminal table
type CLIFormatter struct{}

func (CLIFormatter) Format() Format { return FormatCLI }

func (CLIFormatter) Render(w io.Writer, result *Result) error {
	s := result.Summary
	out := ui.NewWriter(w, result.NoColor)

	table := out.NewTable("Service", "Frequency", "Per Visit", "Monthly", "Install", "First Period", "Months", "Contract Total").
		AlignRight(2, 3, 4, 5, 6, 7)

	for _, q := range s.Services {
		monthly := Money(q.MonthlyRecurring, s.Currency)
		if q.IsVisitBased {
			monthly = "~" + Money(q.ApproxMonthly, s.Currency)
		}
		name := q.ServiceName
		if q.MinimumApplied {
			name += " (min)"
		}
		if len(q.Overridden) > 0 {
			name += " *"
		}
		table.AddRow(
			name,
			q.Frequency,
			Money(q.PerVisit, s.Currency),
			monthly,
			Money(q.InstallFee, s.Currency),
			Money(q.FirstPeriodTotal, s.Currency),
			fmt.Sprintf("%d", q.ContractMonths),
			Money(q.ContractTotal, s.Currency),
		)
	}
	table.Render()

	if result.ShowLineItems {
		for _, q := range s.Services {
			out.Println("")
			out.SubHeader(q.ServiceName + " (" + q.Tier + ")")
			items := out.NewTable("Item", "Formula", "Amount").AlignRight(2)
			for _, li := range q.LineItems {
				items.AddRow(li.Label, li.Formula, Money(li.Amount, s.Currency))
			}
			items.Render()
		}
	}

	warnings := 0
	for _, st := range result.Statuses {
		if st.LastFetchError != "" {
			warnings++
		}
	}

	box := out.NewQuoteSummary()
	box.Name = s.Name
	box.PerVisit = Money(s.TotalPerVisit, s.Currency)
	box.MonthlyRecurring = Money(s.TotalMonthlyRecurring, s.Currency)
	if !s.TotalApproxMonthly.IsZero() {
		box.ApproxMonthly = Money(s.TotalApproxMonthly, s.Currency)
	}
	if !s.TotalInstallFees.IsZero() {
		box.InstallFees = Money(s.TotalInstallFees, s.Currency)
	}
	box.FirstPeriod = Money(s.TotalFirstPeriod, s.Currency)
	box.ContractTotal = Money(s.TotalContract, s.Currency)
	box.Services = len(s.Services)
	box.Warnings = warnings
	box.Render()

	return nil
}

// Money formats an amount as $1,234.56
func Money(amount decimal.Decimal, currency types.Currency) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	return sign + currency.Symbol() + b.String() + "." + frac
}
