package form

import (
	"fmt"

	"github.com/shopspring/decimal"

	"cleanquote/core/frequency"
	"cleanquote/core/types"
)

// Action is a single edit to a form. The set of actions is closed.
type Action interface {
	isAction()
	fmt.Stringer
}

// SetQuantity sets a quantity field; negative values are stored as zero
type SetQuantity struct {
	Field string
	Value decimal.Decimal
}

// SetFrequency changes the service cadence
type SetFrequency struct {
	Frequency frequency.Frequency
}

// SetContractMonths changes the contract length; it is clamped to the limits
type SetContractMonths struct {
	Months int
}

// SetRate edits a rate mirror
type SetRate struct {
	Key   string
	Value decimal.Decimal
}

// SetFlag toggles a boolean option
type SetFlag struct {
	Flag  Flag
	Value bool
}

// SetOverride pins a custom total. Field is one of the types.Field* names.
type SetOverride struct {
	Field string
	Value decimal.Decimal
}

// ClearOverride restores auto-calculation of one custom total
type ClearOverride struct {
	Field string
}

// EditDraft records raw text for a field without applying it
type EditDraft struct {
	Field FieldRef
	Text  string
}

// CommitDraft parses the field's draft and applies it
type CommitDraft struct {
	Field FieldRef
}

// LoadConfig applies a freshly resolved pricing config
type LoadConfig struct {
	Config types.PricingConfig
}

func (SetQuantity) isAction()       {}
func (SetFrequency) isAction()      {}
func (SetContractMonths) isAction() {}
func (SetRate) isAction()           {}
func (SetFlag) isAction()           {}
func (SetOverride) isAction()       {}
func (ClearOverride) isAction()     {}
func (EditDraft) isAction()         {}
func (CommitDraft) isAction()       {}
func (LoadConfig) isAction()        {}

func (a SetQuantity) String() string       { return fmt.Sprintf("SetQuantity(%s=%s)", a.Field, a.Value) }
func (a SetFrequency) String() string      { return fmt.Sprintf("SetFrequency(%s)", a.Frequency) }
func (a SetContractMonths) String() string { return fmt.Sprintf("SetContractMonths(%d)", a.Months) }
func (a SetRate) String() string           { return fmt.Sprintf("SetRate(%s=%s)", a.Key, a.Value) }
func (a SetFlag) String() string           { return fmt.Sprintf("SetFlag(%s=%t)", a.Flag, a.Value) }
func (a SetOverride) String() string       { return fmt.Sprintf("SetOverride(%s=%s)", a.Field, a.Value) }
func (a ClearOverride) String() string     { return fmt.Sprintf("ClearOverride(%s)", a.Field) }
func (a EditDraft) String() string         { return fmt.Sprintf("EditDraft(%s:%s=%q)", a.Field.Kind, a.Field.Key, a.Text) }
func (a CommitDraft) String() string       { return fmt.Sprintf("CommitDraft(%s:%s)", a.Field.Kind, a.Field.Key) }
func (a LoadConfig) String() string {
	return fmt.Sprintf("LoadConfig(%s %s)", a.Config.Source, a.Config.Version)
}
