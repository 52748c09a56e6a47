// Package services provides the service rule registry.
// Each cleaning service is a pricing.Rules table; services are added by
// registering rules without modifying the pricing engine.
package services

import (
	"fmt"
	"sort"
	"sync"

	"cleanquote/core/frequency"
	"cleanquote/core/pricing"
	cqerrors "cleanquote/internal/errors"
)

// Registry manages service rule registration
type Registry struct {
	mu    sync.RWMutex
	rules map[string]*pricing.Rules
	order []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		rules: make(map[string]*pricing.Rules),
	}
}

// Register validates and adds rules to the registry
func (r *Registry) Register(rules *pricing.Rules) error {
	if err := Validate(rules); err != nil {
		return fmt.Errorf("invalid rules for %s: %w", rules.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[rules.ID]; exists {
		return fmt.Errorf("service already registered: %s", rules.ID)
	}

	r.rules[rules.ID] = rules
	r.order = append(r.order, rules.ID)
	return nil
}

// Get returns the rules for a service
func (r *Registry) Get(id string) (*pricing.Rules, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rules, ok := r.rules[id]
	return rules, ok
}

// Lookup returns the rules for a service or a NOT_FOUND error
func (r *Registry) Lookup(id string) (*pricing.Rules, error) {
	rules, ok := r.Get(id)
	if !ok {
		return nil, cqerrors.NotFound("service", id)
	}
	return rules, nil
}

// GetAll returns all registered rules in registration order
func (r *Registry) GetAll() []*pricing.Rules {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*pricing.Rules, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, r.rules[id])
	}
	return all
}

// IDs returns all registered service IDs, sorted
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := append([]string(nil), r.order...)
	sort.Strings(ids)
	return ids
}

// Validate checks that every rate key the rules read has a static default,
// so a calculation never silently prices a component at zero.
func Validate(rules *pricing.Rules) error {
	if rules.ID == "" || rules.Name == "" {
		return cqerrors.InvalidInput("service id and name are required")
	}
	if len(rules.Frequencies) == 0 {
		return cqerrors.InvalidInput("service must offer at least one frequency")
	}
	if !rules.Supports(rules.DefaultFrequency) {
		return cqerrors.Newf(cqerrors.TypeInvalidInput, "default frequency %s is not offered", rules.DefaultFrequency)
	}
	if !rules.Contract.Valid() {
		return cqerrors.Newf(cqerrors.TypeInvalidInput, "invalid contract limits %+v", rules.Contract)
	}
	if len(rules.Components) == 0 {
		return cqerrors.InvalidInput("service must bill at least one component")
	}

	tiers := make(map[string]bool)
	for _, f := range rules.Frequencies {
		if !f.IsKnown() {
			return cqerrors.UnknownFrequency(string(f))
		}
		tiers[rules.TierFor(f)] = true
	}
	tiers[rules.TierFor(frequency.Monthly)] = true

	var missing []string
	need := func(key string) {
		if !rules.HasRate(key) {
			missing = append(missing, key)
		}
	}

	for tier := range tiers {
		need(rules.MinimumKey(tier))
		for _, c := range rules.Components {
			switch {
			case c.Block != nil:
				need(c.Block.FirstBlockKey)
				need(c.Block.FirstRateKey)
				need(c.Block.AdditionalRateKey)
			default:
				need(c.RateKey(tier))
				if c.UnitKey != "" {
					need(c.UnitKey)
				}
			}
		}
	}
	if rules.Install {
		need(pricing.RateInstallDirty)
		need(pricing.RateInstallClean)
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return cqerrors.Newf(cqerrors.TypeInvalidInput, "missing default rates: %v", missing)
	}
	return nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Builtin returns the rules of every service this module prices
func Builtin() []*pricing.Rules {
	return []*pricing.Rules{
		SaniScrub(),
		SaniClean(),
		SaniPod(),
		GreaseTrap(),
		Janitorial(),
		Microfiber(),
		RPMWindows(),
		Carpet(),
		FoamingDrain(),
		StripWax(),
		Electrostatic(),
	}
}

// Default returns the registry of built-in services
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
		for _, rules := range Builtin() {
			if err := defaultRegistry.Register(rules); err != nil {
				panic(err)
			}
		}
	})
	return defaultRegistry
}
