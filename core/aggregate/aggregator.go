// Package aggregate - Proposal-level totals.
// The aggregator only sums published quotes; it knows nothing about
// individual service rules.
package aggregate

import (
	"sync"

	"cleanquote/core/types"
)

// Summarize sums quotes in the given order
func Summarize(name string, currency types.Currency, quotes []types.QuoteBreakdown) types.ProposalSummary {
	s := types.ProposalSummary{
		Name:     name,
		Services: make([]types.QuoteBreakdown, 0, len(quotes)),
		Currency: currency,
	}
	for _, q := range quotes {
		s.Add(q)
	}
	return s
}

// Aggregator collects the latest quote of each calculator on a proposal.
// It implements calculator.Sink and is safe for concurrent use.
type Aggregator struct {
	name     string
	currency types.Currency

	mu     sync.RWMutex
	quotes map[string]types.QuoteBreakdown
	order  []string

	// version increments on every change so observers can detect updates
	version uint64
}

// New creates an empty aggregator
func New(name string, currency types.Currency) *Aggregator {
	if currency == "" {
		currency = types.CurrencyUSD
	}
	return &Aggregator{
		name:     name,
		currency: currency,
		quotes:   make(map[string]types.QuoteBreakdown),
	}
}

// Publish replaces the quote of instance id, keeping its first position
func (a *Aggregator) Publish(id string, quote types.QuoteBreakdown) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.quotes[id]; !exists {
		a.order = append(a.order, id)
	}
	a.quotes[id] = quote
	a.version++
}

// Withdraw removes instance id
func (a *Aggregator) Withdraw(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.quotes[id]; !exists {
		return
	}
	delete(a.quotes, id)
	for i, existing := range a.order {
		if existing == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	a.version++
}

// Quote returns the latest quote of instance id
func (a *Aggregator) Quote(id string) (types.QuoteBreakdown, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	q, ok := a.quotes[id]
	return q, ok
}

// Len returns the number of services on the proposal
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.order)
}

// Version returns the change counter
func (a *Aggregator) Version() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.version
}

// Summary returns proposal totals in publication order
func (a *Aggregator) Summary() types.ProposalSummary {
	a.mu.RLock()
	defer a.mu.RUnlock()

	quotes := make([]types.QuoteBreakdown, 0, len(a.order))
	for _, id := range a.order {
		quotes = append(quotes, a.quotes[id])
	}
	return Summarize(a.name, a.currency, quotes)
}
