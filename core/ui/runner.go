// Package ui - Proposal runner with live progress
package ui

import (
	"context"
	"sort"

	"cleanquote/core/proposal"
)

// QuoteRunner loads a proposal with live UI feedback
type QuoteRunner struct {
	w           *Writer
	loader      *proposal.Loader
	showSpinner bool
}

// NewQuoteRunner creates a runner
func NewQuoteRunner(w *Writer, loader *proposal.Loader, showSpinner bool) *QuoteRunner {
	return &QuoteRunner{
		w:           w,
		loader:      loader,
		showSpinner: showSpinner,
	}
}

// Run loads p, then reports every service whose config could not be fetched.
// The caller owns the returned session.
func (r *QuoteRunner) Run(ctx context.Context, p *proposal.Proposal) (*proposal.Session, int, error) {
	var spinner *Spinner
	if r.showSpinner {
		spinner = r.w.NewSpinner("Loading pricing configs")
		spinner.Start()
	}

	session, err := r.loader.Load(ctx, p)
	if spinner != nil {
		spinner.Stop(err == nil)
	}
	if err != nil {
		return nil, 0, err
	}

	failures := 0
	for _, calc := range session.Calculators {
		st := calc.Status()
		if st.LastFetchError != "" {
			failures++
			r.w.Warning("%s: %s", calc.Rules().ID, st.LastFetchError)
		}
		if len(st.Degraded) > 0 {
			degraded := append([]string(nil), st.Degraded...)
			sort.Strings(degraded)
			r.w.Debug("%s %s: defaults used for %v", calc.Rules().ID, st.ConfigVersion, degraded)
		}
	}
	return session, failures, nil
}
