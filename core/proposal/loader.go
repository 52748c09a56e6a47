package proposal

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cleanquote/core/aggregate"
	"cleanquote/core/calculator"
	"cleanquote/core/form"
	"cleanquote/core/pricing"
	"cleanquote/core/services"
	"cleanquote/core/types"
	"cleanquote/internal/logging"
)

// DefaultConcurrency bounds parallel config fetches
const DefaultConcurrency = 4

// Loader builds calculators for proposals
type Loader struct {
	Registry     *services.Registry
	Source       calculator.ConfigSource
	Logger       *zap.Logger
	Currency     types.Currency
	Concurrency  int
	FetchTimeout time.Duration
}

// Session is a loaded proposal: one calculator per item feeding one aggregator
type Session struct {
	Proposal    *Proposal
	Aggregator  *aggregate.Aggregator
	Calculators []*calculator.Calculator
}

// Load validates p, creates its calculators and fetches every service's
// active config concurrently. Fetch failures are not errors: affected
// calculators price from static defaults and report it in their Status.
func (l *Loader) Load(ctx context.Context, p *Proposal) (*Session, error) {
	reg := l.Registry
	if reg == nil {
		reg = services.Default()
	}
	logger := l.Logger
	if logger == nil {
		logger = logging.Component("proposal")
	}

	if err := p.Validate(reg.Lookup); err != nil {
		return nil, err
	}

	currency := p.Currency
	if currency == "" {
		currency = l.Currency
	}
	if currency == "" {
		currency = types.CurrencyUSD
	}

	session := &Session{
		Proposal:   p,
		Aggregator: aggregate.New(p.Name, currency),
	}

	for _, item := range p.Services {
		rules, _ := reg.Get(item.Service)
		init := item.Initial()
		// custom totals are applied after the config load, which clears them
		init.Overrides = pricing.Overrides{}
		init.CustomInstallationFee = nil

		opts := []calculator.Option{
			calculator.WithSink(session.Aggregator),
			calculator.WithInitial(init),
			calculator.WithCurrency(currency),
			calculator.WithLogger(logger.With(logging.ServiceID(rules.ID))),
		}
		if l.Source != nil {
			opts = append(opts, calculator.WithSource(l.Source))
		}
		if l.FetchTimeout > 0 {
			opts = append(opts, calculator.WithFetchTimeout(l.FetchTimeout))
		}
		session.Calculators = append(session.Calculators, calculator.New(rules, opts...))
	}

	limit := l.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, calc := range session.Calculators {
		calc := calc
		g.Go(func() error {
			if err := calc.Load(gctx); err != nil {
				logger.Warn("pricing from defaults",
					logging.ServiceID(calc.Rules().ID),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		session.Close()
		return nil, err
	}

	for i, item := range p.Services {
		if err := session.applyOverrides(session.Calculators[i], item); err != nil {
			session.Close()
			return nil, err
		}
	}

	return session, nil
}

func (s *Session) applyOverrides(calc *calculator.Calculator, item Item) error {
	init := item.Initial()
	var actions []form.Action
	if o := init.Overrides; !o.IsEmpty() {
		for field, v := range map[string]*decimal.Decimal{
			types.FieldPerVisit:         o.PerVisit,
			types.FieldMonthlyRecurring: o.MonthlyRecurring,
			types.FieldFirstMonth:       o.FirstMonth,
			types.FieldContractTotal:    o.ContractTotal,
		} {
			if v != nil {
				actions = append(actions, form.SetOverride{Field: field, Value: *v})
			}
		}
	}
	if fee := init.CustomInstallationFee; fee != nil {
		actions = append(actions, form.SetOverride{Field: types.FieldInstallationFee, Value: *fee})
	}
	if len(actions) == 0 {
		return nil
	}
	_, err := calc.DispatchAll(actions...)
	return err
}

// Summary returns proposal totals
func (s *Session) Summary() types.ProposalSummary {
	return s.Aggregator.Summary()
}

// Statuses returns the load status of each calculator keyed by service id
func (s *Session) Statuses() map[string]calculator.Status {
	out := make(map[string]calculator.Status, len(s.Calculators))
	for _, c := range s.Calculators {
		out[c.Rules().ID] = c.Status()
	}
	return out
}

// Close closes every calculator
func (s *Session) Close() {
	for _, c := range s.Calculators {
		c.Close()
	}
}
