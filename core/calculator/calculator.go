// Package calculator - Service calculator instances.
// A Calculator owns one form, fetches its pricing config asynchronously and
// publishes a fresh quote to its sink after every change.
package calculator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cleanquote/core/form"
	"cleanquote/core/pricing"
	"cleanquote/core/types"
	cqerrors "cleanquote/internal/errors"
	"cleanquote/internal/logging"
)

// ConfigSource supplies the active rate document for a service.
// A nil document with a nil error means the service has no active config.
type ConfigSource interface {
	ActiveConfig(ctx context.Context, serviceID string) (*pricing.Document, error)
}

// Sink receives quotes as calculators recompute them
type Sink interface {
	// Publish replaces the quote of instance id
	Publish(id string, quote types.QuoteBreakdown)

	// Withdraw removes instance id
	Withdraw(id string)
}

// Status is advisory load state for callers that want to surface it
type Status struct {
	IsLoadingConfig bool      `json:"is_loading_config"`
	LastFetchError  string    `json:"last_fetch_error,omitempty"`
	ConfigSource    string    `json:"config_source"`
	ConfigVersion   string    `json:"config_version,omitempty"`
	Degraded        []string  `json:"degraded,omitempty"`
	LoadedAt        time.Time `json:"loaded_at,omitempty"`
}

// Option configures a Calculator
type Option func(*Calculator)

// WithSource sets the config source. Without one the calculator prices from static defaults.
func WithSource(source ConfigSource) Option {
	return func(c *Calculator) { c.source = source }
}

// WithSink sets the quote sink
func WithSink(sink Sink) Option {
	return func(c *Calculator) { c.sink = sink }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Calculator) { c.logger = logger }
}

// WithInitial sets the starting form values
func WithInitial(init form.Initial) Option {
	return func(c *Calculator) { c.initial = init }
}

// WithCurrency sets the quote currency
func WithCurrency(currency types.Currency) Option {
	return func(c *Calculator) { c.currency = currency }
}

// WithFetchTimeout bounds a single config fetch
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Calculator) { c.timeout = d }
}

// WithID sets the instance id instead of a generated one
func WithID(id string) Option {
	return func(c *Calculator) { c.id = id }
}

// Calculator is one priced service on a proposal. All methods are safe for
// concurrent use; edits are applied one at a time.
type Calculator struct {
	id       string
	rules    *pricing.Rules
	source   ConfigSource
	sink     Sink
	logger   *zap.Logger
	initial  form.Initial
	currency types.Currency
	timeout  time.Duration

	mu       sync.Mutex
	state    form.State
	config   types.PricingConfig
	quote    types.QuoteBreakdown
	status   Status
	inflight int
	closed   bool

	refreshes sync.WaitGroup
}

// New creates a calculator priced from static defaults and publishes its
// first quote. Call Load or Refresh to fetch the active config.
func New(rules *pricing.Rules, opts ...Option) *Calculator {
	c := &Calculator{
		id:       uuid.NewString(),
		rules:    rules,
		currency: types.CurrencyUSD,
		timeout:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.ForService("calculator", rules.ID)
	}
	c.logger = c.logger.With(zap.String("instance", c.id))

	c.config = rules.DefaultConfig()
	c.state = form.New(rules, c.config, c.initial)
	c.status = Status{ConfigSource: c.config.Source}

	c.mu.Lock()
	c.recomputeLocked()
	c.mu.Unlock()
	return c
}

// ID returns the instance id
func (c *Calculator) ID() string { return c.id }

// Rules returns the service rules
func (c *Calculator) Rules() *pricing.Rules { return c.rules }

// Load fetches the active config and applies it. Fetch failures never make
// the calculator unusable: it keeps its current config and the error is
// recorded in Status and returned for information only.
func (c *Calculator) Load(ctx context.Context) error {
	if c.source == nil {
		return nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return cqerrors.Internal("calculator is closed", nil)
	}
	c.inflight++
	c.status.IsLoadingConfig = true
	c.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	doc, err := c.source.ActiveConfig(fetchCtx, c.rules.ID)
	cancel()

	var cfg types.PricingConfig
	switch {
	case err != nil:
		err = cqerrors.ConfigUnavailable(c.rules.ID, err)
	case doc == nil:
		err = cqerrors.ConfigUnavailable(c.rules.ID, cqerrors.NotFound("active config", c.rules.ID))
	default:
		cfg = pricing.Resolve(c.rules, doc)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.inflight--
	c.status.IsLoadingConfig = c.inflight > 0

	if c.closed {
		c.logger.Debug("discarding config fetched for closed calculator", zap.Error(err))
		return err
	}

	if err != nil {
		c.status.LastFetchError = err.Error()
		c.logger.Warn("config unavailable, using current rates",
			logging.ConfigVersion(c.config.Source, c.config.Version),
			zap.Error(err),
		)
		return err
	}

	if cfg.IsDegraded() {
		c.logger.Warn("config incomplete, missing values use defaults",
			logging.ConfigVersion(cfg.Source, cfg.Version),
			zap.Strings("degraded", cfg.Degraded),
		)
	}

	next, rerr := form.Reduce(c.rules, c.state, form.LoadConfig{Config: cfg})
	if rerr != nil {
		return rerr
	}
	c.config = cfg
	c.state = next
	c.status.LastFetchError = ""
	c.status.ConfigSource = cfg.Source
	c.status.ConfigVersion = cfg.Version
	c.status.Degraded = cfg.Degraded
	c.status.LoadedAt = time.Now()
	c.recomputeLocked()

	c.logger.Debug("config loaded",
		logging.ConfigVersion(cfg.Source, cfg.Version),
	)
	return nil
}

// Refresh starts a config fetch in the background and returns immediately.
// Concurrent refreshes race; the last to resolve wins.
func (c *Calculator) Refresh(ctx context.Context) {
	c.refreshes.Add(1)
	go func() {
		defer c.refreshes.Done()
		_ = c.Load(context.WithoutCancel(ctx))
	}()
}

// Wait blocks until background refreshes have resolved
func (c *Calculator) Wait() {
	c.refreshes.Wait()
}

// Dispatch applies one edit and returns the recomputed quote
func (c *Calculator) Dispatch(action form.Action) (types.QuoteBreakdown, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return c.quote, cqerrors.Internal("calculator is closed", nil)
	}

	next, err := form.Reduce(c.rules, c.state, action)
	if err != nil {
		return c.quote, err
	}
	c.state = next
	c.recomputeLocked()
	return c.quote, nil
}

// DispatchAll applies edits in order, stopping at the first error
func (c *Calculator) DispatchAll(actions ...form.Action) (types.QuoteBreakdown, error) {
	var q types.QuoteBreakdown
	for _, a := range actions {
		var err error
		if q, err = c.Dispatch(a); err != nil {
			return q, err
		}
	}
	return c.Quote(), nil
}

// Quote returns the current quote
func (c *Calculator) Quote() types.QuoteBreakdown {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quote
}

// State returns a copy of the form
func (c *Calculator) State() form.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Config returns the pricing config in use
func (c *Calculator) Config() types.PricingConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config.Clone()
}

// Status returns advisory load state
func (c *Calculator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.status
	s.Degraded = append([]string(nil), c.status.Degraded...)
	return s
}

// Close withdraws the calculator from its sink. Fetches still in flight are
// discarded when they resolve.
func (c *Calculator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	if c.sink != nil {
		c.sink.Withdraw(c.id)
	}
}

// recomputeLocked prices the form and publishes the result. c.mu must be held.
func (c *Calculator) recomputeLocked() {
	if res := c.config.Frequencies.Resolve(c.state.Frequency); !res.Known {
		c.logger.Warn("unknown frequency, pricing as monthly",
			zap.String("frequency", string(c.state.Frequency)),
		)
	}

	q := pricing.Calculate(c.rules, c.state.Inputs(), c.config)
	q.Currency = c.currency
	c.quote = q

	c.logger.Debug("quote recomputed",
		zap.String("tier", q.Tier),
		logging.Money("per_visit", q.PerVisit),
		logging.Money("contract_total", q.ContractTotal),
	)

	if c.sink != nil {
		c.sink.Publish(c.id, q)
	}
}
