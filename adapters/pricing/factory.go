package pricing

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"cleanquote/adapters/ratecard"
	"cleanquote/core/services"
	"cleanquote/db"
	"cleanquote/internal/config"
	cqerrors "cleanquote/internal/errors"
	"cleanquote/internal/resilience"
)

// cacheTTL bounds how long a fetched document is reused within one process
const cacheTTL = time.Minute

// Decorate wraps a source with metrics and caching
func Decorate(inner Source) *CachingSource {
	return NewCachingSource(NewMetricsSource(inner), cacheTTL)
}

// NewFromConfig builds the source selected by cfg.Source, wrapped with
// metrics and caching. The defaults source is nil: calculators without a
// source price from their built-in rates. The returned cleanup func releases
// any resources the source holds.
func NewFromConfig(ctx context.Context, cfg config.PricingConfig, logger *zap.Logger) (Source, func(), error) {
	noop := func() {}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Source == "" || cfg.Source == config.SourceDefaults {
		return nil, noop, nil
	}

	reg := NewRegistry()
	reg.Register(NewBuiltinSource(services.Default()))
	reg.Register(ratecard.NewFileSource(cfg.RatesDir))

	retry := resilience.DefaultRetryConfig()
	if cfg.RetryAttempts > 0 {
		retry.MaxAttempts = cfg.RetryAttempts
	}
	reg.Register(NewHTTPSource(cfg.ServiceURL,
		WithRetry(retry),
		WithSourceLogger(logger.Named("http-source")),
	))

	// the store holds a database handle, so it is only opened when selected
	cleanup := noop
	if cfg.Source == config.SourceStore {
		store, err := db.OpenStore(ctx, cfg.DatabasePath)
		if err != nil {
			return nil, noop, cqerrors.Wrap(cqerrors.TypeConfigUnavailable, "open config store", err)
		}
		reg.Register(store)
		cleanup = func() {
			if err := store.Close(); err != nil {
				logger.Warn("close config store", zap.Error(err))
			}
		}
	}

	inner, ok := reg.Get(cfg.Source)
	if !ok {
		valid := append([]string{config.SourceDefaults, config.SourceStore}, reg.List()...)
		sort.Strings(valid)
		return nil, noop, cqerrors.InvalidInput("unknown pricing source: " + cfg.Source).
			WithContext("valid", valid)
	}

	logger.Debug("pricing source configured", zap.String("source", inner.Name()))
	return Decorate(inner), cleanup, nil
}

// Document sources satisfy the calculator contract
var (
	_ Source = (*ratecard.FileSource)(nil)
	_ Source = (*db.Store)(nil)
	_ Source = (*HTTPSource)(nil)
	_ Source = (*StaticSource)(nil)
)
