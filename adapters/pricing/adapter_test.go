package pricing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	corepricing "cleanquote/core/pricing"
	"cleanquote/core/services"
	"cleanquote/internal/config"
	cqerrors "cleanquote/internal/errors"
	"cleanquote/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
}

func TestHTTPSourceFetchesDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/active-config/sanipod", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"serviceId":"sanipod","version":"v3","config":{"podRate":8.5,"minimum":40}}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/", WithRetry(fastRetry()))
	doc, err := src.ActiveConfig(context.Background(), "sanipod")
	require.NoError(t, err)

	assert.Equal(t, "v3", doc.Version)
	assert.Equal(t, corepricing.SourceHTTP, doc.Source)
	assert.True(t, doc.Flatten()["podRate"].Equal(decimal.RequireFromString("8.5")))
}

func TestHTTPSourceErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		typ      cqerrors.Type
		attempts int32
	}{
		{"not found", http.StatusNotFound, "", cqerrors.TypeNotFound, 1},
		{"server error retried", http.StatusBadGateway, "", cqerrors.TypeNetwork, 3},
		{"malformed body", http.StatusOK, `{"serviceId":"sanipod"}`, cqerrors.TypeMalformedConfig, 1},
		{"not json", http.StatusOK, `<html>`, cqerrors.TypeMalformedConfig, 1},
		{"forbidden", http.StatusForbidden, "", cqerrors.TypeConfigUnavailable, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			src := NewHTTPSource(srv.URL, WithRetry(fastRetry()), WithSourceLogger(zap.NewNop()))
			_, err := src.ActiveConfig(context.Background(), "sanipod")
			require.Error(t, err)
			assert.True(t, cqerrors.IsType(err, tt.typ), err.Error())
			assert.Equal(t, tt.attempts, calls.Load())
		})
	}
}

func TestHTTPSourceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	src := NewHTTPSource(url, WithRetry(fastRetry()))
	_, err := src.ActiveConfig(context.Background(), "sanipod")
	assert.True(t, cqerrors.IsType(err, cqerrors.TypeNetwork))
	assert.Error(t, src.Healthcheck(context.Background()))
}

func TestStaticSource(t *testing.T) {
	src := NewStaticSource(&corepricing.Document{ServiceID: "carpet", Config: map[string]any{}})

	doc, err := src.ActiveConfig(context.Background(), "carpet")
	require.NoError(t, err)
	assert.Equal(t, corepricing.SourceStatic, doc.Source)

	_, err = src.ActiveConfig(context.Background(), "sanipod")
	assert.True(t, cqerrors.IsType(err, cqerrors.TypeNotFound))
}

type countingSource struct {
	Source
	calls atomic.Int32
	err   error
}

func (s *countingSource) ActiveConfig(ctx context.Context, serviceID string) (*corepricing.Document, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.Source.ActiveConfig(ctx, serviceID)
}

func TestCachingSource(t *testing.T) {
	inner := &countingSource{Source: NewStaticSource(&corepricing.Document{ServiceID: "carpet", Config: map[string]any{}})}
	cache := NewCachingSource(inner, time.Minute)

	now := time.Now()
	cache.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, err := cache.ActiveConfig(context.Background(), "carpet")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), inner.calls.Load())

	now = now.Add(2 * time.Minute)
	_, err := cache.ActiveConfig(context.Background(), "carpet")
	require.NoError(t, err)
	assert.Equal(t, int32(2), inner.calls.Load())

	cache.Invalidate("carpet")
	_, err = cache.ActiveConfig(context.Background(), "carpet")
	require.NoError(t, err)
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestCachingSourceDoesNotCacheErrors(t *testing.T) {
	inner := &countingSource{Source: NewStaticSource(), err: cqerrors.Network("down", nil)}
	cache := NewCachingSource(inner, time.Minute)

	_, err := cache.ActiveConfig(context.Background(), "carpet")
	require.Error(t, err)
	_, err = cache.ActiveConfig(context.Background(), "carpet")
	require.Error(t, err)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestMetricsSource(t *testing.T) {
	m := NewMetricsSource(NewStaticSource(&corepricing.Document{ServiceID: "carpet", Config: map[string]any{}}))

	_, _ = m.ActiveConfig(context.Background(), "carpet")
	_, _ = m.ActiveConfig(context.Background(), "sanipod")

	st := m.Stats()
	assert.Equal(t, int64(2), st.Fetches)
	assert.Equal(t, int64(1), st.Errors)
	assert.Equal(t, corepricing.SourceStatic, m.Name())
}

func TestDecoratedStatsCountCacheHits(t *testing.T) {
	src := Decorate(NewStaticSource(&corepricing.Document{ServiceID: "carpet", Config: map[string]any{}}))

	for i := 0; i < 3; i++ {
		_, err := src.ActiveConfig(context.Background(), "carpet")
		require.NoError(t, err)
	}

	st := src.Stats()
	assert.Equal(t, int64(1), st.Fetches)
	assert.Equal(t, int64(2), st.CacheHits)
	assert.Contains(t, st.String(), "1 fetches, 0 failed, 2 cached")
}

func TestHTTPSourceHealthcheckRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, WithRetry(fastRetry()))
	require.NoError(t, src.Healthcheck(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewStaticSource())
	reg.Register(NewHTTPSource("http://localhost:1"))

	assert.Equal(t, []string{"http", "static"}, reg.List())
	_, ok := reg.Get("store")
	assert.False(t, ok)
}

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()

	src, cleanup, err := NewFromConfig(ctx, config.PricingConfig{Source: config.SourceDefaults}, nil)
	require.NoError(t, err)
	assert.Nil(t, src)
	cleanup()

	src, cleanup, err = NewFromConfig(ctx, config.PricingConfig{Source: config.SourceFile, RatesDir: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.Equal(t, corepricing.SourceFile, src.Name())
	cleanup()

	src, cleanup, err = NewFromConfig(ctx, config.PricingConfig{
		Source:       config.SourceStore,
		DatabasePath: filepath.Join(t.TempDir(), "pricing.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, corepricing.SourceStore, src.Name())
	require.NoError(t, src.Healthcheck(ctx))
	cleanup()

	_, _, err = NewFromConfig(ctx, config.PricingConfig{Source: "ftp"}, nil)
	require.True(t, cqerrors.IsType(err, cqerrors.TypeInvalidInput))

	var typed *cqerrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, []string{"defaults", "file", "http", "static", "store"}, typed.Context["valid"])
}

func TestNewFromConfigStaticServesBuiltinRates(t *testing.T) {
	ctx := context.Background()
	src, cleanup, err := NewFromConfig(ctx, config.PricingConfig{Source: config.SourceStatic}, nil)
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, corepricing.SourceStatic, src.Name())

	rules := services.SaniScrub()
	doc, err := src.ActiveConfig(ctx, rules.ID)
	require.NoError(t, err)
	assert.Equal(t, BuiltinVersion, doc.Version)

	cfg := corepricing.Resolve(rules, doc)
	assert.Empty(t, cfg.Degraded)
	assert.Equal(t, corepricing.SourceStatic, cfg.Source)
	assert.True(t, cfg.Rate("fixtureRate.monthly").Equal(rules.Defaults["fixtureRate.monthly"]))
}
