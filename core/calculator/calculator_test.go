package calculator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cleanquote/core/form"
	"cleanquote/core/pricing"
	"cleanquote/core/services"
	"cleanquote/core/types"
	cqerrors "cleanquote/internal/errors"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeSource struct {
	mu    sync.Mutex
	doc   *pricing.Document
	err   error
	calls int
	gate  chan struct{}
}

func (f *fakeSource) ActiveConfig(ctx context.Context, serviceID string) (*pricing.Document, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.doc, f.err
}

type recordingSink struct {
	mu        sync.Mutex
	published map[string]types.QuoteBreakdown
	count     int
	withdrawn []string
}

func newSink() *recordingSink {
	return &recordingSink{published: make(map[string]types.QuoteBreakdown)}
}

func (s *recordingSink) Publish(id string, q types.QuoteBreakdown) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published[id] = q
	s.count++
}

func (s *recordingSink) Withdraw(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.published, id)
	s.withdrawn = append(s.withdrawn, id)
}

func scrubDoc(fixtureRate float64) *pricing.Document {
	return &pricing.Document{
		ServiceID: services.SaniScrubID,
		Version:   "v2",
		Source:    pricing.SourceHTTP,
		Config: map[string]any{
			"fixtureRate": map[string]any{"monthly": fixtureRate, "bimonthly": 35.0, "quarterly": 40.0},
			"minimum":     map[string]any{"monthly": 175.0, "bimonthly": 200.0, "quarterly": 250.0},
		},
	}
}

func TestNewPublishesDefaultQuote(t *testing.T) {
	sink := newSink()
	c := New(services.SaniScrub(),
		WithSink(sink),
		WithLogger(zap.NewNop()),
		WithInitial(form.Initial{Quantities: map[string]decimal.Decimal{"fixtures": d("10")}}),
	)

	q := c.Quote()
	assert.True(t, q.ContractTotal.Equal(d("3000")))
	assert.Equal(t, pricing.SourceDefaults, q.ConfigSource)
	assert.Equal(t, types.CurrencyUSD, q.Currency)
	assert.Contains(t, sink.published, c.ID())
}

func TestLoadAppliesConfigAndClearsOverrides(t *testing.T) {
	src := &fakeSource{doc: scrubDoc(30)}
	c := New(services.SaniScrub(), WithSource(src), WithLogger(zap.NewNop()))

	_, err := c.DispatchAll(
		form.SetQuantity{Field: "fixtures", Value: d("10")},
		form.SetOverride{Field: types.FieldContractTotal, Value: d("1")},
	)
	require.NoError(t, err)

	require.NoError(t, c.Load(context.Background()))

	q := c.Quote()
	assert.True(t, q.BaseAmount.Equal(d("300")))
	assert.Empty(t, q.Overridden)
	assert.Equal(t, "v2", q.ConfigVersion)

	st := c.Status()
	assert.False(t, st.IsLoadingConfig)
	assert.Empty(t, st.LastFetchError)
	assert.NotEmpty(t, st.Degraded, "document lacks install and discount keys")
}

func TestLoadFailureKeepsCalculatorUsable(t *testing.T) {
	tests := map[string]*fakeSource{
		"network": {err: cqerrors.Network("fetch", errors.New("connection refused"))},
		"missing": {},
	}

	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			c := New(services.SaniScrub(), WithSource(src), WithLogger(zap.NewNop()))

			err := c.Load(context.Background())
			require.Error(t, err)
			assert.True(t, cqerrors.IsType(err, cqerrors.TypeConfigUnavailable))

			q, err := c.Dispatch(form.SetQuantity{Field: "fixtures", Value: d("3")})
			require.NoError(t, err)
			assert.True(t, q.BaseAmount.Equal(d("175")))
			assert.NotEmpty(t, c.Status().LastFetchError)
			assert.Equal(t, pricing.SourceDefaults, c.Status().ConfigSource)
		})
	}
}

func TestLoadKeepsPinnedRates(t *testing.T) {
	src := &fakeSource{doc: scrubDoc(30)}
	c := New(services.SaniScrub(),
		WithSource(src),
		WithLogger(zap.NewNop()),
		WithInitial(form.Initial{
			Quantities: map[string]decimal.Decimal{"fixtures": d("10")},
			Rates:      map[string]decimal.Decimal{"fixtureRate.monthly": d("20")},
		}),
	)
	require.NoError(t, c.Load(context.Background()))

	// 10 × 20 = 200 beats the 175 minimum
	assert.True(t, c.Quote().BaseAmount.Equal(d("200")))
}

func TestClosedCalculatorDiscardsInflightFetch(t *testing.T) {
	gate := make(chan struct{})
	src := &fakeSource{doc: scrubDoc(99), gate: gate}
	sink := newSink()

	c := New(services.SaniScrub(), WithSource(src), WithSink(sink), WithLogger(zap.NewNop()))
	_, err := c.Dispatch(form.SetQuantity{Field: "fixtures", Value: d("10")})
	require.NoError(t, err)

	c.Refresh(context.Background())
	c.Close()
	close(gate)
	c.Wait()

	assert.True(t, c.Quote().BaseAmount.Equal(d("250")), "fetched rates must not be applied")
	assert.NotContains(t, sink.published, c.ID())
	assert.Equal(t, []string{c.ID()}, sink.withdrawn)
	assert.False(t, c.Status().IsLoadingConfig)

	_, err = c.Dispatch(form.SetQuantity{Field: "fixtures", Value: d("1")})
	assert.Error(t, err)
}

func TestRefreshIsAsynchronous(t *testing.T) {
	gate := make(chan struct{})
	src := &fakeSource{doc: scrubDoc(30), gate: gate}
	c := New(services.SaniScrub(), WithSource(src), WithLogger(zap.NewNop()))

	c.Refresh(context.Background())

	// edits are still served while the fetch is pending
	_, err := c.Dispatch(form.SetQuantity{Field: "fixtures", Value: d("10")})
	require.NoError(t, err)

	close(gate)
	c.Wait()
	assert.True(t, c.Quote().BaseAmount.Equal(d("300")))
}

func TestDispatchRejectsUnknownField(t *testing.T) {
	c := New(services.SaniPod(), WithLogger(zap.NewNop()))
	_, err := c.Dispatch(form.SetQuantity{Field: "fixtures", Value: d("1")})
	require.Error(t, err)
	assert.True(t, cqerrors.IsType(err, cqerrors.TypeInvalidInput))
}

func TestCloseIsIdempotent(t *testing.T) {
	sink := newSink()
	c := New(services.Carpet(), WithSink(sink), WithLogger(zap.NewNop()))
	c.Close()
	c.Close()
	assert.Len(t, sink.withdrawn, 1)
}

func TestFailedLoadAfterSuccessKeepsLoadedRates(t *testing.T) {
	src := &fakeSource{doc: scrubDoc(30)}
	c := New(services.SaniScrub(),
		WithSource(src),
		WithLogger(zap.NewNop()),
		WithInitial(form.Initial{Quantities: map[string]decimal.Decimal{"fixtures": d("10")}}),
	)
	require.NoError(t, c.Load(context.Background()))

	src.mu.Lock()
	src.doc, src.err = nil, cqerrors.Network("fetch", errors.New("connection reset"))
	src.mu.Unlock()

	require.Error(t, c.Load(context.Background()))

	// the last loaded config stays in use rather than the built-in rates
	assert.True(t, c.Quote().BaseAmount.Equal(d("300")))
	st := c.Status()
	assert.Equal(t, "v2", st.ConfigVersion)
	assert.Equal(t, pricing.SourceHTTP, st.ConfigSource)
	assert.NotEmpty(t, st.LastFetchError)
}

// sequencedSource answers the n-th fetch with docs[n] once gates[n] is closed
type sequencedSource struct {
	mu    sync.Mutex
	next  int
	docs  []*pricing.Document
	gates []chan struct{}
}

func (s *sequencedSource) ActiveConfig(ctx context.Context, serviceID string) (*pricing.Document, error) {
	s.mu.Lock()
	n := s.next
	s.next++
	s.mu.Unlock()

	<-s.gates[n]
	return s.docs[n], nil
}

func TestConcurrentRefreshesLastResolvedWins(t *testing.T) {
	first, second := scrubDoc(30), scrubDoc(45)
	first.Version, second.Version = "first", "second"
	src := &sequencedSource{
		docs:  []*pricing.Document{first, second},
		gates: []chan struct{}{make(chan struct{}), make(chan struct{})},
	}

	c := New(services.SaniScrub(),
		WithSource(src),
		WithLogger(zap.NewNop()),
		WithInitial(form.Initial{Quantities: map[string]decimal.Decimal{"fixtures": d("10")}}),
	)
	c.Refresh(context.Background())
	c.Refresh(context.Background())

	// the later request resolves first
	close(src.gates[1])
	require.Eventually(t, func() bool {
		return c.Status().ConfigVersion == "second"
	}, time.Second, time.Millisecond)

	close(src.gates[0])
	c.Wait()

	assert.Equal(t, "first", c.Status().ConfigVersion)
	assert.True(t, c.Quote().BaseAmount.Equal(d("300")))
	assert.False(t, c.Status().IsLoadingConfig)
}
