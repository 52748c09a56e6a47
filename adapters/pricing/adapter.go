// Package pricing provides the pricing config sources calculators fetch from.
// Each source abstracts where active rate documents live (static defaults,
// HCL rate cards, the configuration service, the local store) behind one
// interface.
package pricing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	corepricing "cleanquote/core/pricing"
)

// Source is the unified config source interface
type Source interface {
	// Name identifies the source kind (static, file, http, store)
	Name() string

	// ActiveConfig returns the active rate document for a service.
	// NOT_FOUND is returned when the service has no active document.
	ActiveConfig(ctx context.Context, serviceID string) (*corepricing.Document, error)

	// Healthcheck verifies the source is reachable
	Healthcheck(ctx context.Context) error
}

// Registry manages named sources
type Registry struct {
	sources map[string]Source
	mu      sync.RWMutex
}

// NewRegistry creates a new registry
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]Source),
	}
}

// Register registers a source under its name
func (r *Registry) Register(source Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[source.Name()] = source
}

// Get returns a source by name
func (r *Registry) Get(name string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	source, ok := r.sources[name]
	return source, ok
}

// List returns all registered source names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats are fetch counters of a decorated source
type Stats struct {
	Fetches     int64         `json:"fetches"`
	Errors      int64         `json:"errors"`
	CacheHits   int64         `json:"cache_hits"`
	MeanLatency time.Duration `json:"mean_latency_ns"`
}

// StatsReporter is implemented by sources that count their fetches
type StatsReporter interface {
	Stats() Stats
}

// CachingSource wraps a source with a per-service document cache
type CachingSource struct {
	inner Source
	cache map[string]*cachedDocument
	ttl   time.Duration
	now   func() time.Time
	hits  int64
	mu    sync.RWMutex
}

type cachedDocument struct {
	doc       *corepricing.Document
	expiresAt time.Time
}

// NewCachingSource creates a caching wrapper. Errors are never cached.
func NewCachingSource(inner Source, ttl time.Duration) *CachingSource {
	return &CachingSource{
		inner: inner,
		cache: make(map[string]*cachedDocument),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *CachingSource) Name() string {
	return s.inner.Name()
}

func (s *CachingSource) ActiveConfig(ctx context.Context, serviceID string) (*corepricing.Document, error) {
	s.mu.Lock()
	if cached, ok := s.cache[serviceID]; ok && s.now().Before(cached.expiresAt) {
		s.hits++
		s.mu.Unlock()
		return cached.doc, nil
	}
	s.mu.Unlock()

	doc, err := s.inner.ActiveConfig(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[serviceID] = &cachedDocument{
		doc:       doc,
		expiresAt: s.now().Add(s.ttl),
	}
	s.mu.Unlock()

	return doc, nil
}

// Invalidate drops the cached document of a service. Publishers call it so
// the next fetch sees the new active version.
func (s *CachingSource) Invalidate(serviceID string) {
	s.mu.Lock()
	delete(s.cache, serviceID)
	s.mu.Unlock()
}

func (s *CachingSource) Healthcheck(ctx context.Context) error {
	return s.inner.Healthcheck(ctx)
}

// Stats returns the inner source's counters plus cache hits
func (s *CachingSource) Stats() Stats {
	var st Stats
	if r, ok := s.inner.(StatsReporter); ok {
		st = r.Stats()
	}
	s.mu.RLock()
	st.CacheHits += s.hits
	s.mu.RUnlock()
	return st
}

// MetricsSource wraps a source with fetch counters
type MetricsSource struct {
	inner        Source
	fetchCount   int64
	fetchErrors  int64
	totalLatency time.Duration
	mu           sync.RWMutex
}

// NewMetricsSource creates a metrics wrapper
func NewMetricsSource(inner Source) *MetricsSource {
	return &MetricsSource{
		inner: inner,
	}
}

func (s *MetricsSource) Name() string {
	return s.inner.Name()
}

func (s *MetricsSource) ActiveConfig(ctx context.Context, serviceID string) (*corepricing.Document, error) {
	start := time.Now()
	doc, err := s.inner.ActiveConfig(ctx, serviceID)

	s.mu.Lock()
	s.fetchCount++
	s.totalLatency += time.Since(start)
	if err != nil {
		s.fetchErrors++
	}
	s.mu.Unlock()

	return doc, err
}

func (s *MetricsSource) Healthcheck(ctx context.Context) error {
	return s.inner.Healthcheck(ctx)
}

// Stats returns fetch counters and mean latency
func (s *MetricsSource) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Fetches: s.fetchCount, Errors: s.fetchErrors}
	if s.fetchCount > 0 {
		st.MeanLatency = s.totalLatency / time.Duration(s.fetchCount)
	}
	return st
}

// String renders stats for status lines
func (st Stats) String() string {
	return fmt.Sprintf("%d fetches, %d failed, %d cached, mean latency %s",
		st.Fetches, st.Errors, st.CacheHits, st.MeanLatency.Round(time.Millisecond))
}
