package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pricingsrc "cleanquote/adapters/pricing"
	"cleanquote/core/pricing"
	"cleanquote/db"
)

func newTestServer(t *testing.T) (*Server, *db.Store) {
	t.Helper()
	store, err := db.OpenStore(context.Background(), filepath.Join(t.TempDir(), "pricing.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewServer("test", store, WithLogger(zap.NewNop())), store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "ok", body["store"])
}

func TestListServices(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/services", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		Services []ServiceInfo `json:"services"`
		Count    int           `json:"count"`
	}](t, rec)
	assert.Equal(t, 11, body.Count)
	assert.Equal(t, "saniscrub", body.Services[0].ID)
	assert.Contains(t, body.Services[0].Rates, "fixtureRate.monthly")
}

func TestActiveConfigLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/active-config/sanipod", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodPut, "/active-config/sanipod", `{"version":"v9","config":{"podRate":4,"minimum":45}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	pub := decode[PublishResponse](t, rec)
	assert.Equal(t, "v9", pub.Version)
	assert.Contains(t, pub.Degraded, "bagRate")

	rec = do(t, srv, http.MethodGet, "/active-config/sanipod", "")
	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := pricing.DecodeDocument(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "sanipod", doc.ServiceID)
	assert.True(t, doc.Flatten()["minimum"].Equal(decimal.NewFromInt(45)))

	rec = do(t, srv, http.MethodGet, "/active-config/sanipod/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, rec)["count"])
}

func TestPublishRejectsBadDocuments(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown service", "/active-config/window-tint", `{"config":{}}`, http.StatusNotFound, "NOT_FOUND"},
		{"no config", "/active-config/sanipod", `{"version":"v1"}`, http.StatusBadRequest, "MALFORMED_CONFIG"},
		{"bad json", "/active-config/sanipod", `{`, http.StatusBadRequest, "MALFORMED_CONFIG"},
		{"service mismatch", "/active-config/sanipod", `{"serviceId":"carpet","config":{}}`, http.StatusBadRequest, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Error.Code)
		})
	}
}

func TestQuoteUsesPublishedConfig(t *testing.T) {
	srv, store := newTestServer(t)

	_, err := store.Publish(context.Background(), &pricing.Document{
		ServiceID: "saniscrub",
		Version:   "2025-06",
		Config: map[string]any{
			"fixtureRate": map[string]any{"monthly": 30, "bimonthly": 35, "quarterly": 40},
			"minimum":     map[string]any{"monthly": 175, "bimonthly": 200, "quarterly": 250},
		},
	})
	require.NoError(t, err)

	body := `
name: Harbor Office
services:
  - service: saniscrub
    frequency: monthly
    contract_months: 12
    quantities:
      fixtures: 10
  - service: sanipod
    quantities:
      pods: 20
`
	rec := do(t, srv, http.MethodPost, "/quote", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[QuoteResponse](t, rec)
	require.Len(t, resp.Summary.Services, 2)
	assert.Equal(t, "Harbor Office", resp.Summary.Name)

	scrub := resp.Summary.Services[0]
	assert.True(t, scrub.ContractTotal.Equal(decimal.NewFromInt(3600)), scrub.ContractTotal.String())
	assert.Equal(t, "2025-06", scrub.ConfigVersion)

	pod := resp.Summary.Services[1]
	assert.Equal(t, pricing.SourceDefaults, pod.ConfigSource)
	assert.Len(t, resp.Statuses, 2)
}

func TestQuoteRejectsInvalidProposal(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/quote", `{"services":[{"service":"window-tint"}]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv, http.MethodPost, "/quote", `services: [`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "PARSING_ERROR", decode[ErrorResponse](t, rec).Error.Code)
}

func TestServerWithoutStore(t *testing.T) {
	srv := NewServer("test", nil, WithLogger(zap.NewNop()))

	rec := do(t, srv, http.MethodGet, "/active-config/sanipod", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, srv, http.MethodPost, "/quote", `{"services":[{"service":"electrostatic","quantities":{"sqFt":2500}}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[QuoteResponse](t, rec)
	assert.True(t, resp.Summary.TotalPerVisit.Equal(decimal.NewFromInt(150)))

	rec = do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, "disabled", decode[map[string]any](t, rec)["store"])
}

func TestDiffAgainstActiveConfig(t *testing.T) {
	srv, _ := newTestServer(t)

	// nothing published yet: compare with built-in rates
	rec := do(t, srv, http.MethodPost, "/active-config/sanipod/diff", `{"version":"v1","config":{"podRate":4}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[DiffResponse](t, rec)
	assert.Equal(t, pricing.SourceDefaults, first.Base.Source)
	require.NotEmpty(t, first.Changes)

	rec = do(t, srv, http.MethodPut, "/active-config/sanipod", `{"version":"v1","config":{"podRate":4,"minimum":45}}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, srv, http.MethodPost, "/active-config/sanipod/diff", `{"version":"v2","config":{"podRate":5,"minimum":45}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[DiffResponse](t, rec)

	assert.Equal(t, "v1", resp.Base.Version)
	assert.Equal(t, pricing.SourceStore, resp.Base.Source)
	assert.Equal(t, "v2", resp.Head.Version)
	assert.Equal(t, pricing.SourceCandidate, resp.Head.Source)
	require.Len(t, resp.Changes, 1)
	assert.Equal(t, DiffChange{
		Type: "modified", Key: "podRate", Before: "4", After: "5", Delta: "1", DeltaPercent: "+25.0%",
	}, resp.Changes[0])

	// diffing never publishes
	rec = do(t, srv, http.MethodGet, "/active-config/sanipod/history", "")
	assert.Equal(t, float64(1), decode[map[string]any](t, rec)["count"])
}

func TestPublishRefreshesCachedQuoteSource(t *testing.T) {
	store, err := db.OpenStore(context.Background(), filepath.Join(t.TempDir(), "pricing.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := NewServer("test", store, WithQuoteSource(pricingsrc.Decorate(store)), WithLogger(zap.NewNop()))
	proposal := `{"services":[{"service":"sanipod","quantities":{"pods":20}}]}`
	perVisit := func() decimal.Decimal {
		rec := do(t, srv, http.MethodPost, "/quote", proposal)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decode[QuoteResponse](t, rec).Summary.Services[0].PerVisit
	}

	rec := do(t, srv, http.MethodPut, "/active-config/sanipod", `{"version":"v1","config":{"podRate":4,"minimum":40}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, perVisit().Equal(decimal.NewFromInt(80)))

	rec = do(t, srv, http.MethodPut, "/active-config/sanipod", `{"version":"v2","config":{"podRate":5,"minimum":40}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, perVisit().Equal(decimal.NewFromInt(100)), "publish must not leave the old version cached")

	rec = do(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		ConfigFetches pricingsrc.Stats `json:"config_fetches"`
	}](t, rec)
	assert.Equal(t, int64(2), body.ConfigFetches.Fetches)
	assert.Zero(t, body.ConfigFetches.Errors)
}
