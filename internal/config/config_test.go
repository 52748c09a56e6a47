package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	d := Default()
	assert.Equal(t, d.Pricing.Source, cfg.Pricing.Source)
	assert.Equal(t, d.Server.Address, cfg.Server.Address)
	assert.Equal(t, d.Pricing.RetryAttempts, cfg.Pricing.RetryAttempts)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleanquote.yaml")
	content := `
pricing:
  source: http
  service_url: http://pricing.internal:9000
  retry_attempts: 5
output:
  default_format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, SourceHTTP, cfg.Pricing.Source)
	assert.Equal(t, "http://pricing.internal:9000", cfg.Pricing.ServiceURL)
	assert.Equal(t, 5, cfg.Pricing.RetryAttempts)
	assert.Equal(t, "json", cfg.Output.DefaultFormat)
	// untouched keys keep defaults
	assert.Equal(t, 10, cfg.Pricing.FetchTimeoutSeconds)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CLEANQUOTE_PRICING_SOURCE", "store")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, SourceStore, cfg.Pricing.Source)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cleanquote.json")
	cfg := Default()
	cfg.Pricing.Source = SourceFile
	cfg.Pricing.RatesDir = "/srv/ratecards"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, SourceFile, loaded.Pricing.Source)
	assert.Equal(t, "/srv/ratecards", loaded.Pricing.RatesDir)
}
