package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleanquote/core/output"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runWithStderr(t, args...)
	return out, err
}

func runWithStderr(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		outputFormat, showLineItems, currencyArg, sourceArg, verbose = "", false, "", "", false
		servicesJSON, ratesDir, ratesForce = false, "", false
	})
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestServicesJSON(t *testing.T) {
	out, err := run(t, "services", "--json")
	require.NoError(t, err)

	var ids []string
	require.NoError(t, json.Unmarshal([]byte(out), &ids))
	assert.Len(t, ids, 11)
}

func TestQuoteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acme.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
services:
  - service: saniscrub
    frequency: monthly
    contract_months: 12
    quantities:
      fixtures: 10
`), 0644))

	out, err := run(t, "quote", "--source", "defaults", "--format", "json", path)
	require.NoError(t, err)

	var result output.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "acme", result.Summary.Name)
	assert.True(t, result.Summary.TotalContract.Equal(decimal.NewFromInt(3000)))
}

func TestExportThenQuoteFromRateCards(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "rates", "export", "--dir", dir, "sanipod")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "sanipod.hcl"))

	t.Setenv("CLEANQUOTE_PRICING_RATES_DIR", dir)
	path := filepath.Join(dir, "pods.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"services":[{"service":"sanipod","quantities":{"pods":20}}]}`), 0644))

	out, err := run(t, "quote", "--source", "file", "--format", "json", path)
	require.NoError(t, err)

	var result output.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "builtin", result.Summary.Services[0].ConfigVersion)
	assert.Equal(t, "file", result.Summary.Services[0].ConfigSource)
}

func TestQuoteRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.yaml")
	require.NoError(t, os.WriteFile(path, []byte("services:\n  - service: carpet\n"), 0644))

	_, err := run(t, "quote", "--format", "pdf", path)
	assert.Error(t, err)
}

func TestQuoteVerboseReportsSourceStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"services":[{"service":"carpet","quantities":{"carpetSqFt":1300}}]}`), 0644))

	out, stderr, err := runWithStderr(t, "quote", "-v", "--source", "static", "--format", "json", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "static source: 1 fetches, 0 failed")

	var result output.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "builtin", result.Summary.Services[0].ConfigVersion)
}
