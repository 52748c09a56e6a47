package diff

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleanquote/core/pricing"
	"cleanquote/core/services"
)

func scrub(version string, fixtureRate float64, withMinimum bool) *pricing.Document {
	body := map[string]any{
		"fixtureRate": map[string]any{"monthly": fixtureRate, "bimonthly": 35.0, "quarterly": 40.0},
	}
	if withMinimum {
		body["minimum"] = map[string]any{"monthly": 175.0, "bimonthly": 200.0, "quarterly": 250.0}
	}
	return &pricing.Document{ServiceID: services.SaniScrubID, Version: version, Source: pricing.SourceStore, Config: body}
}

func find(diffs []*ValueDiff, key string) *ValueDiff {
	for _, d := range diffs {
		if d.Key == key {
			return d
		}
	}
	return nil
}

func TestDiffDefaultsToDocument(t *testing.T) {
	rules := services.SaniScrub()
	before := pricing.Resolve(rules, nil)
	after := pricing.Resolve(rules, scrub("v1", 30, true))

	result := NewDiffer(0).Diff(before, after)

	assert.Equal(t, "v1", result.AfterVersion)
	assert.Zero(t, result.RemovedCount)
	assert.Zero(t, result.ChangedCount)

	vd := find(result.Added, "fixtureRate.monthly")
	require.NotNil(t, vd)
	assert.True(t, vd.BeforeDefault)
	assert.False(t, vd.AfterDefault)
	assert.True(t, vd.After.Equal(decimal.NewFromInt(30)))

	// contract limits are missing from the document on both sides
	assert.NotNil(t, find(result.Unchanged, "contractLimits.maxMonths"))
}

func TestDiffBetweenVersions(t *testing.T) {
	rules := services.SaniScrub()
	before := pricing.Resolve(rules, scrub("v1", 30, true))
	after := pricing.Resolve(rules, scrub("v2", 33, true))

	result := NewDiffer(0).Diff(before, after)
	require.True(t, result.HasChanges())
	require.Len(t, result.Changed, 1)

	vd := result.Changed[0]
	assert.Equal(t, "fixtureRate.monthly", vd.Key)
	assert.Equal(t, ChangeModified, vd.ChangeType)
	assert.True(t, vd.Delta.Equal(decimal.NewFromInt(3)))
	assert.InDelta(t, 10.0, vd.DeltaPercent, 0.0001)
}

func TestDiffRemovedValuesFallBack(t *testing.T) {
	rules := services.SaniScrub()
	before := pricing.Resolve(rules, scrub("v1", 30, true))
	after := pricing.Resolve(rules, scrub("v2", 30, false))

	result := NewDiffer(0).Diff(before, after)
	assert.Equal(t, 3, result.RemovedCount)
	for _, vd := range result.Removed {
		assert.Contains(t, vd.Key, "minimum.")
		assert.True(t, vd.AfterDefault)
	}
}

func TestDiffThreshold(t *testing.T) {
	rules := services.SaniScrub()
	before := pricing.Resolve(rules, scrub("v1", 30, true))
	after := pricing.Resolve(rules, scrub("v2", 30.3, true))

	assert.True(t, NewDiffer(0).Diff(before, after).HasChanges())
	assert.False(t, NewDiffer(0.05).Diff(before, after).HasChanges())
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "+12.5%", FormatPercent(12.5))
	assert.Equal(t, "-3.0%", FormatPercent(-3))
	assert.Equal(t, "0.0%", FormatPercent(0))
}

func TestChangeTypeText(t *testing.T) {
	text, err := ChangeRemoved.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "removed", string(text))
}
