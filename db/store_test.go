package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleanquote/core/pricing"
	cqerrors "cleanquote/internal/errors"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(context.Background(), filepath.Join(t.TempDir(), "pricing.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func podDoc(rate float64) *pricing.Document {
	return &pricing.Document{
		ServiceID: "sanipod",
		Config: map[string]any{
			"podRate": rate,
			"minimum": 40,
		},
	}
}

func TestPublishAndActive(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.ActiveConfig(ctx, "sanipod")
	assert.True(t, cqerrors.IsType(err, cqerrors.TypeNotFound))

	rec, err := s.Publish(ctx, podDoc(8))
	require.NoError(t, err)
	assert.Equal(t, "v1", rec.Version)
	assert.True(t, rec.Active)

	doc, err := s.ActiveConfig(ctx, "sanipod")
	require.NoError(t, err)
	assert.Equal(t, "v1", doc.Version)
	assert.Equal(t, pricing.SourceStore, doc.Source)
	assert.True(t, doc.Flatten()["podRate"].Equal(decimal.NewFromInt(8)))
}

func TestPublishReplacesActive(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	first, err := s.Publish(ctx, podDoc(8))
	require.NoError(t, err)

	named := podDoc(9)
	named.Version = "2025-q3"
	_, err = s.Publish(ctx, named)
	require.NoError(t, err)

	doc, err := s.ActiveConfig(ctx, "sanipod")
	require.NoError(t, err)
	assert.Equal(t, "2025-q3", doc.Version)

	history, err := s.History(ctx, "sanipod")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "2025-q3", history[0].Version)
	assert.True(t, history[0].Active)
	assert.Equal(t, first.ID, history[1].ID)
	assert.False(t, history[1].Active)
}

func TestActivateRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	first, err := s.Publish(ctx, podDoc(8))
	require.NoError(t, err)
	_, err = s.Publish(ctx, podDoc(12))
	require.NoError(t, err)

	rec, err := s.Activate(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, rec.Active)

	doc, err := s.ActiveConfig(ctx, "sanipod")
	require.NoError(t, err)
	assert.Equal(t, "v1", doc.Version)

	_, err = s.Activate(ctx, "missing")
	assert.True(t, cqerrors.IsType(err, cqerrors.TypeNotFound))
}

func TestPublishRejectsIncompleteDocuments(t *testing.T) {
	s := newStore(t)

	_, err := s.Publish(context.Background(), &pricing.Document{Config: map[string]any{}})
	assert.True(t, cqerrors.IsType(err, cqerrors.TypeInvalidInput))

	_, err = s.Publish(context.Background(), &pricing.Document{ServiceID: "sanipod"})
	assert.True(t, cqerrors.IsType(err, cqerrors.TypeMalformedConfig))
}

func TestHistoryIsPerService(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Publish(ctx, podDoc(8))
	require.NoError(t, err)

	history, err := s.History(ctx, "carpet")
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.NoError(t, s.Healthcheck(ctx))
}
