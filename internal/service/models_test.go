package service

import (
	"context"
	"errors"
	"testing"

	"github.com/set-night/mindchat/internal/api"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelCatalog_FallsBackToDefaults(t *testing.T) {
	backend := newFakeBackend()
	backend.modelsErr = errors.New("unreachable")
	c := NewModelCatalog()

	require.Error(t, c.Load(context.Background(), backend))
	assert.Equal(t, domain.DefaultModels(), c.List())
	assert.False(t, c.FromBackend())

	// A failed load is not retried.
	backend.modelsErr = nil
	backend.models = []api.ModelRecord{{ID: "x"}}
	require.NoError(t, c.Load(context.Background(), backend))
	assert.Equal(t, 1, backend.modelsCalls)
	assert.Len(t, c.List(), 6)
}

func TestModelCatalog_EmptyResultKeepsDefaults(t *testing.T) {
	c := NewModelCatalog()
	require.NoError(t, c.Load(context.Background(), newFakeBackend()))
	assert.Len(t, c.List(), 6)
	assert.False(t, c.FromBackend())
}

func TestModelCatalog_ReplacedByBackend(t *testing.T) {
	backend := newFakeBackend()
	backend.models = []api.ModelRecord{
		{ID: "m1", Name: "Model One", Provider: "OpenAI", PriceOutput: 0.01, ContextLength: 8192, Capabilities: []string{"text", "code"}},
		{ID: "m2"},
	}
	c := NewModelCatalog()
	require.NoError(t, c.Load(context.Background(), backend))

	assert.True(t, c.FromBackend())
	require.Len(t, c.List(), 2)

	m, ok := c.Get("m1")
	require.True(t, ok)
	assert.Equal(t, "Model One", m.DisplayName)
	assert.Equal(t, "8K", m.ContextLabel())
	assert.True(t, m.Has(domain.CapabilityCode))

	assert.Equal(t, "m2", c.Name("m2"))
	assert.Equal(t, "unknown", c.Name("unknown"))
	_, ok = c.Get("gpt-4-turbo")
	assert.False(t, ok)
}
