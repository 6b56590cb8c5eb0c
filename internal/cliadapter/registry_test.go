package cliadapter

import (
	"testing"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetDefaultFallback(t *testing.T) {
	r := NewRegistry(map[string]*core.CliProvider{"": {ID: "claude"}})

	p, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, "claude", p.ID)
}

func TestRegistry_GetMissingDefaultErrors(t *testing.T) {
	r := NewRegistry(map[string]*core.CliProvider{})

	_, err := r.Get("")
	assert.Error(t, err)
}

func TestRegistry_ListExcludesDefaultAlias(t *testing.T) {
	r := NewRegistry(map[string]*core.CliProvider{
		"":       {ID: "claude"},
		"claude": {ID: "claude"},
		"codex":  {ID: "codex"},
	})

	assert.ElementsMatch(t, []string{"claude", "codex"}, r.List())
}
