// Package cliadapter implements the CLI Adapter (spec.md §4.5): a
// data-driven provider registry that knows each provider's argv schema,
// execution mode, model aliases, and error-classification patterns, and
// builds a ready-to-run command for a role. Grounded on the teacher's
// internal/adapters/cli package family (registry.go, base.go, and the
// per-provider files claude.go/codex.go/gemini.go/copilot.go/aider.go/
// opencode.go), generalized from the teacher's one-Go-type-per-CLI design
// to a single data-driven provider record (core.CliProvider) sourced from
// cli_config.json, since the spec treats providers as configuration, not
// as compiled-in adapters.
package cliadapter

import (
	"sync"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
)

// Registry holds every configured provider, keyed by id. The default
// provider is stored under the empty string key.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*core.CliProvider
}

// NewRegistry builds a Registry from a provider map (as loaded by
// internal/config's providers.go).
func NewRegistry(providers map[string]*core.CliProvider) *Registry {
	r := &Registry{providers: make(map[string]*core.CliProvider, len(providers))}
	for id, p := range providers {
		r.providers[id] = p
	}
	return r
}

// Get resolves providerId, falling back to the registry default ("") when
// providerId is empty, per spec.md §4.5 ("providerId == nil ⇒ the
// registry's default").
func (r *Registry) Get(providerID string) (*core.CliProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.providers[providerID]; ok {
		return p, nil
	}
	if providerID == "" {
		return nil, core.ErrConfig(core.CodeProviderMissing, "no default CLI provider configured", "")
	}
	return nil, core.ErrConfig(core.CodeProviderMissing, "unknown CLI provider: "+providerID, providerID)
}

// List returns every registered provider id (excluding the default-alias
// empty key, unless it is the only entry).
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
