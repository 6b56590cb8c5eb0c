package pipeline

import (
	"sync"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/prompt"
)

// SharedContext is the run's shared prompt-context map (spec.md §4.10 step
// 6): task/snapshot/coordination paths plus a {role}_summary/{role}_output
// pair per role, guarded by a write lock so concurrent role waves can read
// while another wave's instances are still writing their own keys.
type SharedContext struct {
	mu  sync.RWMutex
	ctx prompt.Context
}

// NewSharedContext seeds the context with the given initial entries.
func NewSharedContext(seed prompt.Context) *SharedContext {
	c := prompt.Context{}
	for k, v := range seed {
		c[k] = v
	}
	return &SharedContext{ctx: c}
}

// Get returns one entry (empty string if absent).
func (s *SharedContext) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx[key]
}

// Set writes one entry under the write lock.
func (s *SharedContext) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx[key] = value
}

// SetMany writes several entries atomically under one write-lock hold.
func (s *SharedContext) SetMany(entries map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range entries {
		s.ctx[k] = v
	}
}

// Snapshot returns a shallow copy suitable for per-instance cloning
// (spec.md §4.10.1 "compose a per-instance context clone").
func (s *SharedContext) Snapshot() prompt.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := make(prompt.Context, len(s.ctx))
	for k, v := range s.ctx {
		clone[k] = v
	}
	return clone
}
