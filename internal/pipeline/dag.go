package pipeline

import (
	"sort"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
)

// DAGBuilder computes the role dependency graph and its wave ordering.
// A near-literal generalization of the teacher's internal/service/dag.go
// DAGBuilder from core.Task/TaskID to core.RoleConfig/core.RoleID: same
// Kahn's-algorithm topological sort, same DFS cycle detection, same
// level-by-level assignment for concurrent execution, applied here to
// roles instead of arbitrary tasks.
type DAGBuilder struct {
	roles map[core.RoleID]*core.RoleConfig
	edges map[core.RoleID][]core.RoleID // role -> effective dependencies
	order []core.RoleID                 // declaration order, for EffectiveDeps fallback
}

// NewDAGBuilder builds the dependency graph for roles, in declared order.
// Each role's effective dependencies are depends_on if non-empty, else
// every role declared before it (spec.md §4.10 step 7).
func NewDAGBuilder(roles []*core.RoleConfig) *DAGBuilder {
	d := &DAGBuilder{
		roles: make(map[core.RoleID]*core.RoleConfig, len(roles)),
		edges: make(map[core.RoleID][]core.RoleID, len(roles)),
	}
	var declaredBefore []core.RoleID
	for _, r := range roles {
		d.roles[r.ID] = r
		d.order = append(d.order, r.ID)
		d.edges[r.ID] = append([]core.RoleID{}, r.EffectiveDeps(declaredBefore)...)
		declaredBefore = append(declaredBefore, r.ID)
	}
	return d
}

// DetectCycle reports a CodeCycleDetected ValidationError if the graph
// contains a cycle, using DFS with a recursion-stack set. Suitable as the
// detectCycle callback core.AppConfig.Validate expects.
func DetectCycle(roles []*core.RoleConfig) error {
	return NewDAGBuilder(roles).detectCycle()
}

func (d *DAGBuilder) detectCycle() error {
	visited := make(map[core.RoleID]bool)
	recStack := make(map[core.RoleID]bool)

	var dfs func(id core.RoleID) bool
	dfs = func(id core.RoleID) bool {
		visited[id] = true
		recStack[id] = true
		for _, dep := range d.edges[id] {
			if !visited[dep] {
				if dfs(dep) {
					return true
				}
			} else if recStack[dep] {
				return true
			}
		}
		recStack[id] = false
		return false
	}

	for _, id := range d.order {
		if !visited[id] {
			if dfs(id) {
				return core.ErrValidation(core.CodeCycleDetected, "role dependency graph contains a cycle")
			}
		}
	}
	return nil
}

// Waves groups roles into levels for concurrent execution: level N holds
// every role whose effective dependencies are all in levels < N. Roles
// within a level are sorted for reproducibility (mirrors the teacher's
// calculateLevels, sorted here since map iteration order is not stable).
func (d *DAGBuilder) Waves() ([][]core.RoleID, error) {
	if err := d.detectCycle(); err != nil {
		return nil, err
	}

	var waves [][]core.RoleID
	assigned := make(map[core.RoleID]bool, len(d.order))

	for len(assigned) < len(d.order) {
		var wave []core.RoleID
		for _, id := range d.order {
			if assigned[id] {
				continue
			}
			ready := true
			for _, dep := range d.edges[id] {
				if !assigned[dep] {
					ready = false
					break
				}
			}
			if ready {
				wave = append(wave, id)
			}
		}
		if len(wave) == 0 {
			// Every role has an unassigned dependency: blocked, not cyclic
			// (cycles are already rejected above) — spec.md §4.10 step 7.
			var pending []core.RoleID
			for _, id := range d.order {
				if !assigned[id] {
					pending = append(pending, id)
				}
			}
			return nil, core.ErrValidation(core.CodeCycleDetected,
				"dependency graph is blocked: no pending role has all dependencies satisfied")
		}
		sort.Slice(wave, func(i, j int) bool { return wave[i] < wave[j] })
		for _, id := range wave {
			assigned[id] = true
		}
		waves = append(waves, wave)
	}
	return waves, nil
}

// RoleByID looks up a role's config by id.
func (d *DAGBuilder) RoleByID(id core.RoleID) *core.RoleConfig {
	return d.roles[id]
}
