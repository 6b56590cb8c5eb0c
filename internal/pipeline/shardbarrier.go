package pipeline

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/diffutil"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/fsutil"
)

// instanceTouch is one instance's shard assignment and diff-touched paths,
// the input to shard-barrier validation (spec.md §4.10.4).
type instanceTouch struct {
	Instance     string
	AllowedPaths []string
	TouchedPaths []string
}

// shardBarrierResult is written to {role_id}_shard_summary.json on success.
type shardBarrierResult struct {
	Role      string              `json:"role"`
	Instances map[string][]string `json:"instances"` // instance -> touched paths
}

// validateShardBarrier implements spec.md §4.10.4: per-instance allowed-path
// enforcement, then cross-instance overlap detection. abort is true only
// when overlap_policy == forbid and an overlap (or allowed-path violation)
// was found.
func validateShardBarrier(runDir string, roleID core.RoleID, policy core.OverlapPolicy, enforceAllowedPaths bool, touches []instanceTouch) (abort bool, err error) {
	var violations []string
	if enforceAllowedPaths {
		for _, t := range touches {
			if len(t.AllowedPaths) == 0 {
				continue
			}
			for _, p := range t.TouchedPaths {
				if !diffutil.MatchAny(t.AllowedPaths, p) {
					violations = append(violations, fmt.Sprintf("%s: %s", t.Instance, p))
				}
			}
		}
	}
	if len(violations) > 0 {
		sort.Strings(violations)
		return true, core.ErrValidation(core.CodeAllowedPathViolation,
			fmt.Sprintf("role %s: instances touched paths outside their allowed_paths: %v", roleID, violations))
	}

	claims := make(map[string][]string, len(touches))
	for _, t := range touches {
		claims[t.Instance] = t.TouchedPaths
	}
	overlaps := diffutil.Overlaps(claims)
	if len(overlaps) > 0 {
		overlapPath := filepath.Join(runDir, string(roleID)+"_overlaps.json")
		blob, _ := json.MarshalIndent(overlaps, "", "  ")
		_ = fsutil.AtomicWriteFile(overlapPath, blob, 0o644)

		if policy == core.OverlapForbid {
			return true, core.ErrValidation(core.CodeShardOverlap,
				fmt.Sprintf("role %s: %d path(s) claimed by more than one instance", roleID, len(overlaps)))
		}
		// warn: logged only (caller logs shard_overlaps_detected); allow: no-op.
		return false, nil
	}

	summaryPath := filepath.Join(runDir, string(roleID)+"_shard_summary.json")
	instances := make(map[string][]string, len(touches))
	for _, t := range touches {
		instances[t.Instance] = t.TouchedPaths
	}
	blob, _ := json.MarshalIndent(shardBarrierResult{Role: string(roleID), Instances: instances}, "", "  ")
	if err := fsutil.AtomicWriteFile(summaryPath, blob, 0o644); err != nil {
		return false, core.ErrState(core.CodeStateCorrupted, "writing shard summary: "+err.Error())
	}

	return false, nil
}
