package core

import "fmt"

// ShardMode selects how a role's task text is partitioned across instances.
type ShardMode string

const (
	ShardModeNone     ShardMode = "none"
	ShardModeHeadings ShardMode = "headings"
	ShardModeFiles    ShardMode = "files"
	ShardModeLLM      ShardMode = "llm"
)

// OverlapPolicy governs what happens when two shard instances touch the same file.
type OverlapPolicy string

const (
	OverlapForbid OverlapPolicy = "forbid"
	OverlapWarn   OverlapPolicy = "warn"
	OverlapAllow  OverlapPolicy = "allow"
)

// RoleID uniquely identifies a role within a family.
type RoleID string

// RoleConfig is one agent type's immutable configuration, loaded once at
// startup and never mutated afterward (see AppConfig Lifecycle).
type RoleConfig struct {
	ID             RoleID
	Name           string
	RoleLabel      string
	PromptTemplate string
	ApplyDiff      bool
	Instances      int
	DependsOn      []RoleID

	TimeoutSec      *int
	Retries         int
	MaxPromptChars  *int
	MaxPromptTokens *int
	MaxOutputChars  *int

	ExpectedSections []string

	RunIfReviewCritical bool

	CliProvider    string
	Model          string
	CliParameters  map[string]any

	ShardMode              ShardMode
	ShardCount              int
	OverlapPolicy           OverlapPolicy
	EnforceAllowedPaths     bool
	MaxFilesPerShard        *int
	MaxDiffLinesPerShard    *int
	ReshardOnTimeout124     bool
	MaxReshardDepth         int
}

// Validate checks RoleConfig invariants that can be verified in isolation
// (cross-role invariants such as DAG-acyclicity and final_role_id references
// are checked by AppConfig.Validate).
func (r *RoleConfig) Validate() error {
	if r.ID == "" {
		return ErrConfig(CodeMissingRoleFile, "role id cannot be empty", "")
	}
	if r.PromptTemplate == "" {
		return ErrConfig(CodeMissingRoleFile, fmt.Sprintf("role %s: prompt_template is required", r.ID), string(r.ID))
	}
	if r.Instances < 1 {
		return ErrConfig(CodeNegativeLimit, fmt.Sprintf("role %s: instances must be >= 1", r.ID), string(r.ID))
	}
	if r.Retries < 0 {
		return ErrConfig(CodeNegativeLimit, fmt.Sprintf("role %s: retries must be >= 0", r.ID), string(r.ID))
	}
	if r.MaxReshardDepth < 0 {
		return ErrConfig(CodeNegativeLimit, fmt.Sprintf("role %s: max_reshard_depth must be >= 0", r.ID), string(r.ID))
	}
	switch r.ShardMode {
	case "", ShardModeNone, ShardModeHeadings, ShardModeFiles, ShardModeLLM:
	default:
		return ErrConfig(CodeInvalidShardMode, fmt.Sprintf("role %s: unknown shard_mode %q", r.ID, r.ShardMode), string(r.ID))
	}
	switch r.OverlapPolicy {
	case "", OverlapForbid, OverlapWarn, OverlapAllow:
	default:
		return ErrConfig(CodeInvalidOverlap, fmt.Sprintf("role %s: unknown overlap_policy %q", r.ID, r.OverlapPolicy), string(r.ID))
	}
	return nil
}

// EffectiveDeps returns depends_on if non-empty, else allDeclaredBefore (the
// ids of every role declared earlier in the family's role list) per
// spec.md §4.10 step 7's effective_deps rule.
func (r *RoleConfig) EffectiveDeps(allDeclaredBefore []RoleID) []RoleID {
	if len(r.DependsOn) > 0 {
		return r.DependsOn
	}
	return allDeclaredBefore
}

// ShardingEnabled reports whether this role meaningfully uses sharding:
// shard_mode != none is only meaningful when instances > 1.
func (r *RoleConfig) ShardingEnabled() bool {
	return r.ShardMode != "" && r.ShardMode != ShardModeNone && r.Instances > 1
}
