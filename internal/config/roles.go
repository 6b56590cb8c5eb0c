package config

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/fsutil"
)

// roleFile mirrors the on-disk role JSON document (spec.md §4.1): its
// contents supply role, prompt_template (string or array of strings joined
// with newlines) and optionally id/name.
type roleFile struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Role                string          `json:"role"`
	PromptTemplate      json.RawMessage `json:"prompt_template"`
	ApplyDiff           bool            `json:"apply_diff"`
	Instances           *int            `json:"instances"`
	DependsOn           []string        `json:"depends_on"`
	TimeoutSec          *int            `json:"timeout_sec"`
	Retries             *int            `json:"retries"`
	MaxPromptChars      *int            `json:"max_prompt_chars"`
	MaxPromptTokens     *int            `json:"max_prompt_tokens"`
	MaxOutputChars      *int            `json:"max_output_chars"`
	ExpectedSections    []string        `json:"expected_sections"`
	RunIfReviewCritical bool            `json:"run_if_review_critical"`
	CliProvider         string          `json:"cli_provider"`
	Model               string          `json:"model"`
	CliParameters       map[string]any  `json:"cli_parameters"`
	ShardMode           string          `json:"shard_mode"`
	ShardCount          *int            `json:"shard_count"`
	OverlapPolicy       string          `json:"overlap_policy"`
	EnforceAllowedPaths bool            `json:"enforce_allowed_paths"`
	MaxFilesPerShard    *int            `json:"max_files_per_shard"`
	MaxDiffLinesPerShard *int           `json:"max_diff_lines_per_shard"`
	ReshardOnTimeout124 bool            `json:"reshard_on_timeout_124"`
	MaxReshardDepth     *int            `json:"max_reshard_depth"`
}

// resolveRole loads {roleDir}/{rr.File}, merges in rr's inline overrides
// (id/name win if the role file omits them), and builds a core.RoleConfig.
func resolveRole(roleDir string, rr rawRole) (*core.RoleConfig, error) {
	path := filepath.Join(roleDir, rr.File)
	data, err := fsutil.ReadFileScoped(path)
	if err != nil {
		return nil, fmtRoleFileErr(roleDir, rr.File, err)
	}

	var rf roleFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmtRoleFileErr(roleDir, rr.File, err)
	}

	id := rf.ID
	if id == "" {
		id = rr.ID
	}
	name := rf.Name
	if name == "" {
		name = rr.Name
	}

	promptTemplate, err := decodePromptTemplate(rf.PromptTemplate)
	if err != nil {
		return nil, fmtRoleFileErr(roleDir, rr.File, err)
	}

	instances := 1
	if rf.Instances != nil {
		instances = *rf.Instances
	}
	shardCount := 0
	if rf.ShardCount != nil {
		shardCount = *rf.ShardCount
	}
	maxReshardDepth := 0
	if rf.MaxReshardDepth != nil {
		maxReshardDepth = *rf.MaxReshardDepth
	}
	retries := 0
	if rf.Retries != nil {
		retries = *rf.Retries
	}

	deps := make([]core.RoleID, 0, len(rf.DependsOn))
	for _, d := range rf.DependsOn {
		deps = append(deps, core.RoleID(d))
	}

	role := &core.RoleConfig{
		ID:                   core.RoleID(id),
		Name:                 name,
		RoleLabel:            rf.Role,
		PromptTemplate:       promptTemplate,
		ApplyDiff:            rf.ApplyDiff,
		Instances:            instances,
		DependsOn:            deps,
		TimeoutSec:           rf.TimeoutSec,
		Retries:              retries,
		MaxPromptChars:       rf.MaxPromptChars,
		MaxPromptTokens:      rf.MaxPromptTokens,
		MaxOutputChars:       rf.MaxOutputChars,
		ExpectedSections:     rf.ExpectedSections,
		RunIfReviewCritical:  rf.RunIfReviewCritical,
		CliProvider:          rf.CliProvider,
		Model:                rf.Model,
		CliParameters:        rf.CliParameters,
		ShardMode:            core.ShardMode(rf.ShardMode),
		ShardCount:           shardCount,
		OverlapPolicy:        core.OverlapPolicy(rf.OverlapPolicy),
		EnforceAllowedPaths:  rf.EnforceAllowedPaths,
		MaxFilesPerShard:     rf.MaxFilesPerShard,
		MaxDiffLinesPerShard: rf.MaxDiffLinesPerShard,
		ReshardOnTimeout124:  rf.ReshardOnTimeout124,
		MaxReshardDepth:      maxReshardDepth,
	}
	if err := role.Validate(); err != nil {
		return nil, err
	}
	return role, nil
}

// decodePromptTemplate accepts either a JSON string or a JSON array of
// strings (joined with newlines), per spec.md §4.1.
func decodePromptTemplate(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString, nil
	}
	var asArray []string
	if err := json.Unmarshal(raw, &asArray); err == nil {
		return strings.Join(asArray, "\n"), nil
	}
	return "", core.ErrConfig(core.CodeMissingRoleFile, "prompt_template must be a string or array of strings", "")
}
