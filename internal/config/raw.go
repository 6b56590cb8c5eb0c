package config

import (
	"fmt"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
)

// rawFamily mirrors the on-disk family JSON document (spec.md §3, §4.1).
// Unknown fields are ignored, per spec.md §4.1 ("Unknown fields are
// ignored"), which is why this uses a plain struct rather than
// DisallowUnknownFields.
type rawFamily struct {
	SystemRules          string         `json:"system_rules"`
	Roles                []rawRole      `json:"roles"`
	FinalRoleID          string         `json:"final_role_id"`
	SummaryMaxChars      int            `json:"summary_max_chars"`
	FinalSummaryMaxChars int            `json:"final_summary_max_chars"`
	Codex                rawCodex       `json:"codex"`
	Paths                rawPaths       `json:"paths"`
	Coordination         rawCoord       `json:"coordination"`
	Outputs              rawOutputs     `json:"outputs"`
	Snapshot             rawSnapshot    `json:"snapshot"`
	AgentOutput          rawAgentOutput `json:"agent_output"`
	Messages             map[string]string `json:"messages"`
	DiffMessages         map[string]string `json:"diff_messages"`
	CLI                  rawCLI         `json:"cli"`
	RoleDefaults         rawRoleDefaults `json:"role_defaults"`
	PromptLimits         rawPromptLimits `json:"prompt_limits"`
	TaskLimits           rawTaskLimits  `json:"task_limits"`
	TaskSplit            rawTaskSplit   `json:"task_split"`
	DiffSafety           rawDiffSafety  `json:"diff_safety"`
	DiffApply            rawDiffApply   `json:"diff_apply"`
	Logging              rawLogging     `json:"logging"`
	FeedbackLoop         rawFeedback    `json:"feedback_loop"`
}

type rawRole struct {
	File string `json:"file"` // path to the role file, relative to the family file's directory
	ID   string `json:"id"`
	Name string `json:"name"`
}

type rawCodex struct {
	EnvVar     string `json:"env_var"`
	DefaultCmd string `json:"default_cmd"`
}

type rawPaths struct {
	RunDirTemplate string `json:"run_dir_template"`
}

type rawCoord struct {
	TaskBoardPathTemplate string `json:"task_board_path_template"`
	LogPathTemplate       string `json:"log_path_template"`
	LockTimeoutSec        int    `json:"lock_timeout_sec"`
	LockPollIntervalMS    int    `json:"lock_poll_interval_ms"`
	LockStaleSec          int    `json:"lock_stale_sec"`
}

type rawOutputs struct {
	Pattern string `json:"pattern"`
}

type rawSnapshot struct {
	SkipDirs         []string `json:"skip_dirs"`
	SkipExts         []string `json:"skip_exts"`
	MaxFiles         int      `json:"max_files"`
	MaxBytesPerFile  int      `json:"max_bytes_per_file"`
	MaxTotalBytes    int      `json:"max_total_bytes"`
	DeltaSnapshot    bool     `json:"delta_snapshot"`
	SelectiveContext bool     `json:"selective_context"`
}

type rawAgentOutput struct {
	Dir string `json:"dir"`
}

type rawCLI struct {
	InlineMaxChars  int     `json:"inline_max_chars"`
	LockTimeoutSec  int     `json:"lock_timeout_sec"`
	RetryBackoffSec float64 `json:"retry_backoff_sec"`
}

type rawRoleDefaults struct {
	RetryPromptShrink float64 `json:"retry_prompt_shrink"`
	SummaryMaxChars   int     `json:"summary_max_chars"`
}

type rawPromptLimits struct {
	MaxPromptChars  int `json:"max_prompt_chars"`
	MaxPromptTokens int `json:"max_prompt_tokens"`
	TokenChars      int `json:"token_chars"`
}

type rawTaskLimits struct {
	InlineMaxChars int `json:"inline_max_chars"`
}

type rawTaskSplit struct {
	DecisionMode         string `json:"decision_mode"`
	HeuristicMaxChars    int    `json:"heuristic_max_chars"`
	HeuristicMaxTokens   int    `json:"heuristic_max_tokens"`
	HeuristicMaxHeadings int    `json:"heuristic_max_headings"`
	LLMMaxHeadings       int    `json:"llm_max_headings"`
	LLMTimeoutSec        int    `json:"llm_timeout_sec"`
	ChunkMinChars        int    `json:"chunk_min_chars"`
	CarryOverMaxChars    int    `json:"carry_over_max_chars"`
	OutputDirTemplate    string `json:"output_dir_template"`
	AutoResume           bool   `json:"auto_resume"`
}

type rawDiffSafety struct {
	Blocklist []string `json:"blocklist"`
	Allowlist []string `json:"allowlist"`
}

type rawDiffApply struct {
	UseGit       bool `json:"use_git"`
	ThreeWay     bool `json:"three_way"`
	ConfirmApply bool `json:"confirm_apply"`
}

type rawLogging struct {
	Level         string `json:"level"`
	Format        string `json:"format"`
	EventsEnabled bool   `json:"events_enabled"`
}

type rawFeedback struct {
	Enabled          bool     `json:"enabled"`
	CriticalPatterns []string `json:"critical_patterns"`
}

func (r *rawFamily) toAppConfig() (*core.AppConfig, error) {
	cfg := &core.AppConfig{
		SystemRules:          r.SystemRules,
		Roles:                make([]*core.RoleConfig, len(r.Roles)),
		FinalRoleID:          core.RoleID(r.FinalRoleID),
		SummaryMaxChars:      r.SummaryMaxChars,
		FinalSummaryMaxChars: r.FinalSummaryMaxChars,
		CodexEnvVar:          r.Codex.EnvVar,
		CodexDefaultCmd:      r.Codex.DefaultCmd,
		Paths:                core.PathsConfig{RunDirTemplate: r.Paths.RunDirTemplate},
		Coordination: core.CoordinationConfig{
			TaskBoardPathTemplate: r.Coordination.TaskBoardPathTemplate,
			LogPathTemplate:       r.Coordination.LogPathTemplate,
			LockTimeoutSec:        r.Coordination.LockTimeoutSec,
			LockPollIntervalMS:    r.Coordination.LockPollIntervalMS,
			LockStaleSec:          r.Coordination.LockStaleSec,
		},
		Outputs:     core.OutputsConfig{Pattern: r.Outputs.Pattern},
		Snapshot: core.SnapshotConfig{
			SkipDirs:         r.Snapshot.SkipDirs,
			SkipExts:         r.Snapshot.SkipExts,
			MaxFiles:         r.Snapshot.MaxFiles,
			MaxBytesPerFile:  r.Snapshot.MaxBytesPerFile,
			MaxTotalBytes:    r.Snapshot.MaxTotalBytes,
			DeltaSnapshot:    r.Snapshot.DeltaSnapshot,
			SelectiveContext: r.Snapshot.SelectiveContext,
		},
		AgentOutput:  core.AgentOutputConfig{Dir: r.AgentOutput.Dir},
		Messages:     core.MessageCatalog(r.Messages),
		DiffMessages: core.MessageCatalog(r.DiffMessages),
		CLI: core.CLIConfig{
			InlineMaxChars:  r.CLI.InlineMaxChars,
			LockTimeoutSec:  r.CLI.LockTimeoutSec,
			RetryBackoffSec: r.CLI.RetryBackoffSec,
		},
		RoleDefaults: core.RoleDefaults{
			RetryPromptShrink: r.RoleDefaults.RetryPromptShrink,
			SummaryMaxChars:   r.RoleDefaults.SummaryMaxChars,
		},
		PromptLimits: core.PromptLimitsConfig{
			MaxPromptChars:  r.PromptLimits.MaxPromptChars,
			MaxPromptTokens: r.PromptLimits.MaxPromptTokens,
			TokenChars:      r.PromptLimits.TokenChars,
		},
		TaskLimits: core.TaskLimitsConfig{InlineMaxChars: r.TaskLimits.InlineMaxChars},
		TaskSplit: core.TaskSplitConfig{
			DecisionMode:         r.TaskSplit.DecisionMode,
			HeuristicMaxChars:    r.TaskSplit.HeuristicMaxChars,
			HeuristicMaxTokens:   r.TaskSplit.HeuristicMaxTokens,
			HeuristicMaxHeadings: r.TaskSplit.HeuristicMaxHeadings,
			LLMMaxHeadings:       r.TaskSplit.LLMMaxHeadings,
			LLMTimeoutSec:        r.TaskSplit.LLMTimeoutSec,
			ChunkMinChars:        r.TaskSplit.ChunkMinChars,
			CarryOverMaxChars:    r.TaskSplit.CarryOverMaxChars,
			OutputDirTemplate:    r.TaskSplit.OutputDirTemplate,
			AutoResume:           r.TaskSplit.AutoResume,
		},
		DiffSafety: core.DiffSafety{
			Blocklist: r.DiffSafety.Blocklist,
			Allowlist: r.DiffSafety.Allowlist,
		},
		DiffApply: core.DiffApplyConfig{
			UseGit:       r.DiffApply.UseGit,
			ThreeWay:     r.DiffApply.ThreeWay,
			ConfirmApply: r.DiffApply.ConfirmApply,
		},
		Logging: core.LoggingConfig{
			Level:         r.Logging.Level,
			Format:        r.Logging.Format,
			EventsEnabled: r.Logging.EventsEnabled,
		},
		FeedbackLoop: core.FeedbackLoopConfig{
			Enabled:          r.FeedbackLoop.Enabled,
			CriticalPatterns: r.FeedbackLoop.CriticalPatterns,
		},
	}
	if len(r.Roles) == 0 {
		return nil, core.ErrConfig(core.CodeMissingRoleFile, "family must declare at least one role", "")
	}
	return cfg, nil
}

func detectRoleCycle(roles []*core.RoleConfig) error {
	byID := make(map[core.RoleID]*core.RoleConfig, len(roles))
	for _, r := range roles {
		byID[r.ID] = r
	}
	visited := make(map[core.RoleID]int) // 0 unvisited, 1 in-stack, 2 done
	var dfs func(id core.RoleID) error
	dfs = func(id core.RoleID) error {
		visited[id] = 1
		r := byID[id]
		for _, dep := range r.DependsOn {
			switch visited[dep] {
			case 1:
				return core.ErrConfig(core.CodeCycleDetected, fmt.Sprintf("depends_on cycle involving role %q", dep), "")
			case 0:
				if err := dfs(dep); err != nil {
					return err
				}
			}
		}
		visited[id] = 2
		return nil
	}
	for _, r := range roles {
		if visited[r.ID] == 0 {
			if err := dfs(r.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
