package core

import "fmt"

// DiffSafety is the per-family path blocklist/allowlist for diff application.
type DiffSafety struct {
	Blocklist []string
	Allowlist []string
}

// DiffApplyConfig governs backend selection for the Diff Applier.
type DiffApplyConfig struct {
	UseGit        bool
	ThreeWay      bool
	ConfirmApply  bool
}

// FeedbackLoopConfig gates review-dependent roles (spec.md §4.10.1, §9).
type FeedbackLoopConfig struct {
	Enabled          bool
	CriticalPatterns []string // matched case-insensitive substring, no other semantics
}

// TaskSplitConfig configures the Task Splitter (spec.md §4.11).
type TaskSplitConfig struct {
	DecisionMode       string // "always" | "heuristic"
	HeuristicMaxChars  int
	HeuristicMaxTokens int
	HeuristicMaxHeadings int
	LLMMaxHeadings     int
	LLMTimeoutSec      int
	ChunkMinChars      int
	CarryOverMaxChars  int
	OutputDirTemplate  string
	AutoResume         bool
}

// PathsConfig holds the run/output directory templates spec.md §6 names.
type PathsConfig struct {
	RunDirTemplate string // "{run_dir_template}"
}

// OutputsConfig governs per-agent output file naming.
type OutputsConfig struct {
	Pattern string // e.g. "{role_id}_{k}.md"
}

// SnapshotConfig configures the Snapshotter (spec.md §4.2).
type SnapshotConfig struct {
	SkipDirs         []string
	SkipExts         []string
	MaxFiles         int
	MaxBytesPerFile  int
	MaxTotalBytes    int
	DeltaSnapshot    bool
	SelectiveContext bool
}

// AgentOutputConfig governs per-agent on-disk output persistence.
type AgentOutputConfig struct {
	Dir string
}

// LoggingConfig configures ambient structured logging.
type LoggingConfig struct {
	Level  string
	Format string
	EventsEnabled bool
}

// CLIConfig holds defaults for the external CLI surface (spec.md §6).
type CLIConfig struct {
	InlineMaxChars int
	LockTimeoutSec int
	RetryBackoffSec float64
}

// RoleDefaults are merged into every role before family overrides apply.
type RoleDefaults struct {
	RetryPromptShrink float64
	SummaryMaxChars   int
}

// AppConfig aggregates the global, frozen, immutable configuration for one
// orchestrator family (spec.md §3). Created once at start, read-only
// thereafter.
type AppConfig struct {
	SystemRules       string
	Roles             []*RoleConfig
	FinalRoleID       RoleID
	SummaryMaxChars   int
	FinalSummaryMaxChars int

	CodexEnvVar    string
	CodexDefaultCmd string

	Paths        PathsConfig
	Coordination CoordinationConfig
	Outputs      OutputsConfig
	Snapshot     SnapshotConfig
	AgentOutput  AgentOutputConfig
	Messages     MessageCatalog
	DiffMessages MessageCatalog
	CLI          CLIConfig
	RoleDefaults RoleDefaults
	PromptLimits PromptLimitsConfig
	TaskLimits   TaskLimitsConfig
	TaskSplit    TaskSplitConfig
	DiffSafety   DiffSafety
	DiffApply    DiffApplyConfig
	Logging      LoggingConfig
	FeedbackLoop FeedbackLoopConfig

	Providers map[string]*CliProvider
}

// CoordinationConfig holds task-board/log path templates and lock tuning.
type CoordinationConfig struct {
	TaskBoardPathTemplate string
	LogPathTemplate       string
	LockTimeoutSec        int
	LockPollIntervalMS    int
	LockStaleSec          int
}

// PromptLimitsConfig bounds prompt size absent a per-role override.
type PromptLimitsConfig struct {
	MaxPromptChars   int
	MaxPromptTokens  int
	TokenChars       int // chars-per-token heuristic divisor
	SnapshotMaxChars int // stage 2 of the compression cascade, spec.md §4.8
}

// TaskLimitsConfig bounds the raw task text.
type TaskLimitsConfig struct {
	InlineMaxChars int
}

// RoleByID finds a role by id, or nil.
func (c *AppConfig) RoleByID(id RoleID) *RoleConfig {
	for _, r := range c.Roles {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// Validate enforces the cross-role invariants of spec.md §3: unique role
// ids, final_role_id existence, depends_on forms a DAG (delegated to the
// pipeline's DAG builder so the cycle-detection algorithm lives in one
// place), and that every ErrConfig-producing RoleConfig passes.
func (c *AppConfig) Validate(detectCycle func([]*RoleConfig) error) error {
	seen := make(map[RoleID]bool, len(c.Roles))
	for _, r := range c.Roles {
		if seen[r.ID] {
			return ErrConfig(CodeMissingRoleFile, fmt.Sprintf("duplicate role id %q", r.ID), string(r.ID))
		}
		seen[r.ID] = true
		if err := r.Validate(); err != nil {
			return err
		}
	}
	if c.FinalRoleID != "" && !seen[c.FinalRoleID] {
		return ErrConfig(CodeUnknownFinalRole, fmt.Sprintf("final_role_id %q does not refer to a declared role", c.FinalRoleID), "")
	}
	for _, r := range c.Roles {
		for _, dep := range r.DependsOn {
			if !seen[dep] {
				return ErrConfig(CodeMissingRoleFile, fmt.Sprintf("role %s depends_on unknown role %q", r.ID, dep), string(r.ID))
			}
		}
	}
	if detectCycle != nil {
		if err := detectCycle(c.Roles); err != nil {
			return err
		}
	}
	return nil
}
