package pipeline

import (
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/cliadapter"
)

// ApplyMode selects when role diffs are applied (spec.md §4.10 steps 9-10).
type ApplyMode string

const (
	ApplyModeNone ApplyMode = ""
	ApplyModeRole ApplyMode = "role"
	ApplyModeEnd  ApplyMode = "end"
)

// RunArgs is the parsed CLI input to one pipeline run (spec.md §4.10, §6).
type RunArgs struct {
	Workdir        string
	Task           string // raw task text, or "@path" to load a file
	ApplyRoles     []string
	Apply          bool
	ApplyMode      ApplyMode
	FailFast       bool
	IgnoreFail     bool
	Confirm        bool
	NoStreaming    bool
	RunIDOverride  string
}

// RunResult is the outcome of one pipeline run (spec.md §4.10 step 12).
type RunResult struct {
	RunID      string
	ReturnCode int
	RunDir     string
}

// Providers exposes the CLI adapter registry to the pipeline.
type Providers = cliadapter.Registry
