package pipeline

import (
	"time"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/cliadapter"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/executor"
)

// ExecutionPlan is the fully-resolved shape of one agent invocation,
// ready to hand to executor.Executor (spec.md §4.10.3).
type ExecutionPlan struct {
	Exec    *executor.Executor
	Args    []string
	Stdin   string
	Timeout time.Duration
}

// selectExecutor asks the CLI adapter registry to build the argv/stdin for
// roleText, then computes the effective timeout: role.timeout_sec (or a
// configured default) multiplied by the provider's timeout_multiplier,
// floored at 1 second (spec.md §4.10.3).
func selectExecutor(providers *cliadapter.Registry, role *core.RoleConfig, promptText string, defaultTimeoutSec int) (ExecutionPlan, error) {
	built, err := providers.BuildCommandForRole(role.CliProvider, promptText, role.Model, role.CliParameters)
	if err != nil {
		return ExecutionPlan{}, err
	}
	if len(built.Argv) == 0 {
		return ExecutionPlan{}, core.ErrConfig(core.CodeProviderMissing, "provider produced an empty command", role.CliProvider)
	}

	timeoutSec := cliadapter.TimeoutForRole(role.TimeoutSec, defaultTimeoutSec, built.TimeoutMultiplier)

	return ExecutionPlan{
		Exec:    executor.New(built.Argv[0]),
		Args:    built.Argv[1:],
		Stdin:   built.StdinPayload,
		Timeout: time.Duration(timeoutSec) * time.Second,
	}, nil
}
