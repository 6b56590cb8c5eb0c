package cliadapter

import (
	"fmt"
	"os"
	"strings"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
)

// BuiltCommand is the return shape of buildCommandForRole (spec.md §4.5):
// "(argv, stdinPayload?, timeoutMultiplier)".
type BuiltCommand struct {
	Argv              []string
	StdinPayload      string
	TimeoutMultiplier float64
}

// defaultFlagOrStdinThreshold is the spec's "~500 chars" default.
const defaultFlagOrStdinThreshold = 500

// BuildCommandForRole constructs the argv/stdin/timeout-multiplier for one
// agent invocation, per spec.md §4.5. providerID == "" selects the
// registry default. customParams overrides/extends the role's configured
// cli_parameters for this specific call (e.g. a sharding planner prompt
// reusing the same provider with different parameters).
func (r *Registry) BuildCommandForRole(providerID, prompt, model string, customParams map[string]any) (BuiltCommand, error) {
	provider, err := r.Get(providerID)
	if err != nil {
		return BuiltCommand{}, err
	}

	argv := append([]string{}, provider.DefaultArgv...)

	if override := envArgvOverride(provider.EnvVar); override != nil {
		argv = override
	}

	resolvedModel := provider.ResolveModel(model)
	if resolvedModel != "" {
		if spec, ok := provider.Params["model"]; ok {
			argv = appendFlag(argv, spec, resolvedModel)
		} else {
			argv = append(argv, "--model", resolvedModel)
		}
	}

	params := customParams
	if params == nil {
		params = map[string]any{}
	}
	for name, value := range params {
		spec, known := provider.Params[name]
		if !known {
			continue
		}
		argv = appendFlag(argv, spec, value)
	}

	threshold := provider.FlagOrStdinThreshold
	if threshold == 0 {
		threshold = defaultFlagOrStdinThreshold
	}

	mode := provider.ExecutionMode
	if mode == core.ExecModeFlagOrStdin {
		if len(prompt) > threshold {
			mode = core.ExecModeStdin
		} else {
			mode = core.ExecModeFlag
		}
	}

	var stdinPayload string
	switch mode {
	case core.ExecModeStdin:
		stdinPayload = prompt
	default: // flag
		argv = append(argv, prompt)
	}

	multiplier := provider.TimeoutMultiplier
	if multiplier <= 0 {
		multiplier = 1.0
	}

	return BuiltCommand{Argv: argv, StdinPayload: stdinPayload, TimeoutMultiplier: multiplier}, nil
}

// appendFlag builds an argv fragment from a declared ParamSpec: a boolean
// parameter becomes a bare presence flag when truthy and is omitted
// otherwise; anything else becomes "--flag value" (spec.md §4.5).
func appendFlag(argv []string, spec core.ParamSpec, value any) []string {
	if spec.Type == "bool" {
		truthy, _ := value.(bool)
		if truthy {
			return append(argv, spec.Flag)
		}
		return argv
	}
	return append(argv, spec.Flag, fmt.Sprintf("%v", value))
}

// envArgvOverride returns the whitespace-split argv from the named
// environment variable, or nil if unset/empty, per spec.md §4.5
// ("env[provider.env_var] if present replaces the default argv
// (whitespace-split, platform-aware)").
func envArgvOverride(envVar string) []string {
	if envVar == "" {
		return nil
	}
	raw := os.Getenv(envVar)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Fields(raw)
}

// timeoutForRole computes the effective timeout in seconds: role override
// or the configured default, multiplied by the provider's timeout
// multiplier, floored at 1 second (spec.md §4.10.3).
func TimeoutForRole(roleTimeoutSec *int, defaultTimeoutSec int, multiplier float64) int {
	base := defaultTimeoutSec
	if roleTimeoutSec != nil {
		base = *roleTimeoutSec
	}
	effective := int(float64(base) * multiplier)
	if effective < 1 {
		effective = 1
	}
	return effective
}
