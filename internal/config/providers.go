package config

import (
	"encoding/json"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/fsutil"
)

// rawProviderRegistry mirrors the static cli_config.json document
// (spec.md §3 CliProvider, §6 "Static config directory").
type rawProviderRegistry struct {
	Default   string                  `json:"default"`
	Providers map[string]rawProvider `json:"providers"`
}

type rawProvider struct {
	Command              string                 `json:"command"`
	ExecutionMode        string                 `json:"execution_mode"`
	DefaultArgv          []string               `json:"default_argv"`
	EnvVar               string                 `json:"env_var"`
	ModelAliases         map[string]string      `json:"model_aliases"`
	Params               map[string]rawParamSpec `json:"params"`
	TimeoutMultiplier    float64                `json:"timeout_multiplier"`
	ErrorPatterns        map[string][]string    `json:"error_patterns"`
	FlagOrStdinThreshold int                    `json:"flag_or_stdin_threshold"`
}

type rawParamSpec struct {
	Flag string `json:"flag"`
	Type string `json:"type"`
}

// loadProviderRegistry reads cli_config.json from the static config
// directory. A missing file yields an empty registry (the default provider
// will then resolve to environment-overridden argv only); callers treat
// "no matching provider" as a config error at use time.
func loadProviderRegistry(path string) (map[string]*core.CliProvider, error) {
	data, err := fsutil.ReadFileScoped(path)
	if err != nil {
		return map[string]*core.CliProvider{}, nil
	}

	var raw rawProviderRegistry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, core.ErrConfig("PROVIDER_REGISTRY_INVALID", err.Error(), path)
	}

	out := make(map[string]*core.CliProvider, len(raw.Providers))
	for id, p := range raw.Providers {
		params := make(map[string]core.ParamSpec, len(p.Params))
		for name, spec := range p.Params {
			params[name] = core.ParamSpec{Flag: spec.Flag, Type: spec.Type}
		}
		mode := core.ExecutionMode(p.ExecutionMode)
		if mode == "" {
			mode = core.ExecModeStdin
		}
		threshold := p.FlagOrStdinThreshold
		if threshold == 0 {
			threshold = 500
		}
		mult := p.TimeoutMultiplier
		if mult == 0 {
			mult = 1.0
		}
		out[id] = &core.CliProvider{
			ID:                   id,
			Command:              p.Command,
			ExecutionMode:        mode,
			DefaultArgv:          p.DefaultArgv,
			EnvVar:               p.EnvVar,
			ModelAliases:         p.ModelAliases,
			Params:               params,
			TimeoutMultiplier:    mult,
			ErrorPatterns:        p.ErrorPatterns,
			FlagOrStdinThreshold: threshold,
		}
	}
	if raw.Default != "" {
		out[""] = out[raw.Default]
	}
	return out, nil
}
