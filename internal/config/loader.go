// Package config implements the Config Loader (spec.md §4.1): it deep-merges
// a process-wide defaults file with a family file, resolves each role's role
// file, and produces a frozen *core.AppConfig. Grounded on the teacher's
// internal/config/loader.go Loader-with-options pattern, adapted from
// Viper/YAML to direct JSON decoding per original_source/multi_agent/
// config_loader.py (the original loads everything via json.load).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
)

// Loader loads and merges a family's configuration.
type Loader struct {
	staticConfigDir string // holds defaults.json and cli_config.json
	familyPath      string
	mu              sync.Mutex
}

// Option configures a Loader.
type Option func(*Loader)

// WithStaticConfigDir sets the directory holding defaults.json/cli_config.json.
func WithStaticConfigDir(dir string) Option {
	return func(l *Loader) { l.staticConfigDir = dir }
}

// NewLoader creates a Loader for the given family file.
func NewLoader(familyPath string, opts ...Option) *Loader {
	l := &Loader{familyPath: familyPath}
	for _, o := range opts {
		o(l)
	}
	if l.staticConfigDir == "" {
		l.staticConfigDir = filepath.Dir(familyPath)
	}
	return l
}

// Load reads defaults.json + the family file, deep-merges them (family
// wins), resolves each role's role file, loads cli_config.json into the
// provider registry, and validates the result.
func (l *Loader) Load() (*core.AppConfig, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	defaultsPath := filepath.Join(l.staticConfigDir, "defaults.json")
	defaultsMap, err := loadJSONMapIfExists(defaultsPath)
	if err != nil {
		return nil, core.ErrConfig("DEFAULTS_UNREADABLE", err.Error(), defaultsPath)
	}

	familyMap, err := loadJSONMap(l.familyPath)
	if err != nil {
		return nil, core.ErrConfig("FAMILY_UNREADABLE", err.Error(), l.familyPath)
	}

	merged := deepMerge(defaultsMap, familyMap)

	var raw rawFamily
	blob, err := json.Marshal(merged)
	if err != nil {
		return nil, core.ErrConfig("FAMILY_INVALID", err.Error(), l.familyPath)
	}
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil, core.ErrConfig("FAMILY_INVALID", err.Error(), l.familyPath)
	}

	cfg, err := raw.toAppConfig()
	if err != nil {
		return nil, err
	}

	roleDir := filepath.Dir(l.familyPath)
	for i, rr := range raw.Roles {
		role, err := resolveRole(roleDir, rr)
		if err != nil {
			return nil, err
		}
		cfg.Roles[i] = role
	}

	providersPath := filepath.Join(l.staticConfigDir, "cli_config.json")
	providers, err := loadProviderRegistry(providersPath)
	if err != nil {
		return nil, err
	}
	cfg.Providers = providers

	if err := cfg.Validate(detectRoleCycle); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadJSONMap(path string) (map[string]any, error) {
	data, err := os.ReadFile(path) //nolint:gosec // family path is operator-supplied, not user input
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func loadJSONMapIfExists(path string) (map[string]any, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	return loadJSONMap(path)
}

// deepMerge recursively merges override into base: nested maps merge
// recursively, lists/scalars are replaced wholesale (spec.md §4.1).
func deepMerge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, ov := range override {
		if bv, ok := out[k]; ok {
			bvMap, bvIsMap := bv.(map[string]any)
			ovMap, ovIsMap := ov.(map[string]any)
			if bvIsMap && ovIsMap {
				out[k] = deepMerge(bvMap, ovMap)
				continue
			}
		}
		out[k] = ov
	}
	return out
}

func fmtRoleFileErr(roleDir, file string, err error) error {
	return core.ErrConfig(core.CodeMissingRoleFile,
		fmt.Sprintf("role file %q: %v", file, err), filepath.Join(roleDir, file))
}
