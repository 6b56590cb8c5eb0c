package config

import (
	"strings"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
)

// ValidationErrors accumulates every validation failure found while checking
// a family, rather than stopping at the first — grounded on the teacher's
// internal/config/validator.go ValidationErrors accumulator, used here for
// the --validate-config CLI path (SPEC_FULL.md §10 supplement).
type ValidationErrors []error

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// HasErrors reports whether any validation failure was recorded.
func (v ValidationErrors) HasErrors() bool { return len(v) > 0 }

// ValidateAll re-validates every role individually (rather than
// short-circuiting on the first invalid role, as Load does) and also
// checks that every message key the pipeline/applier reference exists in
// the catalogs, collecting every failure found.
func ValidateAll(cfg *core.AppConfig) ValidationErrors {
	var errs ValidationErrors

	seen := map[core.RoleID]bool{}
	for _, r := range cfg.Roles {
		if seen[r.ID] {
			errs = append(errs, core.ErrConfig(core.CodeMissingRoleFile, "duplicate role id: "+string(r.ID), string(r.ID)))
			continue
		}
		seen[r.ID] = true
		if err := r.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	if cfg.FinalRoleID != "" && !seen[cfg.FinalRoleID] {
		errs = append(errs, core.ErrConfig(core.CodeUnknownFinalRole, "final_role_id does not refer to a declared role: "+string(cfg.FinalRoleID), ""))
	}

	for _, r := range cfg.Roles {
		for _, dep := range r.DependsOn {
			if !seen[dep] {
				errs = append(errs, core.ErrConfig(core.CodeMissingRoleFile, "role "+string(r.ID)+" depends_on unknown role "+string(dep), string(r.ID)))
			}
		}
	}

	if err := detectRoleCycle(cfg.Roles); err != nil {
		errs = append(errs, err)
	}

	if err := cfg.Messages.Require(requiredMessageKeys...); err != nil {
		errs = append(errs, err)
	}
	if err := cfg.DiffMessages.Require(requiredDiffMessageKeys...); err != nil {
		errs = append(errs, err)
	}

	return errs
}

// requiredMessageKeys lists every message key the pipeline/sharding
// components reference (SPEC_FULL.md §10: catalogs are validated for
// completeness at config-load time).
var requiredMessageKeys = []string{
	"missing_sections",
	"dag_blocked",
	"apply_confirm_prompt",
}

// requiredDiffMessageKeys lists every message key the diff applier
// references.
var requiredDiffMessageKeys = []string{
	"blocked_path",
	"hunk_mismatch",
	"backend_check_failed",
}
