package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/cliadapter"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/config"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/logging"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/pipeline"
)

// sharedFlags mirrors spec.md §6's "Flags (run/task)" block, registered on
// the root command (for bareword invocation) and on task/run individually.
type sharedFlags struct {
	configPath    string
	task          string
	dir           string
	timeout       int
	maxFiles      int
	maxFileBytes  int
	apply         bool
	applyMode     string
	applyRoles    []string
	applyConfirm  bool
	failFast      bool
	ignoreFail    bool
	taskSplit     bool
	noTaskResume  bool
	noStreaming   bool
	validateOnly  bool
}

var flags sharedFlags

func registerRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flags.configPath, "config", "", "family config file")
	cmd.Flags().StringVar(&flags.task, "task", "", "task text, or @path to a task file")
	cmd.Flags().StringVar(&flags.dir, "dir", ".", "working directory")
	cmd.Flags().IntVar(&flags.timeout, "timeout", 1200, "default per-role timeout in seconds")
	cmd.Flags().IntVar(&flags.maxFiles, "max-files", 350, "snapshot file-count cap")
	cmd.Flags().IntVar(&flags.maxFileBytes, "max-file-bytes", 90000, "snapshot per-file byte cap")
	cmd.Flags().BoolVar(&flags.apply, "apply", false, "apply role diffs to the working tree")
	cmd.Flags().StringVar(&flags.applyMode, "apply-mode", "end", "when to apply diffs: end|role")
	cmd.Flags().StringArrayVar(&flags.applyRoles, "apply-roles", nil, "restrict --apply to these role ids (repeatable)")
	cmd.Flags().BoolVar(&flags.applyConfirm, "apply-confirm", false, "prompt for y/N confirmation before each apply")
	cmd.Flags().BoolVar(&flags.failFast, "fail-fast", false, "abort the run on the first role/instance failure")
	cmd.Flags().BoolVar(&flags.ignoreFail, "ignore-fail", false, "always exit 0 regardless of role outcomes")
	cmd.Flags().BoolVar(&flags.taskSplit, "task-split", false, "split the task into chunks and run the pipeline once per chunk")
	cmd.Flags().BoolVar(&flags.noTaskResume, "no-task-resume", false, "ignore an existing task-split manifest and replan from scratch")
	cmd.Flags().BoolVar(&flags.noStreaming, "no-streaming", false, "use blocking execution instead of streaming output")
	cmd.Flags().BoolVar(&flags.validateOnly, "validate-config", false, "validate the family config and exit, without running")
}

// loadAppConfig loads and validates the family config named by --config,
// applying CLI-level overrides for the flags spec.md §6 documents as
// overriding config defaults (--timeout, --max-files, --max-file-bytes).
func loadAppConfig() (*core.AppConfig, error) {
	if flags.configPath == "" {
		return nil, core.ErrConfig("MISSING_CONFIG_FLAG", "--config is required", "")
	}
	loader := config.NewLoader(flags.configPath)
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if flags.maxFiles > 0 {
		cfg.Snapshot.MaxFiles = flags.maxFiles
	}
	if flags.maxFileBytes > 0 {
		cfg.Snapshot.MaxBytesPerFile = flags.maxFileBytes
	}
	return cfg, nil
}

// buildPipeline wires a *pipeline.Pipeline from the loaded config, the CLI
// provider registry, and --timeout/--no-streaming.
func buildPipeline(cfg *core.AppConfig) *pipeline.Pipeline {
	providers := cliadapter.NewRegistry(cfg.Providers)
	p := pipeline.New(cfg, flags.dir, providers, flags.noStreaming)
	if flags.timeout > 0 {
		p.DefaultTimeoutSec = flags.timeout
	}
	p.Logger = newCLILogger()
	return p
}

func runArgsFromFlags() pipeline.RunArgs {
	mode := pipeline.ApplyModeEnd
	if flags.applyMode == "role" {
		mode = pipeline.ApplyModeRole
	}
	return pipeline.RunArgs{
		Workdir:     flags.dir,
		Task:        flags.task,
		ApplyRoles:  flags.applyRoles,
		Apply:       flags.apply,
		ApplyMode:   mode,
		FailFast:    flags.failFast,
		IgnoreFail:  flags.ignoreFail,
		Confirm:     flags.applyConfirm,
		NoStreaming: flags.noStreaming,
	}
}

func newCLILogger() *logging.Logger {
	return logging.New(logging.Config{Level: logLevel, Format: logFormat})
}

// exitCodeForErr maps a *core.DomainError's category to the spec.md §6
// exit-code taxonomy: validation errors are schema/usage mistakes (2),
// config errors are family/role/defaults problems (3), a missing
// provider binary is a distinct code (127), and everything else is a
// generic runtime failure (1).
func exitCodeForErr(err error) int {
	de, ok := err.(*core.DomainError)
	if !ok {
		return 1
	}
	switch de.Category {
	case core.ErrCatValidation:
		return 2
	case core.ErrCatConfig:
		if de.Code == core.CodeProviderMissing {
			return 127
		}
		return 3
	default:
		return 1
	}
}

func printValidationErrors(cmd *cobra.Command, errs config.ValidationErrors) {
	for _, e := range errs {
		fmt.Fprintln(cmd.ErrOrStderr(), "  -", e)
	}
}
