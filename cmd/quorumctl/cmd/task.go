package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/config"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/pipeline"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/tasksplit"
)

// taskCmd is spec.md §6's flag-driven, non-interactive entry point: every
// input comes from flags, --apply-confirm notwithstanding (it still
// prompts on stdin if set).
var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Run the pipeline non-interactively from flags",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runPipelineFromFlags(cmd)
	},
}

func init() {
	registerRunFlags(taskCmd)
}

func runPipelineFromFlags(cmd *cobra.Command) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	if flags.validateOnly {
		errs := config.ValidateAll(cfg)
		if errs.HasErrors() {
			printValidationErrors(cmd, errs)
			exitCode = 2
			return nil
		}
		cmd.Println("config OK")
		return nil
	}

	logger := newCLILogger()
	logger.Info("pipeline starting", "dir", flags.dir, "task_split", flags.taskSplit)

	p := buildPipeline(cfg)
	args := runArgsFromFlags()

	var rc int
	if flags.taskSplit {
		rc, err = tasksplit.Run(cmd.Context(), p, args, cfg, flags.noTaskResume)
	} else {
		var result *pipeline.RunResult
		result, err = p.Run(cmd.Context(), args)
		if result != nil {
			rc = result.ReturnCode
		}
	}
	if err != nil {
		logger.Error("pipeline failed", "error", err)
		return err
	}
	logger.Info("pipeline finished", "returncode", rc)
	exitCode = rc
	return nil
}
