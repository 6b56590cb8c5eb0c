package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	logLevel  string
	logFormat string
	noColor   bool
	quiet     bool

	appVersion string
	appCommit  string
	appDate    string

	// exitCode is set by a subcommand's RunE when the process should exit
	// with something other than 0/1 (the pipeline's own returncode, or a
	// spec.md §6 validation/config/provider-missing code), since cobra's
	// Execute only distinguishes "error" from "no error".
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "quorumctl",
	Short: "Multi-agent LLM CLI orchestrator",
	Long: `quorumctl drives a family of LLM CLI providers (codex, claude, gemini, ...)
through a wave-scheduled pipeline of roles, sharding large tasks across
parallel instances and applying the resulting diffs under git or a
pure-Go hunk backend.

Running 'quorumctl' without arguments starts interactive 'run'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initViper()
	},
	RunE: runRun,
}

// Execute runs the root command under a context that cancels on the first
// SIGINT/SIGTERM, giving an in-flight pipeline run a chance to finish the
// current instance and record its state, and force-quits on a second
// signal. Grounded on original_source/multi_agent/cancellation.py's
// "cancel once, force-quit twice" handler, translated into Go's
// signal.NotifyContext idiom (SPEC_FULL.md §10).
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	forceQuit := make(chan os.Signal, 1)
	go func() {
		<-ctx.Done()
		fmt.Fprintln(rootCmd.ErrOrStderr(), "\ncancelling... (press Ctrl+C again to force quit)")
		signal.Notify(forceQuit, os.Interrupt, syscall.SIGTERM)
		<-forceQuit
		fmt.Fprintln(rootCmd.ErrOrStderr(), "\nforce quit (state not saved)")
		os.Exit(130)
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "error:", err)
		return exitCodeForErr(err)
	}
	if ctx.Err() != nil {
		return 130
	}
	return exitCode
}

func SetVersion(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto", "log format (auto, text, json)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("no_color", rootCmd.PersistentFlags().Lookup("no-color"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))

	registerRunFlags(rootCmd)
	rootCmd.AddCommand(taskCmd, runCmd, createFamilyCmd, createRoleCmd, versionCmd)
}

func initViper() error {
	viper.SetEnvPrefix("QUORUM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	return nil
}
