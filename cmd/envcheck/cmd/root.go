// Package cmd provides the CLI commands for envcheck.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/envcheck/internal/config"
	enverrors "github.com/Aman-CERP/envcheck/internal/errors"
	"github.com/Aman-CERP/envcheck/internal/logging"
	"github.com/Aman-CERP/envcheck/internal/output"
	"github.com/Aman-CERP/envcheck/internal/preflight"
	"github.com/Aman-CERP/envcheck/pkg/version"
)

// checkError reports that at least one check failed. The report has already been printed.
type checkError struct {
	failed int
	total  int
}

func (e *checkError) Error() string {
	return fmt.Sprintf("%d of %d checks failed", e.failed, e.total)
}

// reportedError wraps an error that was already shown to the user.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// rootOptions holds the persistent flags.
type rootOptions struct {
	dir        string
	debug      bool
	jsonOutput bool
	verbose    bool
	noColor    bool

	loggingCleanup func()
}

// NewRootCmd creates the root command for the envcheck CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "envcheck",
		Short: "Verify a local data-engineering environment",
		Long: `envcheck verifies that a local data-engineering setup is ready to use.

It runs five independent checks in order:
  1. Package Imports        required Python packages can be imported
  2. Pipeline Construction  a named pipeline can be built for its destination
  3. Database Connection    the embedded database answers SELECT 1
  4. File Structure         required files and directories exist
  5. Sample Data            data/sample.csv loads with at least 1 row and 6 columns

A failing check never stops the others. The exit status is 0 when every
check passed and 1 otherwise.`,
		Example: `  # Verify the current directory
  envcheck

  # Verify another project with details
  envcheck --dir ../pipeline-lab --verbose

  # Machine-readable report
  envcheck --json`,
		Version:       version.Short(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			opts.teardown()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChecks(cmd, opts)
		},
	}

	cmd.SetVersionTemplate("envcheck version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.dir, "dir", ".", "Project directory to verify")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Write debug logs to ~/.envcheck/logs/")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the report as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Show details for each check")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command and prints errors that were not already reported.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil && !alreadyReported(err) {
		_, _ = fmt.Fprintln(root.ErrOrStderr(), enverrors.FormatForCLI(err))
	}
	return err
}

func alreadyReported(err error) bool {
	var ce *checkError
	var re *reportedError
	return errors.As(err, &ce) || errors.As(err, &re)
}

// setup resolves the project directory, loads .env and starts logging.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	abs, err := filepath.Abs(o.dir)
	if err != nil {
		return fmt.Errorf("failed to resolve --dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return enverrors.Newf(enverrors.ErrCodeMissingPath, "project directory not found: %s", abs).
			WithSuggestion("Pass an existing directory with --dir")
	}
	o.dir = abs

	loadDotEnv(abs)

	return o.startLogging(cmd, os.Getenv("ENVCHECK_LOG_LEVEL"))
}

// startLogging installs the default slog logger. --debug wins over level.
func (o *rootOptions) startLogging(cmd *cobra.Command, level string) error {
	o.teardown()

	cfg := logging.DefaultConfig()
	if level != "" {
		cfg.Level = level
	}
	cfg.Stderr = cmd.ErrOrStderr()
	if o.debug {
		cfg = logging.DebugConfig()
	}

	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	o.loggingCleanup = cleanup
	slog.SetDefault(logger)

	if o.debug {
		slog.Info("debug_logging_enabled",
			slog.String("log_file", cfg.FilePath),
			slog.String("version", version.Short()))
	}
	return nil
}

func (o *rootOptions) teardown() {
	if o.loggingCleanup != nil {
		o.loggingCleanup()
		o.loggingCleanup = nil
	}
}

// loadDotEnv loads <dir>/.env without overriding variables that are already set.
func loadDotEnv(dir string) {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		slog.Warn("dotenv_load_failed", slog.String("path", path), slog.String("error", err.Error()))
	}
}

// runChecks runs the verification and prints the report.
func runChecks(cmd *cobra.Command, opts *rootOptions) error {
	// PersistentPostRun is skipped when RunE fails.
	defer opts.teardown()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stdout := cmd.OutOrStdout()

	cfg, err := config.Load(opts.dir)
	if err != nil {
		envErr := enverrors.ConfigError("failed to load configuration", err).
			WithDetail("dir", opts.dir).
			WithSuggestion("Run 'envcheck config show' or fix " + config.ProjectConfigFile)
		slog.Error("config_load_failed", logAttrs(envErr)...)
		if opts.jsonOutput {
			if data, jerr := enverrors.FormatJSON(envErr); jerr == nil {
				_, _ = fmt.Fprintln(stdout, string(data))
			}
		} else {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), enverrors.FormatForCLI(envErr))
		}
		return &reportedError{err: envErr}
	}

	if !opts.debug {
		if err := opts.startLogging(cmd, cfg.Logging.Level); err != nil {
			return err
		}
	}

	var progress io.Writer = stdout
	if opts.jsonOutput {
		progress = io.Discard
	}

	checker := preflight.New(
		preflight.WithConfig(cfg),
		preflight.WithRoot(opts.dir),
		preflight.WithOutput(progress),
		preflight.WithVerbose(opts.verbose),
		preflight.WithColor(!opts.jsonOutput && output.ShouldColor(stdout, opts.noColor)),
		preflight.WithLogger(slog.Default()),
	)

	report := checker.RunAll(ctx)

	if opts.jsonOutput {
		if err := report.WriteJSON(stdout); err != nil {
			return enverrors.InternalError("failed to write report", err)
		}
	} else {
		checker.PrintResults(report)
	}

	if !report.AllPassed() {
		return &checkError{failed: report.Failed(), total: report.Total()}
	}
	return nil
}

func logAttrs(err error) []any {
	attrs := enverrors.FormatForLog(err)
	out := make([]any, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, a)
	}
	return out
}
