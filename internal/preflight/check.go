package preflight

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/Aman-CERP/envcheck/internal/config"
	enverrors "github.com/Aman-CERP/envcheck/internal/errors"
	"github.com/Aman-CERP/envcheck/internal/output"
)

// Check IDs, in run order.
const (
	CheckPackageImports = "package_imports"
	CheckPipeline       = "pipeline"
	CheckDatabase       = "database"
	CheckFileStructure  = "file_structure"
	CheckSampleData     = "sample_data"
)

// CheckStatus represents the result of a check.
type CheckStatus int

const (
	// StatusPass indicates the check passed.
	StatusPass CheckStatus = iota
	// StatusFail indicates the check failed or crashed.
	StatusFail
)

// String returns the string representation of a CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the status as PASS or FAIL.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CheckResult holds the result of a single check.
type CheckResult struct {
	ID       string
	Name     string
	Status   CheckStatus
	Message  string
	Details  []string
	Duration time.Duration
	// Err is the structured cause of a failure. Nil when the check passed.
	Err error
}

// Passed reports whether the check passed.
func (r CheckResult) Passed() bool {
	return r.Status == StatusPass
}

func pass(msg string, details ...string) CheckResult {
	return CheckResult{Status: StatusPass, Message: msg, Details: details}
}

func fail(err *enverrors.EnvError, details ...string) CheckResult {
	return CheckResult{Status: StatusFail, Message: err.Message, Details: details, Err: err}
}

// Check is one verification step.
type Check struct {
	ID   string
	Name string
	Run  func(ctx context.Context) CheckResult
}

// Checker runs the environment checks in order.
type Checker struct {
	cfg      *config.Config
	root     string
	verbose  bool
	color    bool
	output   io.Writer
	out      *output.Writer
	importer PackageImporter
	logger   *slog.Logger
	checks   []Check
	now      func() time.Time
}

// Option configures a Checker.
type Option func(*Checker)

// WithVerbose prints detail lines under each check.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) {
		c.verbose = verbose
	}
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) {
		c.output = w
	}
}

// WithColor enables colored output.
func WithColor(color bool) Option {
	return func(c *Checker) {
		c.color = color
	}
}

// WithConfig sets the configuration. Defaults to config.NewConfig().
func WithConfig(cfg *config.Config) Option {
	return func(c *Checker) {
		c.cfg = cfg
	}
}

// WithRoot sets the working directory the checks resolve paths against.
func WithRoot(root string) Option {
	return func(c *Checker) {
		c.root = root
	}
}

// WithImporter replaces the Python package importer.
func WithImporter(importer PackageImporter) Option {
	return func(c *Checker) {
		c.importer = importer
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// WithChecks replaces the default check list.
func WithChecks(checks ...Check) Option {
	return func(c *Checker) {
		c.checks = checks
	}
}

// New creates a new Checker with the given options.
func New(opts ...Option) *Checker {
	c := &Checker{
		root:   ".",
		output: os.Stdout,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cfg == nil {
		c.cfg = config.NewConfig()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.out = output.NewColor(c.output, c.color)
	return c
}

// Checks returns the checks in run order.
func (c *Checker) Checks() []Check {
	if c.checks != nil {
		return c.checks
	}
	return []Check{
		{ID: CheckPackageImports, Name: "Package Imports", Run: c.CheckImports},
		{ID: CheckPipeline, Name: "Pipeline Construction", Run: c.CheckPipeline},
		{ID: CheckDatabase, Name: "Database Connection", Run: c.CheckDatabase},
		{ID: CheckFileStructure, Name: "File Structure", Run: c.CheckFileStructure},
		{ID: CheckSampleData, Name: "Sample Data", Run: c.CheckSampleData},
	}
}

// RunAll runs every check and returns the report.
// A failing or panicking check never stops the ones after it.
func (c *Checker) RunAll(ctx context.Context) *Report {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: c.now(),
	}
	if last, ok := LastPassed(c.StateDir()); ok {
		report.LastPass = &last
	}

	logger := c.logger.With(slog.String("run_id", report.RunID))
	logger.Info("run_started", slog.String("root", c.root))

	c.out.Status("🚀", "Testing Local Data Engineering Environment Setup")
	c.out.Rule()

	for i, chk := range c.Checks() {
		if i > 0 {
			c.out.Newline()
		}
		report.Results = append(report.Results, c.runOne(ctx, logger, chk))
	}

	logger.Info("run_finished",
		slog.Int("passed", report.Passed()),
		slog.Int("total", report.Total()),
		slog.Duration("duration", c.now().Sub(report.StartedAt)))

	if report.AllPassed() && !c.cfg.State.SkipRecord {
		if err := MarkPassed(c.StateDir()); err != nil {
			logger.Warn("marker_write_failed", slog.String("error", err.Error()))
		}
	}

	return report
}

// runOne runs a single check, turning a panic into a failed result.
func (c *Checker) runOne(ctx context.Context, logger *slog.Logger, chk Check) (result CheckResult) {
	log := logger.With(slog.String("check", chk.ID))
	start := c.now()
	log.Debug("check_started")

	defer func() {
		if r := recover(); r != nil {
			c.out.Checkf(false, "%s test crashed: %v", chk.Name, r)
			err := enverrors.Newf(enverrors.ErrCodeCheckCrashed, "%s test crashed: %v", chk.Name, r).
				WithDetail("check", chk.ID)
			result = fail(err)
			log.Error("check_crashed", slog.String("panic", fmt.Sprint(r)), slog.String("stack", string(debug.Stack())))
		}

		result.ID = chk.ID
		result.Name = chk.Name
		result.Duration = c.now().Sub(start)

		attrs := []any{
			slog.String("status", result.Status.String()),
			slog.Duration("duration", result.Duration),
		}
		if result.Err != nil {
			for _, a := range enverrors.FormatForLog(result.Err) {
				attrs = append(attrs, a)
			}
			// A failed check is already in the report; only crashes reach warn.
			log.Info("check_failed", attrs...)
			return
		}
		log.Debug("check_finished", attrs...)
	}()

	return chk.Run(ctx)
}

// StateDir returns the directory holding the last-pass marker.
func (c *Checker) StateDir() string {
	return c.resolve(c.cfg.State.Dir)
}

// resolve makes a configured path absolute against the root.
func (c *Checker) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.root, path)
}

// detail prints a detail line in verbose mode and returns it for the result.
func (c *Checker) detail(format string, args ...any) string {
	line := fmt.Sprintf(format, args...)
	if c.verbose {
		c.out.Detail(line)
	}
	return line
}

// reason returns the most specific text for err.
func reason(err error) string {
	if envErr, ok := enverrors.As(err); ok {
		if envErr.Cause != nil {
			return envErr.Message + ": " + envErr.Cause.Error()
		}
		return envErr.Message
	}
	return err.Error()
}
