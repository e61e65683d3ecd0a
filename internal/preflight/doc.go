// Package preflight verifies a local data-engineering environment.
//
// A Checker runs five independent checks in a fixed order:
//   - package imports through the project's Python interpreter
//   - construction of a named pipeline bound to a destination and dataset
//   - a scalar query against the embedded database
//   - presence of the required files and directories
//   - loading the sample CSV and checking its shape
//
// Each check returns a CheckResult rather than an error. A panic inside a check
// is recovered and recorded as a failure, so one broken check never stops the rest:
//
//	checker := preflight.New(preflight.WithConfig(cfg), preflight.WithRoot(dir))
//	report := checker.RunAll(ctx)
//	checker.PrintResults(report)
//	os.Exit(report.ExitCode())
package preflight
