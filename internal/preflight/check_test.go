package preflight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/envcheck/internal/config"
	enverrors "github.com/Aman-CERP/envcheck/internal/errors"
)

// fakeImporter succeeds for every package not listed in missing.
type fakeImporter struct {
	missing  map[string]bool
	imported []string
}

func (f *fakeImporter) Import(_ context.Context, pkg string) error {
	f.imported = append(f.imported, pkg)
	if f.missing[pkg] {
		return enverrors.New(enverrors.ErrCodeImportFailed, fmt.Sprintf("No module named '%s'", pkg), nil)
	}
	return nil
}

const sampleCSV = "id,name,email,age,city,signup_date\n" +
	"1,Ada,ada@example.com,36,London,2024-01-01\n" +
	"2,Linus,linus@example.com,54,Helsinki,2024-02-01\n"

// setupProject creates a directory with every required path and a valid sample.
func setupProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	for _, dir := range []string{"data", "notebooks", "output"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}
	files := map[string]string{
		"requirements.txt":              "dlt\nduckdb\npandas\n",
		"data/sample.csv":               sampleCSV,
		"notebooks/data_workflow.ipynb": "{}",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}
	return root
}

func newTestChecker(root string, buf *bytes.Buffer, opts ...Option) (*Checker, *fakeImporter) {
	importer := &fakeImporter{missing: map[string]bool{}}
	base := []Option{
		WithRoot(root),
		WithOutput(buf),
		WithImporter(importer),
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	}
	return New(append(base, opts...)...), importer
}

func TestCheckStatus_String(t *testing.T) {
	assert.Equal(t, "PASS", StatusPass.String())
	assert.Equal(t, "FAIL", StatusFail.String())
	assert.Equal(t, "UNKNOWN", CheckStatus(9).String())

	text, err := StatusFail.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "FAIL", string(text))
}

func TestChecker_New(t *testing.T) {
	// Given: default options
	checker := New()

	// Then: checker is created with defaults
	assert.NotNil(t, checker.cfg)
	assert.Equal(t, ".", checker.root)
	assert.False(t, checker.verbose)
	assert.Equal(t, os.Stdout, checker.output)
	assert.Nil(t, checker.importer)
}

func TestChecker_Checks_FixedOrder(t *testing.T) {
	checker := New()

	var ids, names []string
	for _, chk := range checker.Checks() {
		ids = append(ids, chk.ID)
		names = append(names, chk.Name)
	}

	assert.Equal(t, []string{CheckPackageImports, CheckPipeline, CheckDatabase, CheckFileStructure, CheckSampleData}, ids)
	assert.Equal(t, []string{"Package Imports", "Pipeline Construction", "Database Connection", "File Structure", "Sample Data"}, names)
}

func TestRunAll_AllPass(t *testing.T) {
	// Given: a complete project and every package importable
	root := setupProject(t)
	buf := &bytes.Buffer{}
	checker, importer := newTestChecker(root, buf)

	// When: running all checks
	report := checker.RunAll(context.Background())
	checker.PrintResults(report)

	// Then: every check passes and the summary says so
	assert.True(t, report.AllPassed())
	assert.Equal(t, 0, report.ExitCode())
	assert.Equal(t, 5, report.Total())
	assert.Len(t, importer.imported, 8)

	out := buf.String()
	assert.Contains(t, out, "5/5 tests passed")
	assert.Contains(t, out, "All tests passed! Your environment is ready to use.")
	assert.Contains(t, out, "3. Open notebooks/data_workflow.ipynb")

	// And: the last-pass marker is recorded
	_, ok := LastPassed(filepath.Join(root, ".envcheck"))
	assert.True(t, ok)
	assert.NotEmpty(t, report.RunID)
}

func TestRunAll_SkipRecord(t *testing.T) {
	root := setupProject(t)
	cfg := config.NewConfig()
	cfg.State.SkipRecord = true
	checker, _ := newTestChecker(root, &bytes.Buffer{}, WithConfig(cfg))

	report := checker.RunAll(context.Background())

	require.True(t, report.AllPassed())
	assert.NoFileExists(t, filepath.Join(root, ".envcheck", MarkerFile))
}

func TestRunAll_OneFailureExitsOne(t *testing.T) {
	// Given: a project missing the output directory
	root := setupProject(t)
	require.NoError(t, os.Remove(filepath.Join(root, "output")))
	buf := &bytes.Buffer{}
	checker, _ := newTestChecker(root, buf)

	// When: running all checks
	report := checker.RunAll(context.Background())
	checker.PrintResults(report)

	// Then: only the layout check fails and the run exits 1
	assert.Equal(t, 1, report.ExitCode())
	assert.Equal(t, 4, report.Passed())
	res := report.Results[3]
	assert.Equal(t, CheckFileStructure, res.ID)
	assert.False(t, res.Passed())

	out := buf.String()
	assert.Contains(t, out, "4/5 tests passed")
	assert.Contains(t, out, "❌ FAIL: File Structure")
	assert.Contains(t, out, "1 test(s) failed. Please check the setup.")
	assert.NoFileExists(t, filepath.Join(root, ".envcheck", MarkerFile))
}

func TestRunAll_IndependentChecks(t *testing.T) {
	// Given: checks where the first two fail in different ways
	var ran []string
	mk := func(id string, run func() CheckResult) Check {
		return Check{ID: id, Name: id, Run: func(context.Context) CheckResult {
			ran = append(ran, id)
			return run()
		}}
	}
	buf := &bytes.Buffer{}
	checker, _ := newTestChecker(t.TempDir(), buf, WithChecks(
		mk("first", func() CheckResult {
			return fail(enverrors.New(enverrors.ErrCodeInternal, "broken", nil))
		}),
		mk("second", func() CheckResult { panic("boom") }),
		mk("third", func() CheckResult { return pass("ok") }),
	))

	// When: running all checks
	report := checker.RunAll(context.Background())

	// Then: every check ran and only the last passed
	assert.Equal(t, []string{"first", "second", "third"}, ran)
	require.Len(t, report.Results, 3)
	assert.False(t, report.Results[0].Passed())
	assert.False(t, report.Results[1].Passed())
	assert.True(t, report.Results[2].Passed())
}

func TestRunAll_PanicBecomesCrashFailure(t *testing.T) {
	// Given: a check that panics
	buf := &bytes.Buffer{}
	checker, _ := newTestChecker(t.TempDir(), buf, WithChecks(Check{
		ID:   "crashy",
		Name: "Crashy",
		Run:  func(context.Context) CheckResult { panic(errors.New("nil map")) },
	}))

	// When: running it
	report := checker.RunAll(context.Background())

	// Then: a crash notice is printed and the result carries the crash code
	assert.Contains(t, buf.String(), "❌ Crashy test crashed: nil map")
	res := report.Results[0]
	assert.Equal(t, "crashy", res.ID)
	assert.Equal(t, StatusFail, res.Status)
	assert.Equal(t, enverrors.ErrCodeCheckCrashed, enverrors.GetCode(res.Err))
	assert.True(t, enverrors.IsFatal(res.Err))
	assert.Equal(t, 1, report.ExitCode())
}

func TestRunAll_LogsFailures(t *testing.T) {
	// Given: a JSON logger and a missing sample file
	root := setupProject(t)
	require.NoError(t, os.Remove(filepath.Join(root, "data", "sample.csv")))
	logBuf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	checker, _ := newTestChecker(root, &bytes.Buffer{}, WithLogger(logger))

	// When: running
	report := checker.RunAll(context.Background())

	// Then: the failure is logged with its structured code and the run ID
	logs := logBuf.String()
	assert.Contains(t, logs, `"msg":"check_failed"`)
	assert.Contains(t, logs, `"level":"INFO"`)
	assert.NotContains(t, logs, `"level":"WARN"`)
	assert.Contains(t, logs, enverrors.ErrCodeLoadFailed)
	assert.Contains(t, logs, report.RunID)
}

func TestPrintResults_LastPass(t *testing.T) {
	buf := &bytes.Buffer{}
	checker, _ := newTestChecker(t.TempDir(), buf)
	now := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	checker.now = func() time.Time { return now }
	last := now.Add(-3 * time.Hour)

	checker.PrintResults(&Report{
		Results:  []CheckResult{{ID: "a", Name: "A", Status: StatusPass}},
		LastPass: &last,
	})

	assert.Contains(t, buf.String(), "Last successful check: 3 hours ago")
}

func TestPrintResults_VerboseHints(t *testing.T) {
	buf := &bytes.Buffer{}
	checker, _ := newTestChecker(t.TempDir(), buf, WithVerbose(true))

	checker.PrintResults(&Report{Results: []CheckResult{{
		ID: "a", Name: "A", Status: StatusFail,
		Err: enverrors.New(enverrors.ErrCodeMissingPath, "missing", nil).WithSuggestion("create it"),
	}}})

	assert.Contains(t, buf.String(), "Hint: create it")
}

func TestReport_WriteJSON(t *testing.T) {
	// Given: a report with one pass and one failure
	report := &Report{
		RunID:     "run-1",
		StartedAt: time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC),
		Results: []CheckResult{
			{ID: CheckDatabase, Name: "Database Connection", Status: StatusPass, Message: "ok", Duration: 15 * time.Millisecond},
			{ID: CheckSampleData, Name: "Sample Data", Status: StatusFail, Message: "bad shape",
				Err: enverrors.New(enverrors.ErrCodeSampleShape, "bad shape", nil).WithSuggestion("add columns")},
		},
	}

	// When: encoding it
	buf := &bytes.Buffer{}
	require.NoError(t, report.WriteJSON(buf))

	// Then: counts, statuses and codes are present
	var decoded jsonReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, "failed", decoded.Status)
	assert.Equal(t, 1, decoded.Passed)
	assert.Equal(t, 2, decoded.Total)
	require.Len(t, decoded.Checks, 2)
	assert.Equal(t, "PASS", decoded.Checks[0].Status)
	assert.Equal(t, int64(15), decoded.Checks[0].DurationMS)
	assert.Empty(t, decoded.Checks[0].ErrorCode)
	assert.Equal(t, enverrors.ErrCodeSampleShape, decoded.Checks[1].ErrorCode)
	assert.Equal(t, "add columns", decoded.Checks[1].Suggestion)
	assert.Nil(t, decoded.LastPass)
}

func TestReport_EmptyPasses(t *testing.T) {
	report := &Report{}

	assert.True(t, report.AllPassed())
	assert.Equal(t, "passed", report.Status())
	assert.Equal(t, 0, report.ExitCode())
}

func TestReason(t *testing.T) {
	assert.Equal(t, "plain", reason(errors.New("plain")))
	assert.Equal(t, "open: boom",
		reason(enverrors.New(enverrors.ErrCodeLoadFailed, "open", errors.New("boom"))))
	assert.True(t, strings.HasPrefix(reason(enverrors.New(enverrors.ErrCodeLoadFailed, "only", nil)), "only"))
}
