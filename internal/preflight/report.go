package preflight

import (
	"encoding/json"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	enverrors "github.com/Aman-CERP/envcheck/internal/errors"
)

// Report is the outcome of one run.
type Report struct {
	RunID     string
	StartedAt time.Time
	Results   []CheckResult
	// LastPass is when a previous run last passed every check, if recorded.
	LastPass *time.Time
}

// Passed returns the number of passing checks.
func (r *Report) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed() {
			n++
		}
	}
	return n
}

// Total returns the number of checks run.
func (r *Report) Total() int {
	return len(r.Results)
}

// Failed returns the number of failing checks.
func (r *Report) Failed() int {
	return r.Total() - r.Passed()
}

// AllPassed reports whether every check passed.
func (r *Report) AllPassed() bool {
	return r.Failed() == 0
}

// Status returns "passed" or "failed".
func (r *Report) Status() string {
	if r.AllPassed() {
		return "passed"
	}
	return "failed"
}

// ExitCode returns 0 when every check passed and 1 otherwise.
func (r *Report) ExitCode() int {
	if r.AllPassed() {
		return 0
	}
	return 1
}

// PrintResults prints the summary for report.
func (c *Checker) PrintResults(report *Report) {
	c.out.Newline()
	c.out.Rule()
	c.out.Header("📊", "Test Results Summary:")

	for _, r := range report.Results {
		c.out.Item(r.Passed(), r.Status.String(), r.Name)
		if c.verbose && !r.Passed() {
			if envErr, ok := enverrors.As(r.Err); ok && envErr.Suggestion != "" {
				c.out.Detailf("  Hint: %s", envErr.Suggestion)
			}
		}
	}

	c.out.Newline()
	c.out.Statusf("🎯", "Overall: %d/%d tests passed", report.Passed(), report.Total())

	if report.AllPassed() {
		c.out.Newline()
		c.out.Status("🎉", "All tests passed! Your environment is ready to use.")
		c.out.Newline()
		c.out.Plain("Next steps:")
		c.out.Plain("1. Activate your virtual environment")
		c.out.Plain("2. Start Jupyter: jupyter notebook")
		c.out.Plain("3. Open notebooks/data_workflow.ipynb")
	} else {
		c.out.Newline()
		c.out.Warningf("%d test(s) failed. Please check the setup.", report.Failed())
	}

	if report.LastPass != nil {
		c.out.Newline()
		c.out.Detailf("Last successful check: %s", humanize.RelTime(*report.LastPass, c.now(), "ago", "from now"))
	}
}

type jsonCheck struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Status     string   `json:"status"`
	Message    string   `json:"message"`
	Details    []string `json:"details,omitempty"`
	DurationMS int64    `json:"duration_ms"`
	ErrorCode  string   `json:"error_code,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

type jsonReport struct {
	RunID     string      `json:"run_id"`
	Status    string      `json:"status"`
	Passed    int         `json:"passed"`
	Total     int         `json:"total"`
	StartedAt time.Time   `json:"started_at"`
	LastPass  *time.Time  `json:"last_pass,omitempty"`
	Checks    []jsonCheck `json:"checks"`
}

// WriteJSON writes report as an indented JSON document.
func (r *Report) WriteJSON(w io.Writer) error {
	out := jsonReport{
		RunID:     r.RunID,
		Status:    r.Status(),
		Passed:    r.Passed(),
		Total:     r.Total(),
		StartedAt: r.StartedAt,
		LastPass:  r.LastPass,
		Checks:    make([]jsonCheck, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		jc := jsonCheck{
			ID:         res.ID,
			Name:       res.Name,
			Status:     res.Status.String(),
			Message:    res.Message,
			Details:    res.Details,
			DurationMS: res.Duration.Milliseconds(),
		}
		if envErr, ok := enverrors.As(res.Err); ok {
			jc.ErrorCode = envErr.Code
			jc.Suggestion = envErr.Suggestion
		}
		out.Checks = append(out.Checks, jc)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
