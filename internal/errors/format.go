package errors

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// FormatForCLI formats an error for CLI output.
// Uses a concise format suitable for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	ee, ok := As(err)
	if !ok {
		ee = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", ee.Message)
	if ee.Suggestion != "" {
		fmt.Fprintf(&sb, "  Hint: %s\n", ee.Suggestion)
	}
	fmt.Fprintf(&sb, "  Code: %s\n", ee.Code)

	return sb.String()
}

// jsonError is the JSON representation of an error.
type jsonError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   string            `json:"category"`
	Severity   string            `json:"severity"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
}

// FormatJSON returns a JSON representation of the error.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	ee, ok := As(err)
	if !ok {
		ee = Wrap(ErrCodeInternal, err)
	}

	je := jsonError{
		Code:       ee.Code,
		Message:    ee.Message,
		Category:   string(ee.Category),
		Severity:   string(ee.Severity),
		Details:    ee.Details,
		Suggestion: ee.Suggestion,
	}
	if ee.Cause != nil {
		je.Cause = ee.Cause.Error()
	}

	return json.Marshal(je)
}

// FormatForLog formats an error as slog attributes.
// Detail keys are emitted in sorted order so log lines are stable.
func FormatForLog(err error) []slog.Attr {
	if err == nil {
		return nil
	}

	ee, ok := As(err)
	if !ok {
		return []slog.Attr{slog.String("error", err.Error())}
	}

	attrs := []slog.Attr{
		slog.String("error_code", ee.Code),
		slog.String("message", ee.Message),
		slog.String("category", string(ee.Category)),
		slog.String("severity", string(ee.Severity)),
	}
	if ee.Cause != nil {
		attrs = append(attrs, slog.String("cause", ee.Cause.Error()))
	}
	if ee.Suggestion != "" {
		attrs = append(attrs, slog.String("suggestion", ee.Suggestion))
	}

	keys := make([]string, 0, len(ee.Details))
	for k := range ee.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.String("detail_"+k, ee.Details[k]))
	}

	return attrs
}
