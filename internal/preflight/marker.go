package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MarkerFile is the name of the file recording the last fully passing run.
const MarkerFile = "last-pass"

// MarkPassed records the current time in the marker file under stateDir.
func MarkPassed(stateDir string) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	markerPath := filepath.Join(stateDir, MarkerFile)
	content := []byte(time.Now().Format(time.RFC3339))
	return os.WriteFile(markerPath, content, 0o644)
}

// LastPassed returns when the checks last all passed.
// ok is false when there is no marker or it cannot be parsed.
func LastPassed(stateDir string) (t time.Time, ok bool) {
	content, err := os.ReadFile(filepath.Join(stateDir, MarkerFile))
	if err != nil {
		return time.Time{}, false
	}

	t, err = time.Parse(time.RFC3339, strings.TrimSpace(string(content)))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ClearMarker removes the marker file.
func ClearMarker(stateDir string) error {
	err := os.Remove(filepath.Join(stateDir, MarkerFile))
	if os.IsNotExist(err) {
		return nil // Already gone
	}
	if err != nil {
		return fmt.Errorf("remove marker file: %w", err)
	}
	return nil
}
