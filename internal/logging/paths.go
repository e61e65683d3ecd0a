package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the log directory.
// ENVCHECK_LOG_DIR wins; otherwise ~/.envcheck/logs/, falling back to the
// temp directory if the home directory is unavailable.
func DefaultLogDir() string {
	if dir := os.Getenv("ENVCHECK_LOG_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".envcheck", "logs")
	}
	return filepath.Join(home, ".envcheck", "logs")
}

// DefaultLogPath returns the debug log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "envcheck.log")
}
