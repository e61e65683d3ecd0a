package preflight

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastPassed_NoMarker(t *testing.T) {
	// Given: a directory without marker file
	_, ok := LastPassed(t.TempDir())

	// Then: nothing is recorded
	assert.False(t, ok)
}

func TestMarkPassed_CreatesStateDir(t *testing.T) {
	// Given: a non-existent state directory
	stateDir := filepath.Join(t.TempDir(), "project", ".envcheck")

	// When: marking as passed
	require.NoError(t, MarkPassed(stateDir))

	// Then: the marker holds a recent RFC3339 timestamp
	assert.FileExists(t, filepath.Join(stateDir, MarkerFile))
	last, ok := LastPassed(stateDir)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), last, 5*time.Second)
}

func TestLastPassed_CorruptMarker(t *testing.T) {
	// Given: a marker with garbage content
	stateDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(stateDir, MarkerFile), []byte("yesterday"), 0o644))

	// Then: it is ignored
	_, ok := LastPassed(stateDir)
	assert.False(t, ok)
}

func TestClearMarker(t *testing.T) {
	stateDir := t.TempDir()
	require.NoError(t, MarkPassed(stateDir))

	require.NoError(t, ClearMarker(stateDir))
	_, ok := LastPassed(stateDir)
	assert.False(t, ok)

	// Clearing again is not an error.
	assert.NoError(t, ClearMarker(stateDir))
}
