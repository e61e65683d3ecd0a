package errors

import (
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForCLI_IncludesHintAndCode(t *testing.T) {
	// Given: an error with a suggestion
	err := New(ErrCodeConfigInvalid, "unknown destination \"duck\"", nil).
		WithSuggestion("use one of: sqlite, sqlite3")

	// When: formatting for CLI
	result := FormatForCLI(err)

	// Then: message, hint and code are all present
	assert.Contains(t, result, "Error: unknown destination \"duck\"")
	assert.Contains(t, result, "Hint: use one of: sqlite, sqlite3")
	assert.Contains(t, result, "Code: ERR_102_CONFIG_INVALID")
}

func TestFormatForCLI_StandardErrorIsWrapped(t *testing.T) {
	result := FormatForCLI(errors.New("boom"))

	assert.Contains(t, result, "Error: boom")
	assert.Contains(t, result, "Code: ERR_501_INTERNAL")
	assert.NotContains(t, result, "Hint:")
}

func TestFormatForCLI_Nil(t *testing.T) {
	assert.Equal(t, "", FormatForCLI(nil))
}

func TestFormatJSON_RoundTripsFields(t *testing.T) {
	// Given: an error with a cause and details
	err := New(ErrCodeLoadFailed, "cannot parse data/sample.csv", errors.New("wrong number of fields")).
		WithDetail("path", "data/sample.csv")

	// When: formatting as JSON
	data, jerr := FormatJSON(err)
	require.NoError(t, jerr)

	// Then: fields are present
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, ErrCodeLoadFailed, got["code"])
	assert.Equal(t, "IO", got["category"])
	assert.Equal(t, "ERROR", got["severity"])
	assert.Equal(t, "wrong number of fields", got["cause"])
	assert.Equal(t, "data/sample.csv", got["details"].(map[string]any)["path"])
}

func TestFormatJSON_Nil(t *testing.T) {
	data, err := FormatJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestFormatForLog_EnvError(t *testing.T) {
	err := New(ErrCodeQueryMismatch, "expected 1, got 2", nil).
		WithDetail("query", "SELECT 2").
		WithDetail("driver", "sqlite").
		WithSuggestion("check database.query")

	attrs := FormatForLog(err)

	got := make(map[string]string)
	var keys []string
	for _, a := range attrs {
		got[a.Key] = a.Value.String()
		keys = append(keys, a.Key)
	}
	assert.Equal(t, ErrCodeQueryMismatch, got["error_code"])
	assert.Equal(t, "DATABASE", got["category"])
	assert.Equal(t, "check database.query", got["suggestion"])
	assert.Equal(t, "SELECT 2", got["detail_query"])

	// Details are sorted by key
	assert.Equal(t, []string{"detail_driver", "detail_query"}, keys[len(keys)-2:])
}

func TestFormatForLog_StandardError(t *testing.T) {
	attrs := FormatForLog(errors.New("plain"))

	require.Len(t, attrs, 1)
	assert.Equal(t, "error", attrs[0].Key)
	assert.Equal(t, slog.KindString, attrs[0].Value.Kind())
	assert.Equal(t, "plain", attrs[0].Value.String())
}

func TestFormatForLog_Nil(t *testing.T) {
	assert.Nil(t, FormatForLog(nil))
}
