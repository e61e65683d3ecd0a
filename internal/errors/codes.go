// Package errors provides structured error handling for envcheck.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Filesystem and data errors
//   - 3XX: Database errors
//   - 4XX: Environment errors (packages, pipeline)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates filesystem and data loading errors.
	CategoryIO Category = "IO"
	// CategoryDatabase indicates embedded database errors.
	CategoryDatabase Category = "DATABASE"
	// CategoryEnvironment indicates missing packages or unusable tooling.
	CategoryEnvironment Category = "ENVIRONMENT"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates a check could not complete at all.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates a check ran and failed.
	SeverityError Severity = "ERROR"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Filesystem and data errors (200-299)
	ErrCodeMissingPath = "ERR_201_MISSING_PATH"
	ErrCodeLoadFailed  = "ERR_202_LOAD_FAILED"
	ErrCodeSampleShape = "ERR_203_SAMPLE_SHAPE"

	// Database errors (300-399)
	ErrCodeConnectionFailed = "ERR_301_CONNECTION_FAILED"
	ErrCodeQueryFailed      = "ERR_302_QUERY_FAILED"
	ErrCodeQueryMismatch    = "ERR_303_QUERY_MISMATCH"

	// Environment errors (400-499)
	ErrCodeImportFailed        = "ERR_401_IMPORT_FAILED"
	ErrCodeConstructionFailed  = "ERR_402_CONSTRUCTION_FAILED"
	ErrCodeInterpreterNotFound = "ERR_403_INTERPRETER_NOT_FOUND"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeCheckCrashed = "ERR_502_CHECK_CRASHED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "301" from "ERR_301_CONNECTION_FAILED")
	numStr := code[4:7]

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryDatabase
	case '4':
		return CategoryEnvironment
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCheckCrashed, ErrCodeConfigInvalid:
		return SeverityFatal
	default:
		return SeverityError
	}
}
