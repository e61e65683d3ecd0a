package errors

import (
	"errors"
	"fmt"
)

// EnvError is the structured error type for envcheck.
// It carries enough context to print a useful hint and to log structured attributes.
type EnvError struct {
	// Code is the unique error code (e.g., "ERR_201_MISSING_PATH").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Database, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *EnvError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *EnvError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with EnvError.
func (e *EnvError) Is(target error) bool {
	if t, ok := target.(*EnvError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *EnvError) WithDetail(key, value string) *EnvError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *EnvError) WithSuggestion(suggestion string) *EnvError {
	e.Suggestion = suggestion
	return e
}

// New creates a new EnvError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *EnvError {
	return &EnvError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Newf creates a new EnvError with a formatted message and no cause.
func Newf(code string, format string, args ...any) *EnvError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Wrap creates an EnvError from an existing error.
// The error's message becomes the EnvError message.
func Wrap(code string, err error) *EnvError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *EnvError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *EnvError {
	return New(ErrCodeInternal, message, cause)
}

// As returns the first EnvError in err's chain.
func As(err error) (*EnvError, bool) {
	var ee *EnvError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	if ee, ok := As(err); ok {
		return ee.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from an EnvError.
// Returns empty string if not an EnvError.
func GetCode(err error) string {
	if ee, ok := As(err); ok {
		return ee.Code
	}
	return ""
}

// GetCategory extracts the category from an EnvError.
// Returns empty string if not an EnvError.
func GetCategory(err error) Category {
	if ee, ok := As(err); ok {
		return ee.Category
	}
	return ""
}
