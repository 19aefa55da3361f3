package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryProcessing    ErrorCategory = "processing"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound      ErrorCode = "file_not_found"
	CodeFilePermission    ErrorCode = "file_permission"
	CodeDirectoryNotFound ErrorCode = "directory_not_found"
	CodeWriteFailed       ErrorCode = "write_failed"

	// Parse errors
	CodeInvalidWorkbook ErrorCode = "invalid_workbook"
	CodeMissingSheet    ErrorCode = "missing_sheet"
	CodeMissingColumns  ErrorCode = "missing_columns"
	CodeEncodingError   ErrorCode = "encoding_error"

	// Validation errors
	CodeEmptyAfterCleaning ErrorCode = "empty_after_cleaning"
	CodeInvalidAmount      ErrorCode = "invalid_amount"
	CodeMissingField       ErrorCode = "missing_field"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Processing errors
	CodeMatchingFailed  ErrorCode = "matching_failed"
	CodeReportFailed    ErrorCode = "report_failed"
	CodeSummaryFailed   ErrorCode = "summary_failed"
	CodeProcessingError ErrorCode = "processing_error"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// AppError is the base error type for all application errors
type AppError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *AppError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryProcessing, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestion = suggestion
	return e
}

// New creates a new AppError
func New(category ErrorCategory, code ErrorCode, message string) *AppError {
	return &AppError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with AppError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	return &AppError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *AppError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeDirectoryNotFound:
		message = fmt.Sprintf("output directory not found: %s", path)
		suggestion = "create the directory or point the output at an existing one"
	case CodeWriteFailed:
		message = fmt.Sprintf("failed to write file: %s", path)
		suggestion = "check disk space and write permissions for the output location"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *AppError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates a parsing-related error for a workbook or export file
func ParseError(code ErrorCode, file string, detail string, err error) *AppError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidWorkbook:
		message = fmt.Sprintf("unable to read workbook %s: %s", file, detail)
		suggestion = "verify the file is a valid spreadsheet and not corrupted"
	case CodeMissingSheet:
		message = fmt.Sprintf("sheet '%s' not found in workbook %s", detail, file)
		suggestion = "check the workbook contains the expected sheet names"
	case CodeEncodingError:
		message = fmt.Sprintf("encoding error reading %s: %s", file, detail)
		suggestion = "save the file in UTF-8 encoding and try again"
	default:
		message = fmt.Sprintf("parse error in file %s: %s", file, detail)
		suggestion = "check the file format and data integrity"
	}

	var result *AppError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("detail", detail)
}

// MissingColumnsError reports every required column that could not be resolved
// in a loaded table, after the case-insensitive fallback
func MissingColumnsError(fileType string, file string, missing []string) *AppError {
	message := fmt.Sprintf("missing required columns in %s: %s", fileType, strings.Join(missing, ", "))

	return New(CategoryParse, CodeMissingColumns, message).
		WithSuggestion("verify the file has all required columns with correct headers").
		WithContext("file_type", fileType).
		WithContext("file", file).
		WithContext("missing_columns", missing)
}

// EmptyAfterCleaningError reports that cleaning filtered out every row
func EmptyAfterCleaningError(fileType string, file string) *AppError {
	message := fmt.Sprintf("no data found in %s after cleaning", fileType)

	return New(CategoryValidation, CodeEmptyAfterCleaning, message).
		WithSuggestion("check that the file contains rows with a payer or description and a numeric amount").
		WithContext("file_type", fileType).
		WithContext("file", file)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *AppError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': %v", field, value)
		suggestion = "ensure amounts are valid decimal numbers (e.g., '12.34')"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *AppError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *AppError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *AppError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// ProcessingError creates an error for a failed workflow stage
func ProcessingError(code ErrorCode, operation string, err error) *AppError {
	var message string
	var suggestion string

	switch code {
	case CodeMatchingFailed:
		message = fmt.Sprintf("matching failed during %s", operation)
		suggestion = "check the cleaned ledger data for inconsistencies"
	case CodeReportFailed:
		message = fmt.Sprintf("report generation failed during %s", operation)
		suggestion = "review the unmatched records and try again"
	case CodeSummaryFailed:
		message = fmt.Sprintf("summary generation failed during %s", operation)
		suggestion = "check the reference workbook sheets and columns"
	default:
		message = fmt.Sprintf("processing error during %s", operation)
		suggestion = "review the input data and configuration"
	}

	var result *AppError
	if err != nil {
		result = Wrap(err, CategoryProcessing, code, message)
	} else {
		result = New(CategoryProcessing, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *AppError {
	message := fmt.Sprintf("unexpected error during %s", operation)

	var result *AppError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// Utility functions

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// AsAppError extracts an AppError from an error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already an AppError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := AsAppError(err); ok {
		return appErr
	}

	return Wrap(err, category, code, message)
}
