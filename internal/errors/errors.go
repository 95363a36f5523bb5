// Package errors provides standardized error handling for metamod.
// It defines the error kinds the editor distinguishes (validation, tool failure,
// unexpected failure), the typed errors that carry their context, and helpers
// for wrapping and classifying them.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Standard errors package errors that we re-export for convenience
var (
	// Unwrap unwraps an error to access the underlying error
	Unwrap = errors.Unwrap
	// Is reports whether any error in err's chain matches target
	Is = errors.Is
	// As finds the first error in err's chain that matches target
	As = errors.As
)

// ErrorKind represents the kind of error
type ErrorKind int

// Error kinds
const (
	Unknown ErrorKind = iota
	// File error kinds
	FileNotFound
	FileAccessDenied
	InvalidPath
	// Config error kinds
	InvalidConfig
	ConfigNotFound
	// Validation error kinds
	NoFileSelected
	EmptyField
	SameFile
	// External tool error kinds
	ToolFailed
	ToolNotFound
	MalformedOutput
	// Controller error kinds
	OperationBusy
)

// Common error constants for frequently occurring errors
var (
	ErrNoFileSelected = NewValidationError("No file selected.", "file", NoFileSelected)
	ErrBusy           = &ApplicationError{msg: "another operation is in progress", kind: OperationBusy}
	ErrSaveOverSource = NewValidationError("Choose a different file than the one being edited.", "destination", SameFile)
)

// ApplicationError is the base error type for all application errors
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the wrapped error
func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// Message returns the message without the wrapped cause
func (e *ApplicationError) Message() string {
	return e.msg
}

// FileError represents errors related to file operations
type FileError struct {
	ApplicationError
	path string
}

// NewFileError creates a new file error
func NewFileError(msg string, path string, kind ErrorKind, err error) *FileError {
	return &FileError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		path: path,
	}
}

// Error returns the file error message
func (e *FileError) Error() string {
	if e.path != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.path, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.path)
	}
	return e.ApplicationError.Error()
}

// Path returns the file path associated with the error
func (e *FileError) Path() string {
	return e.path
}

// ConfigError represents errors related to configuration
type ConfigError struct {
	ApplicationError
	param string
}

// NewConfigError creates a new configuration error
func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		param: param,
	}
}

// Error returns the config error message
func (e *ConfigError) Error() string {
	if e.param != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.param, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.param)
	}
	return e.ApplicationError.Error()
}

// Param returns the configuration parameter associated with the error
func (e *ConfigError) Param() string {
	return e.param
}

// ValidationError is raised before any external call when user input is
// incomplete. Its message is shown to the user as-is.
type ValidationError struct {
	ApplicationError
	field string
}

// NewValidationError creates a new validation error for the named field
func NewValidationError(msg string, field string, kind ErrorKind) *ValidationError {
	return &ValidationError{
		ApplicationError: ApplicationError{
			msg:  msg,
			kind: kind,
		},
		field: field,
	}
}

// Field returns the input field that failed validation
func (e *ValidationError) Field() string {
	return e.field
}

// ToolError represents a failed invocation of the external metadata tool
type ToolError struct {
	ApplicationError
	args     []string
	exitCode int
	stderr   string
}

// NewToolError creates a tool error from a finished process.
// stderr is kept verbatim apart from surrounding whitespace.
func NewToolError(msg string, args []string, exitCode int, stderr string) *ToolError {
	return &ToolError{
		ApplicationError: ApplicationError{
			msg:  msg,
			kind: ToolFailed,
		},
		args:     append([]string(nil), args...),
		exitCode: exitCode,
		stderr:   strings.TrimSpace(stderr),
	}
}

// NewToolNotFoundError reports that the executable could not be started
func NewToolNotFoundError(executable string, err error) *ToolError {
	return &ToolError{
		ApplicationError: ApplicationError{
			msg:  fmt.Sprintf("metadata tool %q could not be started", executable),
			err:  err,
			kind: ToolNotFound,
		},
		exitCode: -1,
	}
}

// NewMalformedOutputError reports tool output that could not be decoded
func NewMalformedOutputError(msg string, args []string, err error) *ToolError {
	return &ToolError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: MalformedOutput,
		},
		args: append([]string(nil), args...),
	}
}

// Error returns the tool error message
func (e *ToolError) Error() string {
	if e.stderr != "" {
		return fmt.Sprintf("%s: %s", e.msg, e.stderr)
	}
	if e.kind == ToolFailed {
		return fmt.Sprintf("%s: exit status %d", e.msg, e.exitCode)
	}
	return e.ApplicationError.Error()
}

// Args returns the argument vector that was passed to the tool
func (e *ToolError) Args() []string {
	return e.args
}

// ExitCode returns the exit status of the tool, or -1 if it never ran
func (e *ToolError) ExitCode() int {
	return e.exitCode
}

// Stderr returns the captured error stream
func (e *ToolError) Stderr() string {
	return e.stderr
}

// New creates a new error with a message
func New(msg string) error {
	return &ApplicationError{
		msg:  msg,
		kind: Unknown,
	}
}

// Newf creates a new error with a formatted message
func Newf(format string, args ...interface{}) error {
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		kind: Unknown,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: Unknown,
	}
}

// Wrapf wraps an existing error with additional formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		err:  err,
		kind: Unknown,
	}
}

type kinded interface {
	Kind() ErrorKind
}

// KindOf returns the kind of the first classified error in err's chain
func KindOf(err error) ErrorKind {
	for err != nil {
		if k, ok := err.(kinded); ok && k.Kind() != Unknown {
			return k.Kind()
		}
		err = errors.Unwrap(err)
	}
	return Unknown
}

// IsFileNotFound checks if the error is a file not found error
func IsFileNotFound(err error) bool {
	var fileErr *FileError
	if errors.As(err, &fileErr) {
		return fileErr.Kind() == FileNotFound
	}
	return false
}

// IsInvalidConfig checks if the error is an invalid configuration error
func IsInvalidConfig(err error) bool {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Kind() == InvalidConfig
	}
	return false
}

// IsValidation checks if the error was raised by input validation
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsToolFailure checks if the tool ran and exited non-zero
func IsToolFailure(err error) bool {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Kind() == ToolFailed
	}
	return false
}

// IsBusy checks if the error rejected an operation because another was running
func IsBusy(err error) bool {
	return KindOf(err) == OperationBusy
}

// UserMessage returns the text shown to the user for err. Tool failures show the
// tool's error stream verbatim; everything else shows the full error message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) && toolErr.Kind() == ToolFailed && toolErr.Stderr() != "" {
		return toolErr.Stderr()
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message()
	}
	return err.Error()
}
