// Package errors provides standardized error handling for the workbench.
// It defines common error kinds, typed carriers and helper functions for
// consistent error creation, wrapping, and handling across the application.
package errors

import (
	"errors"
	"fmt"
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
	// Path variable validation kinds
	EmptyName
	EmptyValue
	NameSyntax
	NameInUse
	PathSyntax
	PathRelative
	PathMissing
	NotReady
	// Preference kinds
	InvalidPreference
	PreferenceImportFailed
	// Handler kinds
	HandlerLoadFailed
	HandlerExecutionFailed
	// Context kinds
	NotDefined
	ContextFailure
)

var kindNames = map[ErrorKind]string{
	Unknown:                "unknown",
	FileNotFound:           "file_not_found",
	FileAccessDenied:       "file_access_denied",
	InvalidPath:            "invalid_path",
	InvalidConfig:          "invalid_config",
	ConfigNotFound:         "config_not_found",
	EmptyName:              "empty_name",
	EmptyValue:             "empty_value",
	NameSyntax:             "name_syntax",
	NameInUse:              "name_in_use",
	PathSyntax:             "path_syntax",
	PathRelative:           "path_relative",
	PathMissing:            "path_missing",
	NotReady:               "not_ready",
	InvalidPreference:      "invalid_preference",
	PreferenceImportFailed: "preference_import_failed",
	HandlerLoadFailed:      "handler_load_failed",
	HandlerExecutionFailed: "handler_execution_failed",
	NotDefined:             "not_defined",
	ContextFailure:         "context_failure",
}

// String returns a stable snake_case name for the kind
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Common error constants for frequently occurring errors
var (
	ErrFileNotFound  = NewFileError("file not found", "", FileNotFound, nil)
	ErrInvalidPath   = NewFileError("invalid file path", "", InvalidPath, nil)
	ErrInvalidConfig = NewConfigError("invalid configuration", "", InvalidConfig, nil)
	ErrNotReady      = NewValidationError("variable is not ready to be committed", "", NotReady)
)

// Kinded is implemented by every error carrier in this package
type Kinded interface {
	error
	Kind() ErrorKind
}

// ApplicationError is the base error type for all application errors
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		if e.msg == "" {
			return e.err.Error()
		}
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

// ValidationError carries a path variable or preference validation outcome
type ValidationError struct {
	ApplicationError
	field string
}

// NewValidationError creates a new validation error for the given field
func NewValidationError(msg string, field string, kind ErrorKind) *ValidationError {
	return &ValidationError{
		ApplicationError: ApplicationError{
			msg:  msg,
			kind: kind,
		},
		field: field,
	}
}

// Field returns the name of the field that failed validation
func (e *ValidationError) Field() string {
	return e.field
}

// Is matches validation errors by kind so callers can test against ErrNotReady
func (e *ValidationError) Is(target error) bool {
	var other *ValidationError
	if errors.As(target, &other) {
		return other.kind == e.kind
	}
	return false
}

// HandlerError represents a failure to load or run a command handler
type HandlerError struct {
	ApplicationError
	commandID string
}

// NewHandlerError creates a new handler error
func NewHandlerError(msg string, commandID string, kind ErrorKind, err error) *HandlerError {
	return &HandlerError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		commandID: commandID,
	}
}

// Error returns the handler error message
func (e *HandlerError) Error() string {
	if e.commandID != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.commandID, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.commandID)
	}
	return e.ApplicationError.Error()
}

// CommandID returns the id of the command whose handler failed
func (e *HandlerError) CommandID() string {
	return e.commandID
}

// ContextError is the error carrier of the context framework. It holds an
// optional message and an optional cause; either may be empty.
type ContextError struct {
	ApplicationError
}

// NewContextError creates a context error with a message only
func NewContextError(msg string) *ContextError {
	return &ContextError{ApplicationError: ApplicationError{msg: msg, kind: ContextFailure}}
}

// WrapContextError creates a context error carrying a message and a cause
func WrapContextError(cause error, msg string) *ContextError {
	return &ContextError{ApplicationError: ApplicationError{msg: msg, err: cause, kind: ContextFailure}}
}

// NewNotDefinedError reports that a context or command is not defined
func NewNotDefinedError(msg string) *ContextError {
	return &ContextError{ApplicationError: ApplicationError{msg: msg, kind: NotDefined}}
}

// Cause returns the wrapped cause, if any
func (e *ContextError) Cause() error {
	return e.err
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

// KindOf returns the first known kind in err's chain. Plain wrappers made by
// Wrap carry Unknown and are skipped.
func KindOf(err error) ErrorKind {
	for err != nil {
		if k, ok := err.(Kinded); ok && k.Kind() != Unknown {
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

// IsNotReady checks if the error reports a premature commit
func IsNotReady(err error) bool {
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr.Kind() == NotReady
	}
	return false
}

// IsHandlerLoad checks if the error is a handler load failure
func IsHandlerLoad(err error) bool {
	var hErr *HandlerError
	if errors.As(err, &hErr) {
		return hErr.Kind() == HandlerLoadFailed
	}
	return false
}

// IsNotDefined checks if the error is a context "not defined" error
func IsNotDefined(err error) bool {
	var ctxErr *ContextError
	if errors.As(err, &ctxErr) {
		return ctxErr.Kind() == NotDefined
	}
	return false
}

// IsContextError checks if the error chain holds any context error
func IsContextError(err error) bool {
	var ctxErr *ContextError
	return errors.As(err, &ctxErr)
}
