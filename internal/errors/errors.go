// Package errors provides standardized error handling for tiersort.
// It defines the error kinds raised while configuring and running a sorting
// session and helpers for creating, wrapping and classifying them.
package errors

import (
	"errors"
	"fmt"
	"time"
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

// Common error constants for frequently occurring errors
var (
	ErrFileNotFound  = NewFileError("file not found", "", FileNotFound, nil)
	ErrInvalidPath   = NewFileError("invalid file path", "", InvalidPath, nil)
	ErrInvalidConfig = NewConfigError("invalid configuration", "", InvalidConfig, nil)
	ErrNoTiers       = NewConfigError("at least one tier is required", "tiers", InvalidConfig, nil)
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
	FileOperationFailed
	// Config error kinds
	InvalidConfig
	ConfigNotFound
	// Session error kinds
	ItemLoadFailed
	RelocationFailed
	ProducerStalled
	SessionLocked
)

var kindNames = map[ErrorKind]string{
	Unknown:             "unknown",
	FileNotFound:        "file_not_found",
	FileAccessDenied:    "file_access_denied",
	InvalidPath:         "invalid_path",
	FileOperationFailed: "file_operation_failed",
	InvalidConfig:       "invalid_config",
	ConfigNotFound:      "config_not_found",
	ItemLoadFailed:      "item_load_failed",
	RelocationFailed:    "relocation_failed",
	ProducerStalled:     "producer_stalled",
	SessionLocked:       "session_locked",
}

// String returns the snake_case name of the kind
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
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

// Kinded is implemented by every error in this package.
type Kinded interface {
	error
	Kind() ErrorKind
}

// KindOf returns the kind of the first application error in err's chain.
func KindOf(err error) ErrorKind {
	var k Kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return Unknown
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

// ConfigError represents an invalid or missing session configuration.
// A session never begins when one is returned.
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

// ItemLoadError reports an item that could not be opened or decoded.
type ItemLoadError struct {
	ApplicationError
	item string
}

// NewItemLoadError creates a new item load error
func NewItemLoadError(item string, err error) *ItemLoadError {
	return &ItemLoadError{
		ApplicationError: ApplicationError{
			msg:  "could not load item",
			err:  err,
			kind: ItemLoadFailed,
		},
		item: item,
	}
}

// Error returns the item load error message
func (e *ItemLoadError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.msg, e.item, e.err)
	}
	return fmt.Sprintf("%s: %s", e.msg, e.item)
}

// Item returns the name of the item that failed to load
func (e *ItemLoadError) Item() string {
	return e.item
}

// RelocationError reports a failed move of an item into its tier folder.
// The item stays where it was.
type RelocationError struct {
	ApplicationError
	item string
	tier string
}

// NewRelocationError creates a new relocation error
func NewRelocationError(item, tier string, err error) *RelocationError {
	return &RelocationError{
		ApplicationError: ApplicationError{
			msg:  "could not move item",
			err:  err,
			kind: RelocationFailed,
		},
		item: item,
		tier: tier,
	}
}

// Error returns the relocation error message
func (e *RelocationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s %s to %s: %v", e.msg, e.item, e.tier, e.err)
	}
	return fmt.Sprintf("%s %s to %s", e.msg, e.item, e.tier)
}

// Item returns the item that could not be moved
func (e *RelocationError) Item() string {
	return e.item
}

// Tier returns the destination tier
func (e *RelocationError) Tier() string {
	return e.tier
}

// ProducerStallError reports a frame producer that did not acknowledge a
// stop request in time. Its decoder was force-released.
type ProducerStallError struct {
	ApplicationError
	item    string
	timeout time.Duration
}

// NewProducerStallError creates a new producer stall error
func NewProducerStallError(item string, timeout time.Duration) *ProducerStallError {
	return &ProducerStallError{
		ApplicationError: ApplicationError{
			msg:  "playback did not stop",
			kind: ProducerStalled,
		},
		item:    item,
		timeout: timeout,
	}
}

// Error returns the producer stall error message
func (e *ProducerStallError) Error() string {
	return fmt.Sprintf("%s within %s: %s", e.msg, e.timeout, e.item)
}

// Item returns the item whose playback stalled
func (e *ProducerStallError) Item() string {
	return e.item
}

// Timeout returns how long the controller waited
func (e *ProducerStallError) Timeout() time.Duration {
	return e.timeout
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

// IsSessionLocked checks if the error reports a folder held by another session
func IsSessionLocked(err error) bool {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Kind() == SessionLocked
	}
	return false
}

// IsItemLoadError checks if the error is an item load error
func IsItemLoadError(err error) bool {
	var loadErr *ItemLoadError
	return errors.As(err, &loadErr)
}

// IsRelocationError checks if the error is a relocation error
func IsRelocationError(err error) bool {
	var relErr *RelocationError
	return errors.As(err, &relErr)
}

// IsProducerStall checks if the error is a producer stall error
func IsProducerStall(err error) bool {
	var stallErr *ProducerStallError
	return errors.As(err, &stallErr)
}
