// Package util provides primitive validators, error types and logging.
package util

import (
	"errors"
	"fmt"
)

// Sentinel errors for the two failure kinds
var (
	ErrConfigFail   = errors.New("configuration failure")
	ErrValidateFail = errors.New("validation failure")
)

// ConfigError is a fatal, user-facing validation failure. Its message is
// meant to be shown to the user verbatim.
type ConfigError struct {
	Section  string // offending section, if known
	Key      string // offending key, if known
	Value    string // offending value, if known
	Conflict string // conflicting entity (other network, other VLAN), if any
	Msg      string
	Cause    error
}

func (e *ConfigError) Error() string {
	return e.Msg
}

func (e *ConfigError) Unwrap() error {
	return ErrConfigFail
}

// WithSection sets the offending section
func (e *ConfigError) WithSection(section string) *ConfigError {
	e.Section = section
	return e
}

// WithKey sets the offending key and value
func (e *ConfigError) WithKey(key, value string) *ConfigError {
	e.Key = key
	e.Value = value
	return e
}

// WithConflict names the entity the offending value conflicts with
func (e *ConfigError) WithConflict(conflict string) *ConfigError {
	e.Conflict = conflict
	return e
}

// ConfigFailf creates a ConfigError from a formatted message
func ConfigFailf(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// WrapValidate re-wraps a primitive failure into a ConfigError naming the
// offending section, key and value.
func WrapValidate(section, key, value string, cause error) *ConfigError {
	return &ConfigError{
		Section: section,
		Key:     key,
		Value:   value,
		Msg:     fmt.Sprintf("Invalid %s value of %s for %s.\nReason: %s", key, value, section, cause),
		Cause:   cause,
	}
}

// ValidateError is raised by primitive validators on malformed input. It is
// always re-wrapped into a ConfigError before leaving the validation engine.
type ValidateError struct {
	Reason string
}

func (e *ValidateError) Error() string {
	return e.Reason
}

func (e *ValidateError) Unwrap() error {
	return ErrValidateFail
}

// ValidateFailf creates a ValidateError from a formatted reason
func ValidateFailf(format string, args ...interface{}) *ValidateError {
	return &ValidateError{Reason: fmt.Sprintf(format, args...)}
}

// AsConfigError returns err as a ConfigError. Errors of any other kind are
// wrapped with a generic message so callers only ever see ConfigError.
func AsConfigError(err error) *ConfigError {
	if err == nil {
		return nil
	}
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce
	}
	return &ConfigError{
		Msg:   fmt.Sprintf("Error parsing configuration file: %s", err),
		Cause: err,
	}
}
