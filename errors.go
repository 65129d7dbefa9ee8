package xorgen

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors.
var (
	// ErrConfig is matched by every configuration error: malformed range
	// specs, unsatisfiable hierarchy bounds and invalid plan entries.
	// Configuration errors are fatal and never retried.
	ErrConfig = errors.New("xorgen: invalid configuration")
)

// ConfigError represents an invalid constructor argument or plan entry.
type ConfigError struct {
	Field  string // Option or plan field name
	Value  any    // Offending value, if any
	Reason string
}

// Error returns the error string.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("xorgen: invalid %s (%v): %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("xorgen: invalid %s: %s", e.Field, e.Reason)
}

// Is reports whether the target error matches ErrConfig.
func (e *ConfigError) Is(err error) bool {
	return err == ErrConfig
}

// NewConfigError returns a new ConfigError.
func NewConfigError(field string, value any, reason string) *ConfigError {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}

// IsConfigError returns true if the error is a configuration error of any kind.
func IsConfigError(err error) bool {
	return err != nil && errors.Is(err, ErrConfig)
}

// RangeSpecError represents a malformed range specification entry
// such as "1,4:2" or "501,2000:1-3".
type RangeSpecError struct {
	Entry  string // Raw entry as given
	Reason string
	Err    error // Optional underlying parse error
}

// Error returns the error string.
func (e *RangeSpecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("xorgen: range spec %q: %s: %v", e.Entry, e.Reason, e.Err)
	}
	return fmt.Sprintf("xorgen: range spec %q: %s", e.Entry, e.Reason)
}

// Unwrap returns the underlying error.
func (e *RangeSpecError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrConfig.
func (e *RangeSpecError) Is(err error) bool {
	return err == ErrConfig
}

// NewRangeSpecError returns a new RangeSpecError.
func NewRangeSpecError(entry, reason string, err error) *RangeSpecError {
	return &RangeSpecError{Entry: entry, Reason: reason, Err: err}
}

// IsRangeSpecError returns true if the error is a RangeSpecError.
func IsRangeSpecError(err error) bool {
	if err == nil {
		return false
	}
	var e *RangeSpecError
	return errors.As(err, &e)
}

// HierarchyError is returned when no branching factor can represent the
// requested number of records at the requested depth.
type HierarchyError struct {
	Depth int
	Total int64
}

// Error returns the error string.
func (e *HierarchyError) Error() string {
	return fmt.Sprintf("xorgen: no branching factor can hold %d records in %d levels", e.Total, e.Depth)
}

// Is reports whether the target error matches ErrConfig.
func (e *HierarchyError) Is(err error) bool {
	return err == ErrConfig
}

// IsHierarchyError returns true if the error is a HierarchyError.
func IsHierarchyError(err error) bool {
	if err == nil {
		return false
	}
	var e *HierarchyError
	return errors.As(err, &e)
}

// QueryError wraps a failure of a query-backed generator.
type QueryError struct {
	Op    string // Operation (e.g., "init", "close", "scan")
	Query string // Query text after template binding
	Err   error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	return fmt.Sprintf("xorgen: query generator %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(op, query string, err error) *QueryError {
	return &QueryError{Op: op, Query: query, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// SinkError wraps a failure while writing generated rows.
type SinkError struct {
	Table string
	Err   error
}

// Error returns the error string.
func (e *SinkError) Error() string {
	return fmt.Sprintf("xorgen: writing %s: %v", e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *SinkError) Unwrap() error {
	return e.Err
}

// NewSinkError returns a new SinkError.
func NewSinkError(table string, err error) *SinkError {
	return &SinkError{Table: table, Err: err}
}

// AggregateError represents multiple errors collected during a run.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "xorgen: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("xorgen: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
