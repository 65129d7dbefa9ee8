// Package schema checks generated tables against the live database
// schema before rows are written.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/syssam/xorgen/dialect"
)

// ValidationError represents a mismatch between a generated table and
// the database.
type ValidationError struct {
	Table   string
	Column  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Err returns the errors of r as one error, or nil.
func (r *ValidationResult) Err() error {
	if !r.HasErrors() {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("schema mismatch: %s", strings.Join(msgs, "; "))
}

// Merge appends the errors and warnings of o to r.
func (r *ValidationResult) Merge(o *ValidationResult) {
	r.Errors = append(r.Errors, o.Errors...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateTable compares the columns a table will be written with to the
// table in the database. Missing tables and unknown columns are errors;
// required database columns the rows leave out are warnings, since the
// inserts fail unless a trigger fills them.
func ValidateTable(ctx context.Context, drv dialect.Driver, table string, columns []string) (*ValidationResult, error) {
	current, err := Inspect(ctx, drv, table)
	if err != nil {
		return nil, err
	}
	result := &ValidationResult{}
	if len(current) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Table:   table,
			Message: "table does not exist",
		})
		return result, nil
	}
	byName := make(map[string]*Column, len(current))
	for _, c := range current {
		byName[strings.ToLower(c.Name)] = c
	}
	written := make(map[string]bool, len(columns))
	for _, name := range columns {
		written[strings.ToLower(name)] = true
		if byName[strings.ToLower(name)] == nil {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   table,
				Column:  name,
				Message: "column does not exist",
			})
		}
	}
	for _, c := range current {
		if c.Required() && !written[strings.ToLower(c.Name)] {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   table,
				Column:  c.Name,
				Message: "NOT NULL column without a default is not generated",
			})
		}
	}
	return result, nil
}
