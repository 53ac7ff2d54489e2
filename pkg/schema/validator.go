// Package schema validates tabular input against the roster contract
// before a run starts. Data-quality problems degrade to empty values
// downstream; a missing required column fails the whole run here.
package schema

import (
	"fmt"
	"strings"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Column  string `json:"column"`
	Message string `json:"message"`
}

// ValidationResult represents the result of validating a table header
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// MissingColumnError is returned when a required column is absent. It
// names the column so callers can report the exact contract violation.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q is missing from input", e.Column)
}

// Validator checks a header row against the required column set.
type Validator struct {
	required []string
}

// NewValidator creates a validator for the given required columns.
func NewValidator(required []string) *Validator {
	return &Validator{required: required}
}

// NormalizeHeader canonicalizes a raw header cell: trimmed, lowered,
// inner whitespace collapsed to underscores. "Provider ID " and
// "provider_id" are the same column.
func NormalizeHeader(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '\t'
	}), "_")
}

// Validate checks that every required column appears in the header.
func (v *Validator) Validate(header []string) ValidationResult {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[NormalizeHeader(h)] = true
	}

	result := ValidationResult{Valid: true, Errors: []ValidationError{}}
	for _, col := range v.required {
		if !present[col] {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Column:  col,
				Message: "required column is missing",
			})
		}
	}
	return result
}

// Require returns a MissingColumnError for the first absent required
// column, or nil when the header satisfies the contract.
func (v *Validator) Require(header []string) error {
	result := v.Validate(header)
	if result.Valid {
		return nil
	}
	return &MissingColumnError{Column: result.Errors[0].Column}
}
