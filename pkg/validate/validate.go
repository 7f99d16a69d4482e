// Package validate collects request validation failures per field so a
// response can report every violation at once instead of the first hit.
// Validation runs strictly before any database access.
package validate

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldError describes a single violated constraint
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is the full set of violations for one request
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Validator accumulates field errors across checks
type Validator struct {
	errs Errors
}

func New() *Validator {
	return &Validator{}
}

// Add records a violation directly
func (v *Validator) Add(field, message string) {
	v.errs = append(v.errs, FieldError{Field: field, Message: message})
}

// Require checks for a non-empty string
func (v *Validator) Require(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "is required")
	}
}

// Email checks RFC 5322 address format
func (v *Validator) Email(field, value string) {
	if _, err := mail.ParseAddress(value); err != nil {
		v.Add(field, "must be a valid email address")
	}
}

// MinLen checks a minimum string length
func (v *Validator) MinLen(field, value string, n int) {
	if len(value) < n {
		v.Add(field, fmt.Sprintf("must be at least %d characters", n))
	}
}

// UUID checks UUID format. Empty values are skipped so optional
// references validate only when supplied.
func (v *Validator) UUID(field, value string) {
	if value == "" {
		return
	}
	if _, err := uuid.Parse(value); err != nil {
		v.Add(field, "must be a valid UUID")
	}
}

// OneOf checks enumerated-value membership, skipping empty values
func (v *Validator) OneOf(field, value string, allowed ...string) {
	if value == "" {
		return
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.Add(field, "must be one of: "+strings.Join(allowed, ", "))
}

// Range checks a numeric value is within [min, max]
func (v *Validator) Range(field string, value, min, max float64) {
	if value < min || value > max {
		v.Add(field, fmt.Sprintf("must be between %g and %g", min, max))
	}
}

// Positive checks an integer is greater than zero
func (v *Validator) Positive(field string, value int) {
	if value <= 0 {
		v.Add(field, "must be a positive integer")
	}
}

// Min checks an integer minimum
func (v *Validator) Min(field string, value, min int) {
	if value < min {
		v.Add(field, fmt.Sprintf("must be at least %d", min))
	}
}

// DateTime parses an RFC 3339 timestamp, recording an error on failure.
// Empty values are skipped and return the zero time.
func (v *Validator) DateTime(field, value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		v.Add(field, "must be an RFC 3339 datetime")
		return time.Time{}
	}
	return t
}

// Errs returns the accumulated violations
func (v *Validator) Errs() Errors {
	return v.errs
}

// Err returns the violations as an error, or nil when everything passed
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return v.errs
}
