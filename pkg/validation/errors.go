// Package validation holds the checks shared by the orchestrators: user input guards that run
// before any provider call and structural validation of provider payloads.
package validation

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every ValidationError.
var ErrInvalidInput = errors.New("invalid input")

// ErrSchema is matched by every ParseError.
var ErrSchema = errors.New("response does not match schema")

// ValidationError reports missing or malformed user input. It is raised before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ParseError reports a provider body that is not JSON or misses required fields.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("schema parse error: %s: %v", e.Reason, e.Err)
	}
	return "schema parse error: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrSchema
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsSchema reports whether err is (or wraps) a ParseError.
func IsSchema(err error) bool {
	return errors.Is(err, ErrSchema)
}
