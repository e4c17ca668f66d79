package validation

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize trims, NFC-normalizes and collapses inner whitespace runs to single spaces.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// Required normalizes value and fails when nothing is left.
func Required(field, value string) (string, error) {
	v := Normalize(value)
	if v == "" {
		return "", &ValidationError{Field: field, Reason: "is required"}
	}
	return v, nil
}

// OneOf fails unless value is one of allowed.
func OneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{Field: field, Reason: "must be one of " + strings.Join(allowed, ", ")}
}
