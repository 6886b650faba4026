package shared

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidReference reports whether the value parses as an object reference.
func ValidReference(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}

// CheckReference validates an object reference, returning ErrMalformedReference
// with the field name attached when the value does not parse.
func CheckReference(field, value string) error {
	if !ValidReference(value) {
		return fmt.Errorf("%s %q: %w", field, value, ErrMalformedReference)
	}
	return nil
}

// NewReference returns a freshly generated object reference.
func NewReference() string {
	return uuid.NewString()
}
