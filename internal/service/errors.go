package service

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ValidationError reports input rejected before it reaches the store
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is, or wraps, a *ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func checkLength(field string, value *string, max int) error {
	if value != nil && utf8.RuneCountInString(*value) > max {
		return newValidationError(field, "must be at most %d characters", max)
	}
	return nil
}
