package services

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a contract, invoice, task, project, or
// proposal id does not resolve to a non-deleted row.
var ErrNotFound = errors.New("not_found")

// ValidationError rejects a request before any state change. Code is a
// stable snake_case identifier for the API layer; Details names the
// offending fields.
type ValidationError struct {
	Code    string
	Details map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Code
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Details)
}

func validationErr(code string, details map[string]string) *ValidationError {
	return &ValidationError{Code: code, Details: details}
}
