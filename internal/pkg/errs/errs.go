/*
Package errs provides custom error types and application-level error code constants.

This file defines the CustomError struct, which implements the standard Go error interface
and includes a business code, a user-friendly message, and an HTTP status code for unified error reporting.
*/
package errs

import (
	"fmt"
	"net/http"

	"nexchat/internal/pkg/logx"
)

// CustomError is the custom error structure used throughout the application.
// It wraps the Go error interface, adding a business code and HTTP status code.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the user-friendly error description.
	Message string

	// Status is the standard HTTP status code corresponding to this error.
	Status int
}

// Error implements the standard Go error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// Is lets callers match a CustomError against a code template with errors.Is.
func (e CustomError) Is(target error) bool {
	other, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

// NewError constructs a new *CustomError instance from a predefined error code.
// An optional underlying error may be supplied for ErrUnknown; it is logged,
// never exposed to the client. Unknown codes fall back to ErrUnknown.
func NewError(code int, cause ...error) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)
		templateErr = errorMap[ErrUnknown]
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if len(cause) > 0 && cause[0] != nil {
		logx.Error(cause[0], "Business error with underlying cause", "code", customErr.Code)
	}

	return &customErr
}
