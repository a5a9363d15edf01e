package core

import "github.com/pkg/errors"

// FieldError reports a validation failure on one struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries per-field failures so the transport layer can
// render them as a field-to-message map.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

// shutdownError signals that the web server cannot recover and should be
// brought down gracefully.
type shutdownError struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdownError{message: msg}
}

func (s shutdownError) Error() string {
	return s.message
}

// IsShutdown checks if the error chain contains a shutdown request.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdownError)
	return ok
}
