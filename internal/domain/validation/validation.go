// Package validation defines the error type for rejected user input,
// so the HTTP boundary can distinguish bad requests from failed
// preconditions and storage errors.
package validation

import "fmt"

// Error describes user input that failed validation.
type Error struct {
	msg string
}

func (e *Error) Error() string {
	return e.msg
}

// New returns a validation Error with the given message.
func New(msg string) *Error {
	return &Error{msg: msg}
}

// Errorf returns a validation Error with a formatted message.
func Errorf(format string, args ...any) *Error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}
