package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrUnavailable = errors.New("unavailable")
)

type AppError struct {
	Err     error    // actual error
	Message string   // Human-readable error message
	Loc     []string // Optional: location of the offending input, e.g. ["body", "role"]
	Type    string   // Optional: short error kind for validation details
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound returns the error surfaced when no record matches an identifier.
// The message is fixed per resource ("User not found.") and carries no id;
// clients see it verbatim in the 404 body.
func NotFound(resource string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found.", resource),
	}
}

// ValidationFailed describes one bad input value. loc follows the
// request-part-then-field convention: ["body", "age"], ["query", "skip"],
// ["path", "user_id"].
func ValidationFailed(loc []string, kind, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Loc:     loc,
		Type:    kind,
	}
}

// Unavailable wraps a failure to reach the backing store.
// HTTP handlers map this to 503 Service Unavailable.
func Unavailable(message string, cause error) *AppError {
	return &AppError{
		Err:     errors.Join(ErrUnavailable, cause),
		Message: message,
	}
}

// ValidationErrors collects several ValidationFailed errors so a single
// response can report every bad field at once.
type ValidationErrors []*AppError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", v[0].Message)
}

func (v ValidationErrors) Unwrap() error {
	return ErrValidation
}
