// Package apperr defines the error kinds shared by the services and the HTTP
// layer. Each kind is a sentinel; *Error pairs a kind with the message that
// is safe to show to a client.
package apperr

import "errors"

var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrConflict        = errors.New("conflict")
	ErrTooManyAttempts = errors.New("too many attempts")
)

// Error is a client-facing error. Msg is returned verbatim in the response
// body, so it must never carry storage details.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func Validation(msg string) error { return &Error{Kind: ErrValidation, Msg: msg} }

func NotFound(msg string) error { return &Error{Kind: ErrNotFound, Msg: msg} }

func Unauthorized(msg string) error { return &Error{Kind: ErrUnauthorized, Msg: msg} }

func Conflict(msg string) error { return &Error{Kind: ErrConflict, Msg: msg} }

func TooManyAttempts(msg string) error { return &Error{Kind: ErrTooManyAttempts, Msg: msg} }

// Message returns the client-facing message of err, or fallback when err
// carries none.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return fallback
}
