package domain

import "errors"

// Error kinds. Every error surfaced by the core wraps exactly one of these.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// Error carries a client-facing message on top of an error kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func Unauthenticated(msg string) error { return &Error{Kind: ErrUnauthenticated, Message: msg} }
func Forbidden(msg string) error       { return &Error{Kind: ErrForbidden, Message: msg} }
func InvalidInput(msg string) error    { return &Error{Kind: ErrInvalidInput, Message: msg} }
func NotFound(msg string) error        { return &Error{Kind: ErrNotFound, Message: msg} }
func Conflict(msg string) error        { return &Error{Kind: ErrConflict, Message: msg} }

// Frequently used errors.
var (
	ErrInvalidCredentials = Unauthenticated("Invalid credentials")
	ErrNotAuthorized      = Unauthenticated("Not authorized")
	ErrUserExists         = Conflict("User already exists")
	ErrUserNotFound       = NotFound("User not found")
	ErrLocationNotFound   = NotFound("Location not found")
	ErrImageNotFound      = NotFound("Image not found")
)

// Message returns the client-facing message of err, or "" when err does not
// carry one.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Error()
	}
	return ""
}
