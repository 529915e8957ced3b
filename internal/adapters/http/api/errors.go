package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrConflict      = errors.New("conflict")
	ErrNotFound      = errors.New("not found")
	ErrUnprocessable = errors.New("unprocessable roster")
	ErrTooLarge      = errors.New("request body too large")
	ErrInternal      = errors.New("internal error")
)

// opError tags an error with the handler operation and an API kind.
type opError struct {
	op   string
	kind error
	err  error
}

func (e *opError) Error() string {
	return fmt.Sprintf("%s: %v", e.op, e.err)
}

// Is reports whether target is the kind of e.
func (e *opError) Is(target error) bool { return target == e.kind }

func (e *opError) Unwrap() error { return e.err }

// WrapKind tags err with op and kind. The cause stays reachable via errors.Is.
func WrapKind(op string, kind, err error) error {
	return &opError{op: op, kind: kind, err: err}
}

// Wrap tags err with op as an internal error.
func Wrap(op string, err error) error {
	return WrapKind(op, ErrInternal, err)
}
