// Package omp implements the Object Management Protocol message engine: a
// typed value model, a polymorphic object registry, and the message
// processor that drives the OPEN/REFRESH/UPDATE/NOTIFY/STATUS/DELETE verb
// set against it.
package omp

import (
	"errors"
	"fmt"

	"github.com/corvidnet/netmgrd/internal/netio"
)

// Error carries one of the protocol-level result codes from the shared
// netio.Result taxonomy, plus optional human text for a STATUS reply.
// Comparable with errors.Is against the sentinel Err* values below, since
// equality is defined purely on Result.
type Error struct {
	Result netio.Result
	Msg    string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Result, e.Msg)
	}
	return e.Result.String()
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Result == e.Result
}

// NewError builds an Error carrying result and msg.
func NewError(result netio.Result, msg string) *Error {
	return &Error{Result: result, Msg: msg}
}

var (
	ErrNotFound       = &Error{Result: netio.NotFound}
	ErrNoKeys         = &Error{Result: netio.NoKeys}
	ErrExists         = &Error{Result: netio.Exists}
	ErrInvalidArg     = &Error{Result: netio.InvalidArg}
	ErrNotImplemented = &Error{Result: netio.NotImplemented}
	ErrWrongType      = &Error{Result: netio.WrongType}
	ErrUnexpected     = &Error{Result: netio.Unexpected}
)

// ResultOf maps any error into the shared Result taxonomy, so a protocol
// error can be serialized into a STATUS reply's "result" value. A nil error
// maps to Success; anything that isn't an *Error maps to Unexpected.
func ResultOf(err error) netio.Result {
	if err == nil {
		return netio.Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Result
	}
	return netio.Unexpected
}

func statusText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
