package netio

import "fmt"

// Result is the shared outcome taxonomy for the listener fan-out core and,
// by extension, anything layered on top of it (see internal/omp). It mirrors
// the small closed set of conditions the protocol and transport layers need
// to distinguish; anything else is wrapped as an OS-mapped error.
type Result int

const (
	Success Result = iota
	NoMemory
	NotFound
	NoKeys
	Exists
	InvalidArg
	NotImplemented
	WrongType
	Canceled
	Unexpected
	OSError
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case NoMemory:
		return "no-memory"
	case NotFound:
		return "not-found"
	case NoKeys:
		return "no-keys"
	case Exists:
		return "exists"
	case InvalidArg:
		return "invalid-argument"
	case NotImplemented:
		return "not-implemented"
	case WrongType:
		return "wrong-type"
	case Canceled:
		return "canceled"
	case Unexpected:
		return "unexpected"
	case OSError:
		return "os-error"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// ResultError pairs an OSError result with the underlying OS-level cause.
type ResultError struct {
	Err error
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("os-mapped error: %v", e.Err)
}

func (e *ResultError) Unwrap() error { return e.Err }

// MapOSError wraps an arbitrary error as an OSError ResultError.
func MapOSError(err error) (Result, error) {
	if err == nil {
		return Success, nil
	}
	return OSError, &ResultError{Err: err}
}
