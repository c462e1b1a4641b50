package qtensor

import (
	"errors"
	"fmt"

	"github.com/theapemachine/errnie"
)

// ErrorKind classifies the contract violations the engine can report.
type ErrorKind int

const (
	ConfigurationError ErrorKind = iota
	UnsupportedOperation
	DimensionMismatch
	NotImplemented
)

func (k ErrorKind) String() string {
	switch k {
	case ConfigurationError:
		return "configuration error"
	case UnsupportedOperation:
		return "unsupported operation"
	case DimensionMismatch:
		return "dimension mismatch"
	case NotImplemented:
		return "not implemented"
	default:
		return "unknown error"
	}
}

// Sentinels for errors.Is matching against an *Error of the same kind.
var (
	ErrConfiguration     = errors.New(ConfigurationError.String())
	ErrUnsupported       = errors.New(UnsupportedOperation.String())
	ErrDimensionMismatch = errors.New(DimensionMismatch.String())
	ErrNotImplemented    = errors.New(NotImplemented.String())
)

/*
Error is returned by every engine operation that detects a violated
precondition. Op names the operation that failed, Msg describes the offending
shape, qubit count, device or thread value.
*/
type Error struct {
	Kind ErrorKind
	Op   string
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
}

// Is lets errors.Is match an *Error against the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrConfiguration:
		return e.Kind == ConfigurationError
	case ErrUnsupported:
		return e.Kind == UnsupportedOperation
	case ErrDimensionMismatch:
		return e.Kind == DimensionMismatch
	case ErrNotImplemented:
		return e.Kind == NotImplemented
	}
	return false
}

func newError(kind ErrorKind, op, format string, args ...any) error {
	err := &Error{
		Kind: kind,
		Op:   op,
		Msg:  fmt.Sprintf(format, args...),
	}
	errnie.Error(err)
	return err
}
