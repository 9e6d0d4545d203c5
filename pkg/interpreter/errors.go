package interpreter

import (
	"errors"
	"fmt"

	"bt/interpreter-go/pkg/runtime"
)

// ErrorKind classifies interpreter failures.
type ErrorKind int

const (
	ErrSyntax ErrorKind = iota
	ErrType
	ErrArity
	ErrUndefinedName
	ErrRedeclaration
	ErrArithmetic
	ErrIndex
	ErrEOF
	ErrFormat
	ErrNotImplemented
)

func (k ErrorKind) String() string {
	switch k {
	case ErrSyntax:
		return "syntax error"
	case ErrType:
		return "type error"
	case ErrArity:
		return "arity error"
	case ErrUndefinedName:
		return "undefined name"
	case ErrRedeclaration:
		return "redeclaration"
	case ErrArithmetic:
		return "arithmetic error"
	case ErrIndex:
		return "index error"
	case ErrEOF:
		return "unexpected end of stream"
	case ErrFormat:
		return "format error"
	case ErrNotImplemented:
		return "not implemented"
	default:
		return fmt.Sprintf("error(%d)", int(k))
	}
}

// Error is the single failure surface of the interpreter. Offset is the
// stream position at which the failure was raised, when one was available.
type Error struct {
	Kind      ErrorKind
	Msg       string
	Offset    uint64
	HasOffset bool
}

func (e *Error) Error() string {
	if e.HasOffset {
		return fmt.Sprintf("%s: %s (at offset %d)", e.Kind, e.Msg, e.Offset)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// errAt stamps the current stream offset onto a fresh error.
func (ip *Interpreter) errAt(kind ErrorKind, format string, args ...any) *Error {
	e := newError(kind, format, args...)
	if ip.io != nil {
		e.Offset = ip.io.Offset()
		e.HasOffset = true
	}
	return e
}

// classify maps low-level runtime errors onto the taxonomy.
func (ip *Interpreter) classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ie *Error
	if errors.As(err, &ie) {
		return ie
	}
	var ote *runtime.OpTypeError
	switch {
	case errors.Is(err, runtime.ErrDivisionByZero):
		return ip.errAt(ErrArithmetic, "%s", err.Error())
	case errors.As(err, &ote):
		return ip.errAt(ErrType, "%s", ote.Msg)
	default:
		return ip.errAt(ErrType, "%s", err.Error())
	}
}

// Control-flow signals travel as error values through the walkers, the same
// trick the statement evaluators use for break/continue/return unwinding.

type breakSignal struct{}

func (breakSignal) Error() string { return "break outside loop or switch" }

type continueSignal struct{}

func (continueSignal) Error() string { return "continue outside loop" }

type returnSignal struct {
	value runtime.Value
}

func (returnSignal) Error() string { return "return outside function" }
