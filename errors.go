package umlcalc

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every failure returned by this package wraps exactly one of them.
var (
	ErrParse  = errors.New("umlcalc: parse error")
	ErrEval   = errors.New("umlcalc: evaluation error")
	ErrSolve  = errors.New("umlcalc: solve error")
	ErrSample = errors.New("umlcalc: sample error")
)

// Kind classifies an Error.
type Kind int

const (
	KindParse Kind = iota + 1
	KindEval
	KindSolve
	KindSample
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "ParseError"
	case KindEval:
		return "EvalError"
	case KindSolve:
		return "SolveError"
	case KindSample:
		return "SampleError"
	}
	return "Error"
}

func (k Kind) sentinel() error {
	switch k {
	case KindParse:
		return ErrParse
	case KindEval:
		return ErrEval
	case KindSolve:
		return ErrSolve
	case KindSample:
		return ErrSample
	}
	return nil
}

// Error describes a failed parse, evaluation, solve or sample call.
// Pos is the byte offset into Input for parse errors and -1 otherwise.
type Error struct {
	Kind  Kind
	Op    string
	Input string
	Pos   int
	Err   error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg += " in " + e.Op
	}
	if e.Pos >= 0 && e.Kind == KindParse {
		msg += fmt.Sprintf(" at offset %d", e.Pos)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func newError(kind Kind, op, input string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Input: input, Pos: -1, Err: fmt.Errorf(format, args...)}
}

func parseError(input string, pos int, format string, args ...interface{}) *Error {
	return &Error{Kind: KindParse, Op: "parse", Input: input, Pos: pos, Err: fmt.Errorf(format, args...)}
}
