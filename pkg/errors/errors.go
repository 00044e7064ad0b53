// Package errors provides structured error handling for the stencil framework.
//
// Every failure the framework can detect is an authoring or programming
// defect: a missing template, a malformed binding clause, a control that
// instantiates itself. Such failures are returned as *Error values carrying
// a Kind, the failing operation and the offending identifier, so callers can
// match them with errors.Is against the Err* sentinels.
package errors

import (
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindConfig indicates a configuration or authoring error: missing or
	// duplicate template ids, malformed markup or directive syntax,
	// unresolvable control types or converters.
	KindConfig
	// KindContract indicates a control that violates the control contract.
	KindContract
	// KindRecursion indicates a template or control that requires itself.
	KindRecursion
	// KindMisuse indicates an API used incorrectly by the caller.
	KindMisuse
	// KindPanic indicates a recovered panic.
	KindPanic
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindContract:
		return "contract"
	case KindRecursion:
		return "recursion"
	case KindMisuse:
		return "misuse"
	case KindPanic:
		return "panic"
	default:
		return "unknown"
	}
}

// Sentinels for matching with errors.Is. An *Error matches the sentinel of
// its Kind.
var (
	ErrConfig    = &Error{Kind: KindConfig}
	ErrContract  = &Error{Kind: KindContract}
	ErrRecursion = &Error{Kind: KindRecursion}
	ErrMisuse    = &Error{Kind: KindMisuse}
)

// Error represents a structured error in the stencil framework.
type Error struct {
	// Op is the operation that failed (e.g., "template.LoadTemplate").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// ID names the offending template id, control type, converter or
	// property, if applicable.
	ID string
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

// New returns an *Error with a formatted message and a captured stack.
func New(op string, kind ErrorKind, id string, format string, args ...any) *Error {
	return &Error{
		Op:         op,
		Kind:       kind,
		ID:         id,
		Err:        fmt.Errorf(format, args...),
		StackTrace: CaptureStack(),
		Timestamp:  time.Now(),
	}
}

// Wrap annotates err with an operation and kind. A nil err yields nil.
func Wrap(op string, kind ErrorKind, id string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{
		Op:         op,
		Kind:       kind,
		ID:         id,
		Err:        err,
		StackTrace: CaptureStack(),
		Timestamp:  time.Now(),
	}
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s [%s] id=%s: %v", e.Op, e.Kind, e.ID, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Op != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "control.Host.Flush").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// ErrorHandler receives errors reported by the framework.
type ErrorHandler interface {
	// HandleError is called when an error is reported.
	HandleError(err *Error)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
