// Package evalerr defines the error taxonomy shared by the graph and the
// evaluation engine: graph-validity errors, compute errors, cancellation and
// contract violations.
package evalerr

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Code classifies an Error.
type Code string

const (
	// CodeIncompatibleInput: a connection was rejected by acceptsInput.
	CodeIncompatibleInput Code = "E_INCOMPATIBLE_INPUT"
	// CodeCycle: a connection would introduce a dependency cycle.
	CodeCycle Code = "E_CYCLE"
	// CodeNotFound: a node, plug or node type does not exist.
	CodeNotFound Code = "E_NOT_FOUND"
	// CodeInvalid: a graph-construction argument is invalid.
	CodeInvalid Code = "E_INVALID"
	// CodeCompute: node logic failed during hash or compute.
	CodeCompute Code = "E_COMPUTE"
	// CodeCancelled: the evaluation was cancelled.
	CodeCancelled Code = "E_CANCELLED"
	// CodeContract: a node broke the evaluation contract.
	CodeContract Code = "E_CONTRACT"
)

// Error is a coded error carrying the failing operation and, for process
// errors, the plug and context it was evaluated for.
type Error struct {
	Code    Code
	Op      string
	Plug    string
	Context string
	Err     error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	if e.Op != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Op)
	}
	if e.Plug != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Plug)
	}
	if e.Context != "" {
		sb.WriteString(" in context ")
		sb.WriteString(e.Context)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrCancelled) match any cancellation Error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t == ErrCancelled && e.Code == CodeCancelled
}

// ErrCancelled is the distinguished cancellation outcome.
var ErrCancelled = &Error{Code: CodeCancelled, Op: "evaluation cancelled"}

// New returns a coded error.
func New(code Code, op string, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Err: fmt.Errorf(format, args...)}
}

// Compute wraps a node failure with the plug and context it occurred in.
// Errors that are already process errors or cancellations pass through
// unchanged, so the innermost failing plug keeps the attribution.
func Compute(op, plug, context string, err error) error {
	if err == nil {
		return nil
	}
	if IsCancelled(err) {
		return Cancelled(err)
	}
	var e *Error
	if errors.As(err, &e) && e.Code == CodeCompute {
		return err
	}
	return &Error{Code: CodeCompute, Op: op, Plug: plug, Context: context, Err: err}
}

// Cancelled normalizes any cancellation cause to an error matching
// ErrCancelled while keeping the cause reachable through Unwrap.
func Cancelled(cause error) error {
	var e *Error
	if errors.As(cause, &e) && e.Code == CodeCancelled {
		return cause
	}
	return &Error{Code: CodeCancelled, Op: "evaluation cancelled", Err: cause}
}

// Contract builds the value raised by panics for contract violations.
func Contract(op, plug string, format string, args ...any) *Error {
	return &Error{Code: CodeContract, Op: op, Plug: plug, Err: fmt.Errorf(format, args...)}
}

func hasCode(err error, codes ...Code) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	for _, c := range codes {
		if e.Code == c {
			return true
		}
	}
	return false
}

// CodeOf returns the code of the outermost Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCancelled reports whether err is a cancellation, including plain
// context cancellation and deadline expiry.
func IsCancelled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return hasCode(err, CodeCancelled)
}

// IsGraphError reports whether err rejected a graph edit.
func IsGraphError(err error) bool {
	return hasCode(err, CodeIncompatibleInput, CodeCycle, CodeNotFound, CodeInvalid)
}

// IsComputeError reports whether err came from node logic.
func IsComputeError(err error) bool {
	return !IsCancelled(err) && hasCode(err, CodeCompute)
}
