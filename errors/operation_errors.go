// api/errors/operation_errors.go
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies why a guarded operation could not complete. The UI keys
// remediation hints off this, so two different blocking conditions must never
// collapse into the same kind.
type Kind string

const (
	KindValidation    Kind = "Validation"    // input rejected locally, remote never called
	KindAuthorization Kind = "Authorization" // principal lacks the required capability
	KindSystemPaused  Kind = "SystemPaused"  // global pause flag is set
	KindSubmission    Kind = "Submission"    // remote rejected the request before accepting it
	KindExecution     Kind = "Execution"     // accepted, but failed during confirmation
	KindTransientRead Kind = "TransientRead" // a read failed; retryable, never terminal
)

// OperationError carries the classification alongside the underlying cause.
type OperationError struct {
	Kind Kind
	Err  error
}

func (e *OperationError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Wrap attaches a kind to err. A nil err still produces a kinded error so the
// caller always has something to surface.
func Wrap(kind Kind, err error) *OperationError {
	return &OperationError{Kind: kind, Err: err}
}

// KindOf extracts the kind from err, or "" when err carries none.
func KindOf(err error) Kind {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return ""
}

var (
	ErrControllerBusy          = errors.New("operation already in flight")
	ErrNotAwaitingConfirmation = errors.New("no operation awaiting confirmation")
	ErrMissingCapability       = errors.New("principal does not hold the required capability")
	ErrSystemPaused            = errors.New("system is paused")
	ErrConfirmationTimeout     = errors.New("confirmation wait exceeded configured timeout")
	ErrInvalidAddress          = errors.New("invalid address")
	ErrUnknownOperation        = errors.New("unknown operation kind")
	ErrInternalServer          = errors.New("internal server error")
)
