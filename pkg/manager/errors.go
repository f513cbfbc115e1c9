package manager

import (
	"errors"
	"fmt"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/data"
)

// Error kinds. Every error returned by the Manager is an *Error whose Kind is
// one of these, so callers can branch with errors.Is.
var (
	// ErrInput is the loader's input error: unreadable files, unknown or
	// non-numeric columns, misaligned rows.
	ErrInput = data.ErrInput
	// ErrSelection means required columns were not chosen before a run.
	ErrSelection = errors.New("selection error")
	// ErrModel means a procedure failed while fitting or rejected its parameters.
	ErrModel = errors.New("model error")
	// ErrFitting means a curve fit did not converge or the data cannot determine it.
	ErrFitting = errors.New("fitting error")
	// ErrUnsupported means the current model lacks the requested capability.
	ErrUnsupported = errors.New("unsupported operation")
	// ErrNoModel means nothing has been fitted yet.
	ErrNoModel = errors.New("model has not been trained yet")
)

// Error is a failed manager operation.
//
// The message names the procedure and keeps the underlying failure:
//
//	Random Forest model error: randomforest: X and y length mismatch
//
// Both the kind and the underlying error are visible to errors.Is and errors.As.
type Error struct {
	// Kind is one of the sentinel kinds above.
	Kind error
	// Procedure is the procedure that failed, empty for Summary and Predict
	// without a model.
	Procedure Procedure
	// Err is the underlying error, possibly nil.
	Err error
}

func (e *Error) Error() string {
	prefix := e.Kind.Error()
	if e.Procedure != "" {
		prefix = e.Procedure.Title() + " " + prefix
	}
	if e.Err == nil {
		return prefix
	}
	return fmt.Sprintf("%s: %v", prefix, e.Err)
}

// Unwrap exposes both the kind and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, proc Procedure, err error) *Error {
	return &Error{Kind: kind, Procedure: proc, Err: err}
}

// SelectionError reports a missing column selection.
func SelectionError(proc Procedure, format string, args ...any) error {
	return newError(ErrSelection, proc, fmt.Errorf(format, args...))
}

// KindOf returns the sentinel kind of err, or nil when err did not come from
// the manager.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}
