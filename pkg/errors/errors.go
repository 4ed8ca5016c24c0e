// Package errors defines the error taxonomy shared by every estimator,
// transformer and dashboard component in agrodash.
//
// Typed errors carry the operation that failed so callers can branch with
// errors.As, while sentinel values (ErrEmptyData, ErrNotFitted, ...) allow
// errors.Is checks through any number of wrapping layers. Wrapping and stack
// capture are delegated to github.com/cockroachdb/errors.
//
// Example usage:
//
//	if err := scaler.Fit(X); err != nil {
//		return errors.Wrap(err, "failed to standardize features")
//	}
//
//	var dimErr *errors.DimensionError
//	if errors.As(err, &dimErr) {
//		fmt.Println(dimErr.Expected, dimErr.Got)
//	}
package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

const prefix = "agrodash"

// Sentinel errors.
var (
	ErrEmptyData         = crdb.New("empty data")
	ErrDimensionMismatch = crdb.New("dimension mismatch")
	ErrNotFitted         = crdb.New("not fitted")
	ErrSingularMatrix    = crdb.New("singular matrix")
	ErrInvalidInput      = crdb.New("invalid input")
	ErrNotImplemented    = crdb.New("not implemented")
)

// New returns a new error with a stack trace attached.
func New(msg string) error { return crdb.New(msg) }

// Newf formats a new error with a stack trace attached.
func Newf(format string, args ...interface{}) error { return crdb.Newf(format, args...) }

// Wrap annotates err with msg. Returns nil if err is nil.
func Wrap(err error, msg string) error { return crdb.Wrap(err, msg) }

// Wrapf annotates err with a formatted message. Returns nil if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	return crdb.Wrapf(err, format, args...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return crdb.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return crdb.As(err, target) }

// ModelError is a generic failure inside an estimator operation.
type ModelError struct {
	Op      string
	Message string
	Err     error
}

// NewModelError creates a ModelError wrapping err.
func NewModelError(op, message string, err error) error {
	return &ModelError{Op: op, Message: message, Err: err}
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s: %s", prefix, e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s: %v", prefix, e.Op, e.Message, e.Err)
}

// Unwrap returns the wrapped cause.
func (e *ModelError) Unwrap() error { return e.Err }

// DimensionError reports a shape mismatch along Axis (0 = rows, 1 = columns).
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

// NewDimensionError creates a DimensionError.
func NewDimensionError(op string, expected, got, axis int) error {
	return &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
}

func (e *DimensionError) Error() string {
	axis := "rows"
	if e.Axis == 1 {
		axis = "columns"
	}
	return fmt.Sprintf("%s: %s: dimension mismatch on %s: expected %d, got %d",
		prefix, e.Op, axis, e.Expected, e.Got)
}

// Is matches ErrDimensionMismatch.
func (e *DimensionError) Is(target error) bool { return target == ErrDimensionMismatch }

// NotFittedError is returned when an estimator is used before Fit.
type NotFittedError struct {
	ModelName string
	Method    string
}

// NewNotFittedError creates a NotFittedError.
func NewNotFittedError(modelName, method string) error {
	return &NotFittedError{ModelName: modelName, Method: method}
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s: %s: this instance is not fitted yet; call Fit before %s",
		prefix, e.ModelName, e.Method)
}

// Is matches ErrNotFitted.
func (e *NotFittedError) Is(target error) bool { return target == ErrNotFitted }

// ValueError reports an argument with an unusable value.
type ValueError struct {
	Op      string
	Message string
}

// NewValueError creates a ValueError.
func NewValueError(op, message string) error {
	return &ValueError{Op: op, Message: message}
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: %s: %s", prefix, e.Op, e.Message)
}

// Is matches ErrInvalidInput.
func (e *ValueError) Is(target error) bool { return target == ErrInvalidInput }

// ValidationError reports an invalid parameter or configuration value.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

// NewValidationError creates a ValidationError.
func NewValidationError(paramName, reason string, value interface{}) error {
	return &ValidationError{ParamName: paramName, Reason: reason, Value: value}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid %s (%v): %s", prefix, e.ParamName, e.Value, e.Reason)
}

// Is matches ErrInvalidInput.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// Recover converts a panic raised inside op into an error stored in *errp.
// It must be deferred directly:
//
//	func (m *Model) Fit(X, y mat.Matrix) (err error) {
//		defer errors.Recover(&err, "Model.Fit")
//		...
//	}
func Recover(errp *error, op string) {
	r := recover()
	if r == nil {
		return
	}
	var cause error
	switch v := r.(type) {
	case error:
		cause = v
	default:
		cause = crdb.Newf("%v", v)
	}
	*errp = crdb.WithStack(NewModelError(op, "panic recovered", cause))
}
