package nn

import (
	"errors"
	"fmt"

	"github.com/grain-ml/grain/internal/fixpoint"
)

// Common errors.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrShapeMismatch   = errors.New("shape mismatch")
	ErrNotTrained      = errors.New("network has not been trained")
	ErrUnsupported     = errors.New("unsupported operation")

	// ErrArithmeticDomain aliases the kernel's root domain error so
	// callers can match either package's sentinel.
	ErrArithmeticDomain = fixpoint.ErrDomain
)

// ShapeError provides detailed information about vector shape failures
// in layer forward and backward passes.
type ShapeError struct {
	Layer    string // layer name, e.g. "dense(2->4, sigmoid)"
	Phase    string // "forward", "apply" or "backward"
	Expected int
	Actual   int
	Reason   string // optional, overrides the size detail
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s: %s", e.Layer, e.Phase, e.Reason)
	}
	return fmt.Sprintf("%s: %s: got %d values, want %d", e.Layer, e.Phase, e.Actual, e.Expected)
}

// Unwrap lets errors.Is match ShapeError against ErrShapeMismatch.
func (e *ShapeError) Unwrap() error { return ErrShapeMismatch }
