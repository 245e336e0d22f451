package nn

import "math/big"

// Kind identifies a layer variant. The set is closed: layers are
// dispatched through this enum and the Layer interface, never through
// string comparison.
type Kind int

const (
	// KindDense is a fully connected layer owning weights and bias.
	KindDense Kind = iota
	// KindActivation is a stateless transform owning no parameters.
	KindActivation
)

// String returns the kind's identifier.
func (k Kind) String() string {
	switch k {
	case KindDense:
		return "dense"
	case KindActivation:
		return "activation"
	default:
		return "unknown"
	}
}

// Layer is the interface every network layer implements.
//
// Layers follow a strict per-sample protocol: Forward populates the
// layer's caches, Backward consumes them, and ResetGradients clears both
// caches and stored gradients. Backward without a preceding Forward (or
// with a mismatched vector length) fails with a ShapeError.
type Layer interface {
	// Kind reports which closed variant this layer is.
	Kind() Kind

	// Name returns a short human-readable identifier, e.g.
	// "dense(2->4, sigmoid)".
	Name() string

	// InputSize returns the expected input vector length.
	InputSize() int

	// OutputSize returns the produced output vector length.
	OutputSize() int

	// Forward runs the stateful training-path transform, caching the
	// input, pre-activation and output for the following Backward.
	Forward(input []*big.Int) ([]*big.Int, error)

	// Apply runs the same transform over immutable parameters without
	// touching any cache. It is the canonical read-only forward used by
	// prediction and evaluation, and computes exactly the same numbers
	// as Forward.
	Apply(input []*big.Int) ([]*big.Int, error)

	// Backward propagates the output gradient, returning the gradient
	// with respect to the layer input.
	Backward(outputGradient []*big.Int) ([]*big.Int, error)

	// ResetGradients clears stored gradients and forward caches.
	ResetGradients()

	// ParameterCount returns the number of trainable parameters.
	ParameterCount() int
}
