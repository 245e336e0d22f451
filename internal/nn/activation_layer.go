package nn

import (
	"fmt"
	"math/big"

	"github.com/grain-ml/grain/internal/fixpoint"
)

// ActivationLayer applies an activation strategy to its whole input
// vector. It owns no trainable parameters and its output size always
// equals its input size.
type ActivationLayer struct {
	size       int
	activation Activation

	lastInput  []*big.Int
	lastOutput []*big.Int
}

// NewActivationLayer creates an activation layer of the given size.
func NewActivationLayer(size int, activation Activation) (*ActivationLayer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: activation layer size must be positive, got %d",
			ErrInvalidArgument, size)
	}
	if activation == nil {
		return nil, fmt.Errorf("%w: activation layer requires an activation strategy",
			ErrInvalidArgument)
	}
	return &ActivationLayer{size: size, activation: activation}, nil
}

func (a *ActivationLayer) Kind() Kind { return KindActivation }

func (a *ActivationLayer) Name() string {
	return fmt.Sprintf("activation(%s)", a.activation.Name())
}

func (a *ActivationLayer) InputSize() int  { return a.size }
func (a *ActivationLayer) OutputSize() int { return a.size }

// Activation returns the configured activation strategy.
func (a *ActivationLayer) Activation() Activation { return a.activation }

// ParameterCount is always zero: the transform is stateless.
func (a *ActivationLayer) ParameterCount() int { return 0 }

// Forward applies the activation and caches input and output.
func (a *ActivationLayer) Forward(input []*big.Int) ([]*big.Int, error) {
	if len(input) != a.size {
		return nil, &ShapeError{Layer: a.Name(), Phase: "forward", Expected: a.size, Actual: len(input)}
	}
	out := a.activation.ActivateVector(input)
	a.lastInput = fixpoint.CloneVector(input)
	a.lastOutput = out
	return fixpoint.CloneVector(out), nil
}

// Apply runs the transform without touching the caches.
func (a *ActivationLayer) Apply(input []*big.Int) ([]*big.Int, error) {
	if len(input) != a.size {
		return nil, &ShapeError{Layer: a.Name(), Phase: "apply", Expected: a.size, Actual: len(input)}
	}
	return a.activation.ActivateVector(input), nil
}

// Backward scales the output gradient by the activation derivative,
// using the cheaper from-output derivative path on the cached output.
func (a *ActivationLayer) Backward(outputGradient []*big.Int) ([]*big.Int, error) {
	if a.lastOutput == nil {
		return nil, &ShapeError{
			Layer:    a.Name(),
			Phase:    "backward",
			Expected: a.size,
			Actual:   len(outputGradient),
			Reason:   "backward before forward",
		}
	}
	if len(outputGradient) != a.size {
		return nil, &ShapeError{Layer: a.Name(), Phase: "backward", Expected: a.size, Actual: len(outputGradient)}
	}

	inputGrad := make([]*big.Int, a.size)
	for i, g := range outputGradient {
		inputGrad[i] = fixpoint.Mul(g, a.activation.DerivativeFromOutput(a.lastOutput[i]))
	}
	return inputGrad, nil
}

// ResetGradients clears the forward caches; there are no gradients to
// clear.
func (a *ActivationLayer) ResetGradients() {
	a.lastInput = nil
	a.lastOutput = nil
}
