package nn

import (
	"fmt"
	"math/big"
	"math/rand"

	"github.com/grain-ml/grain/internal/fixpoint"
)

// Dense is a fully connected layer owning a weight matrix of shape
// [outputSize][inputSize], an optional bias vector, and the per-forward
// caches the backward pass consumes.
type Dense struct {
	inputSize  int
	outputSize int
	useBias    bool
	activation Activation

	weights [][]*big.Int // [outputSize][inputSize]
	bias    []*big.Int   // nil when useBias is false

	// Stored gradients. In replace mode each Backward overwrites them;
	// in accumulate mode they sum across the samples of a batch and are
	// averaged when read.
	weightGrad  [][]*big.Int
	biasGrad    []*big.Int
	gradSamples int
	accumulate  bool

	// Per-forward-pass caches, cleared by ResetGradients.
	lastInput         []*big.Int
	lastPreActivation []*big.Int
	lastOutput        []*big.Int
}

// NewDense creates a dense layer with Xavier-initialized weights and a
// zero bias. The rng is the caller-seeded entropy source for the weight
// draw; passing the same seed reproduces the same weights exactly.
func NewDense(inputSize, outputSize int, useBias bool, activation Activation, rng *rand.Rand) (*Dense, error) {
	if inputSize <= 0 || outputSize <= 0 {
		return nil, fmt.Errorf("%w: dense layer sizes must be positive, got %dx%d",
			ErrInvalidArgument, inputSize, outputSize)
	}
	if activation == nil {
		return nil, fmt.Errorf("%w: dense layer requires an activation strategy", ErrInvalidArgument)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: dense layer requires an entropy source", ErrInvalidArgument)
	}

	d := &Dense{
		inputSize:  inputSize,
		outputSize: outputSize,
		useBias:    useBias,
		activation: activation,
		weights:    xavierMatrix(rng, outputSize, inputSize),
	}
	if useBias {
		d.bias = zeroVector(outputSize)
	}
	return d, nil
}

func (d *Dense) Kind() Kind { return KindDense }

func (d *Dense) Name() string {
	return fmt.Sprintf("dense(%d->%d, %s)", d.inputSize, d.outputSize, d.activation.Name())
}

func (d *Dense) InputSize() int  { return d.inputSize }
func (d *Dense) OutputSize() int { return d.outputSize }

// HasBias reports whether the layer owns a bias vector.
func (d *Dense) HasBias() bool { return d.useBias }

// Activation returns the configured activation strategy.
func (d *Dense) Activation() Activation { return d.activation }

// ParameterCount returns outputSize*inputSize weights plus outputSize
// bias terms when bias is enabled.
func (d *Dense) ParameterCount() int {
	n := d.outputSize * d.inputSize
	if d.useBias {
		n += d.outputSize
	}
	return n
}

// compute is the canonical forward transform over immutable parameters:
// preActivation[i] = bias[i] + sum_j input[j]*weights[i][j], followed by
// the activation strategy. Both Forward and Apply go through it, so the
// training path and the read-only path always agree.
func (d *Dense) compute(input []*big.Int) (pre, out []*big.Int) {
	pre = make([]*big.Int, d.outputSize)
	for i := 0; i < d.outputSize; i++ {
		acc := new(big.Int)
		if d.useBias {
			acc.Set(d.bias[i])
		}
		for j, x := range input {
			acc.Add(acc, fixpoint.Mul(x, d.weights[i][j]))
		}
		pre[i] = acc
	}
	return pre, d.activation.ActivateVector(pre)
}

// Forward runs the stateful training-path transform and caches the
// input, pre-activation and output for Backward.
func (d *Dense) Forward(input []*big.Int) ([]*big.Int, error) {
	if len(input) != d.inputSize {
		return nil, &ShapeError{Layer: d.Name(), Phase: "forward", Expected: d.inputSize, Actual: len(input)}
	}

	pre, out := d.compute(input)
	d.lastInput = fixpoint.CloneVector(input)
	d.lastPreActivation = pre
	d.lastOutput = out
	return fixpoint.CloneVector(out), nil
}

// Apply runs the read-only forward transform without touching caches.
func (d *Dense) Apply(input []*big.Int) ([]*big.Int, error) {
	if len(input) != d.inputSize {
		return nil, &ShapeError{Layer: d.Name(), Phase: "apply", Expected: d.inputSize, Actual: len(input)}
	}
	_, out := d.compute(input)
	return out, nil
}

// Backward consumes the cached forward tensors and the incoming output
// gradient, stores the weight and bias gradients, and returns the
// gradient with respect to the layer input.
func (d *Dense) Backward(outputGradient []*big.Int) ([]*big.Int, error) {
	if d.lastInput == nil {
		return nil, &ShapeError{
			Layer:    d.Name(),
			Phase:    "backward",
			Expected: d.outputSize,
			Actual:   len(outputGradient),
			Reason:   "backward before forward",
		}
	}
	if len(outputGradient) != d.outputSize {
		return nil, &ShapeError{Layer: d.Name(), Phase: "backward", Expected: d.outputSize, Actual: len(outputGradient)}
	}

	actDeriv := d.activation.DerivativeVector(d.lastPreActivation)

	preGrad := make([]*big.Int, d.outputSize)
	for i := range preGrad {
		preGrad[i] = fixpoint.Mul(outputGradient[i], actDeriv[i])
	}

	weightGrad := make([][]*big.Int, d.outputSize)
	for i := range weightGrad {
		weightGrad[i] = make([]*big.Int, d.inputSize)
		for j := range weightGrad[i] {
			weightGrad[i][j] = fixpoint.Mul(preGrad[i], d.lastInput[j])
		}
	}

	inputGrad := make([]*big.Int, d.inputSize)
	for j := range inputGrad {
		acc := new(big.Int)
		for i := 0; i < d.outputSize; i++ {
			acc.Add(acc, fixpoint.Mul(preGrad[i], d.weights[i][j]))
		}
		inputGrad[j] = acc
	}

	d.storeGradients(weightGrad, preGrad)
	return inputGrad, nil
}

// storeGradients replaces or accumulates the stored gradients depending
// on the batch-gradient mode.
func (d *Dense) storeGradients(weightGrad [][]*big.Int, biasGrad []*big.Int) {
	if !d.accumulate || d.weightGrad == nil {
		d.weightGrad = weightGrad
		if d.useBiasGrad() {
			d.biasGrad = fixpoint.CloneVector(biasGrad)
		}
		d.gradSamples = 1
		return
	}

	for i := range d.weightGrad {
		for j := range d.weightGrad[i] {
			d.weightGrad[i][j].Add(d.weightGrad[i][j], weightGrad[i][j])
		}
	}
	if d.useBiasGrad() {
		for i := range d.biasGrad {
			d.biasGrad[i].Add(d.biasGrad[i], biasGrad[i])
		}
	}
	d.gradSamples++
}

func (d *Dense) useBiasGrad() bool { return d.useBias }

// SetAccumulate switches between replace (false) and accumulate (true)
// gradient storage. The network sets this once when training starts.
func (d *Dense) SetAccumulate(accumulate bool) {
	d.accumulate = accumulate
}

// ResetGradients clears stored gradients and the forward caches, moving
// the layer back to its pre-forward state.
func (d *Dense) ResetGradients() {
	d.weightGrad = nil
	d.biasGrad = nil
	d.gradSamples = 0
	d.lastInput = nil
	d.lastPreActivation = nil
	d.lastOutput = nil
}

// HasGradients reports whether any backward pass has stored gradients
// since the last reset.
func (d *Dense) HasGradients() bool { return d.gradSamples > 0 }

// WeightVector returns the weights flattened row-major as fresh values.
func (d *Dense) WeightVector() []*big.Int {
	out := make([]*big.Int, 0, d.outputSize*d.inputSize)
	for _, row := range d.weights {
		for _, w := range row {
			out = append(out, fixpoint.Clone(w))
		}
	}
	return out
}

// WeightGradientVector returns the stored weight gradients flattened
// row-major. In accumulate mode the sum is averaged over the samples
// folded into it.
func (d *Dense) WeightGradientVector() []*big.Int {
	if d.weightGrad == nil {
		return nil
	}
	out := make([]*big.Int, 0, d.outputSize*d.inputSize)
	for _, row := range d.weightGrad {
		for _, g := range row {
			out = append(out, d.averaged(g))
		}
	}
	return out
}

// BiasVector returns the bias as fresh values, or nil without bias.
func (d *Dense) BiasVector() []*big.Int {
	if !d.useBias {
		return nil
	}
	return fixpoint.CloneVector(d.bias)
}

// BiasGradientVector returns the stored bias gradients, averaged in
// accumulate mode, or nil when absent.
func (d *Dense) BiasGradientVector() []*big.Int {
	if !d.useBias || d.biasGrad == nil {
		return nil
	}
	out := make([]*big.Int, len(d.biasGrad))
	for i, g := range d.biasGrad {
		out[i] = d.averaged(g)
	}
	return out
}

func (d *Dense) averaged(g *big.Int) *big.Int {
	if !d.accumulate || d.gradSamples <= 1 {
		return fixpoint.Clone(g)
	}
	return new(big.Int).Quo(g, big.NewInt(int64(d.gradSamples)))
}

// Reinitialize redraws the weights from rng, zeroes the bias and clears
// all gradients and caches, returning the layer to its freshly
// constructed state.
func (d *Dense) Reinitialize(rng *rand.Rand) {
	d.weights = xavierMatrix(rng, d.outputSize, d.inputSize)
	if d.useBias {
		d.bias = zeroVector(d.outputSize)
	}
	d.ResetGradients()
}

// SetWeightVector replaces the weights from a row-major flat vector.
func (d *Dense) SetWeightVector(flat []*big.Int) error {
	if len(flat) != d.outputSize*d.inputSize {
		return fmt.Errorf("%w: weight vector has %d values, layer needs %d",
			ErrInvalidArgument, len(flat), d.outputSize*d.inputSize)
	}
	k := 0
	for i := range d.weights {
		for j := range d.weights[i] {
			d.weights[i][j] = fixpoint.Clone(flat[k])
			k++
		}
	}
	return nil
}

// SetBiasVector replaces the bias from a flat vector.
func (d *Dense) SetBiasVector(flat []*big.Int) error {
	if !d.useBias {
		if len(flat) == 0 {
			return nil
		}
		return fmt.Errorf("%w: layer has no bias", ErrInvalidArgument)
	}
	if len(flat) != d.outputSize {
		return fmt.Errorf("%w: bias vector has %d values, layer needs %d",
			ErrInvalidArgument, len(flat), d.outputSize)
	}
	d.bias = fixpoint.CloneVector(flat)
	return nil
}
