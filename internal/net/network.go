package net

import (
	"fmt"
	"math/big"
	"math/rand"

	"github.com/google/uuid"

	"github.com/grain-ml/grain/internal/fixpoint"
	"github.com/grain-ml/grain/internal/nn"
	"github.com/grain-ml/grain/internal/optim"
	"github.com/grain-ml/grain/internal/parallel"
)

// defaultBatchSize is used when no WithBatchSize option is given.
const defaultBatchSize = 32

// defaultSeed feeds weight initialization when the caller does not seed
// the network explicitly. It is a fixed constant: nothing in the engine
// ever reads the clock.
const defaultSeed = 1

// Network is an ordered, append-only stack of heterogeneous layers with
// the hyperparameters and bookkeeping of the training loop.
type Network struct {
	inputSize  int
	outputSize int

	layers    []nn.Layer
	loss      nn.Loss
	optimizer optim.Optimizer

	batchSize int
	gradMode  BatchGradientMode
	seed      int64
	rng       *rand.Rand
	observer  Observer
	fanout    parallel.Config

	runID        string
	trained      bool
	earlyStopped bool
	epochsRun    int
	finalLoss    *big.Int
	bestLoss     *big.Int
	learningRate *big.Int

	lossHistory     []*big.Int
	accuracyHistory []*big.Int
}

// Option configures a Network at construction time.
type Option func(*Network)

// WithBatchSize sets the mini-batch size (default 32).
func WithBatchSize(n int) Option {
	return func(nw *Network) { nw.batchSize = n }
}

// WithSeed sets the deterministic seed for weight initialization.
// Networks built with the same seed and the same layer sequence start
// from bit-identical weights.
func WithSeed(seed int64) Option {
	return func(nw *Network) { nw.seed = seed }
}

// WithObserver installs an observer for training events.
func WithObserver(o Observer) Option {
	return func(nw *Network) { nw.observer = o }
}

// WithBatchGradientMode selects how per-sample gradients combine inside
// a mini-batch (default LastSampleOnly).
func WithBatchGradientMode(m BatchGradientMode) Option {
	return func(nw *Network) { nw.gradMode = m }
}

// WithSequentialPrediction disables the fan-out in PredictBatch and
// Evaluate, forcing strictly sequential per-sample computation.
func WithSequentialPrediction() Option {
	return func(nw *Network) { nw.fanout = parallel.Sequential() }
}

// New creates a network. Both strategies are mandatory; missing ones are
// rejected the same way as zero sizes.
func New(inputSize, outputSize int, loss nn.Loss, optimizer optim.Optimizer, opts ...Option) (*Network, error) {
	if inputSize <= 0 || outputSize <= 0 {
		return nil, fmt.Errorf("%w: network sizes must be positive, got %dx%d",
			nn.ErrInvalidArgument, inputSize, outputSize)
	}
	if loss == nil {
		return nil, fmt.Errorf("%w: missing loss strategy", nn.ErrInvalidArgument)
	}
	if optimizer == nil {
		return nil, fmt.Errorf("%w: missing optimizer strategy", nn.ErrInvalidArgument)
	}

	nw := &Network{
		inputSize:  inputSize,
		outputSize: outputSize,
		loss:       loss,
		optimizer:  optimizer,
		batchSize:  defaultBatchSize,
		gradMode:   LastSampleOnly,
		seed:       defaultSeed,
		observer:   NopObserver{},
		fanout:     parallel.DefaultConfig(),
		runID:      uuid.NewString(),
	}
	for _, opt := range opts {
		opt(nw)
	}
	if nw.batchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d",
			nn.ErrInvalidArgument, nw.batchSize)
	}

	nw.rng = rand.New(rand.NewSource(nw.seed))
	nw.observer.NetworkInitialized(nw.ModelInfo())
	return nw, nil
}

// stackOutputSize is the current tail size of the stack: the last
// layer's output, or the network input size for an empty stack.
func (nw *Network) stackOutputSize() int {
	if len(nw.layers) == 0 {
		return nw.inputSize
	}
	return nw.layers[len(nw.layers)-1].OutputSize()
}

// AddDenseLayer appends a fully connected layer of the given size. Its
// input size is inferred from the current stack tail. The stack is
// append-only: layers are never reordered or removed.
func (nw *Network) AddDenseLayer(size int, useBias bool, activation nn.Activation) error {
	layer, err := nn.NewDense(nw.stackOutputSize(), size, useBias, activation, nw.rng)
	if err != nil {
		return err
	}
	layer.SetAccumulate(nw.gradMode == Averaged)
	nw.layers = append(nw.layers, layer)
	nw.observer.LayerAdded(layerInfo(layer))
	return nil
}

// AddActivationLayer appends a stateless activation layer sized to the
// current stack tail.
func (nw *Network) AddActivationLayer(activation nn.Activation) error {
	layer, err := nn.NewActivationLayer(nw.stackOutputSize(), activation)
	if err != nil {
		return err
	}
	nw.layers = append(nw.layers, layer)
	nw.observer.LayerAdded(layerInfo(layer))
	return nil
}

// Reset reinitializes every dense layer's weights from the network seed,
// clears the training history and drops all optimizer state.
func (nw *Network) Reset() {
	nw.rng = rand.New(rand.NewSource(nw.seed))
	for _, layer := range nw.layers {
		if d, ok := layer.(*nn.Dense); ok {
			d.Reinitialize(nw.rng)
		} else {
			layer.ResetGradients()
		}
	}
	nw.optimizer.Reset()
	nw.trained = false
	nw.earlyStopped = false
	nw.epochsRun = 0
	nw.finalLoss = nil
	nw.bestLoss = nil
	nw.learningRate = nil
	nw.lossHistory = nil
	nw.accuracyHistory = nil
}

// Parameters returns every trainable parameter as one flat vector: per
// dense layer in stack order, weights row-major then bias.
func (nw *Network) Parameters() []*big.Int {
	var flat []*big.Int
	for _, layer := range nw.layers {
		d, ok := layer.(*nn.Dense)
		if !ok {
			continue
		}
		flat = append(flat, d.WeightVector()...)
		flat = append(flat, d.BiasVector()...)
	}
	return flat
}

// SetParameters replaces every trainable parameter from a flat vector in
// the same order Parameters produces. A network with parameters set is
// considered trained for prediction purposes.
func (nw *Network) SetParameters(flat []*big.Int) error {
	if len(nw.layers) == 0 {
		return fmt.Errorf("%w: network has no layers", nn.ErrInvalidArgument)
	}
	want := 0
	for _, layer := range nw.layers {
		want += layer.ParameterCount()
	}
	if len(flat) != want {
		return fmt.Errorf("%w: parameter vector has %d values, network needs %d",
			nn.ErrInvalidArgument, len(flat), want)
	}

	// The length check above guarantees every per-layer slice below is
	// exactly sized, so no partial write can happen past this point.
	offset := 0
	for _, layer := range nw.layers {
		d, ok := layer.(*nn.Dense)
		if !ok {
			continue
		}
		nWeights := d.OutputSize() * d.InputSize()
		if err := d.SetWeightVector(flat[offset : offset+nWeights]); err != nil {
			return err
		}
		offset += nWeights
		if d.HasBias() {
			if err := d.SetBiasVector(flat[offset : offset+d.OutputSize()]); err != nil {
				return err
			}
			offset += d.OutputSize()
		}
	}
	nw.trained = true
	return nil
}

// RunID returns the network's unique run identifier.
func (nw *Network) RunID() string { return nw.runID }

// SetBatchSize changes the mini-batch size for subsequent Train calls.
func (nw *Network) SetBatchSize(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d",
			nn.ErrInvalidArgument, n)
	}
	nw.batchSize = n
	return nil
}

// magnitudeL1 is the L1 norm of a gradient vector.
func magnitudeL1(xs []*big.Int) *big.Int {
	sum := new(big.Int)
	for _, x := range xs {
		sum.Add(sum, fixpoint.Abs(x))
	}
	return sum
}
