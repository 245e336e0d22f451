// Copyright 2025 Grain ML Engine. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layer and strategy building blocks: dense and
// activation layers, activation strategies and loss strategies, all in
// deterministic fixed-point arithmetic.
package nn

import (
	"math/rand"

	"github.com/grain-ml/grain/internal/nn"
)

// Common errors.
var (
	ErrInvalidArgument  = nn.ErrInvalidArgument
	ErrShapeMismatch    = nn.ErrShapeMismatch
	ErrNotTrained       = nn.ErrNotTrained
	ErrUnsupported      = nn.ErrUnsupported
	ErrArithmeticDomain = nn.ErrArithmeticDomain
)

// ShapeError describes a vector shape failure in a layer pass.
type ShapeError = nn.ShapeError

// Activation is the strategy interface for non-linear transforms.
type Activation = nn.Activation

// Traits reports an activation strategy's stability metadata.
type Traits = nn.Traits

// NewReLU creates the exact rectifier strategy.
func NewReLU() Activation { return nn.NewReLU() }

// NewSigmoid creates the saturating logistic strategy.
func NewSigmoid() Activation { return nn.NewSigmoid() }

// NewSoftmax creates the vector-normalizing softmax strategy.
func NewSoftmax() Activation { return nn.NewSoftmax() }

// Loss is the strategy interface for training objectives.
type Loss = nn.Loss

// NewSquaredError creates the squared-error loss strategy.
func NewSquaredError() Loss { return nn.NewSquaredError() }

// NewAbsoluteError creates the absolute-error loss strategy.
func NewAbsoluteError() Loss { return nn.NewAbsoluteError() }

// NewCrossEntropy creates the binary cross-entropy loss strategy.
func NewCrossEntropy() Loss { return nn.NewCrossEntropy() }

// Layer is the interface every stack element satisfies.
type Layer = nn.Layer

// Kind is the closed set of layer kinds.
type Kind = nn.Kind

const (
	KindDense      = nn.KindDense
	KindActivation = nn.KindActivation
)

// Dense is a fully connected layer.
type Dense = nn.Dense

// NewDense creates a dense layer with deterministic Xavier-style
// initialization drawn from rng.
func NewDense(inputSize, outputSize int, useBias bool, activation Activation, rng *rand.Rand) (*Dense, error) {
	return nn.NewDense(inputSize, outputSize, useBias, activation, rng)
}

// ActivationLayer applies an activation strategy element-wise as a
// standalone stack element.
type ActivationLayer = nn.ActivationLayer

// NewActivationLayer creates an activation layer of the given size.
func NewActivationLayer(size int, activation Activation) (*ActivationLayer, error) {
	return nn.NewActivationLayer(size, activation)
}
