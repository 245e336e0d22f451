// Copyright 2025 Grain ML Engine. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package net provides the training network: an ordered stack of layers
// with a deterministic mini-batch training loop, prediction and
// evaluation.
//
// Example:
//
//	adam, _ := optim.NewAdam(optim.AdamConfig{})
//	nw, _ := net.New(2, 1, nn.NewCrossEntropy(), adam,
//	    net.WithSeed(1),
//	    net.WithBatchSize(4),
//	)
//	nw.AddDenseLayer(4, true, nn.NewSigmoid())
//	nw.AddDenseLayer(1, true, nn.NewSigmoid())
//	result, _ := nw.Train(features, labels, 500, fixpoint.MustParse("0.05"))
package net

import (
	"github.com/grain-ml/grain/internal/net"
	"github.com/grain-ml/grain/internal/nn"
	"github.com/grain-ml/grain/internal/optim"
)

// Network is an ordered, append-only stack of layers with its training
// loop state.
type Network = net.Network

// Option configures a Network at construction time.
type Option = net.Option

// TrainResult reports the outcome of a training run.
type TrainResult = net.TrainResult

// BatchGradientMode selects how per-sample gradients combine inside a
// mini-batch.
type BatchGradientMode = net.BatchGradientMode

const (
	LastSampleOnly = net.LastSampleOnly
	Averaged       = net.Averaged
)

// Introspection snapshots.
type (
	ModelInfo      = net.ModelInfo
	LayerInfo      = net.LayerInfo
	TrainingStatus = net.TrainingStatus
)

// Observer receives training life-cycle events.
type Observer = net.Observer

// NopObserver discards every event.
type NopObserver = net.NopObserver

// ConsoleObserver prints one line per event to stdout.
type ConsoleObserver = net.ConsoleObserver

// New creates a network with the given strategies.
func New(inputSize, outputSize int, loss nn.Loss, optimizer optim.Optimizer, opts ...Option) (*Network, error) {
	return net.New(inputSize, outputSize, loss, optimizer, opts...)
}

// WithBatchSize sets the mini-batch size (default 32).
func WithBatchSize(n int) Option { return net.WithBatchSize(n) }

// WithSeed sets the deterministic weight initialization seed.
func WithSeed(seed int64) Option { return net.WithSeed(seed) }

// WithObserver installs an observer for training events.
func WithObserver(o Observer) Option { return net.WithObserver(o) }

// WithBatchGradientMode selects the batch gradient mode (default
// LastSampleOnly).
func WithBatchGradientMode(m BatchGradientMode) Option {
	return net.WithBatchGradientMode(m)
}

// WithSequentialPrediction forces strictly sequential batch prediction.
func WithSequentialPrediction() Option { return net.WithSequentialPrediction() }
