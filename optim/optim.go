// Copyright 2025 Grain ML Engine. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides parameter update strategies with deterministic
// per-tensor state.
package optim

import (
	"github.com/grain-ml/grain/internal/optim"
)

// Optimizer is the common interface for all update strategies.
type Optimizer = optim.Optimizer

// TensorKey addresses one parameter tensor's optimizer state.
type TensorKey = optim.TensorKey

// Role distinguishes weight from bias tensors inside a layer.
type Role = optim.Role

const (
	RoleWeight = optim.RoleWeight
	RoleBias   = optim.RoleBias
)

// SGD is stochastic gradient descent with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for the SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates an SGD optimizer.
//
// Example:
//
//	opt, err := optim.NewSGD(optim.SGDConfig{
//	    Momentum: fixpoint.MustParse("0.9"),
//	})
func NewSGD(config SGDConfig) (*SGD, error) {
	return optim.NewSGD(config)
}

// Adam is the adaptive moment estimation optimizer with bias
// correction.
type Adam = optim.Adam

// AdamConfig contains configuration for the Adam optimizer. Nil fields
// take the conventional defaults (0.9, 0.999, 1e-8).
type AdamConfig = optim.AdamConfig

// DefaultLearningRate is Adam's conventional 0.001 in fixed point.
var DefaultLearningRate = optim.DefaultLearningRate

// NewAdam creates an Adam optimizer.
//
// Example:
//
//	opt, err := optim.NewAdam(optim.AdamConfig{})
//	// train with optim.DefaultLearningRate
func NewAdam(config AdamConfig) (*Adam, error) {
	return optim.NewAdam(config)
}
