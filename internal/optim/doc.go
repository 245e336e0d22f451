// Package optim implements gradient-based parameter-update strategies
// for the Grain training engine.
//
// This package provides:
//   - Optimizer interface: per-tensor update from gradients
//   - SGD: plain and momentum stochastic gradient descent
//   - Adam: adaptive moment estimation with bias correction
//
// Optimizer state (velocity, moment accumulators) is keyed by a stable
// TensorKey of (layer index, tensor role), so the state for a parameter
// tensor persists unconditionally across training iterations. Every
// update floor-clamps the resulting parameters at zero; non-negative
// parameters are a first-class constraint of the engine, not an
// afterthought.
package optim
