// Package net implements the Network orchestrator of the Grain training
// engine: an ordered stack of layers, the mini-batched training loop
// with early stopping, read-only prediction and evaluation, parameter
// introspection, and observer events.
//
// A Network call runs to completion synchronously; the engine never
// retries and never partially mutates trainable state on failure. The
// only concurrency is the fan-out of independent per-sample read-only
// computations in PredictBatch and Evaluate.
package net
