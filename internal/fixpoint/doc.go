// Package fixpoint implements the integer-only fixed-point arithmetic kernel
// for the Grain training engine.
//
// Every numeric value in Grain is a signed integer scaled by 10^18 (Scale).
// All arithmetic is exact integer arithmetic over math/big, which makes every
// operation bit-for-bit deterministic across hosts: there is no floating
// point anywhere in the engine.
//
// The transcendental helpers (Exp, Ln, Sqrt) are truncated-series or
// iterative approximations, valid only inside a bounded domain. They are
// deterministic but not exact; callers must tolerate a small relative error
// rather than compare bit-exact values.
package fixpoint
