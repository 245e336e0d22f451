// Copyright 2025 Grain ML Engine. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package fixpoint provides deterministic fixed-point arithmetic.
//
// Every value is a *big.Int holding the real number times Scale (10^18).
// All operations are pure integer arithmetic with truncation toward
// zero, so identical inputs produce bit-identical outputs on every
// platform.
//
// Example:
//
//	half := fixpoint.MustParse("0.5")
//	root, err := fixpoint.Sqrt(half)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(fixpoint.Format(root)) // 0.707106781186547524
package fixpoint

import (
	"math/big"

	"github.com/grain-ml/grain/internal/fixpoint"
)

// Scale is the fixed-point denominator, 10^18. Treat it as read-only.
var Scale = fixpoint.Scale

// HalfScale is 0.5 in fixed-point terms, the binary decision threshold.
var HalfScale = fixpoint.HalfScale

// Arithmetic domain errors. ErrDomain is the root; the specific errors
// wrap it.
var (
	ErrDomain              = fixpoint.ErrDomain
	ErrDivideByZero        = fixpoint.ErrDivideByZero
	ErrSqrtNegative        = fixpoint.ErrSqrtNegative
	ErrLnNonPositive       = fixpoint.ErrLnNonPositive
	ErrUnsupportedExponent = fixpoint.ErrUnsupportedExponent
)

// FromInt converts an integer to its fixed-point representation.
func FromInt(n int64) *big.Int { return fixpoint.FromInt(n) }

// Zero returns a fresh fixed-point zero.
func Zero() *big.Int { return fixpoint.Zero() }

// Clone returns an independent copy of x.
func Clone(x *big.Int) *big.Int { return fixpoint.Clone(x) }

// Mul multiplies two fixed-point values, truncating toward zero.
func Mul(a, b *big.Int) *big.Int { return fixpoint.Mul(a, b) }

// Div divides two fixed-point values, truncating toward zero. Division
// by zero returns ErrDivideByZero.
func Div(a, b *big.Int) (*big.Int, error) { return fixpoint.Div(a, b) }

// Abs returns the absolute value of x.
func Abs(x *big.Int) *big.Int { return fixpoint.Abs(x) }

// Neg returns the negation of x.
func Neg(x *big.Int) *big.Int { return fixpoint.Neg(x) }

// Sqrt computes the square root via Babylonian iteration. Negative
// input returns ErrSqrtNegative.
func Sqrt(x *big.Int) (*big.Int, error) { return fixpoint.Sqrt(x) }

// Exp computes e^x via its Maclaurin series, saturating outside the
// stable band.
func Exp(x *big.Int) *big.Int { return fixpoint.Exp(x) }

// Ln computes the natural logarithm. Non-positive input returns
// ErrLnNonPositive.
func Ln(x *big.Int) (*big.Int, error) { return fixpoint.Ln(x) }

// Pow computes base^exponent for the exactly representable exponents 0,
// 1 and 0.5; anything else returns ErrUnsupportedExponent.
func Pow(base, exponent *big.Int) (*big.Int, error) { return fixpoint.Pow(base, exponent) }

// Parse converts a decimal string such as "-1.25" to fixed point.
func Parse(s string) (*big.Int, error) { return fixpoint.Parse(s) }

// MustParse is Parse that panics on malformed input. For constants.
func MustParse(s string) *big.Int { return fixpoint.MustParse(s) }

// Format renders a fixed-point value as a decimal string.
func Format(x *big.Int) string { return fixpoint.Format(x) }
