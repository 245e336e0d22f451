package fixpoint

import (
	"errors"
	"fmt"
	"math/big"
)

// Scale is the fixed-point scale factor: every value represents a real
// number multiplied by 10^18.
var Scale = big.NewInt(1_000_000_000_000_000_000)

// HalfScale is 0.5 in fixed-point representation.
var HalfScale = big.NewInt(500_000_000_000_000_000)

// Arithmetic domain errors. ErrDomain is the root of the taxonomy; the
// specific errors below all wrap it, so errors.Is(err, ErrDomain) matches
// any domain violation.
var (
	ErrDomain              = errors.New("arithmetic domain violation")
	ErrDivideByZero        = fmt.Errorf("%w: division by zero", ErrDomain)
	ErrSqrtNegative        = fmt.Errorf("%w: square root of negative value", ErrDomain)
	ErrLnNonPositive       = fmt.Errorf("%w: logarithm of non-positive value", ErrDomain)
	ErrUnsupportedExponent = errors.New("unsupported exponent: only 0, 1 and 0.5 are exact")
)

// FromInt converts a plain integer to its fixed-point representation.
func FromInt(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), Scale)
}

// Zero returns a fresh fixed-point zero.
func Zero() *big.Int {
	return new(big.Int)
}

// Clone returns an independent copy of x.
func Clone(x *big.Int) *big.Int {
	return new(big.Int).Set(x)
}

// CloneVector returns an independent deep copy of xs.
func CloneVector(xs []*big.Int) []*big.Int {
	out := make([]*big.Int, len(xs))
	for i, x := range xs {
		out[i] = new(big.Int).Set(x)
	}
	return out
}

// Mul multiplies two fixed-point values, rescaling the double-scaled
// product back down by Scale. Truncation is toward zero.
func Mul(a, b *big.Int) *big.Int {
	p := new(big.Int).Mul(a, b)
	return p.Quo(p, Scale)
}

// Div divides two fixed-point values, rescaling the numerator up by Scale
// before the integer division. Dividing by zero is a domain error.
func Div(a, b *big.Int) (*big.Int, error) {
	if b.Sign() == 0 {
		return nil, ErrDivideByZero
	}
	p := new(big.Int).Mul(a, Scale)
	return p.Quo(p, b), nil
}

// Abs returns |x| as a fresh value.
func Abs(x *big.Int) *big.Int {
	return new(big.Int).Abs(x)
}

// Neg returns -x as a fresh value.
func Neg(x *big.Int) *big.Int {
	return new(big.Int).Neg(x)
}

// Clamp limits x to the closed interval [lo, hi], returning a fresh value.
func Clamp(x, lo, hi *big.Int) *big.Int {
	if x.Cmp(lo) < 0 {
		return new(big.Int).Set(lo)
	}
	if x.Cmp(hi) > 0 {
		return new(big.Int).Set(hi)
	}
	return new(big.Int).Set(x)
}

// ClampFloor limits x to be at least lo, returning a fresh value.
func ClampFloor(x, lo *big.Int) *big.Int {
	if x.Cmp(lo) < 0 {
		return new(big.Int).Set(lo)
	}
	return new(big.Int).Set(x)
}
