package fixpoint

import "math/big"

// Domain bounds for Exp: the Maclaurin series is evaluated only for
// |x| <= 40 in real terms. Inputs past the bounds saturate instead of
// letting the series diverge.
var (
	expMax = FromInt(40)
	expMin = FromInt(-40)
)

// ln(2) in fixed-point representation.
var ln2 = big.NewInt(693_147_180_559_945_309)

// maxSeriesTerms bounds every truncated series. The Exp series at the edge
// of its domain needs roughly 120 terms before they truncate to zero; 200
// leaves headroom without unbounded work on the metered substrate.
const maxSeriesTerms = 200

// Sqrt computes the fixed-point square root of x using Babylonian
// (Newton) iteration, running until the estimate stops decreasing.
//
// Sqrt(0) == 0, and the result is exact whenever x*Scale is a perfect
// square of the integer representation. Negative input is a domain error.
func Sqrt(x *big.Int) (*big.Int, error) {
	if x.Sign() < 0 {
		return nil, ErrSqrtNegative
	}
	if x.Sign() == 0 {
		return new(big.Int), nil
	}

	// sqrt(v/S) * S == isqrt(v*S) for the integer representation v.
	n := new(big.Int).Mul(x, Scale)

	// Initial guess: 2^(ceil(bits/2)), always >= isqrt(n).
	z := new(big.Int).Lsh(big.NewInt(1), uint(n.BitLen()+1)/2)
	next := new(big.Int)
	for {
		// next = (z + n/z) / 2
		next.Quo(n, z)
		next.Add(next, z)
		next.Rsh(next, 1)
		if next.Cmp(z) >= 0 {
			return z, nil
		}
		z.Set(next)
		next = new(big.Int)
	}
}

// Exp computes e^x via a truncated Maclaurin series.
//
// The series is only evaluated for x in [-40, 40] (in real terms). Inputs
// below the domain saturate to 0; inputs above it saturate to Exp(40),
// which serves as the large-value sentinel.
func Exp(x *big.Int) *big.Int {
	if x.Cmp(expMin) < 0 {
		return new(big.Int)
	}
	if x.Cmp(expMax) > 0 {
		x = expMax
	}

	sum := new(big.Int).Set(Scale)
	term := new(big.Int).Set(Scale)
	k := new(big.Int)
	for i := int64(1); i <= maxSeriesTerms; i++ {
		// term *= x / (i * Scale)
		term.Mul(term, x)
		term.Quo(term, Scale)
		term.Quo(term, k.SetInt64(i))
		if term.Sign() == 0 {
			break
		}
		sum.Add(sum, term)
	}
	if sum.Sign() < 0 {
		// Truncation can leave an alternating series a hair below zero
		// for extreme negative inputs; e^x is never negative.
		return new(big.Int)
	}
	return sum
}

// Ln computes the natural logarithm of x for x > 0.
//
// The argument is first reduced into [1, 2) by powers of two, then the
// atanh series ln(y) = 2*(z + z^3/3 + z^5/5 + ...) with z = (y-1)/(y+1)
// is evaluated; the extracted power of two contributes k*ln(2).
func Ln(x *big.Int) (*big.Int, error) {
	if x.Sign() <= 0 {
		return nil, ErrLnNonPositive
	}

	y := new(big.Int).Set(x)
	two := FromInt(2)
	k := int64(0)
	for y.Cmp(two) >= 0 {
		y.Rsh(y, 1)
		k++
	}
	for y.Cmp(Scale) < 0 {
		y.Lsh(y, 1)
		k--
	}

	// z = (y - 1) / (y + 1), z in [0, 1/3) after reduction.
	num := new(big.Int).Sub(y, Scale)
	den := new(big.Int).Add(y, Scale)
	z, err := Div(num, den)
	if err != nil {
		return nil, err
	}
	zsq := Mul(z, z)

	sum := new(big.Int).Set(z)
	p := new(big.Int).Set(z)
	q := new(big.Int)
	for n := int64(3); n <= maxSeriesTerms; n += 2 {
		p.Mul(p, zsq)
		p.Quo(p, Scale)
		if p.Sign() == 0 {
			break
		}
		q.Quo(p, big.NewInt(n))
		sum.Add(sum, q)
	}
	sum.Lsh(sum, 1)

	shift := new(big.Int).Mul(ln2, big.NewInt(k))
	return sum.Add(sum, shift), nil
}

// Pow computes base^exponent for the exactly supported exponents only:
// 0, 1 and 0.5 (in fixed-point terms), returning 1, base and Sqrt(base)
// respectively. Any other exponent is unsupported; callers must not rely
// on general exponentiation.
func Pow(base, exponent *big.Int) (*big.Int, error) {
	switch {
	case exponent.Sign() == 0:
		return new(big.Int).Set(Scale), nil
	case exponent.Cmp(Scale) == 0:
		return new(big.Int).Set(base), nil
	case exponent.Cmp(HalfScale) == 0:
		return Sqrt(base)
	default:
		return nil, ErrUnsupportedExponent
	}
}
