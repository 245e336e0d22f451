package fixpoint

import (
	"fmt"
	"math/big"
	"strings"
)

const fracDigits = 18

// Parse converts a decimal string such as "0.001", "-2.5" or "42" into its
// fixed-point representation. At most 18 fractional digits are accepted;
// the integer and fractional parts must be plain decimal digits.
func Parse(s string) (*big.Int, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return nil, fmt.Errorf("parse %q: empty value", s)
	}

	neg := false
	switch raw[0] {
	case '-':
		neg = true
		raw = raw[1:]
	case '+':
		raw = raw[1:]
	}

	intPart := raw
	fracPart := ""
	if i := strings.IndexByte(raw, '.'); i >= 0 {
		intPart, fracPart = raw[:i], raw[i+1:]
	}
	if intPart == "" && fracPart == "" {
		return nil, fmt.Errorf("parse %q: no digits", s)
	}
	if len(fracPart) > fracDigits {
		return nil, fmt.Errorf("parse %q: more than %d fractional digits", s, fracDigits)
	}
	if intPart == "" {
		intPart = "0"
	}

	whole, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return nil, fmt.Errorf("parse %q: invalid integer part", s)
	}
	whole.Mul(whole, Scale)

	if fracPart != "" {
		// Right-pad to 18 digits so "5" means 0.5, not 5e-18.
		padded := fracPart + strings.Repeat("0", fracDigits-len(fracPart))
		frac, ok := new(big.Int).SetString(padded, 10)
		if !ok {
			return nil, fmt.Errorf("parse %q: invalid fractional part", s)
		}
		whole.Add(whole, frac)
	}

	if neg {
		whole.Neg(whole)
	}
	return whole, nil
}

// MustParse is Parse for compile-time-known literals; it panics on error.
func MustParse(s string) *big.Int {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Format renders a fixed-point value as a decimal string, trimming
// trailing fractional zeros. Format(Parse(s)) round-trips for canonical
// inputs.
func Format(x *big.Int) string {
	abs := new(big.Int).Abs(x)
	whole, frac := new(big.Int).QuoRem(abs, Scale, new(big.Int))

	sign := ""
	if x.Sign() < 0 {
		sign = "-"
	}
	if frac.Sign() == 0 {
		return sign + whole.String()
	}

	digits := strings.TrimRight(fmt.Sprintf("%018s", frac.String()), "0")
	return sign + whole.String() + "." + digits
}
