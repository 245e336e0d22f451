package nn

import (
	"math/big"
	"math/rand"

	"github.com/grain-ml/grain/internal/fixpoint"
)

// Xavier (Glorot) style initialization for fixed-point weights.
//
// The draw is uniform in [-bound, bound] with bound = 1/sqrt(fanIn+fanOut)
// in real terms, which keeps activation variance roughly constant across
// layers. The entropy source is an explicit *rand.Rand seeded by the
// caller, so two networks built with the same seed initialize to
// bit-identical weights; nothing here depends on wall-clock time.
func xavierBound(fanIn, fanOut int) *big.Int {
	root, err := fixpoint.Sqrt(fixpoint.FromInt(int64(fanIn + fanOut)))
	if err != nil || root.Sign() == 0 {
		// fanIn and fanOut are validated positive before this point.
		return fixpoint.Clone(fixpoint.Scale)
	}
	bound, err := fixpoint.Div(fixpoint.Scale, root)
	if err != nil {
		return fixpoint.Clone(fixpoint.Scale)
	}
	return bound
}

// xavierDraw returns one weight in [-bound, bound]. The bound is at most
// 1/sqrt(2) in real terms, so its integer representation fits int64.
func xavierDraw(rng *rand.Rand, bound *big.Int) *big.Int {
	b := bound.Int64()
	if b <= 0 {
		return fixpoint.Zero()
	}
	return big.NewInt(rng.Int63n(2*b+1) - b)
}

// xavierMatrix initializes a rows x cols weight matrix.
func xavierMatrix(rng *rand.Rand, rows, cols int) [][]*big.Int {
	bound := xavierBound(cols, rows)
	m := make([][]*big.Int, rows)
	for i := range m {
		m[i] = make([]*big.Int, cols)
		for j := range m[i] {
			m[i][j] = xavierDraw(rng, bound)
		}
	}
	return m
}

// zeroVector returns a vector of n fixed-point zeros.
func zeroVector(n int) []*big.Int {
	v := make([]*big.Int, n)
	for i := range v {
		v[i] = new(big.Int)
	}
	return v
}
