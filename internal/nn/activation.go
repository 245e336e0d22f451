package nn

import (
	"math/big"

	"github.com/grain-ml/grain/internal/fixpoint"
)

// Activation is the strategy interface for element-wise (and, for
// Softmax, vector-wise) non-linear transforms.
//
// Activate and Derivative operate on single values; the Vector variants
// operate on whole vectors and are the path layers use, because Softmax
// is only meaningful over a full vector. DerivativeFromOutput is the
// cheaper derivative path usable once the activation output is already
// known.
type Activation interface {
	// Name returns the strategy's identifier, e.g. "relu".
	Name() string

	// Activate applies the transform to a single value.
	Activate(x *big.Int) *big.Int

	// ActivateVector applies the transform to a whole vector.
	ActivateVector(xs []*big.Int) []*big.Int

	// Derivative returns d(activate)/dx at x.
	Derivative(x *big.Int) *big.Int

	// DerivativeVector returns the element-wise derivative over xs. For
	// Softmax this is the diagonal Jacobian term only; off-diagonal
	// terms are not modeled.
	DerivativeVector(xs []*big.Int) []*big.Int

	// DerivativeFromOutput returns the derivative computed from the
	// activation output y instead of the input.
	DerivativeFromOutput(y *big.Int) *big.Int

	// Traits reports numerical-stability metadata for this strategy.
	Traits() Traits
}

// Traits describes the shape and stability characteristics of an
// activation strategy.
type Traits struct {
	Monotonic    bool
	Bounded      bool
	Saturating   bool
	ZeroCentered bool

	// StableMin/StableMax bound the input band inside which the strategy
	// computes a real value; outside it, saturated outputs are returned
	// directly. Nil when the domain is unbounded.
	StableMin *big.Int
	StableMax *big.Int
}

// Clamp band for Sigmoid: outside +/-20 the output is indistinguishable
// from 0 or 1 at this scale and the kernel exponential would leave its
// domain.
var (
	sigmoidMax = fixpoint.FromInt(20)
	sigmoidMin = fixpoint.FromInt(-20)
)

// ReLU is the rectifier strategy: activate(x) = max(0, x). Exact, no
// approximation anywhere.
type ReLU struct{}

// NewReLU creates a ReLU activation strategy.
func NewReLU() *ReLU { return &ReLU{} }

func (*ReLU) Name() string { return "relu" }

func (*ReLU) Activate(x *big.Int) *big.Int {
	if x.Sign() > 0 {
		return fixpoint.Clone(x)
	}
	return fixpoint.Zero()
}

func (r *ReLU) ActivateVector(xs []*big.Int) []*big.Int {
	return mapVector(xs, r.Activate)
}

func (*ReLU) Derivative(x *big.Int) *big.Int {
	if x.Sign() > 0 {
		return fixpoint.Clone(fixpoint.Scale)
	}
	return fixpoint.Zero()
}

func (r *ReLU) DerivativeVector(xs []*big.Int) []*big.Int {
	return mapVector(xs, r.Derivative)
}

func (r *ReLU) DerivativeFromOutput(y *big.Int) *big.Int {
	// relu(x) > 0 exactly when x > 0, so the output alone determines
	// the exact derivative.
	return r.Derivative(y)
}

func (*ReLU) Traits() Traits {
	return Traits{Monotonic: true}
}

// Sigmoid is the saturating logistic strategy:
// activate(x) = 1 / (1 + e^-x), clamped to its stable band.
type Sigmoid struct{}

// NewSigmoid creates a Sigmoid activation strategy.
func NewSigmoid() *Sigmoid { return &Sigmoid{} }

func (*Sigmoid) Name() string { return "sigmoid" }

func (*Sigmoid) Activate(x *big.Int) *big.Int {
	if x.Cmp(sigmoidMax) >= 0 {
		return fixpoint.Clone(fixpoint.Scale)
	}
	if x.Cmp(sigmoidMin) <= 0 {
		return fixpoint.Zero()
	}
	denom := new(big.Int).Add(fixpoint.Scale, fixpoint.Exp(fixpoint.Neg(x)))
	out := new(big.Int).Mul(fixpoint.Scale, fixpoint.Scale)
	return out.Quo(out, denom)
}

func (s *Sigmoid) ActivateVector(xs []*big.Int) []*big.Int {
	return mapVector(xs, s.Activate)
}

func (s *Sigmoid) Derivative(x *big.Int) *big.Int {
	return s.DerivativeFromOutput(s.Activate(x))
}

func (s *Sigmoid) DerivativeVector(xs []*big.Int) []*big.Int {
	return mapVector(xs, s.Derivative)
}

// DerivativeFromOutput computes y*(1-y) directly from the activation
// output, skipping the exponential entirely.
func (*Sigmoid) DerivativeFromOutput(y *big.Int) *big.Int {
	return fixpoint.Mul(y, new(big.Int).Sub(fixpoint.Scale, y))
}

func (*Sigmoid) Traits() Traits {
	return Traits{
		Monotonic:  true,
		Bounded:    true,
		Saturating: true,
		StableMin:  fixpoint.Clone(sigmoidMin),
		StableMax:  fixpoint.Clone(sigmoidMax),
	}
}

// Softmax normalizes a vector into a probability distribution. The
// per-element derivative exposed here is only the diagonal Jacobian term
// p*(1-p); a consumer needing the true multi-class gradient must combine
// it with the downstream loss gradient.
type Softmax struct{}

// NewSoftmax creates a Softmax activation strategy.
func NewSoftmax() *Softmax { return &Softmax{} }

func (*Softmax) Name() string { return "softmax" }

// Activate on a single value is the degenerate one-element distribution.
func (*Softmax) Activate(_ *big.Int) *big.Int {
	return fixpoint.Clone(fixpoint.Scale)
}

// ActivateVector computes softmax over the whole vector using the
// max-subtraction trick for stability. If the exponential sum underflows
// to zero the uniform distribution is returned instead.
func (*Softmax) ActivateVector(xs []*big.Int) []*big.Int {
	if len(xs) == 0 {
		return nil
	}

	max := xs[0]
	for _, x := range xs[1:] {
		if x.Cmp(max) > 0 {
			max = x
		}
	}

	exps := make([]*big.Int, len(xs))
	sum := new(big.Int)
	for i, x := range xs {
		exps[i] = fixpoint.Exp(new(big.Int).Sub(x, max))
		sum.Add(sum, exps[i])
	}

	out := make([]*big.Int, len(xs))
	if sum.Sign() == 0 {
		// Every exponential underflowed; fall back to uniform.
		uniform := new(big.Int).Quo(fixpoint.Scale, big.NewInt(int64(len(xs))))
		for i := range out {
			out[i] = new(big.Int).Set(uniform)
		}
		return out
	}

	for i, e := range exps {
		p := new(big.Int).Mul(e, fixpoint.Scale)
		out[i] = p.Quo(p, sum)
	}
	return out
}

func (s *Softmax) Derivative(x *big.Int) *big.Int {
	return s.DerivativeFromOutput(s.Activate(x))
}

func (s *Softmax) DerivativeVector(xs []*big.Int) []*big.Int {
	probs := s.ActivateVector(xs)
	out := make([]*big.Int, len(probs))
	for i, p := range probs {
		out[i] = s.DerivativeFromOutput(p)
	}
	return out
}

// DerivativeFromOutput returns the diagonal Jacobian term p*(1-p).
func (*Softmax) DerivativeFromOutput(y *big.Int) *big.Int {
	return fixpoint.Mul(y, new(big.Int).Sub(fixpoint.Scale, y))
}

func (*Softmax) Traits() Traits {
	return Traits{Bounded: true, Saturating: true}
}

func mapVector(xs []*big.Int, f func(*big.Int) *big.Int) []*big.Int {
	out := make([]*big.Int, len(xs))
	for i, x := range xs {
		out[i] = f(x)
	}
	return out
}
