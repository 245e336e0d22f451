package optim

import (
	"fmt"
	"math/big"

	"github.com/grain-ml/grain/internal/fixpoint"
	"github.com/grain-ml/grain/internal/nn"
)

// Adam implements adaptive moment estimation.
//
// Update rule per parameter:
//
//	m = beta1*m + (1-beta1)*g
//	v = beta2*v + (1-beta2)*g^2
//	mHat = m / (1 - beta1^t)
//	vHat = v / (1 - beta2^t)
//	param = param - lr * mHat / (sqrt(vHat) + epsilon)
//
// floor-clamped at zero. The moment accumulators and timestep live in a
// per-TensorKey state record that persists across iterations.
//
// Reference: "Adam: A Method for Stochastic Optimization"
// (Kingma & Ba, 2014).
type Adam struct {
	beta1 *big.Int
	beta2 *big.Int
	eps   *big.Int
	state map[TensorKey]*adamState
}

// adamState is the moment record for one parameter tensor.
type adamState struct {
	m, v []*big.Int
	t    int64

	// Running powers beta1^t and beta2^t, advanced once per step so
	// bias correction never recomputes an exponentiation.
	beta1Pow *big.Int
	beta2Pow *big.Int
}

// AdamConfig holds configuration for the Adam strategy. Nil fields take
// the standard defaults (all fixed-point): beta1 0.9, beta2 0.999,
// epsilon 1e-8.
type AdamConfig struct {
	Beta1   *big.Int
	Beta2   *big.Int
	Epsilon *big.Int
}

// DefaultLearningRate is Adam's conventional 0.001 in fixed-point terms.
var DefaultLearningRate = fixpoint.MustParse("0.001")

// NewAdam creates an Adam strategy, filling unset hyperparameters with
// the standard defaults.
func NewAdam(config AdamConfig) (*Adam, error) {
	beta1 := config.Beta1
	if beta1 == nil {
		beta1 = fixpoint.MustParse("0.9")
	}
	beta2 := config.Beta2
	if beta2 == nil {
		beta2 = fixpoint.MustParse("0.999")
	}
	eps := config.Epsilon
	if eps == nil {
		eps = fixpoint.MustParse("0.00000001")
	}

	for _, beta := range []*big.Int{beta1, beta2} {
		if beta.Sign() < 0 || beta.Cmp(fixpoint.Scale) >= 0 {
			return nil, fmt.Errorf("%w: adam beta must be in [0, 1), got %s",
				nn.ErrInvalidArgument, fixpoint.Format(beta))
		}
	}
	if eps.Sign() <= 0 {
		return nil, fmt.Errorf("%w: adam epsilon must be positive", nn.ErrInvalidArgument)
	}

	return &Adam{
		beta1: fixpoint.Clone(beta1),
		beta2: fixpoint.Clone(beta2),
		eps:   fixpoint.Clone(eps),
		state: make(map[TensorKey]*adamState),
	}, nil
}

func (*Adam) Name() string { return "adam" }

// Update applies one Adam step to the tensor behind key.
func (a *Adam) Update(key TensorKey, params, grads []*big.Int, lr *big.Int) ([]*big.Int, *big.Int, error) {
	if err := validateUpdate(params, grads, lr); err != nil {
		return nil, nil, err
	}

	st, ok := a.state[key]
	if !ok || len(st.m) != len(params) {
		st = &adamState{
			m:        zeroVector(len(params)),
			v:        zeroVector(len(params)),
			beta1Pow: fixpoint.Clone(fixpoint.Scale),
			beta2Pow: fixpoint.Clone(fixpoint.Scale),
		}
		a.state[key] = st
	}

	st.t++
	st.beta1Pow = fixpoint.Mul(st.beta1Pow, a.beta1)
	st.beta2Pow = fixpoint.Mul(st.beta2Pow, a.beta2)
	biasCorrection1 := oneMinus(st.beta1Pow)
	biasCorrection2 := oneMinus(st.beta2Pow)

	magnitude := new(big.Int)
	next := make([]*big.Int, len(params))
	for i, p := range params {
		g := grads[i]

		// m = beta1*m + (1-beta1)*g
		m := fixpoint.Mul(a.beta1, st.m[i])
		m.Add(m, fixpoint.Mul(oneMinus(a.beta1), g))
		st.m[i] = m

		// v = beta2*v + (1-beta2)*g^2
		v := fixpoint.Mul(a.beta2, st.v[i])
		v.Add(v, fixpoint.Mul(oneMinus(a.beta2), fixpoint.Mul(g, g)))
		st.v[i] = v

		mHat, err := fixpoint.Div(m, biasCorrection1)
		if err != nil {
			return nil, nil, err
		}
		vHat, err := fixpoint.Div(v, biasCorrection2)
		if err != nil {
			return nil, nil, err
		}

		// v accumulates squared gradients, so vHat is never negative.
		root, err := fixpoint.Sqrt(vHat)
		if err != nil {
			return nil, nil, err
		}
		denom := root.Add(root, a.eps)

		delta, err := fixpoint.Div(fixpoint.Mul(lr, mHat), denom)
		if err != nil {
			return nil, nil, err
		}
		next[i] = applyDelta(p, delta, magnitude)
	}
	return next, magnitude, nil
}

// Timestep returns the iteration count accumulated for key, zero when
// the tensor has never been updated.
func (a *Adam) Timestep(key TensorKey) int64 {
	if st, ok := a.state[key]; ok {
		return st.t
	}
	return 0
}

// Reset drops all moment state and timesteps.
func (a *Adam) Reset() {
	a.state = make(map[TensorKey]*adamState)
}
