package optim

import (
	"fmt"
	"math/big"

	"github.com/grain-ml/grain/internal/fixpoint"
	"github.com/grain-ml/grain/internal/nn"
)

// Role identifies which parameter tensor of a layer a key refers to.
type Role int

const (
	// RoleWeight is a layer's weight matrix (flattened row-major).
	RoleWeight Role = iota
	// RoleBias is a layer's bias vector.
	RoleBias
)

// String returns the role's identifier.
func (r Role) String() string {
	switch r {
	case RoleWeight:
		return "weight"
	case RoleBias:
		return "bias"
	default:
		return "unknown"
	}
}

// TensorKey is the stable identity of one parameter tensor: the owning
// layer's position in the stack plus the tensor's role. Optimizer state
// looked up through it survives across iterations, which is what makes
// momentum and Adam moments meaningful.
type TensorKey struct {
	Layer int
	Role  Role
}

// Optimizer is the strategy interface converting parameters and their
// gradients into updated parameters.
//
// Update returns the new parameter values (floor-clamped at zero) and
// the update magnitude: the L1 sum of the applied deltas. It never
// mutates the input slices.
type Optimizer interface {
	// Name returns the strategy's identifier, e.g. "adam".
	Name() string

	// Update computes new values for one parameter tensor.
	Update(key TensorKey, params, grads []*big.Int, lr *big.Int) (newParams []*big.Int, magnitude *big.Int, err error)

	// Reset drops all accumulated per-tensor state.
	Reset()
}

// validateUpdate checks the invariants shared by every strategy.
func validateUpdate(params, grads []*big.Int, lr *big.Int) error {
	if len(params) == 0 {
		return fmt.Errorf("%w: empty parameter tensor", nn.ErrInvalidArgument)
	}
	if len(params) != len(grads) {
		return fmt.Errorf("%w: %d parameters vs %d gradients",
			nn.ErrInvalidArgument, len(params), len(grads))
	}
	if lr == nil || lr.Sign() <= 0 {
		return fmt.Errorf("%w: learning rate must be positive", nn.ErrInvalidArgument)
	}
	return nil
}

// applyDelta produces newParam = param - delta floor-clamped at zero and
// adds the actually applied step to the running magnitude.
func applyDelta(param, delta, magnitude *big.Int) *big.Int {
	next := new(big.Int).Sub(param, delta)
	if next.Sign() < 0 {
		next.SetInt64(0)
	}
	applied := new(big.Int).Sub(param, next)
	magnitude.Add(magnitude, applied.Abs(applied))
	return next
}

// zeroVector allocates a vector of n zeros for fresh optimizer state.
func zeroVector(n int) []*big.Int {
	v := make([]*big.Int, n)
	for i := range v {
		v[i] = new(big.Int)
	}
	return v
}

// oneMinus returns 1-x in fixed-point terms.
func oneMinus(x *big.Int) *big.Int {
	return new(big.Int).Sub(fixpoint.Scale, x)
}
