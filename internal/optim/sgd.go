package optim

import (
	"fmt"
	"math/big"

	"github.com/grain-ml/grain/internal/fixpoint"
	"github.com/grain-ml/grain/internal/nn"
)

// SGD implements stochastic gradient descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity - lr * gradient
//	param = param + velocity
//
// Either way the result is floor-clamped at zero. Velocity is keyed by
// the stable TensorKey and persists across iterations.
type SGD struct {
	momentum   *big.Int
	velocities map[TensorKey][]*big.Int
}

// SGDConfig holds configuration for the SGD strategy.
type SGDConfig struct {
	// Momentum in [0, 1) as a fixed-point value; nil or zero disables
	// the velocity term.
	Momentum *big.Int
}

// NewSGD creates an SGD strategy.
func NewSGD(config SGDConfig) (*SGD, error) {
	momentum := fixpoint.Zero()
	if config.Momentum != nil {
		if config.Momentum.Sign() < 0 || config.Momentum.Cmp(fixpoint.Scale) >= 0 {
			return nil, fmt.Errorf("%w: momentum must be in [0, 1), got %s",
				nn.ErrInvalidArgument, fixpoint.Format(config.Momentum))
		}
		momentum = fixpoint.Clone(config.Momentum)
	}
	return &SGD{
		momentum:   momentum,
		velocities: make(map[TensorKey][]*big.Int),
	}, nil
}

// Name returns "sgd" or "sgd_momentum" depending on configuration.
func (s *SGD) Name() string {
	if s.momentum.Sign() > 0 {
		return "sgd_momentum"
	}
	return "sgd"
}

// Update applies one gradient-descent step to the tensor behind key.
func (s *SGD) Update(key TensorKey, params, grads []*big.Int, lr *big.Int) ([]*big.Int, *big.Int, error) {
	if err := validateUpdate(params, grads, lr); err != nil {
		return nil, nil, err
	}

	magnitude := new(big.Int)
	next := make([]*big.Int, len(params))

	if s.momentum.Sign() == 0 {
		for i, p := range params {
			next[i] = applyDelta(p, fixpoint.Mul(lr, grads[i]), magnitude)
		}
		return next, magnitude, nil
	}

	velocity, ok := s.velocities[key]
	if !ok || len(velocity) != len(params) {
		velocity = zeroVector(len(params))
		s.velocities[key] = velocity
	}

	for i, p := range params {
		// velocity = momentum*velocity - lr*grad
		v := fixpoint.Mul(s.momentum, velocity[i])
		v.Sub(v, fixpoint.Mul(lr, grads[i]))
		velocity[i] = v

		// applyDelta subtracts, so negate the velocity here.
		next[i] = applyDelta(p, new(big.Int).Neg(v), magnitude)
	}
	return next, magnitude, nil
}

// Reset drops all velocity state.
func (s *SGD) Reset() {
	s.velocities = make(map[TensorKey][]*big.Int)
}
