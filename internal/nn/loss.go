package nn

import (
	"fmt"
	"math/big"

	"github.com/grain-ml/grain/internal/fixpoint"
)

// Loss is the strategy interface for per-sample loss functions and their
// gradients with respect to the prediction.
type Loss interface {
	// Name returns the strategy's identifier, e.g. "cross_entropy".
	Name() string

	// Loss computes the per-sample loss.
	Loss(pred, target *big.Int) (*big.Int, error)

	// Gradient computes the signed loss gradient with respect to pred.
	Gradient(pred, target *big.Int) (*big.Int, error)

	// SumLoss computes the total loss over a batch.
	SumLoss(preds, targets []*big.Int) (*big.Int, error)

	// MeanLoss computes the average loss over a batch.
	MeanLoss(preds, targets []*big.Int) (*big.Int, error)

	// Validate checks that pred and target lie in the strategy's input
	// domain before any loss computation touches them.
	Validate(pred, target *big.Int) error
}

// two is the fixed-point constant 2, used by the squared-error gradient.
var two = fixpoint.FromInt(2)

// sumLoss folds Loss over a batch after validating its shape.
func sumLoss(l Loss, preds, targets []*big.Int) (*big.Int, error) {
	if len(preds) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrInvalidArgument)
	}
	if len(preds) != len(targets) {
		return nil, fmt.Errorf("%w: %d predictions vs %d targets",
			ErrInvalidArgument, len(preds), len(targets))
	}
	sum := new(big.Int)
	for i := range preds {
		v, err := l.Loss(preds[i], targets[i])
		if err != nil {
			return nil, err
		}
		sum.Add(sum, v)
	}
	return sum, nil
}

// meanLoss is sumLoss divided by the batch size.
func meanLoss(l Loss, preds, targets []*big.Int) (*big.Int, error) {
	sum, err := sumLoss(l, preds, targets)
	if err != nil {
		return nil, err
	}
	return sum.Quo(sum, big.NewInt(int64(len(preds)))), nil
}

// SquaredError is the squared-error loss: (pred-target)^2.
type SquaredError struct{}

// NewSquaredError creates a squared-error loss strategy.
func NewSquaredError() *SquaredError { return &SquaredError{} }

func (*SquaredError) Name() string { return "squared_error" }

func (*SquaredError) Loss(pred, target *big.Int) (*big.Int, error) {
	diff := new(big.Int).Sub(pred, target)
	return fixpoint.Mul(diff, diff), nil
}

func (*SquaredError) Gradient(pred, target *big.Int) (*big.Int, error) {
	diff := new(big.Int).Sub(pred, target)
	return fixpoint.Mul(two, diff), nil
}

func (s *SquaredError) SumLoss(preds, targets []*big.Int) (*big.Int, error) {
	return sumLoss(s, preds, targets)
}

func (s *SquaredError) MeanLoss(preds, targets []*big.Int) (*big.Int, error) {
	return meanLoss(s, preds, targets)
}

func (*SquaredError) Validate(_, _ *big.Int) error { return nil }

// AbsoluteError is the absolute-error loss: |pred-target|. The
// sub-gradient at pred == target is defined as zero.
type AbsoluteError struct{}

// NewAbsoluteError creates an absolute-error loss strategy.
func NewAbsoluteError() *AbsoluteError { return &AbsoluteError{} }

func (*AbsoluteError) Name() string { return "absolute_error" }

func (*AbsoluteError) Loss(pred, target *big.Int) (*big.Int, error) {
	return fixpoint.Abs(new(big.Int).Sub(pred, target)), nil
}

func (*AbsoluteError) Gradient(pred, target *big.Int) (*big.Int, error) {
	switch new(big.Int).Sub(pred, target).Sign() {
	case 1:
		return fixpoint.Clone(fixpoint.Scale), nil
	case -1:
		return fixpoint.Neg(fixpoint.Scale), nil
	default:
		return fixpoint.Zero(), nil
	}
}

func (a *AbsoluteError) SumLoss(preds, targets []*big.Int) (*big.Int, error) {
	return sumLoss(a, preds, targets)
}

func (a *AbsoluteError) MeanLoss(preds, targets []*big.Int) (*big.Int, error) {
	return meanLoss(a, preds, targets)
}

func (*AbsoluteError) Validate(_, _ *big.Int) error { return nil }

// crossEntropyEpsilon keeps clipped predictions away from 0 and 1 so the
// logarithm never sees a zero argument. 1e-9 in fixed-point terms.
var crossEntropyEpsilon = big.NewInt(1_000_000_000)

// CrossEntropy is the binary cross-entropy loss. Targets must be exactly
// 0 or Scale; soft labels are rejected. The exposed gradient is the
// simplified form pred - target, which trades exactness for numeric
// stability (the exact form divides by pred*(1-pred)).
type CrossEntropy struct{}

// NewCrossEntropy creates a binary cross-entropy loss strategy.
func NewCrossEntropy() *CrossEntropy { return &CrossEntropy{} }

func (*CrossEntropy) Name() string { return "cross_entropy" }

func (*CrossEntropy) Validate(pred, target *big.Int) error {
	if target.Sign() != 0 && target.Cmp(fixpoint.Scale) != 0 {
		return fmt.Errorf("%w: binary cross-entropy target must be 0 or 1, got %s",
			ErrInvalidArgument, fixpoint.Format(target))
	}
	if pred.Sign() < 0 || pred.Cmp(fixpoint.Scale) > 0 {
		return fmt.Errorf("%w: probability %s outside [0, 1]",
			ErrArithmeticDomain, fixpoint.Format(pred))
	}
	return nil
}

func (c *CrossEntropy) Loss(pred, target *big.Int) (*big.Int, error) {
	if err := c.Validate(pred, target); err != nil {
		return nil, err
	}

	// Clip away from the endpoints before the logarithm.
	hi := new(big.Int).Sub(fixpoint.Scale, crossEntropyEpsilon)
	p := fixpoint.Clamp(pred, crossEntropyEpsilon, hi)

	var arg *big.Int
	if target.Sign() == 0 {
		arg = new(big.Int).Sub(fixpoint.Scale, p)
	} else {
		arg = p
	}
	ln, err := fixpoint.Ln(arg)
	if err != nil {
		return nil, err
	}
	return ln.Neg(ln), nil
}

// Gradient returns the simplified gradient pred - target.
func (c *CrossEntropy) Gradient(pred, target *big.Int) (*big.Int, error) {
	if err := c.Validate(pred, target); err != nil {
		return nil, err
	}
	return new(big.Int).Sub(pred, target), nil
}

func (c *CrossEntropy) SumLoss(preds, targets []*big.Int) (*big.Int, error) {
	return sumLoss(c, preds, targets)
}

func (c *CrossEntropy) MeanLoss(preds, targets []*big.Int) (*big.Int, error) {
	return meanLoss(c, preds, targets)
}
