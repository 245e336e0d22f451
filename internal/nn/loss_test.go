package nn

import (
	"errors"
	"math/big"
	"testing"

	"github.com/grain-ml/grain/internal/fixpoint"
)

// TestSquaredErrorLoss verifies non-negativity and zero-iff-equal.
func TestSquaredErrorLoss(t *testing.T) {
	se := NewSquaredError()

	loss, err := se.Loss(fixpoint.MustParse("0.5"), fixpoint.MustParse("0.5"))
	if err != nil {
		t.Fatalf("Loss failed: %v", err)
	}
	if loss.Sign() != 0 {
		t.Errorf("loss(x, x) = %s, want 0", fixpoint.Format(loss))
	}

	loss, err = se.Loss(fixpoint.FromInt(3), fixpoint.FromInt(1))
	if err != nil {
		t.Fatalf("Loss failed: %v", err)
	}
	if loss.Cmp(fixpoint.FromInt(4)) != 0 {
		t.Errorf("loss(3, 1) = %s, want 4", fixpoint.Format(loss))
	}

	// Symmetric and non-negative.
	a, _ := se.Loss(fixpoint.FromInt(1), fixpoint.FromInt(3))
	if a.Cmp(loss) != 0 {
		t.Errorf("squared error not symmetric: %s vs %s", fixpoint.Format(a), fixpoint.Format(loss))
	}
	if a.Sign() < 0 {
		t.Errorf("squared error negative: %s", fixpoint.Format(a))
	}
}

func TestSquaredErrorGradient(t *testing.T) {
	se := NewSquaredError()

	g, err := se.Gradient(fixpoint.FromInt(3), fixpoint.FromInt(1))
	if err != nil {
		t.Fatalf("Gradient failed: %v", err)
	}
	if g.Cmp(fixpoint.FromInt(4)) != 0 {
		t.Errorf("gradient(3, 1) = %s, want 4", fixpoint.Format(g))
	}

	g, _ = se.Gradient(fixpoint.FromInt(1), fixpoint.FromInt(3))
	if g.Cmp(fixpoint.FromInt(-4)) != 0 {
		t.Errorf("gradient(1, 3) = %s, want -4", fixpoint.Format(g))
	}
}

func TestAbsoluteErrorLoss(t *testing.T) {
	ae := NewAbsoluteError()

	loss, err := ae.Loss(fixpoint.FromInt(-2), fixpoint.FromInt(1))
	if err != nil {
		t.Fatalf("Loss failed: %v", err)
	}
	if loss.Cmp(fixpoint.FromInt(3)) != 0 {
		t.Errorf("loss(-2, 1) = %s, want 3", fixpoint.Format(loss))
	}
	if loss.Sign() < 0 {
		t.Errorf("absolute error negative: %s", fixpoint.Format(loss))
	}
}

// TestAbsoluteErrorGradient verifies the sign gradient including the
// zero sub-gradient at equality.
func TestAbsoluteErrorGradient(t *testing.T) {
	ae := NewAbsoluteError()

	g, _ := ae.Gradient(fixpoint.FromInt(2), fixpoint.FromInt(1))
	if g.Cmp(fixpoint.Scale) != 0 {
		t.Errorf("gradient(2, 1) = %s, want 1", fixpoint.Format(g))
	}

	g, _ = ae.Gradient(fixpoint.FromInt(1), fixpoint.FromInt(2))
	if g.Cmp(fixpoint.Neg(fixpoint.Scale)) != 0 {
		t.Errorf("gradient(1, 2) = %s, want -1", fixpoint.Format(g))
	}

	g, _ = ae.Gradient(fixpoint.FromInt(1), fixpoint.FromInt(1))
	if g.Sign() != 0 {
		t.Errorf("gradient at equality = %s, want 0", fixpoint.Format(g))
	}
}

// TestCrossEntropyRejectsSoftLabels verifies only hard 0/1 targets are
// accepted.
func TestCrossEntropyRejectsSoftLabels(t *testing.T) {
	ce := NewCrossEntropy()

	_, err := ce.Loss(fixpoint.HalfScale, fixpoint.MustParse("0.7"))
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("soft label: got %v, want ErrInvalidArgument", err)
	}
}

// TestCrossEntropyRejectsBadProbability verifies the probability domain
// check maps to the arithmetic-domain error.
func TestCrossEntropyRejectsBadProbability(t *testing.T) {
	ce := NewCrossEntropy()

	_, err := ce.Loss(fixpoint.FromInt(2), fixpoint.Clone(fixpoint.Scale))
	if !errors.Is(err, ErrArithmeticDomain) {
		t.Fatalf("p > 1: got %v, want ErrArithmeticDomain", err)
	}
	_, err = ce.Loss(fixpoint.FromInt(-1), fixpoint.Zero())
	if !errors.Is(err, ErrArithmeticDomain) {
		t.Fatalf("p < 0: got %v, want ErrArithmeticDomain", err)
	}
}

// TestCrossEntropyClipsEndpoints verifies predictions at exactly 0 or 1
// are clipped instead of failing on a logarithm of zero.
func TestCrossEntropyClipsEndpoints(t *testing.T) {
	ce := NewCrossEntropy()

	loss, err := ce.Loss(fixpoint.Zero(), fixpoint.Clone(fixpoint.Scale))
	if err != nil {
		t.Fatalf("Loss at p=0 failed: %v", err)
	}
	// -ln(1e-9) ~ 20.72: confidently wrong, large but finite.
	if loss.Cmp(fixpoint.FromInt(20)) < 0 || loss.Cmp(fixpoint.FromInt(21)) > 0 {
		t.Errorf("loss(0, 1) = %s, want ~20.7", fixpoint.Format(loss))
	}

	loss, err = ce.Loss(fixpoint.Clone(fixpoint.Scale), fixpoint.Zero())
	if err != nil {
		t.Fatalf("Loss at p=1 failed: %v", err)
	}
	if loss.Cmp(fixpoint.FromInt(20)) < 0 || loss.Cmp(fixpoint.FromInt(21)) > 0 {
		t.Errorf("loss(1, 0) = %s, want ~20.7", fixpoint.Format(loss))
	}
}

// TestCrossEntropyGradientSimplified verifies the exposed gradient is
// pred - target, not the exact divided form.
func TestCrossEntropyGradientSimplified(t *testing.T) {
	ce := NewCrossEntropy()

	g, err := ce.Gradient(fixpoint.MustParse("0.8"), fixpoint.Clone(fixpoint.Scale))
	if err != nil {
		t.Fatalf("Gradient failed: %v", err)
	}
	if g.Cmp(fixpoint.MustParse("-0.2")) != 0 {
		t.Errorf("gradient(0.8, 1) = %s, want -0.2", fixpoint.Format(g))
	}
}

// TestBatchLossAggregation verifies sum and mean over a batch.
func TestBatchLossAggregation(t *testing.T) {
	se := NewSquaredError()

	preds := []*big.Int{fixpoint.FromInt(1), fixpoint.FromInt(2)}
	targets := []*big.Int{fixpoint.FromInt(0), fixpoint.FromInt(0)}

	sum, err := se.SumLoss(preds, targets)
	if err != nil {
		t.Fatalf("SumLoss failed: %v", err)
	}
	if sum.Cmp(fixpoint.FromInt(5)) != 0 {
		t.Errorf("sum = %s, want 5", fixpoint.Format(sum))
	}

	mean, err := se.MeanLoss(preds, targets)
	if err != nil {
		t.Fatalf("MeanLoss failed: %v", err)
	}
	if mean.Cmp(fixpoint.MustParse("2.5")) != 0 {
		t.Errorf("mean = %s, want 2.5", fixpoint.Format(mean))
	}
}

// TestBatchLossValidation verifies empty and mismatched batches fail.
func TestBatchLossValidation(t *testing.T) {
	se := NewSquaredError()

	if _, err := se.SumLoss(nil, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty batch: got %v, want ErrInvalidArgument", err)
	}

	preds := []*big.Int{fixpoint.FromInt(1)}
	targets := []*big.Int{fixpoint.FromInt(1), fixpoint.FromInt(2)}
	if _, err := se.SumLoss(preds, targets); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("mismatched batch: got %v, want ErrInvalidArgument", err)
	}
}
