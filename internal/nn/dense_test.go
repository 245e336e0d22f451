package nn

import (
	"errors"
	"math/big"
	"math/rand"
	"testing"

	"github.com/grain-ml/grain/internal/fixpoint"
)

func newTestRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

// identityDense builds a dense layer with hand-set weights so arithmetic
// is checkable by hand.
func identityDense(t *testing.T, in, out int, act Activation) *Dense {
	t.Helper()
	d, err := NewDense(in, out, true, act, newTestRand())
	if err != nil {
		t.Fatalf("NewDense failed: %v", err)
	}
	return d
}

func TestDenseForwardShape(t *testing.T) {
	d := identityDense(t, 3, 2, NewReLU())

	out, err := d.Forward([]*big.Int{fixpoint.FromInt(1), fixpoint.FromInt(2), fixpoint.FromInt(3)})
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("Forward output length = %d, want 2", len(out))
	}
}

func TestDenseForwardWrongSize(t *testing.T) {
	d := identityDense(t, 3, 2, NewReLU())

	_, err := d.Forward([]*big.Int{fixpoint.FromInt(1)})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("wrong input size: got %v, want ErrShapeMismatch", err)
	}

	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("error is not a *ShapeError: %v", err)
	}
	if shapeErr.Expected != 3 || shapeErr.Actual != 1 {
		t.Errorf("ShapeError = %+v, want expected 3 actual 1", shapeErr)
	}
}

// TestDenseBackwardBeforeForward verifies the state-machine rule:
// backward is only valid after a forward populated the caches.
func TestDenseBackwardBeforeForward(t *testing.T) {
	d := identityDense(t, 2, 2, NewReLU())

	_, err := d.Backward([]*big.Int{fixpoint.Scale, fixpoint.Scale})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("backward before forward: got %v, want ErrShapeMismatch", err)
	}
}

// TestDenseBackwardAfterReset verifies ResetGradients clears the forward
// caches, making a following backward invalid again.
func TestDenseBackwardAfterReset(t *testing.T) {
	d := identityDense(t, 2, 2, NewReLU())

	if _, err := d.Forward([]*big.Int{fixpoint.FromInt(1), fixpoint.FromInt(1)}); err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	d.ResetGradients()

	_, err := d.Backward([]*big.Int{fixpoint.Scale, fixpoint.Scale})
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("backward after reset: got %v, want ErrShapeMismatch", err)
	}
}

func TestDenseBackwardShape(t *testing.T) {
	d := identityDense(t, 3, 2, NewReLU())

	if _, err := d.Forward([]*big.Int{fixpoint.FromInt(1), fixpoint.FromInt(2), fixpoint.FromInt(3)}); err != nil {
		t.Fatalf("Forward failed: %v", err)
	}

	inGrad, err := d.Backward([]*big.Int{fixpoint.Scale, fixpoint.Scale})
	if err != nil {
		t.Fatalf("Backward failed: %v", err)
	}
	if len(inGrad) != 3 {
		t.Errorf("Backward gradient length = %d, want input size 3", len(inGrad))
	}

	if _, err := d.Backward([]*big.Int{fixpoint.Scale}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("wrong gradient size: got %v, want ErrShapeMismatch", err)
	}
}

// TestDenseForwardArithmetic pins the linear transform on hand-set
// weights: pre[i] = bias[i] + sum_j input[j]*w[i][j].
func TestDenseForwardArithmetic(t *testing.T) {
	d := identityDense(t, 2, 1, NewReLU())
	if err := d.SetWeightVector([]*big.Int{fixpoint.MustParse("0.5"), fixpoint.FromInt(2)}); err != nil {
		t.Fatalf("SetWeightVector failed: %v", err)
	}
	if err := d.SetBiasVector([]*big.Int{fixpoint.FromInt(1)}); err != nil {
		t.Fatalf("SetBiasVector failed: %v", err)
	}

	// 1 + 0.5*4 + 2*3 = 9
	out, err := d.Forward([]*big.Int{fixpoint.FromInt(4), fixpoint.FromInt(3)})
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	if out[0].Cmp(fixpoint.FromInt(9)) != 0 {
		t.Errorf("Forward = %s, want 9", fixpoint.Format(out[0]))
	}
}

// TestDenseBackwardArithmetic pins the gradient formulas on hand-set
// weights with the exact ReLU derivative.
func TestDenseBackwardArithmetic(t *testing.T) {
	d := identityDense(t, 2, 1, NewReLU())
	if err := d.SetWeightVector([]*big.Int{fixpoint.MustParse("0.5"), fixpoint.FromInt(2)}); err != nil {
		t.Fatalf("SetWeightVector failed: %v", err)
	}
	if err := d.SetBiasVector([]*big.Int{fixpoint.Zero()}); err != nil {
		t.Fatalf("SetBiasVector failed: %v", err)
	}

	in := []*big.Int{fixpoint.FromInt(4), fixpoint.FromInt(3)}
	if _, err := d.Forward(in); err != nil {
		t.Fatalf("Forward failed: %v", err)
	}

	// Pre-activation 8 > 0, so ReLU derivative is 1 and the
	// pre-activation gradient equals the output gradient 2.
	inGrad, err := d.Backward([]*big.Int{fixpoint.FromInt(2)})
	if err != nil {
		t.Fatalf("Backward failed: %v", err)
	}

	// inputGrad[j] = preGrad * w[0][j]
	if inGrad[0].Cmp(fixpoint.FromInt(1)) != 0 {
		t.Errorf("inputGrad[0] = %s, want 1", fixpoint.Format(inGrad[0]))
	}
	if inGrad[1].Cmp(fixpoint.FromInt(4)) != 0 {
		t.Errorf("inputGrad[1] = %s, want 4", fixpoint.Format(inGrad[1]))
	}

	// weightGrad[0][j] = preGrad * input[j]
	wg := d.WeightGradientVector()
	if wg[0].Cmp(fixpoint.FromInt(8)) != 0 {
		t.Errorf("weightGrad[0] = %s, want 8", fixpoint.Format(wg[0]))
	}
	if wg[1].Cmp(fixpoint.FromInt(6)) != 0 {
		t.Errorf("weightGrad[1] = %s, want 6", fixpoint.Format(wg[1]))
	}

	// biasGrad = preGrad
	bg := d.BiasGradientVector()
	if bg[0].Cmp(fixpoint.FromInt(2)) != 0 {
		t.Errorf("biasGrad = %s, want 2", fixpoint.Format(bg[0]))
	}
}

// TestDenseGradientReplace verifies replace mode: a second backward
// overwrites the stored gradient, so the stored state reflects only the
// last sample.
func TestDenseGradientReplace(t *testing.T) {
	d := identityDense(t, 1, 1, NewReLU())
	if err := d.SetWeightVector([]*big.Int{fixpoint.Scale}); err != nil {
		t.Fatalf("SetWeightVector failed: %v", err)
	}
	if err := d.SetBiasVector([]*big.Int{fixpoint.Zero()}); err != nil {
		t.Fatalf("SetBiasVector failed: %v", err)
	}

	// Sample 1: input 2, output gradient 1 -> weight gradient 2.
	if _, err := d.Forward([]*big.Int{fixpoint.FromInt(2)}); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Backward([]*big.Int{fixpoint.Scale}); err != nil {
		t.Fatal(err)
	}

	// Sample 2: input 5, output gradient 1 -> weight gradient 5.
	if _, err := d.Forward([]*big.Int{fixpoint.FromInt(5)}); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Backward([]*big.Int{fixpoint.Scale}); err != nil {
		t.Fatal(err)
	}

	wg := d.WeightGradientVector()
	if wg[0].Cmp(fixpoint.FromInt(5)) != 0 {
		t.Errorf("stored gradient = %s, want last sample's 5", fixpoint.Format(wg[0]))
	}
}

// TestDenseGradientAccumulate verifies accumulate mode averages across
// the batch's samples.
func TestDenseGradientAccumulate(t *testing.T) {
	d := identityDense(t, 1, 1, NewReLU())
	d.SetAccumulate(true)
	if err := d.SetWeightVector([]*big.Int{fixpoint.Scale}); err != nil {
		t.Fatal(err)
	}
	if err := d.SetBiasVector([]*big.Int{fixpoint.Zero()}); err != nil {
		t.Fatal(err)
	}

	for _, in := range []int64{2, 6} {
		if _, err := d.Forward([]*big.Int{fixpoint.FromInt(in)}); err != nil {
			t.Fatal(err)
		}
		if _, err := d.Backward([]*big.Int{fixpoint.Scale}); err != nil {
			t.Fatal(err)
		}
	}

	// (2 + 6) / 2 = 4
	wg := d.WeightGradientVector()
	if wg[0].Cmp(fixpoint.FromInt(4)) != 0 {
		t.Errorf("averaged gradient = %s, want 4", fixpoint.Format(wg[0]))
	}
}

// TestDenseInitDeterminism verifies identical seeds produce identical
// weights and different seeds do not.
func TestDenseInitDeterminism(t *testing.T) {
	a, err := NewDense(4, 3, true, NewSigmoid(), rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewDense(4, 3, true, NewSigmoid(), rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatal(err)
	}
	c, err := NewDense(4, 3, true, NewSigmoid(), rand.New(rand.NewSource(8)))
	if err != nil {
		t.Fatal(err)
	}

	wa, wb, wc := a.WeightVector(), b.WeightVector(), c.WeightVector()
	same := true
	differ := false
	for i := range wa {
		if wa[i].Cmp(wb[i]) != 0 {
			same = false
		}
		if wa[i].Cmp(wc[i]) != 0 {
			differ = true
		}
	}
	if !same {
		t.Error("same seed produced different weights")
	}
	if !differ {
		t.Error("different seeds produced identical weights")
	}
}

func TestDenseParameterCount(t *testing.T) {
	withBias := identityDense(t, 3, 2, NewReLU())
	if got := withBias.ParameterCount(); got != 8 {
		t.Errorf("ParameterCount with bias = %d, want 8", got)
	}

	noBias, err := NewDense(3, 2, false, NewReLU(), newTestRand())
	if err != nil {
		t.Fatal(err)
	}
	if got := noBias.ParameterCount(); got != 6 {
		t.Errorf("ParameterCount without bias = %d, want 6", got)
	}
}

// TestActivationLayerContract verifies size preservation, the stateless
// no-parameter contract and backward-before-forward failure.
func TestActivationLayerContract(t *testing.T) {
	layer, err := NewActivationLayer(3, NewReLU())
	if err != nil {
		t.Fatalf("NewActivationLayer failed: %v", err)
	}
	if layer.InputSize() != layer.OutputSize() {
		t.Error("activation layer must preserve size")
	}
	if layer.ParameterCount() != 0 {
		t.Error("activation layer must own no parameters")
	}

	if _, err := layer.Backward([]*big.Int{fixpoint.Scale, fixpoint.Scale, fixpoint.Scale}); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("backward before forward: got %v, want ErrShapeMismatch", err)
	}

	in := []*big.Int{fixpoint.FromInt(-1), fixpoint.Zero(), fixpoint.FromInt(2)}
	out, err := layer.Forward(in)
	if err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	want := []*big.Int{fixpoint.Zero(), fixpoint.Zero(), fixpoint.FromInt(2)}
	for i := range want {
		if out[i].Cmp(want[i]) != 0 {
			t.Errorf("out[%d] = %s, want %s", i, fixpoint.Format(out[i]), fixpoint.Format(want[i]))
		}
	}

	inGrad, err := layer.Backward([]*big.Int{fixpoint.Scale, fixpoint.Scale, fixpoint.Scale})
	if err != nil {
		t.Fatalf("Backward failed: %v", err)
	}
	// ReLU derivative from output: 1 only where the output is positive.
	if inGrad[0].Sign() != 0 || inGrad[1].Sign() != 0 || inGrad[2].Cmp(fixpoint.Scale) != 0 {
		t.Errorf("activation backward = [%s %s %s], want [0 0 1]",
			fixpoint.Format(inGrad[0]), fixpoint.Format(inGrad[1]), fixpoint.Format(inGrad[2]))
	}
}

// TestForwardApplyAgree verifies the stateful and read-only forward
// paths compute identical numbers.
func TestForwardApplyAgree(t *testing.T) {
	d := identityDense(t, 2, 3, NewSigmoid())

	in := []*big.Int{fixpoint.MustParse("0.25"), fixpoint.MustParse("-0.75")}
	fwd, err := d.Forward(in)
	if err != nil {
		t.Fatal(err)
	}
	app, err := d.Apply(in)
	if err != nil {
		t.Fatal(err)
	}
	for i := range fwd {
		if fwd[i].Cmp(app[i]) != 0 {
			t.Errorf("Forward and Apply disagree at %d: %s vs %s",
				i, fixpoint.Format(fwd[i]), fixpoint.Format(app[i]))
		}
	}
}
