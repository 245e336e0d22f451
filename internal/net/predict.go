package net

import (
	"fmt"
	"math/big"

	"github.com/grain-ml/grain/internal/fixpoint"
	"github.com/grain-ml/grain/internal/nn"
	"github.com/grain-ml/grain/internal/parallel"
)

// applyStack runs the pure forward pass through every layer without
// touching any cached training state, so concurrent calls are safe.
func (nw *Network) applyStack(features []*big.Int) ([]*big.Int, error) {
	out := features
	var err error
	for _, layer := range nw.layers {
		out, err = layer.Apply(out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// validatePredict gates every read-only inference path: the network
// must be trained and own at least one layer, and the feature row must
// match the declared input size.
func (nw *Network) validatePredict(features []*big.Int) error {
	if !nw.trained {
		return nn.ErrNotTrained
	}
	if len(nw.layers) == 0 {
		return fmt.Errorf("%w: network has no layers", nn.ErrInvalidArgument)
	}
	if len(features) != nw.inputSize {
		return fmt.Errorf("%w: got %d features, network takes %d",
			nn.ErrInvalidArgument, len(features), nw.inputSize)
	}
	return nil
}

// Predict returns the network's output for a single feature row. The
// network must have been trained (or loaded via SetParameters) first.
func (nw *Network) Predict(features []*big.Int) (*big.Int, error) {
	if err := nw.validatePredict(features); err != nil {
		return nil, err
	}
	out, err := nw.applyStack(features)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// PredictBatch predicts every row of the batch. Rows are evaluated
// concurrently when the batch is large enough to warrant it; results
// keep the input order either way.
func (nw *Network) PredictBatch(features [][]*big.Int) ([]*big.Int, error) {
	if !nw.trained {
		return nil, nn.ErrNotTrained
	}
	for _, row := range features {
		if err := nw.validatePredict(row); err != nil {
			return nil, err
		}
	}
	results := make([]*big.Int, len(features))
	err := parallel.ForErr(len(features), func(i int) error {
		out, err := nw.applyStack(features[i])
		if err != nil {
			return err
		}
		results[i] = out[0]
		return nil
	}, nw.fanout)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Evaluate scores the network against a labelled dataset, returning the
// thresholded binary accuracy and the mean loss, both in fixed-point.
// Predictions run concurrently; the reduction over per-sample results is
// sequential so the returned values are bit-identical across calls.
func (nw *Network) Evaluate(features [][]*big.Int, labels []*big.Int) (accuracy, meanLoss *big.Int, err error) {
	if !nw.trained {
		return nil, nil, nn.ErrNotTrained
	}
	if len(features) == 0 {
		return nil, nil, fmt.Errorf("%w: empty evaluation set", nn.ErrInvalidArgument)
	}
	if len(features) != len(labels) {
		return nil, nil, fmt.Errorf("%w: %d feature rows vs %d labels",
			nn.ErrInvalidArgument, len(features), len(labels))
	}

	preds, err := nw.PredictBatch(features)
	if err != nil {
		return nil, nil, err
	}

	meanLoss, err = nw.loss.MeanLoss(preds, labels)
	if err != nil {
		return nil, nil, err
	}

	correct := 0
	for i, pred := range preds {
		if binaryHit(pred, labels[i]) {
			correct++
		}
	}
	accuracy = new(big.Int).Mul(fixpoint.Scale, big.NewInt(int64(correct)))
	accuracy.Quo(accuracy, big.NewInt(int64(len(features))))
	return accuracy, meanLoss, nil
}
