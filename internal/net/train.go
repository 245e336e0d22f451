package net

import (
	"fmt"
	"math/big"

	"github.com/grain-ml/grain/internal/fixpoint"
	"github.com/grain-ml/grain/internal/nn"
	"github.com/grain-ml/grain/internal/optim"
)

// BatchGradientMode selects how the per-sample gradients of a mini-batch
// combine into the batch's parameter update.
type BatchGradientMode int

const (
	// LastSampleOnly replaces the stored gradient on every backward
	// pass, so the update after a batch is driven entirely by the
	// batch's final sample. This reproduces the original engine's
	// behavior literally and is the default.
	LastSampleOnly BatchGradientMode = iota

	// Averaged accumulates gradients across the batch's samples and
	// divides by the sample count at update time.
	Averaged
)

// String returns the mode's identifier.
func (m BatchGradientMode) String() string {
	switch m {
	case LastSampleOnly:
		return "last_sample_only"
	case Averaged:
		return "averaged"
	default:
		return "unknown"
	}
}

// earlyStopMinEpochs is the number of epochs that must complete before
// the divergence check may halt training.
const earlyStopMinEpochs = 10

// TrainResult reports the outcome of a Train call.
type TrainResult struct {
	Success      bool
	FinalLoss    *big.Int
	EpochsRun    int
	EarlyStopped bool
}

// Train runs mini-batched gradient descent over the dataset.
//
// features is one row per sample, labels one value per sample (the
// engine trains single-output networks). Per epoch the loop walks
// mini-batches of the configured batch size; per batch it resets all
// layer gradients, runs forward -> loss -> backward per sample, then
// applies one parameter update per layer. After epoch 10, training halts
// early when an epoch's average loss exceeds twice the best seen so far.
func (nw *Network) Train(features [][]*big.Int, labels []*big.Int, epochs int, learningRate *big.Int) (*TrainResult, error) {
	if err := nw.validateTrain(features, labels, epochs, learningRate); err != nil {
		return nil, err
	}

	for _, layer := range nw.layers {
		if d, ok := layer.(*nn.Dense); ok {
			d.SetAccumulate(nw.gradMode == Averaged)
		}
	}
	nw.learningRate = fixpoint.Clone(learningRate)
	nw.observer.TrainingStarted(nw.runID, len(features), epochs)

	samples := len(features)
	var epochLoss *big.Int
	for epoch := 1; epoch <= epochs; epoch++ {
		epochLossSum := new(big.Int)
		correct := 0

		for start := 0; start < samples; start += nw.batchSize {
			end := start + nw.batchSize
			if end > samples {
				end = samples
			}

			for _, layer := range nw.layers {
				layer.ResetGradients()
			}

			for i := start; i < end; i++ {
				sampleLoss, hit, err := nw.trainSample(features[i], labels[i])
				if err != nil {
					return nil, err
				}
				epochLossSum.Add(epochLossSum, sampleLoss)
				if hit {
					correct++
				}
			}

			if err := nw.updateParameters(learningRate); err != nil {
				return nil, err
			}
		}

		epochLoss = new(big.Int).Quo(epochLossSum, big.NewInt(int64(samples)))
		accuracy := new(big.Int).Mul(fixpoint.Scale, big.NewInt(int64(correct)))
		accuracy.Quo(accuracy, big.NewInt(int64(samples)))

		nw.lossHistory = append(nw.lossHistory, fixpoint.Clone(epochLoss))
		nw.accuracyHistory = append(nw.accuracyHistory, accuracy)
		nw.epochsRun++
		nw.observer.EpochCompleted(epoch, epochLoss, accuracy)

		if nw.bestLoss == nil || epochLoss.Cmp(nw.bestLoss) < 0 {
			nw.bestLoss = fixpoint.Clone(epochLoss)
		} else if epoch > earlyStopMinEpochs {
			doubled := new(big.Int).Lsh(nw.bestLoss, 1)
			if epochLoss.Cmp(doubled) > 0 {
				nw.earlyStopped = true
				break
			}
		}
	}

	nw.trained = true
	nw.finalLoss = fixpoint.Clone(epochLoss)
	result := TrainResult{
		Success:      true,
		FinalLoss:    fixpoint.Clone(epochLoss),
		EpochsRun:    nw.epochsRun,
		EarlyStopped: nw.earlyStopped,
	}
	nw.observer.TrainingCompleted(result)
	return &result, nil
}

// trainSample runs one sample through forward, loss and backward,
// returning its loss and whether the thresholded prediction matched the
// thresholded label.
func (nw *Network) trainSample(features []*big.Int, label *big.Int) (*big.Int, bool, error) {
	out := features
	var err error
	for _, layer := range nw.layers {
		out, err = layer.Forward(out)
		if err != nil {
			return nil, false, err
		}
	}
	pred := out[0]

	sampleLoss, err := nw.loss.Loss(pred, label)
	if err != nil {
		return nil, false, err
	}
	grad, err := nw.loss.Gradient(pred, label)
	if err != nil {
		return nil, false, err
	}

	gradVec := []*big.Int{grad}
	for i := len(nw.layers) - 1; i >= 0; i-- {
		gradVec, err = nw.layers[i].Backward(gradVec)
		if err != nil {
			return nil, false, err
		}
	}
	nw.observer.BackwardCompleted(magnitudeL1(gradVec))

	return sampleLoss, binaryHit(pred, label), nil
}

// binaryHit applies the single-output binary-classification convention:
// prediction and label are each thresholded at 0.5 and compared.
func binaryHit(pred, label *big.Int) bool {
	return (pred.Cmp(fixpoint.HalfScale) >= 0) == (label.Cmp(fixpoint.HalfScale) >= 0)
}

// updateParameters applies one optimizer step per dense layer, weights
// first then bias, each through its stable tensor key.
func (nw *Network) updateParameters(learningRate *big.Int) error {
	for idx, layer := range nw.layers {
		d, ok := layer.(*nn.Dense)
		if !ok || !d.HasGradients() {
			continue
		}

		newWeights, magnitude, err := nw.optimizer.Update(
			optim.TensorKey{Layer: idx, Role: optim.RoleWeight},
			d.WeightVector(), d.WeightGradientVector(), learningRate)
		if err != nil {
			return err
		}
		if err := d.SetWeightVector(newWeights); err != nil {
			return err
		}

		if d.HasBias() {
			newBias, biasMagnitude, err := nw.optimizer.Update(
				optim.TensorKey{Layer: idx, Role: optim.RoleBias},
				d.BiasVector(), d.BiasGradientVector(), learningRate)
			if err != nil {
				return err
			}
			if err := d.SetBiasVector(newBias); err != nil {
				return err
			}
			magnitude.Add(magnitude, biasMagnitude)
		}

		nw.observer.ParametersUpdated(idx, d.ParameterCount(), magnitude)
	}
	return nil
}

func (nw *Network) validateTrain(features [][]*big.Int, labels []*big.Int, epochs int, learningRate *big.Int) error {
	if len(features) == 0 {
		return fmt.Errorf("%w: empty feature set", nn.ErrInvalidArgument)
	}
	if len(features) != len(labels) {
		return fmt.Errorf("%w: %d feature rows vs %d labels",
			nn.ErrInvalidArgument, len(features), len(labels))
	}
	if epochs <= 0 {
		return fmt.Errorf("%w: epochs must be positive, got %d", nn.ErrInvalidArgument, epochs)
	}
	if learningRate == nil || learningRate.Sign() <= 0 {
		return fmt.Errorf("%w: learning rate must be positive", nn.ErrInvalidArgument)
	}
	if len(nw.layers) == 0 {
		return fmt.Errorf("%w: network has no layers", nn.ErrInvalidArgument)
	}
	if nw.stackOutputSize() != nw.outputSize {
		return fmt.Errorf("%w: layer stack produces %d outputs, network declares %d",
			nn.ErrInvalidArgument, nw.stackOutputSize(), nw.outputSize)
	}
	if nw.outputSize != 1 {
		return fmt.Errorf("%w: training is defined for single-output networks only",
			nn.ErrUnsupported)
	}
	return nil
}
