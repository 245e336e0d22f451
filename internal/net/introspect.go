package net

import (
	"math/big"

	"github.com/grain-ml/grain/internal/fixpoint"
	"github.com/grain-ml/grain/internal/nn"
)

// LayerInfo is a read-only snapshot of one layer.
type LayerInfo struct {
	Kind           nn.Kind
	Name           string
	InputSize      int
	OutputSize     int
	ParameterCount int
}

// ModelInfo is a read-only snapshot of the network's structure.
type ModelInfo struct {
	RunID          string
	InputSize      int
	OutputSize     int
	LayerCount     int
	ParameterCount int
	Loss           string
	Optimizer      string
	BatchSize      int
	GradientMode   BatchGradientMode
	Seed           int64
}

// TrainingStatus is a read-only snapshot of the training bookkeeping.
type TrainingStatus struct {
	Trained      bool
	EarlyStopped bool
	EpochsRun    int
	FinalLoss    *big.Int
	BestLoss     *big.Int
	LearningRate *big.Int
}

func layerInfo(layer nn.Layer) LayerInfo {
	return LayerInfo{
		Kind:           layer.Kind(),
		Name:           layer.Name(),
		InputSize:      layer.InputSize(),
		OutputSize:     layer.OutputSize(),
		ParameterCount: layer.ParameterCount(),
	}
}

// ModelInfo describes the network's composition.
func (nw *Network) ModelInfo() ModelInfo {
	params := 0
	for _, layer := range nw.layers {
		params += layer.ParameterCount()
	}
	return ModelInfo{
		RunID:          nw.runID,
		InputSize:      nw.inputSize,
		OutputSize:     nw.outputSize,
		LayerCount:     len(nw.layers),
		ParameterCount: params,
		Loss:           nw.loss.Name(),
		Optimizer:      nw.optimizer.Name(),
		BatchSize:      nw.batchSize,
		GradientMode:   nw.gradMode,
		Seed:           nw.seed,
	}
}

// Architecture lists one snapshot per layer, in stack order.
func (nw *Network) Architecture() []LayerInfo {
	infos := make([]LayerInfo, len(nw.layers))
	for i, layer := range nw.layers {
		infos[i] = layerInfo(layer)
	}
	return infos
}

// TrainingStatus reports the state of the last (or current) training
// run. The big.Int fields are copies.
func (nw *Network) TrainingStatus() TrainingStatus {
	st := TrainingStatus{
		Trained:      nw.trained,
		EarlyStopped: nw.earlyStopped,
		EpochsRun:    nw.epochsRun,
	}
	if nw.finalLoss != nil {
		st.FinalLoss = fixpoint.Clone(nw.finalLoss)
	}
	if nw.bestLoss != nil {
		st.BestLoss = fixpoint.Clone(nw.bestLoss)
	}
	if nw.learningRate != nil {
		st.LearningRate = fixpoint.Clone(nw.learningRate)
	}
	return st
}

// History returns per-epoch mean loss and accuracy as deep copies, so
// callers cannot disturb the network's bookkeeping.
func (nw *Network) History() (loss, accuracy []*big.Int) {
	return fixpoint.CloneVector(nw.lossHistory), fixpoint.CloneVector(nw.accuracyHistory)
}
