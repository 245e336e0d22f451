package net

import (
	"fmt"
	"math/big"

	"github.com/grain-ml/grain/internal/fixpoint"
)

// Observer receives side-channel training signals. Implementations must
// be cheap: every hook runs synchronously inside the training loop.
type Observer interface {
	// LayerAdded fires when a layer is appended to the stack.
	LayerAdded(info LayerInfo)

	// NetworkInitialized fires once the constructor finishes.
	NetworkInitialized(info ModelInfo)

	// TrainingStarted fires at the top of Train after validation.
	TrainingStarted(runID string, samples, epochs int)

	// EpochCompleted fires after every epoch with its average loss and
	// accuracy.
	EpochCompleted(epoch int, loss, accuracy *big.Int)

	// BackwardCompleted fires after each sample's backward pass with
	// the L1 magnitude of the gradient that reached the input layer.
	BackwardCompleted(gradientMagnitude *big.Int)

	// ParametersUpdated fires per layer after each batch update with
	// the layer's parameter count and the L1 magnitude of the applied
	// update.
	ParametersUpdated(layer int, parameterCount int, updateMagnitude *big.Int)

	// TrainingCompleted fires when Train returns successfully,
	// including after an early stop.
	TrainingCompleted(result TrainResult)
}

// NopObserver discards every event. It is the default observer.
type NopObserver struct{}

func (NopObserver) LayerAdded(LayerInfo)                   {}
func (NopObserver) NetworkInitialized(ModelInfo)           {}
func (NopObserver) TrainingStarted(string, int, int)       {}
func (NopObserver) EpochCompleted(int, *big.Int, *big.Int) {}
func (NopObserver) BackwardCompleted(*big.Int)             {}
func (NopObserver) ParametersUpdated(int, int, *big.Int)   {}
func (NopObserver) TrainingCompleted(TrainResult)          {}

// ConsoleObserver prints a line per event to stdout. With Verbose off,
// per-sample and per-layer events are suppressed and only run- and
// epoch-level lines are printed.
type ConsoleObserver struct {
	Verbose bool
}

func (o *ConsoleObserver) LayerAdded(info LayerInfo) {
	fmt.Printf("[net] layer added: %s (%d params)\n", info.Name, info.ParameterCount)
}

func (o *ConsoleObserver) NetworkInitialized(info ModelInfo) {
	fmt.Printf("[net] initialized: run=%s layers=%d params=%d loss=%s optimizer=%s\n",
		info.RunID, info.LayerCount, info.ParameterCount, info.Loss, info.Optimizer)
}

func (o *ConsoleObserver) TrainingStarted(runID string, samples, epochs int) {
	fmt.Printf("[net] training started: run=%s samples=%d epochs=%d\n", runID, samples, epochs)
}

func (o *ConsoleObserver) EpochCompleted(epoch int, loss, accuracy *big.Int) {
	fmt.Printf("[net] epoch %d: loss=%s accuracy=%s\n",
		epoch, fixpoint.Format(loss), fixpoint.Format(accuracy))
}

func (o *ConsoleObserver) BackwardCompleted(gradientMagnitude *big.Int) {
	if o.Verbose {
		fmt.Printf("[net] backward: |grad|=%s\n", fixpoint.Format(gradientMagnitude))
	}
}

func (o *ConsoleObserver) ParametersUpdated(layer, parameterCount int, updateMagnitude *big.Int) {
	if o.Verbose {
		fmt.Printf("[net] layer %d updated: params=%d |step|=%s\n",
			layer, parameterCount, fixpoint.Format(updateMagnitude))
	}
}

func (o *ConsoleObserver) TrainingCompleted(result TrainResult) {
	fmt.Printf("[net] training completed: epochs=%d loss=%s earlyStopped=%v\n",
		result.EpochsRun, fixpoint.Format(result.FinalLoss), result.EarlyStopped)
}
