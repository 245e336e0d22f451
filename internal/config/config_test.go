package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grain-ml/grain/internal/config"
	"github.com/grain-ml/grain/internal/fixpoint"
	"github.com/grain-ml/grain/internal/net"
	"github.com/grain-ml/grain/internal/nn"
)

const xorRun = `
model:
  input_size: 2
  output_size: 1
  seed: 7
  layers:
    - type: dense
      size: 4
      bias: true
      activation: sigmoid
    - type: dense
      size: 1
      bias: true
      activation: sigmoid
  loss: cross_entropy
  optimizer:
    name: adam
    beta1: "0.9"
    beta2: "0.999"
training:
  epochs: 25
  batch_size: 4
  learning_rate: "0.05"
  gradient_mode: averaged
dataset:
  features:
    - ["0", "0"]
    - ["0", "1"]
    - ["1", "0"]
    - ["1", "1"]
  labels: ["0", "1", "1", "0"]
`

func TestParseFullRun(t *testing.T) {
	cfg, err := config.Parse([]byte(xorRun))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Model.InputSize)
	assert.Equal(t, "cross_entropy", cfg.Model.Loss)
	assert.Equal(t, "adam", cfg.Model.Optimizer.Name)
	assert.Equal(t, 25, cfg.Epochs())

	lr, err := cfg.LearningRate()
	require.NoError(t, err)
	assert.Equal(t, 0, lr.Cmp(fixpoint.MustParse("0.05")))
}

func TestBuildAndTrainFromConfig(t *testing.T) {
	cfg, err := config.Parse([]byte(xorRun))
	require.NoError(t, err)

	nw, features, labels, err := cfg.Build()
	require.NoError(t, err)
	require.Len(t, features, 4)
	require.Len(t, labels, 4)

	info := nw.ModelInfo()
	assert.Equal(t, 2, info.LayerCount)
	assert.Equal(t, "adam", info.Optimizer)
	assert.Equal(t, net.Averaged, info.GradientMode)
	assert.Equal(t, int64(7), info.Seed)
	assert.Equal(t, 4, info.BatchSize)

	lr, err := cfg.LearningRate()
	require.NoError(t, err)
	res, err := nw.Train(features, labels, cfg.Epochs(), lr)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NotNil(t, res.FinalLoss)
	assert.LessOrEqual(t, res.EpochsRun, 25)
}

func TestBuildIsDeterministicAcrossCalls(t *testing.T) {
	cfg, err := config.Parse([]byte(xorRun))
	require.NoError(t, err)

	a, err := cfg.BuildNetwork()
	require.NoError(t, err)
	b, err := cfg.BuildNetwork()
	require.NoError(t, err)

	pa := a.Parameters()
	pb := b.Parameters()
	require.Len(t, pb, len(pa))
	for i := range pa {
		assert.Equal(t, 0, pa[i].Cmp(pb[i]), "initial parameter %d", i)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(xorRun), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Model.InputSize)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidationRejections(t *testing.T) {
	mutate := func(t *testing.T, f func(*config.Config)) error {
		t.Helper()
		cfg, err := config.Parse([]byte(xorRun))
		require.NoError(t, err)
		f(cfg)
		return cfg.Validate()
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero input size", func(c *config.Config) { c.Model.InputSize = 0 }},
		{"no layers", func(c *config.Config) { c.Model.Layers = nil }},
		{"unknown layer type", func(c *config.Config) { c.Model.Layers[0].Type = "conv" }},
		{"unknown activation", func(c *config.Config) { c.Model.Layers[0].Activation = "tanh" }},
		{"dense without size", func(c *config.Config) { c.Model.Layers[0].Size = 0 }},
		{"unknown loss", func(c *config.Config) { c.Model.Loss = "hinge" }},
		{"unknown optimizer", func(c *config.Config) { c.Model.Optimizer.Name = "rmsprop" }},
		{"zero epochs", func(c *config.Config) { c.Training.Epochs = 0 }},
		{"missing learning rate", func(c *config.Config) { c.Training.LearningRate = "" }},
		{"negative learning rate", func(c *config.Config) { c.Training.LearningRate = "-0.1" }},
		{"bad gradient mode", func(c *config.Config) { c.Training.GradientMode = "summed" }},
		{"dataset length mismatch", func(c *config.Config) { c.Dataset.Labels = c.Dataset.Labels[:3] }},
		{"short feature row", func(c *config.Config) { c.Dataset.Features[0] = []string{"0"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mutate(t, tt.mutate)
			assert.ErrorIs(t, err, nn.ErrInvalidArgument)
		})
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := config.Parse([]byte("model: [not a mapping"))
	assert.Error(t, err)
}
