// Package config loads training run definitions from YAML files and
// turns them into ready-to-train networks.
//
// All fixed-point hyperparameters and dataset values are written as
// decimal strings ("0.001"), never as floats, so a run file parses to
// exactly the same integers on every machine.
package config

import (
	"fmt"
	"math/big"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/grain-ml/grain/internal/fixpoint"
	"github.com/grain-ml/grain/internal/net"
	"github.com/grain-ml/grain/internal/nn"
	"github.com/grain-ml/grain/internal/optim"
)

// LayerConfig describes one layer of the stack.
type LayerConfig struct {
	// Type is "dense" or "activation".
	Type string `yaml:"type"`
	// Size is the output size of a dense layer; ignored for activation
	// layers, which inherit the stack tail size.
	Size int `yaml:"size"`
	// Bias enables the bias vector of a dense layer.
	Bias bool `yaml:"bias"`
	// Activation names the activation strategy: relu, sigmoid, softmax.
	Activation string `yaml:"activation"`
}

// OptimizerConfig names the optimizer strategy and its fixed-point
// hyperparameters. Empty strings mean the strategy's defaults.
type OptimizerConfig struct {
	Name     string `yaml:"name"`
	Momentum string `yaml:"momentum"`
	Beta1    string `yaml:"beta1"`
	Beta2    string `yaml:"beta2"`
	Epsilon  string `yaml:"epsilon"`
}

// ModelConfig describes the network architecture and strategies.
type ModelConfig struct {
	InputSize  int             `yaml:"input_size"`
	OutputSize int             `yaml:"output_size"`
	Seed       int64           `yaml:"seed"`
	Layers     []LayerConfig   `yaml:"layers"`
	Loss       string          `yaml:"loss"`
	Optimizer  OptimizerConfig `yaml:"optimizer"`
}

// TrainingConfig describes the training loop hyperparameters.
type TrainingConfig struct {
	Epochs       int    `yaml:"epochs"`
	BatchSize    int    `yaml:"batch_size"`
	LearningRate string `yaml:"learning_rate"`
	// GradientMode is "last_sample_only" (the default) or "averaged".
	GradientMode string `yaml:"gradient_mode"`
}

// DatasetConfig is an inline labelled dataset, one decimal string per
// value.
type DatasetConfig struct {
	Features [][]string `yaml:"features"`
	Labels   []string   `yaml:"labels"`
}

// Config is a complete run definition.
type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Training TrainingConfig `yaml:"training"`
	Dataset  DatasetConfig  `yaml:"dataset"`
}

// Load reads, parses and validates a run file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(raw)
}

// Parse parses and validates a run definition from YAML bytes.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the run definition for structural errors before any
// network is built. All failures wrap nn.ErrInvalidArgument.
func (c *Config) Validate() error {
	m := &c.Model
	if m.InputSize <= 0 || m.OutputSize <= 0 {
		return fmt.Errorf("%w: model sizes must be positive, got %dx%d",
			nn.ErrInvalidArgument, m.InputSize, m.OutputSize)
	}
	if len(m.Layers) == 0 {
		return fmt.Errorf("%w: model needs at least one layer", nn.ErrInvalidArgument)
	}
	for i, layer := range m.Layers {
		switch layer.Type {
		case "dense":
			if layer.Size <= 0 {
				return fmt.Errorf("%w: layer %d: dense size must be positive, got %d",
					nn.ErrInvalidArgument, i, layer.Size)
			}
			if _, err := activationByName(layer.Activation); err != nil {
				return fmt.Errorf("layer %d: %w", i, err)
			}
		case "activation":
			if _, err := activationByName(layer.Activation); err != nil {
				return fmt.Errorf("layer %d: %w", i, err)
			}
		default:
			return fmt.Errorf("%w: layer %d: unknown layer type %q",
				nn.ErrInvalidArgument, i, layer.Type)
		}
	}
	if _, err := lossByName(m.Loss); err != nil {
		return err
	}
	if _, err := c.buildOptimizer(); err != nil {
		return err
	}

	tr := &c.Training
	if tr.Epochs <= 0 {
		return fmt.Errorf("%w: epochs must be positive, got %d",
			nn.ErrInvalidArgument, tr.Epochs)
	}
	if tr.BatchSize < 0 {
		return fmt.Errorf("%w: batch size must not be negative, got %d",
			nn.ErrInvalidArgument, tr.BatchSize)
	}
	if _, err := parseRate(tr.LearningRate); err != nil {
		return err
	}
	if _, err := c.gradientMode(); err != nil {
		return err
	}

	ds := &c.Dataset
	if len(ds.Features) != len(ds.Labels) {
		return fmt.Errorf("%w: %d feature rows vs %d labels",
			nn.ErrInvalidArgument, len(ds.Features), len(ds.Labels))
	}
	for i, row := range ds.Features {
		if len(row) != m.InputSize {
			return fmt.Errorf("%w: feature row %d has %d values, model takes %d",
				nn.ErrInvalidArgument, i, len(row), m.InputSize)
		}
	}
	return nil
}

// Build constructs the network and parses the inline dataset. The
// returned network is untrained.
func (c *Config) Build() (*net.Network, [][]*big.Int, []*big.Int, error) {
	nw, err := c.BuildNetwork()
	if err != nil {
		return nil, nil, nil, err
	}
	features, labels, err := c.BuildDataset()
	if err != nil {
		return nil, nil, nil, err
	}
	return nw, features, labels, nil
}

// BuildNetwork constructs the configured network with all its layers.
func (c *Config) BuildNetwork(opts ...net.Option) (*net.Network, error) {
	loss, err := lossByName(c.Model.Loss)
	if err != nil {
		return nil, err
	}
	opt, err := c.buildOptimizer()
	if err != nil {
		return nil, err
	}
	mode, err := c.gradientMode()
	if err != nil {
		return nil, err
	}

	all := []net.Option{net.WithBatchGradientMode(mode)}
	if c.Model.Seed != 0 {
		all = append(all, net.WithSeed(c.Model.Seed))
	}
	if c.Training.BatchSize > 0 {
		all = append(all, net.WithBatchSize(c.Training.BatchSize))
	}
	all = append(all, opts...)

	nw, err := net.New(c.Model.InputSize, c.Model.OutputSize, loss, opt, all...)
	if err != nil {
		return nil, err
	}
	for _, layer := range c.Model.Layers {
		activation, err := activationByName(layer.Activation)
		if err != nil {
			return nil, err
		}
		switch layer.Type {
		case "dense":
			err = nw.AddDenseLayer(layer.Size, layer.Bias, activation)
		case "activation":
			err = nw.AddActivationLayer(activation)
		}
		if err != nil {
			return nil, err
		}
	}
	return nw, nil
}

// BuildDataset parses the inline dataset into fixed-point values.
func (c *Config) BuildDataset() ([][]*big.Int, []*big.Int, error) {
	features := make([][]*big.Int, len(c.Dataset.Features))
	for i, row := range c.Dataset.Features {
		features[i] = make([]*big.Int, len(row))
		for j, s := range row {
			v, err := fixpoint.Parse(s)
			if err != nil {
				return nil, nil, fmt.Errorf("feature[%d][%d]: %w", i, j, err)
			}
			features[i][j] = v
		}
	}
	labels := make([]*big.Int, len(c.Dataset.Labels))
	for i, s := range c.Dataset.Labels {
		v, err := fixpoint.Parse(s)
		if err != nil {
			return nil, nil, fmt.Errorf("label[%d]: %w", i, err)
		}
		labels[i] = v
	}
	return features, labels, nil
}

// LearningRate parses the configured fixed-point learning rate.
func (c *Config) LearningRate() (*big.Int, error) {
	return parseRate(c.Training.LearningRate)
}

// Epochs returns the configured epoch count.
func (c *Config) Epochs() int { return c.Training.Epochs }

func (c *Config) gradientMode() (net.BatchGradientMode, error) {
	switch c.Training.GradientMode {
	case "", "last_sample_only":
		return net.LastSampleOnly, nil
	case "averaged":
		return net.Averaged, nil
	default:
		return 0, fmt.Errorf("%w: unknown gradient mode %q",
			nn.ErrInvalidArgument, c.Training.GradientMode)
	}
}

func (c *Config) buildOptimizer() (optim.Optimizer, error) {
	o := &c.Model.Optimizer
	switch o.Name {
	case "sgd":
		var cfg optim.SGDConfig
		if o.Momentum != "" {
			m, err := fixpoint.Parse(o.Momentum)
			if err != nil {
				return nil, fmt.Errorf("optimizer momentum: %w", err)
			}
			cfg.Momentum = m
		}
		return optim.NewSGD(cfg)
	case "adam":
		var cfg optim.AdamConfig
		var err error
		if cfg.Beta1, err = parseOptional(o.Beta1, "optimizer beta1"); err != nil {
			return nil, err
		}
		if cfg.Beta2, err = parseOptional(o.Beta2, "optimizer beta2"); err != nil {
			return nil, err
		}
		if cfg.Epsilon, err = parseOptional(o.Epsilon, "optimizer epsilon"); err != nil {
			return nil, err
		}
		return optim.NewAdam(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown optimizer %q", nn.ErrInvalidArgument, o.Name)
	}
}

func parseOptional(s, what string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := fixpoint.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return v, nil
}

func parseRate(s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: missing learning rate", nn.ErrInvalidArgument)
	}
	v, err := fixpoint.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("learning rate: %w", err)
	}
	if v.Sign() <= 0 {
		return nil, fmt.Errorf("%w: learning rate must be positive, got %s",
			nn.ErrInvalidArgument, s)
	}
	return v, nil
}

func activationByName(name string) (nn.Activation, error) {
	switch name {
	case "relu":
		return nn.NewReLU(), nil
	case "sigmoid":
		return nn.NewSigmoid(), nil
	case "softmax":
		return nn.NewSoftmax(), nil
	default:
		return nil, fmt.Errorf("%w: unknown activation %q", nn.ErrInvalidArgument, name)
	}
}

func lossByName(name string) (nn.Loss, error) {
	switch name {
	case "squared_error":
		return nn.NewSquaredError(), nil
	case "absolute_error":
		return nn.NewAbsoluteError(), nil
	case "cross_entropy":
		return nn.NewCrossEntropy(), nil
	default:
		return nil, fmt.Errorf("%w: unknown loss %q", nn.ErrInvalidArgument, name)
	}
}
