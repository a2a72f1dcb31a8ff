package network

import (
	"math"
	"strings"

	"github.com/pkg/errors"

	"neuralnet/internal/model"
	"neuralnet/internal/nn"
)

// Options configures a network and its training loop.
type Options struct {
	Name       string
	Activation string
	Cost       string

	LearningRate   float64
	ErrorThreshold float64
	MaxIterations  int

	// LayerSizes lists neuron counts from the input layer to the output layer.
	LayerSizes []int

	// LoggingInterval is the observer cadence in iterations; 0 disables it.
	LoggingInterval int
	Observer        Observer

	Seed  int64
	NewID IDFunc
}

func DefaultOptions() Options {
	return Options{
		Activation:     nn.Sigmoid,
		Cost:           nn.CrossEntropy,
		LearningRate:   0.1,
		ErrorThreshold: 0.005,
		MaxIterations:  1000,
		LayerSizes:     []int{2, 5, 5, 1},
		Seed:           1,
	}
}

// Validate checks the shape of the options. Activation and cost names are
// only resolved when the network first needs them.
func (o Options) Validate() error {
	if strings.TrimSpace(o.Activation) == "" {
		return errors.Wrap(nn.ErrInvalidConfiguration, "activation function is required")
	}
	if strings.TrimSpace(o.Cost) == "" {
		return errors.Wrap(nn.ErrInvalidConfiguration, "cost function is required")
	}
	if math.IsNaN(o.LearningRate) || math.IsInf(o.LearningRate, 0) || o.LearningRate <= 0 {
		return errors.Wrapf(nn.ErrInvalidConfiguration, "learning rate must be a positive number, got %v", o.LearningRate)
	}
	if math.IsNaN(o.ErrorThreshold) || o.ErrorThreshold < 0 {
		return errors.Wrapf(nn.ErrInvalidConfiguration, "error threshold must be >= 0, got %v", o.ErrorThreshold)
	}
	if o.MaxIterations <= 0 {
		return errors.Wrapf(nn.ErrInvalidConfiguration, "max iterations must be > 0, got %d", o.MaxIterations)
	}
	if o.LoggingInterval < 0 {
		return errors.Wrapf(nn.ErrInvalidConfiguration, "logging interval must be >= 0, got %d", o.LoggingInterval)
	}
	return validateLayerSizes(o.LayerSizes)
}

func validateLayerSizes(sizes []int) error {
	if len(sizes) < 2 {
		return errors.Wrapf(nn.ErrInvalidConfiguration, "need at least an input and an output layer, got %d layer sizes", len(sizes))
	}
	for i, size := range sizes {
		if size < 1 {
			return errors.Wrapf(nn.ErrInvalidConfiguration, "layer %d size must be >= 1, got %d", i, size)
		}
	}
	return nil
}

func (o Options) record() model.OptionsRecord {
	return model.OptionsRecord{
		Activation:      o.Activation,
		Cost:            o.Cost,
		LearningRate:    o.LearningRate,
		ErrorThreshold:  o.ErrorThreshold,
		MaxIterations:   o.MaxIterations,
		LayerSizes:      append([]int(nil), o.LayerSizes...),
		LoggingInterval: o.LoggingInterval,
		Seed:            o.Seed,
	}
}

func optionsFromRecord(name string, r model.OptionsRecord) Options {
	return Options{
		Name:            name,
		Activation:      r.Activation,
		Cost:            r.Cost,
		LearningRate:    r.LearningRate,
		ErrorThreshold:  r.ErrorThreshold,
		MaxIterations:   r.MaxIterations,
		LayerSizes:      append([]int(nil), r.LayerSizes...),
		LoggingInterval: r.LoggingInterval,
		Seed:            r.Seed,
	}
}
