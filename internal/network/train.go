package network

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/pkg/errors"

	"neuralnet/internal/nn"
)

// Sample is one training row.
type Sample struct {
	Input  []float64 `json:"input"`
	Output []float64 `json:"output"`
}

// Progress is handed to the observer every LoggingInterval iterations.
type Progress struct {
	Iteration     int
	MaxIterations int
	Error         float64
}

type Observer func(Progress)

// LogObserver reports progress through logger.
func LogObserver(logger *slog.Logger) Observer {
	return func(p Progress) {
		logger.Info("training progress",
			"iteration", p.Iteration,
			"max_iterations", p.MaxIterations,
			"error", p.Error,
		)
	}
}

// Result describes how a training run ended. Running out of iterations is a
// normal outcome, reported with Converged unset.
type Result struct {
	FinalError float64
	Iterations int
	Converged  bool
	Elapsed    time.Duration
	// History holds the normalized error of every iteration.
	History []float64
}

// Train runs epochs over samples until MaxIterations is reached or the
// epoch error drops to ErrorThreshold. ctx is checked between epochs; on
// cancellation the partial result is returned with ctx.Err().
func (n *Network) Train(ctx context.Context, samples []Sample) (Result, error) {
	if len(samples) == 0 {
		return Result{}, errors.WithStack(nn.ErrEmptyTrainingSet)
	}
	for i, s := range samples {
		if len(s.Input) != n.Input().Size() {
			return Result{}, errors.Wrapf(nn.ErrDimensionMismatch, "sample %d: got %d inputs for %d input neurons", i, len(s.Input), n.Input().Size())
		}
		if len(s.Output) != n.Output().Size() {
			return Result{}, errors.Wrapf(nn.ErrDimensionMismatch, "sample %d: got %d outputs for %d output neurons", i, len(s.Output), n.Output().Size())
		}
	}
	cost, err := n.resolveCost()
	if err != nil {
		return Result{}, err
	}
	if err := n.resolve(); err != nil {
		return Result{}, err
	}

	start := time.Now()
	n.status = StatusActivating
	result := Result{FinalError: math.Inf(1)}
	for result.Iterations < n.opts.MaxIterations && result.FinalError > n.opts.ErrorThreshold {
		if err := ctx.Err(); err != nil {
			n.status = StatusIdle
			result.Elapsed = time.Since(start)
			return result, err
		}
		epochError, err := n.epoch(samples, cost)
		if err != nil {
			n.status = StatusIdle
			return result, err
		}
		result.Iterations++
		result.FinalError = epochError
		result.History = append(result.History, epochError)

		if n.opts.Observer != nil && n.opts.LoggingInterval > 0 && result.Iterations%n.opts.LoggingInterval == 0 {
			n.opts.Observer(Progress{
				Iteration:     result.Iterations,
				MaxIterations: n.opts.MaxIterations,
				Error:         epochError,
			})
		}
	}

	result.Elapsed = time.Since(start)
	result.Converged = result.FinalError <= n.opts.ErrorThreshold
	if result.Converged {
		n.status = StatusConverged
	} else {
		n.status = StatusEpochExhausted
	}
	return result, nil
}

func (n *Network) epoch(samples []Sample, cost nn.Cost) (float64, error) {
	sum := 0.0
	for _, s := range samples {
		output, err := n.activate(s.Input)
		if err != nil {
			return 0, err
		}
		if err := n.propagate(n.opts.LearningRate, s.Output, cost); err != nil {
			return 0, err
		}
		sum += cost.Evaluate(s.Output, output)
	}
	return sum / float64(len(samples)), nil
}
