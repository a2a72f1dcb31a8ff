package nn

import (
	"math"
	"slices"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

const (
	CrossEntropy = "CROSS_ENTROPY"
	MSE          = "MSE"
	Binary       = "BINARY"
)

// crossEntropyEpsilon keeps ln away from zero.
const crossEntropyEpsilon = 1e-15

// CostFunc measures how far actual is from expected. Both slices have the
// same length when called through EvaluateCost.
type CostFunc func(expected, actual []float64) float64

type Cost struct {
	Name     string
	Evaluate CostFunc
	// Cancels lists the activations whose derivative cancels against the
	// gradient of this cost at the output layer.
	Cancels []string
}

// OutputDelta returns the error signal of an output neuron trained against
// target. The squash derivative is applied unless the activation is one the
// cost cancels.
func (c Cost) OutputDelta(activation string, target, actual, derivative float64) float64 {
	delta := target - actual
	if slices.Contains(c.Cancels, NormalizeName(activation)) {
		return delta
	}
	return delta * derivative
}

var costs = map[string]Cost{
	CrossEntropy: {Name: CrossEntropy, Evaluate: crossEntropy, Cancels: []string{Sigmoid, Logistic}},
	MSE:          {Name: MSE, Evaluate: meanSquaredError},
	Binary:       {Name: Binary, Evaluate: binaryMisses},
}

func GetCost(name string) (Cost, error) {
	cost, ok := costs[NormalizeName(name)]
	if !ok {
		return Cost{}, errors.Wrapf(ErrUnsupportedCost, "%q", name)
	}
	return cost, nil
}

func HasCost(name string) bool {
	_, ok := costs[NormalizeName(name)]
	return ok
}

func ListCosts() []string {
	names := make([]string, 0, len(costs))
	for name := range costs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EvaluateCost applies the named cost to expected and actual.
func EvaluateCost(name string, expected, actual []float64) (float64, error) {
	cost, err := GetCost(name)
	if err != nil {
		return 0, err
	}
	if len(expected) != len(actual) {
		return 0, errors.Wrapf(ErrDimensionMismatch, "cost %s: expected %d values, got %d", cost.Name, len(expected), len(actual))
	}
	return cost.Evaluate(expected, actual), nil
}

func crossEntropy(expected, actual []float64) float64 {
	sum := 0.0
	for i, y := range expected {
		p := actual[i]
		sum -= y*math.Log(p+crossEntropyEpsilon) + (1-y)*math.Log(1-p+crossEntropyEpsilon)
	}
	return sum
}

func meanSquaredError(expected, actual []float64) float64 {
	if len(expected) == 0 {
		return 0
	}
	d := floats.Distance(expected, actual, 2)
	return d * d / float64(len(expected))
}

// binaryMisses counts positions that land in different 0 / 0.5 / 1 buckets.
func binaryMisses(expected, actual []float64) float64 {
	misses := 0
	for i, y := range expected {
		if math.Floor(y*2+0.5) != math.Floor(actual[i]*2+0.5) {
			misses++
		}
	}
	return float64(misses)
}
