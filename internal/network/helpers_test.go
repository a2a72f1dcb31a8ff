package network

import "fmt"

// sequentialIDs returns an IDFunc yielding prefix-1, prefix-2, ...
func sequentialIDs(prefix string) IDFunc {
	next := 0
	return func() string {
		next++
		return fmt.Sprintf("%s-%d", prefix, next)
	}
}

var xorSamples = []Sample{
	{Input: []float64{0, 0}, Output: []float64{0}},
	{Input: []float64{0, 1}, Output: []float64{1}},
	{Input: []float64{1, 0}, Output: []float64{1}},
	{Input: []float64{1, 1}, Output: []float64{0}},
}

func xorOptions() Options {
	opts := DefaultOptions()
	opts.LayerSizes = []int{2, 3, 1}
	opts.Cost = "MSE"
	opts.LearningRate = 0.3
	opts.MaxIterations = 5000
	opts.ErrorThreshold = 0.01
	return opts
}
