package main

import (
	"encoding/json"
	"math"
	"os"

	"github.com/pkg/errors"

	"neuralnet/internal/nn"
	"neuralnet/pkg/neuralnet"
)

// loadTrainRequestFromConfig reads a JSON object with the keys name,
// network_id, dataset, activation_function, cost_function, learning_rate,
// error_threshold, max_iterations, hidden_layers or layer_sizes,
// logging_interval, seed and shuffle_seed. layer_sizes lists every layer;
// only its hidden entries are used since the dataset fixes the outer ones.
func loadTrainRequestFromConfig(path string) (neuralnet.TrainRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return neuralnet.TrainRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return neuralnet.TrainRequest{}, errors.Wrapf(err, "decode %s", path)
	}

	var req neuralnet.TrainRequest
	c := &configValues{raw: raw}
	if v, ok := configField(c, "name", asString); ok {
		req.Name = v
	}
	if v, ok := configField(c, "network_id", asString); ok {
		req.NetworkID = v
	}
	if v, ok := configField(c, "dataset", asString); ok {
		req.Dataset = v
	}
	if v, ok := configField(c, "activation_function", asString); ok {
		req.Activation = v
	}
	if v, ok := configField(c, "cost_function", asString); ok {
		req.Cost = v
	}
	if v, ok := configField(c, "learning_rate", asFloat64); ok {
		req.LearningRate = &v
	}
	if v, ok := configField(c, "error_threshold", asFloat64); ok {
		req.ErrorThreshold = &v
	}
	if v, ok := configField(c, "max_iterations", asInt); ok {
		req.MaxIterations = &v
	}
	if v, ok := configField(c, "logging_interval", asInt); ok {
		req.LoggingInterval = &v
	}
	if v, ok := configField(c, "seed", asInt64); ok {
		req.Seed = &v
	}
	if v, ok := configField(c, "shuffle_seed", asInt64); ok {
		req.ShuffleSeed = v
	}
	if v, ok := configField(c, "layer_sizes", asIntSlice); ok {
		if len(v) < 2 {
			return neuralnet.TrainRequest{}, errors.Wrapf(nn.ErrInvalidConfiguration, "layer_sizes needs at least an input and an output size, got %v", v)
		}
		req.HiddenLayers = v[1 : len(v)-1]
	}
	if v, ok := configField(c, "hidden_layers", asIntSlice); ok {
		req.HiddenLayers = v
	}
	if c.err != nil {
		return neuralnet.TrainRequest{}, c.err
	}
	return req, nil
}

// configValues holds a decoded config object and the first key whose value
// had the wrong type.
type configValues struct {
	raw map[string]any
	err error
}

// configField converts raw[key] with as. A missing or null key reports
// false; a value as cannot convert records ErrInvalidConfiguration.
func configField[T any](c *configValues, key string, as func(any) (T, bool)) (T, bool) {
	var zero T
	v, present := c.raw[key]
	if !present || v == nil {
		return zero, false
	}
	out, ok := as(v)
	if !ok {
		if c.err == nil {
			c.err = errors.Wrapf(nn.ErrInvalidConfiguration, "%s: unexpected value %v", key, v)
		}
		return zero, false
	}
	return out, true
}

// overrideFromFlags copies every explicitly set flag from flagReq into req.
func overrideFromFlags(req *neuralnet.TrainRequest, flagReq neuralnet.TrainRequest, set map[string]bool) {
	for name := range set {
		switch name {
		case "network-id":
			req.NetworkID = flagReq.NetworkID
		case "name":
			req.Name = flagReq.Name
		case "dataset":
			req.Dataset = flagReq.Dataset
		case "activation":
			req.Activation = flagReq.Activation
		case "cost":
			req.Cost = flagReq.Cost
		case "learning-rate":
			req.LearningRate = flagReq.LearningRate
		case "error-threshold":
			req.ErrorThreshold = flagReq.ErrorThreshold
		case "max-iterations":
			req.MaxIterations = flagReq.MaxIterations
		case "hidden":
			req.HiddenLayers = flagReq.HiddenLayers
		case "log-every":
			req.LoggingInterval = flagReq.LoggingInterval
		case "seed":
			req.Seed = flagReq.Seed
		case "shuffle-seed":
			req.ShuffleSeed = flagReq.ShuffleSeed
		}
	}
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		if !wholeNumber(x) {
			return 0, false
		}
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		if !wholeNumber(x) {
			return 0, false
		}
		return int64(x), true
	default:
		return 0, false
	}
}

// wholeNumber reports whether a decoded JSON number is an exact integer.
func wholeNumber(x float64) bool {
	return x == math.Trunc(x) && math.Abs(x) <= 1<<53
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

func asIntSlice(v any) ([]int, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, ok := asInt(item)
		if !ok {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}
