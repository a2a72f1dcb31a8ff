package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"neuralnet/internal/model"
)

// TimestampLayout is the time format embedded in exported file names.
const TimestampLayout = "2006-01-02T15:04:05"

// ToMap renders the nested view of a network: layers keyed by role, neurons
// keyed by ID, and each neuron's incoming and projected connections keyed by
// connection ID. Connection endpoints are neuron IDs.
func ToMap(snapshot model.NetworkSnapshot) map[string]any {
	incoming := make(map[string]map[string]any)
	projected := make(map[string]map[string]any)
	for _, c := range snapshot.Connections {
		view := map[string]any{
			"id":     c.ID,
			"from":   c.From,
			"to":     c.To,
			"weight": c.Weight,
		}
		if incoming[c.To] == nil {
			incoming[c.To] = make(map[string]any)
		}
		incoming[c.To][c.ID] = view
		if projected[c.From] == nil {
			projected[c.From] = make(map[string]any)
		}
		projected[c.From][c.ID] = view
	}

	layers := map[string]any{
		"config": map[string]any{
			"layer_sizes":      append([]int(nil), snapshot.Options.LayerSizes...),
			"cost_function":    snapshot.Options.Cost,
			"learning_rate":    snapshot.Options.LearningRate,
			"error_threshold":  snapshot.Options.ErrorThreshold,
			"max_iterations":   snapshot.Options.MaxIterations,
			"logging_interval": snapshot.Options.LoggingInterval,
		},
	}
	hidden := make([]any, 0, len(snapshot.Layers))
	for i, layer := range snapshot.Layers {
		activation := layer.Activation
		if activation == "" {
			activation = snapshot.Options.Activation
		}
		view := layerMap(layer, activation, incoming, projected)
		switch i {
		case 0:
			layers["input"] = view
		case len(snapshot.Layers) - 1:
			layers["output"] = view
		default:
			hidden = append(hidden, view)
		}
	}
	layers["hidden"] = hidden

	return map[string]any{
		"id":                  snapshot.ID,
		"name":                snapshot.Name,
		"activation_function": snapshot.Options.Activation,
		"layers":              layers,
	}
}

func layerMap(layer model.LayerRecord, activation string, incoming, projected map[string]map[string]any) map[string]any {
	neurons := make(map[string]any, len(layer.Neurons))
	for _, n := range layer.Neurons {
		neurons[n.ID] = map[string]any{
			"id":                  n.ID,
			"activation_function": activation,
			"old_state":           n.OldState,
			"state":               n.State,
			"activation":          n.Activation,
			"derivative":          n.Derivative,
			"bias":                n.Bias,
			"error":               n.Error,
			"connections": map[string]any{
				"incoming":  orEmpty(incoming[n.ID]),
				"projected": orEmpty(projected[n.ID]),
			},
		}
	}
	return map[string]any{
		"id":                  layer.ID,
		"type":                layer.Type,
		"activation_function": activation,
		"neurons":             neurons,
	}
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// FileName is network-<timestamp>_<id>.json with the timestamp in UTC.
func FileName(id string, now time.Time) string {
	return "network-" + now.UTC().Format(TimestampLayout) + "_" + id + ".json"
}

// WriteNetwork writes the nested view of snapshot into dir and returns the
// path of the new file.
func WriteNetwork(dir string, snapshot model.NetworkSnapshot, now time.Time) (string, error) {
	if snapshot.ID == "" {
		return "", errors.New("network id is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create %s", dir)
	}
	path := filepath.Join(dir, FileName(snapshot.ID, now))
	if err := writeJSON(path, ToMap(snapshot)); err != nil {
		return "", err
	}
	return path, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}
	data = append(data, '\n')
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write %s", path)
}
