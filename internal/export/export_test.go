package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuralnet/internal/model"
)

func sampleSnapshot() model.NetworkSnapshot {
	return model.NetworkSnapshot{
		VersionedRecord: model.CurrentVersion(),
		ID:              "net-1",
		Name:            "tiny",
		Options: model.OptionsRecord{
			Activation:   "SIGMOID",
			Cost:         "MSE",
			LearningRate: 0.3,
			LayerSizes:   []int{2, 1, 1},
		},
		Layers: []model.LayerRecord{
			{ID: "l0", Index: 0, Type: "input", Neurons: []model.NeuronRecord{{ID: "a"}, {ID: "b"}}},
			{ID: "l1", Index: 1, Type: "hidden", Neurons: []model.NeuronRecord{{ID: "h", Bias: 0.1}}},
			{ID: "l2", Index: 2, Type: "output", Neurons: []model.NeuronRecord{{ID: "o", Bias: -0.2, Error: 0.05}}},
		},
		Connections: []model.ConnectionRecord{
			{ID: "c1", From: "a", To: "h", Weight: 0.5},
			{ID: "c2", From: "b", To: "h", Weight: -0.5},
			{ID: "c3", From: "h", To: "o", Weight: 1.5},
		},
	}
}

func TestToMapNestsByRole(t *testing.T) {
	view := ToMap(sampleSnapshot())

	assert.Equal(t, "net-1", view["id"])
	assert.Equal(t, "SIGMOID", view["activation_function"])
	layers := view["layers"].(map[string]any)
	require.Contains(t, layers, "input")
	require.Contains(t, layers, "output")
	hidden := layers["hidden"].([]any)
	require.Len(t, hidden, 1)

	h := hidden[0].(map[string]any)["neurons"].(map[string]any)["h"].(map[string]any)
	assert.Equal(t, 0.1, h["bias"])
	connections := h["connections"].(map[string]any)
	incoming := connections["incoming"].(map[string]any)
	assert.Len(t, incoming, 2)
	assert.Equal(t, "a", incoming["c1"].(map[string]any)["from"])
	projected := connections["projected"].(map[string]any)
	assert.Equal(t, "o", projected["c3"].(map[string]any)["to"])

	input := layers["input"].(map[string]any)["neurons"].(map[string]any)["a"].(map[string]any)
	assert.Empty(t, input["connections"].(map[string]any)["incoming"])
}

func TestToMapLabelsLayerActivation(t *testing.T) {
	snapshot := sampleSnapshot()
	snapshot.Layers[1].Activation = "TANH"
	view := ToMap(snapshot)
	layers := view["layers"].(map[string]any)

	hidden := layers["hidden"].([]any)[0].(map[string]any)
	assert.Equal(t, "TANH", hidden["activation_function"])
	h := hidden["neurons"].(map[string]any)["h"].(map[string]any)
	assert.Equal(t, "TANH", h["activation_function"])

	output := layers["output"].(map[string]any)
	assert.Equal(t, "SIGMOID", output["activation_function"])
	o := output["neurons"].(map[string]any)["o"].(map[string]any)
	assert.Equal(t, "SIGMOID", o["activation_function"])
}

func TestToMapEncodesWithoutCycles(t *testing.T) {
	data, err := json.Marshal(ToMap(sampleSnapshot()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"from":"h"`)
}

func TestWriteNetwork(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	path, err := WriteNetwork(dir, sampleSnapshot(), now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "network-2026-03-04T05:06:07_net-1.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "tiny", decoded["name"])
}

func TestWriteNetworkRequiresID(t *testing.T) {
	snapshot := sampleSnapshot()
	snapshot.ID = ""
	_, err := WriteNetwork(t.TempDir(), snapshot, time.Now())
	require.Error(t, err)
}
