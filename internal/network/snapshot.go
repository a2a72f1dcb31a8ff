package network

import (
	"github.com/pkg/errors"

	"neuralnet/internal/model"
	"neuralnet/internal/nn"
)

// Snapshot walks the arena once and returns a flat record of the network.
// Connections refer to their endpoints by neuron ID.
func (n *Network) Snapshot() model.NetworkSnapshot {
	last := len(n.layers) - 1
	snapshot := model.NetworkSnapshot{
		VersionedRecord: model.CurrentVersion(),
		ID:              n.ID,
		Name:            n.Name,
		Options:         n.opts.record(),
		Layers:          make([]model.LayerRecord, 0, len(n.layers)),
		Connections:     make([]model.ConnectionRecord, 0, len(n.graph.Connections)),
	}
	for _, l := range n.layers {
		layer := model.LayerRecord{
			ID:         l.ID,
			Index:      l.Index,
			Type:       l.kind(last),
			Activation: l.Activation,
			Neurons:    make([]model.NeuronRecord, 0, l.Size()),
		}
		for _, i := range l.neurons {
			neuron := n.graph.Neurons[i]
			layer.Neurons = append(layer.Neurons, model.NeuronRecord{
				ID:         neuron.ID,
				Bias:       neuron.Bias,
				State:      neuron.State,
				OldState:   neuron.OldState,
				Activation: neuron.Activation,
				Derivative: neuron.Derivative,
				Error:      neuron.Responsibility,
			})
		}
		snapshot.Layers = append(snapshot.Layers, layer)
	}
	for _, c := range n.graph.Connections {
		snapshot.Connections = append(snapshot.Connections, model.ConnectionRecord{
			ID:     c.ID,
			From:   n.graph.Neurons[c.From].ID,
			To:     n.graph.Neurons[c.To].ID,
			Weight: c.Weight,
		})
	}
	return snapshot
}

// Restore rebuilds a network from a snapshot. Every connection must link a
// neuron to one in the next layer, and each pair may appear only once.
func Restore(snapshot model.NetworkSnapshot) (*Network, error) {
	opts := optionsFromRecord(snapshot.Name, snapshot.Options)
	sizes := make([]int, len(snapshot.Layers))
	for i, l := range snapshot.Layers {
		sizes[i] = len(l.Neurons)
	}
	opts.LayerSizes = sizes
	if err := opts.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "restore network %s", snapshot.ID)
	}

	g := NewGraph(opts.Seed, nil)
	layerOf := make(map[string]int)
	indexOf := make(map[string]int)
	layers := make([]*Layer, 0, len(snapshot.Layers))
	for li, record := range snapshot.Layers {
		activation := record.Activation
		if activation == "" {
			activation = opts.Activation
		}
		l := &Layer{
			ID:         record.ID,
			Index:      li,
			Activation: activation,
			graph:      g,
			neurons:    make([]int, 0, len(record.Neurons)),
		}
		for _, nr := range record.Neurons {
			if _, dup := indexOf[nr.ID]; dup {
				return nil, errors.Wrapf(nn.ErrInvalidConfiguration, "restore network %s: duplicate neuron %s", snapshot.ID, nr.ID)
			}
			i := g.addNeuron(nr.ID, nr.Bias)
			neuron := &g.Neurons[i]
			neuron.State = nr.State
			neuron.OldState = nr.OldState
			neuron.Activation = nr.Activation
			neuron.Derivative = nr.Derivative
			neuron.Responsibility = nr.Error
			indexOf[nr.ID] = i
			layerOf[nr.ID] = li
			l.neurons = append(l.neurons, i)
		}
		layers = append(layers, l)
	}
	g.layers = len(layers)

	for _, c := range snapshot.Connections {
		from, okFrom := indexOf[c.From]
		to, okTo := indexOf[c.To]
		if !okFrom || !okTo {
			return nil, errors.Wrapf(nn.ErrInvalidConfiguration, "restore network %s: connection %s has an unknown endpoint", snapshot.ID, c.ID)
		}
		if layerOf[c.To] != layerOf[c.From]+1 {
			return nil, errors.Wrapf(nn.ErrInvalidConfiguration, "restore network %s: connection %s does not link adjacent layers", snapshot.ID, c.ID)
		}
		if _, dup := g.edges[edge{from: from, to: to}]; dup {
			return nil, errors.Wrapf(nn.ErrInvalidConfiguration, "restore network %s: duplicate connection %s", snapshot.ID, c.ID)
		}
		g.addConnection(c.ID, from, to, c.Weight)
	}

	return &Network{
		ID:     snapshot.ID,
		Name:   snapshot.Name,
		opts:   opts,
		graph:  g,
		layers: layers,
	}, nil
}
