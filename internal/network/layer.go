package network

import (
	"github.com/pkg/errors"

	"neuralnet/internal/nn"
)

// Layer is an ordered group of neurons inside a Graph. The layer owns its
// neurons; connections to the next layer live in the Graph.
type Layer struct {
	ID    string
	Index int
	// Activation names the squash function of the layer's neurons. It is
	// resolved on first activation.
	Activation string

	graph   *Graph
	neurons []int
	squash  *nn.Activation
}

// NewLayer allocates size neurons in g with randomly drawn biases.
func (g *Graph) NewLayer(size int, activation string) *Layer {
	l := &Layer{
		ID:         g.newID(),
		Index:      g.layers,
		Activation: activation,
		graph:      g,
		neurons:    make([]int, 0, size),
	}
	g.layers++
	for range size {
		l.neurons = append(l.neurons, g.addNeuron(g.newID(), g.draw()))
	}
	return l
}

func (l *Layer) Size() int {
	return len(l.neurons)
}

// Graph returns the arena the layer's neurons live in.
func (l *Layer) Graph() *Graph {
	return l.graph
}

// Neurons returns the arena indices of the layer's neurons in order.
func (l *Layer) Neurons() []int {
	return append([]int(nil), l.neurons...)
}

// Neuron returns a copy of the k-th neuron of the layer.
func (l *Layer) Neuron(k int) Neuron {
	return l.graph.Neurons[l.neurons[k]]
}

// WireTo fully connects every neuron of l to every neuron of next. Pairs that
// are already connected are left alone, so wiring twice is a no-op.
func (l *Layer) WireTo(next *Layer) error {
	if next == nil {
		return errors.Wrap(nn.ErrInvalidConfiguration, "wire to nil layer")
	}
	if l.graph != next.graph {
		return errors.Wrapf(nn.ErrInvalidConfiguration, "layers %s and %s belong to different graphs", l.ID, next.ID)
	}
	if l.Size() == 0 {
		return errors.Wrapf(nn.ErrEmptyLayer, "layer %d has no neurons", l.Index)
	}
	if next.Size() == 0 {
		return errors.Wrapf(nn.ErrEmptyLayer, "layer %d has no neurons", next.Index)
	}
	for _, from := range l.neurons {
		for _, to := range next.neurons {
			key := edge{from: from, to: to}
			if _, ok := l.graph.edges[key]; ok {
				continue
			}
			l.graph.Connect(from, to, l.graph.draw())
		}
	}
	return nil
}

func (l *Layer) resolve() (nn.Activation, error) {
	if l.squash != nil {
		return *l.squash, nil
	}
	squash, err := nn.GetActivation(l.Activation)
	if err != nil {
		return nn.Activation{}, errors.WithMessagef(err, "layer %d", l.Index)
	}
	l.squash = &squash
	return squash, nil
}

// Feed sets the activations of an input layer. The input length is checked
// before any neuron is touched.
func (l *Layer) Feed(input []float64) ([]float64, error) {
	if len(input) != l.Size() {
		return nil, errors.Wrapf(nn.ErrDimensionMismatch, "layer %d: got %d inputs for %d neurons", l.Index, len(input), l.Size())
	}
	out := make([]float64, len(l.neurons))
	for k, i := range l.neurons {
		out[k] = l.graph.feed(i, input[k])
	}
	return out, nil
}

// Activate computes every neuron from the activations of the previous layer.
func (l *Layer) Activate() ([]float64, error) {
	squash, err := l.resolve()
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(l.neurons))
	for k, i := range l.neurons {
		out[k] = l.graph.activate(i, squash)
	}
	return out, nil
}

// Activations returns the current activation of each neuron.
func (l *Layer) Activations() []float64 {
	out := make([]float64, len(l.neurons))
	for k, i := range l.neurons {
		out[k] = l.graph.Neurons[i].Activation
	}
	return out
}

// PropagateTargets trains an output layer towards targets, with the per
// neuron error signal chosen by cost.
func (l *Layer) PropagateTargets(rate float64, targets []float64, cost nn.Cost) error {
	if len(targets) != l.Size() {
		return errors.Wrapf(nn.ErrDimensionMismatch, "layer %d: got %d targets for %d neurons", l.Index, len(targets), l.Size())
	}
	for k, i := range l.neurons {
		n := &l.graph.Neurons[i]
		delta := cost.OutputDelta(l.Activation, targets[k], n.Activation, n.Derivative)
		l.graph.propagate(i, rate, delta)
	}
	return nil
}

// Propagate trains a hidden layer from the responsibilities of the layer it
// feeds, which must have been propagated first.
func (l *Layer) Propagate(rate float64) {
	for _, i := range l.neurons {
		l.graph.propagate(i, rate, l.graph.hiddenResponsibility(i))
	}
}

func (l *Layer) kind(last int) string {
	switch l.Index {
	case 0:
		return "input"
	case last:
		return "output"
	default:
		return "hidden"
	}
}
