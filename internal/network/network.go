package network

import (
	"slices"

	"github.com/pkg/errors"

	"neuralnet/internal/nn"
)

// Status tracks a network through a training run.
type Status int

const (
	StatusIdle Status = iota
	StatusActivating
	StatusConverged
	StatusEpochExhausted
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusActivating:
		return "activating"
	case StatusConverged:
		return "converged"
	case StatusEpochExhausted:
		return "epoch_exhausted"
	default:
		return "unknown"
	}
}

// Network chains an input layer, any number of hidden layers and an output
// layer. A Network is not safe for concurrent use.
type Network struct {
	ID   string
	Name string

	opts   Options
	graph  *Graph
	layers []*Layer
	cost   *nn.Cost
	status Status
}

// New allocates every layer described by opts.LayerSizes and then wires each
// adjacent pair in order.
func New(opts Options) (*Network, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	g := NewGraph(opts.Seed, opts.NewID)
	layers := make([]*Layer, 0, len(opts.LayerSizes))
	for _, size := range opts.LayerSizes {
		layers = append(layers, g.NewLayer(size, opts.Activation))
	}
	return assemble(opts, g, layers)
}

// Assemble builds a network from pre-built layers of one Graph. Layers
// without an activation inherit opts.Activation; opts.LayerSizes is derived
// from the layers.
func Assemble(opts Options, layers ...*Layer) (*Network, error) {
	if len(layers) < 2 {
		return nil, errors.Wrapf(nn.ErrInvalidConfiguration, "need at least an input and an output layer, got %d layers", len(layers))
	}
	sizes := make([]int, len(layers))
	for i, l := range layers {
		if l == nil {
			return nil, errors.Wrapf(nn.ErrInvalidConfiguration, "layer %d is nil", i)
		}
		sizes[i] = l.Size()
	}
	g := layers[0].graph
	seen := make(map[*Layer]int, len(layers))
	for i, l := range layers {
		if l.graph != g {
			return nil, errors.Wrapf(nn.ErrInvalidConfiguration, "layer %d belongs to a different graph", i)
		}
		if first, dup := seen[l]; dup {
			return nil, errors.Wrapf(nn.ErrInvalidConfiguration, "layer %d repeats layer %d", i, first)
		}
		seen[l] = i
		if l.Size() == 0 {
			return nil, errors.Wrapf(nn.ErrEmptyLayer, "layer %d has no neurons", i)
		}
	}
	opts.LayerSizes = sizes
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := checkAdjacent(g, layers); err != nil {
		return nil, err
	}
	for i, l := range layers {
		l.Index = i
		if l.Activation == "" {
			l.Activation = opts.Activation
		}
	}
	return assemble(opts, g, layers)
}

// checkAdjacent rejects graphs holding a connection that does not run from
// one of layers to the layer right after it.
func checkAdjacent(g *Graph, layers []*Layer) error {
	position := make(map[int]int, len(g.Neurons))
	for i, l := range layers {
		for _, neuron := range l.neurons {
			position[neuron] = i
		}
	}
	for _, c := range g.Connections {
		from, okFrom := position[c.From]
		to, okTo := position[c.To]
		if !okFrom || !okTo || to != from+1 {
			return errors.Wrapf(nn.ErrInvalidConfiguration, "connection %s does not link adjacent layers", c.ID)
		}
	}
	return nil
}

func assemble(opts Options, g *Graph, layers []*Layer) (*Network, error) {
	for i := 0; i < len(layers)-1; i++ {
		if err := layers[i].WireTo(layers[i+1]); err != nil {
			return nil, err
		}
	}
	return &Network{
		ID:     g.newID(),
		Name:   opts.Name,
		opts:   opts,
		graph:  g,
		layers: layers,
	}, nil
}

func (n *Network) Options() Options {
	opts := n.opts
	opts.LayerSizes = append([]int(nil), n.opts.LayerSizes...)
	return opts
}

func (n *Network) Status() Status {
	return n.status
}

func (n *Network) Graph() *Graph {
	return n.graph
}

func (n *Network) Layers() []*Layer {
	return append([]*Layer(nil), n.layers...)
}

func (n *Network) Input() *Layer {
	return n.layers[0]
}

func (n *Network) Output() *Layer {
	return n.layers[len(n.layers)-1]
}

// Hidden returns the layers between input and output.
func (n *Network) Hidden() []*Layer {
	return append([]*Layer(nil), n.layers[1:len(n.layers)-1]...)
}

func (n *Network) ConnectionCount() int {
	return len(n.graph.Connections)
}

// Tune lets update change the training parameters of n: learning rate,
// error threshold, iteration cap, logging interval and observer. The
// layout, activation, cost and seed are fixed once the network exists.
func (n *Network) Tune(update func(*Options)) error {
	opts := n.Options()
	update(&opts)
	if opts.Activation != n.opts.Activation || opts.Cost != n.opts.Cost || opts.Seed != n.opts.Seed ||
		!slices.Equal(opts.LayerSizes, n.opts.LayerSizes) {
		return errors.Wrapf(nn.ErrInvalidConfiguration, "network %s: only training parameters can change", n.ID)
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	n.opts = opts
	n.Name = opts.Name
	return nil
}

// SetObserver replaces the training progress observer.
func (n *Network) SetObserver(observer Observer) {
	n.opts.Observer = observer
}

func (n *Network) resolve() error {
	for _, l := range n.layers[1:] {
		if _, err := l.resolve(); err != nil {
			return err
		}
	}
	return nil
}

func (n *Network) resolveCost() (nn.Cost, error) {
	if n.cost != nil {
		return *n.cost, nil
	}
	cost, err := nn.GetCost(n.opts.Cost)
	if err != nil {
		return nn.Cost{}, err
	}
	n.cost = &cost
	return cost, nil
}

// Activate runs input forward through every layer and returns the output
// layer's activations. A malformed input leaves every neuron untouched.
func (n *Network) Activate(input []float64) ([]float64, error) {
	if len(input) != n.Input().Size() {
		return nil, errors.Wrapf(nn.ErrDimensionMismatch, "got %d inputs for %d input neurons", len(input), n.Input().Size())
	}
	if err := n.resolve(); err != nil {
		return nil, err
	}
	return n.activate(input)
}

func (n *Network) activate(input []float64) ([]float64, error) {
	out, err := n.Input().Feed(input)
	if err != nil {
		return nil, err
	}
	for _, l := range n.layers[1:] {
		if out, err = l.Activate(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Propagate runs one backward pass towards expected: the output layer first,
// then the hidden layers from last to first.
func (n *Network) Propagate(rate float64, expected []float64) error {
	if len(expected) != n.Output().Size() {
		return errors.Wrapf(nn.ErrDimensionMismatch, "got %d targets for %d output neurons", len(expected), n.Output().Size())
	}
	cost, err := n.resolveCost()
	if err != nil {
		return err
	}
	return n.propagate(rate, expected, cost)
}

func (n *Network) propagate(rate float64, expected []float64, cost nn.Cost) error {
	if err := n.Output().PropagateTargets(rate, expected, cost); err != nil {
		return err
	}
	for i := len(n.layers) - 2; i >= 1; i-- {
		n.layers[i].Propagate(rate)
	}
	return nil
}
