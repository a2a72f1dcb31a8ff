package network

import (
	"slices"

	"neuralnet/internal/nn"
)

// Role says which side of a connection a neuron is on.
type Role int

const (
	Incoming Role = iota
	Outgoing
)

// Neuron is one arena entry. Activation and Derivative are meaningful only
// after the neuron has been activated once.
type Neuron struct {
	ID             string
	Bias           float64
	State          float64
	OldState       float64
	Activation     float64
	Derivative     float64
	Responsibility float64
	// Incoming and Outgoing hold connection indices into the owning Graph.
	Incoming []int
	Outgoing []int
}

// connect registers connection under role. Registering the same connection
// twice is a no-op and reports false.
func (n *Neuron) connect(connection int, role Role) bool {
	edges := &n.Incoming
	if role == Outgoing {
		edges = &n.Outgoing
	}
	if slices.Contains(*edges, connection) {
		return false
	}
	*edges = append(*edges, connection)
	return true
}

// feed sets an input neuron's activation directly. Input neurons do not
// transform the signal, so bias and derivative are held at zero.
func (g *Graph) feed(i int, input float64) float64 {
	n := &g.Neurons[i]
	n.Activation = input
	n.Derivative = 0
	n.Bias = 0
	return input
}

func (g *Graph) activate(i int, squash nn.Activation) float64 {
	n := &g.Neurons[i]
	n.OldState = n.State

	state := n.Bias
	for _, c := range n.Incoming {
		conn := &g.Connections[c]
		state += conn.Weight * conn.Gain * g.Neurons[conn.From].Activation
	}
	n.State = state
	n.Activation = squash.Apply(state, false)
	n.Derivative = squash.Apply(state, true)
	return n.Activation
}

// hiddenResponsibility is the chain-rule error of neuron i. Every neuron it
// feeds must already hold its responsibility for the current sample.
func (g *Graph) hiddenResponsibility(i int) float64 {
	n := &g.Neurons[i]
	sum := 0.0
	for _, c := range n.Outgoing {
		conn := &g.Connections[c]
		sum += conn.Weight * g.Neurons[conn.To].Responsibility
	}
	return n.Derivative * sum
}

// propagate records responsibility on neuron i and moves its incoming
// weights and bias along it.
func (g *Graph) propagate(i int, rate, responsibility float64) {
	n := &g.Neurons[i]
	n.Responsibility = responsibility
	for _, c := range n.Incoming {
		conn := &g.Connections[c]
		conn.Weight += rate * responsibility * g.Neurons[conn.From].Activation
	}
	n.Bias += rate * responsibility
}
