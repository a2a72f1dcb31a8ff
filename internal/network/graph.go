package network

import "math/rand/v2"

// Graph is the arena shared by the layers of one network. Neurons and
// connections are addressed by their index in the arena; neurons refer to
// their edges by index and edges refer to their endpoints by index, so no
// part of the graph points back into itself.
type Graph struct {
	Neurons     []Neuron
	Connections []Connection

	edges  map[edge]int
	layers int
	newID  IDFunc
	rng    *rand.Rand
}

type edge struct {
	from int
	to   int
}

// Connection is a directed, weighted edge between two neurons of adjacent layers.
type Connection struct {
	ID     string
	From   int
	To     int
	Weight float64
	// Gain is a transient multiplier on the weighted input. It is 1 unless an
	// extension sets it and is never part of a snapshot.
	Gain float64
}

// NewGraph returns an empty arena. Initial weights and biases are drawn
// uniformly from [-1, 1) using seed, so equal seeds build equal networks.
func NewGraph(seed int64, newID IDFunc) *Graph {
	return &Graph{
		edges: make(map[edge]int),
		newID: defaultIDFunc(newID),
		rng:   rand.New(rand.NewPCG(uint64(seed), uint64(seed))),
	}
}

func (g *Graph) draw() float64 {
	return g.rng.Float64()*2 - 1
}

func (g *Graph) addNeuron(id string, bias float64) int {
	g.Neurons = append(g.Neurons, Neuron{ID: id, Bias: bias})
	return len(g.Neurons) - 1
}

// Connect links from to to and returns the index of the edge. When the pair
// is already linked the existing edge is returned and created is false.
func (g *Graph) Connect(from, to int, weight float64) (index int, created bool) {
	key := edge{from: from, to: to}
	if existing, ok := g.edges[key]; ok {
		return existing, false
	}
	return g.addConnection(g.newID(), from, to, weight), true
}

func (g *Graph) addConnection(id string, from, to int, weight float64) int {
	g.Connections = append(g.Connections, Connection{
		ID:     id,
		From:   from,
		To:     to,
		Weight: weight,
		Gain:   1,
	})
	index := len(g.Connections) - 1
	g.edges[edge{from: from, to: to}] = index
	g.Neurons[from].connect(index, Outgoing)
	g.Neurons[to].connect(index, Incoming)
	return index
}

// Upstream returns the IDs of the neurons feeding neuron i.
func (g *Graph) Upstream(i int) []string {
	ids := make([]string, 0, len(g.Neurons[i].Incoming))
	for _, c := range g.Neurons[i].Incoming {
		ids = append(ids, g.Neurons[g.Connections[c].From].ID)
	}
	return ids
}

// Downstream returns the IDs of the neurons fed by neuron i.
func (g *Graph) Downstream(i int) []string {
	ids := make([]string, 0, len(g.Neurons[i].Outgoing))
	for _, c := range g.Neurons[i].Outgoing {
		ids = append(ids, g.Neurons[g.Connections[c].To].ID)
	}
	return ids
}
