package network

import (
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuralnet/internal/nn"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{name: "no activation", mutate: func(o *Options) { o.Activation = " " }},
		{name: "no cost", mutate: func(o *Options) { o.Cost = "" }},
		{name: "zero learning rate", mutate: func(o *Options) { o.LearningRate = 0 }},
		{name: "nan learning rate", mutate: func(o *Options) { o.LearningRate = math.NaN() }},
		{name: "negative threshold", mutate: func(o *Options) { o.ErrorThreshold = -0.1 }},
		{name: "zero iterations", mutate: func(o *Options) { o.MaxIterations = 0 }},
		{name: "negative logging", mutate: func(o *Options) { o.LoggingInterval = -1 }},
		{name: "one layer", mutate: func(o *Options) { o.LayerSizes = []int{3} }},
		{name: "empty layer", mutate: func(o *Options) { o.LayerSizes = []int{2, 0, 1} }},
	}
	require.NoError(t, DefaultOptions().Validate())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			tc.mutate(&opts)
			err := opts.Validate()
			require.True(t, errors.Is(err, nn.ErrInvalidConfiguration), "got %v", err)

			_, err = New(opts)
			require.True(t, errors.Is(err, nn.ErrInvalidConfiguration), "got %v", err)
		})
	}
}

func TestNewWiresAdjacentLayers(t *testing.T) {
	opts := DefaultOptions()
	opts.LayerSizes = []int{2, 3, 4, 1}
	n, err := New(opts)
	require.NoError(t, err)

	assert.Equal(t, 2*3+3*4+4*1, n.ConnectionCount())
	require.Len(t, n.Layers(), 4)
	require.Len(t, n.Hidden(), 2)
	assert.Equal(t, 2, n.Input().Size())
	assert.Equal(t, 1, n.Output().Size())
	for i, l := range n.Layers() {
		assert.Equal(t, i, l.Index)
	}
	assert.Equal(t, StatusIdle, n.Status())
	assert.NotEmpty(t, n.ID)
}

func TestActivateShape(t *testing.T) {
	for _, sizes := range [][]int{{1, 1}, {2, 3, 1}, {4, 2, 2, 3}, {3, 5, 5, 5, 2}} {
		opts := DefaultOptions()
		opts.LayerSizes = sizes
		n, err := New(opts)
		require.NoError(t, err)

		out, err := n.Activate(make([]float64, sizes[0]))
		require.NoError(t, err)
		assert.Len(t, out, sizes[len(sizes)-1])
		for _, v := range out {
			assert.Greater(t, v, 0.0)
			assert.Less(t, v, 1.0)
		}

		for _, size := range []int{0, sizes[0] - 1, sizes[0] + 1} {
			if size == sizes[0] {
				continue
			}
			_, err := n.Activate(make([]float64, size))
			require.True(t, errors.Is(err, nn.ErrDimensionMismatch), "sizes=%v input=%d: %v", sizes, size, err)
		}
	}
}

func TestActivateMalformedInputLeavesNeuronsUntouched(t *testing.T) {
	opts := DefaultOptions()
	opts.LayerSizes = []int{2, 3, 1}
	n, err := New(opts)
	require.NoError(t, err)
	_, err = n.Activate([]float64{0.3, 0.7})
	require.NoError(t, err)

	before := n.Snapshot()
	_, err = n.Activate([]float64{1, 1, 1})
	require.True(t, errors.Is(err, nn.ErrDimensionMismatch), "got %v", err)
	assert.Equal(t, before, n.Snapshot())
}

func TestActivateIsDeterministicForSeed(t *testing.T) {
	opts := DefaultOptions()
	opts.LayerSizes = []int{2, 4, 2}
	a, err := New(opts)
	require.NoError(t, err)
	b, err := New(opts)
	require.NoError(t, err)

	outA, err := a.Activate([]float64{0.2, 0.8})
	require.NoError(t, err)
	outB, err := b.Activate([]float64{0.2, 0.8})
	require.NoError(t, err)
	assert.Equal(t, outA, outB)

	opts.Seed = 2
	c, err := New(opts)
	require.NoError(t, err)
	outC, err := c.Activate([]float64{0.2, 0.8})
	require.NoError(t, err)
	assert.NotEqual(t, outA, outC)
}

func TestActivateUnsupportedActivation(t *testing.T) {
	opts := DefaultOptions()
	opts.Activation = "softsign"
	n, err := New(opts)
	require.NoError(t, err)

	_, err = n.Activate([]float64{1, 1})
	require.True(t, errors.Is(err, nn.ErrUnsupportedActivation), "got %v", err)
	for _, v := range n.Input().Activations() {
		assert.Equal(t, 0.0, v)
	}
}

func TestAssembleFromPrebuiltLayers(t *testing.T) {
	g := NewGraph(5, sequentialIDs("x"))
	in := g.NewLayer(2, "")
	hidden := g.NewLayer(3, nn.Tanh)
	out := g.NewLayer(1, "")
	require.NoError(t, in.WireTo(hidden))

	opts := DefaultOptions()
	opts.Name = "prebuilt"
	n, err := Assemble(opts, in, hidden, out)
	require.NoError(t, err)

	assert.Equal(t, "prebuilt", n.Name)
	assert.Equal(t, []int{2, 3, 1}, n.Options().LayerSizes)
	assert.Equal(t, 2*3+3*1, n.ConnectionCount())
	assert.Equal(t, nn.Sigmoid, in.Activation)
	assert.Equal(t, nn.Tanh, hidden.Activation)

	out1, err := n.Activate([]float64{1, 0})
	require.NoError(t, err)
	assert.Len(t, out1, 1)
}

func TestAssembleRejectsBadLayers(t *testing.T) {
	g := NewGraph(1, nil)
	a := g.NewLayer(2, nn.Sigmoid)
	b := g.NewLayer(1, nn.Sigmoid)
	empty := g.NewLayer(0, nn.Sigmoid)
	foreign := NewGraph(1, nil).NewLayer(1, nn.Sigmoid)

	_, err := Assemble(DefaultOptions(), a)
	require.True(t, errors.Is(err, nn.ErrInvalidConfiguration), "got %v", err)
	_, err = Assemble(DefaultOptions(), a, foreign)
	require.True(t, errors.Is(err, nn.ErrInvalidConfiguration), "got %v", err)
	_, err = Assemble(DefaultOptions(), a, empty, b)
	require.True(t, errors.Is(err, nn.ErrEmptyLayer), "got %v", err)
	_, err = Assemble(DefaultOptions(), a, nil)
	require.True(t, errors.Is(err, nn.ErrInvalidConfiguration), "got %v", err)
	_, err = Assemble(DefaultOptions(), a, a)
	require.True(t, errors.Is(err, nn.ErrInvalidConfiguration), "got %v", err)
	assert.Zero(t, len(g.Connections))
}

func TestAssembleRejectsNonAdjacentConnections(t *testing.T) {
	g := NewGraph(1, nil)
	in := g.NewLayer(2, nn.Sigmoid)
	hidden := g.NewLayer(2, nn.Sigmoid)
	out := g.NewLayer(1, nn.Sigmoid)
	require.NoError(t, in.WireTo(out))

	_, err := Assemble(DefaultOptions(), in, hidden, out)
	require.True(t, errors.Is(err, nn.ErrInvalidConfiguration), "got %v", err)
	assert.Len(t, g.Connections, 2)

	other := NewGraph(1, nil)
	a := other.NewLayer(1, nn.Sigmoid)
	b := other.NewLayer(1, nn.Sigmoid)
	stray := other.NewLayer(1, nn.Sigmoid)
	require.NoError(t, a.WireTo(stray))
	_, err = Assemble(DefaultOptions(), a, b)
	require.True(t, errors.Is(err, nn.ErrInvalidConfiguration), "got %v", err)
}

func TestPropagateDimensionMismatch(t *testing.T) {
	n, err := New(xorOptions())
	require.NoError(t, err)
	_, err = n.Activate([]float64{1, 0})
	require.NoError(t, err)

	err = n.Propagate(0.1, []float64{1, 0})
	require.True(t, errors.Is(err, nn.ErrDimensionMismatch), "got %v", err)
	require.NoError(t, n.Propagate(0.1, []float64{1}))
}

func TestPropagateMovesOutputTowardsTarget(t *testing.T) {
	n, err := New(xorOptions())
	require.NoError(t, err)

	before, err := n.Activate([]float64{1, 0})
	require.NoError(t, err)
	for range 20 {
		_, err = n.Activate([]float64{1, 0})
		require.NoError(t, err)
		require.NoError(t, n.Propagate(0.5, []float64{1}))
	}
	after, err := n.Activate([]float64{1, 0})
	require.NoError(t, err)
	assert.Greater(t, after[0], before[0])
}

func TestTuneChangesTrainingParameters(t *testing.T) {
	n, err := New(xorOptions())
	require.NoError(t, err)

	require.NoError(t, n.Tune(func(o *Options) {
		o.LearningRate = 0.5
		o.MaxIterations = 3
		o.ErrorThreshold = 0
	}))
	assert.Equal(t, 0.5, n.Options().LearningRate)
	result, err := n.Train(context.Background(), xorSamples)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Iterations)

	err = n.Tune(func(o *Options) { o.LearningRate = 0 })
	require.True(t, errors.Is(err, nn.ErrInvalidConfiguration), "got %v", err)
	err = n.Tune(func(o *Options) { o.Activation = nn.Tanh })
	require.True(t, errors.Is(err, nn.ErrInvalidConfiguration), "got %v", err)
	err = n.Tune(func(o *Options) { o.LayerSizes = []int{2, 4, 1} })
	require.True(t, errors.Is(err, nn.ErrInvalidConfiguration), "got %v", err)
	assert.Equal(t, 0.5, n.Options().LearningRate)
}
