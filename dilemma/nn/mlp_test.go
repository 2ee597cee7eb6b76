package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueskinlizard/EvoDilemma/dilemma"
)

func TestNewMLPShapes(t *testing.T) {
	m, err := NewMLP(6, 16, 2, "relu")
	require.NoError(t, err)

	w := m.Weights()
	assert.Equal(t, []int{16, 6}, w[Hidden1Weight].Shape)
	assert.Equal(t, []int{16}, w[Hidden1Bias].Shape)
	assert.Equal(t, []int{2, 16}, w[OutputWeight].Shape)
	assert.Equal(t, []int{2}, w[OutputBias].Shape)
	assert.Len(t, w[Hidden1Weight].Data, 96)
}

func TestNewMLPRejectsBadArchitecture(t *testing.T) {
	_, err := NewMLP(0, 16, 2, "relu")
	require.Error(t, err)
	_, err = NewMLP(6, 16, 2, "softsign")
	require.Error(t, err)
}

func TestForwardKnownWeights(t *testing.T) {
	m, err := NewMLP(2, 2, 2, "relu")
	require.NoError(t, err)
	require.NoError(t, m.SetWeights(dilemma.Weights{
		Hidden1Weight: {Shape: []int{2, 2}, Data: []float64{1, 0, 0, -1}},
		Hidden1Bias:   {Shape: []int{2}, Data: []float64{0, 0.5}},
		OutputWeight:  {Shape: []int{2, 2}, Data: []float64{1, 1, 2, -1}},
		OutputBias:    {Shape: []int{2}, Data: []float64{0, 1}},
	}))

	// hidden = relu([3, -2+0.5]) = [3, 0]; out = [3+0, 6-0+1]
	out, err := m.Forward([]float64{3, 2})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{3, 7}, out, 1e-12)

	_, err = m.Forward([]float64{1, 2, 3})
	require.ErrorIs(t, err, dilemma.ErrValidation)
}

func TestRandomizeBounds(t *testing.T) {
	m, err := NewMLP(6, 16, 2, "relu")
	require.NoError(t, err)
	m.Randomize(rand.New(rand.NewSource(1)))

	w := m.Weights()
	for _, v := range w[Hidden1Weight].Data {
		assert.LessOrEqual(t, v*v, 1.0/6)
	}
	for _, v := range w[OutputWeight].Data {
		assert.LessOrEqual(t, v*v, 1.0/16)
	}
}

func TestSetWeightsRejectsMismatch(t *testing.T) {
	m, err := NewMLP(6, 16, 2, "relu")
	require.NoError(t, err)

	w := m.Weights()
	w[OutputBias] = dilemma.NewTensor(3)
	require.ErrorIs(t, m.SetWeights(w), dilemma.ErrShapeMismatch)

	w = m.Weights()
	delete(w, OutputBias)
	require.ErrorIs(t, m.SetWeights(w), dilemma.ErrShapeMismatch)
}

func TestCloneDoesNotAlias(t *testing.T) {
	m, err := NewMLP(6, 4, 2, "relu")
	require.NoError(t, err)
	m.Randomize(rand.New(rand.NewSource(2)))

	c := m.Clone().(*MLP)
	c.weights[Hidden1Weight].Data[0] = 42
	assert.NotEqual(t, 42.0, m.weights[Hidden1Weight].Data[0])

	w := m.Weights()
	w[OutputBias].Data[0] = 42
	assert.NotEqual(t, 42.0, m.weights[OutputBias].Data[0])
}

func TestFactoryIsSeeded(t *testing.T) {
	factory, err := NewFactory(6, 16, "relu")
	require.NoError(t, err)

	a := factory(rand.New(rand.NewSource(5)))
	b := factory(rand.New(rand.NewSource(5)))
	assert.Equal(t, a.Weights(), b.Weights())

	in := []float64{0.5, 0.5, 1, 0.5, 0.5, 0}
	d1, err := dilemma.Decide(a, in)
	require.NoError(t, err)
	d2, err := dilemma.Decide(b, in)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestFactoryFromConfig(t *testing.T) {
	c := dilemma.DefaultConfig()
	c.Policy.HiddenSize = 8
	factory, err := FactoryFromConfig(c)
	require.NoError(t, err)

	m := factory(rand.New(rand.NewSource(1))).(*MLP)
	assert.Equal(t, 6, m.Inputs)
	assert.Equal(t, 8, m.Hidden)
	assert.Equal(t, 2, m.Outputs)

	c.Policy.Activation = "nope"
	_, err = FactoryFromConfig(c)
	require.Error(t, err)
}

func TestMLPEvolvesInsideSimulation(t *testing.T) {
	c := dilemma.DefaultConfig()
	c.Simulation.Seed = 3
	factory, err := FactoryFromConfig(c)
	require.NoError(t, err)
	sim, err := dilemma.NewSimulation(c, factory)
	require.NoError(t, err)

	require.NoError(t, sim.Init(8))
	require.NoError(t, sim.SetTopology([]dilemma.Edge{{A: 0, B: 1}, {A: 1, B: 2}, {A: 2, B: 3}, {A: 3, B: 0}, {A: 4, B: 5}, {A: 6, B: 7}, {A: 5, B: 6}}))

	result, err := sim.RunGeneration()
	require.NoError(t, err)
	assert.Len(t, result.Agents, 8)

	_, err = sim.ReproduceCrossover(dilemma.SelectTop(result, 2))
	require.NoError(t, err)
	assert.Len(t, sim.Population, 8)

	result, err = sim.RunGeneration()
	require.NoError(t, err)
	_, err = sim.ReproduceMutation(dilemma.SelectTop(result, 4))
	require.NoError(t, err)
	assert.Len(t, sim.Population, 8)
}
