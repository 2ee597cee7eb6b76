package nn

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/blueskinlizard/EvoDilemma/dilemma" // Import the parent dilemma package
)

// Parameter names, following the usual "<layer>.<param>" state naming.
const (
	Hidden1Weight = "fc1.weight"
	Hidden1Bias   = "fc1.bias"
	OutputWeight  = "fc2.weight"
	OutputBias    = "fc2.bias"
)

// MLP is a two-layer perceptron: inputs -> hidden (activation) -> outputs.
// It implements dilemma.Policy. Each MLP owns its weight storage.
type MLP struct {
	Inputs     int
	Hidden     int
	Outputs    int
	Activation string

	activation ActivationType
	weights    dilemma.Weights
}

// NewMLP creates a network with zero weights.
func NewMLP(inputs, hidden, outputs int, activation string) (*MLP, error) {
	if inputs <= 0 || hidden <= 0 || outputs <= 0 {
		return nil, fmt.Errorf("invalid layer sizes %d-%d-%d", inputs, hidden, outputs)
	}
	act, err := GetActivation(activation)
	if err != nil {
		return nil, err
	}
	return &MLP{
		Inputs:     inputs,
		Hidden:     hidden,
		Outputs:    outputs,
		Activation: activation,
		activation: act,
		weights: dilemma.Weights{
			Hidden1Weight: dilemma.NewTensor(hidden, inputs),
			Hidden1Bias:   dilemma.NewTensor(hidden),
			OutputWeight:  dilemma.NewTensor(outputs, hidden),
			OutputBias:    dilemma.NewTensor(outputs),
		},
	}, nil
}

// Randomize draws every weight and bias from U(-1/sqrt(fan_in), 1/sqrt(fan_in)).
func (m *MLP) Randomize(rng *rand.Rand) {
	fill := func(t *dilemma.Tensor, fanIn int) {
		bound := 1 / math.Sqrt(float64(fanIn))
		for i := range t.Data {
			t.Data[i] = (rng.Float64()*2 - 1) * bound
		}
	}
	// Fixed order keeps initialization reproducible for a seed.
	fill(m.weights[Hidden1Weight], m.Inputs)
	fill(m.weights[Hidden1Bias], m.Inputs)
	fill(m.weights[OutputWeight], m.Hidden)
	fill(m.weights[OutputBias], m.Hidden)
}

// Forward computes the raw output scores for one input vector.
func (m *MLP) Forward(inputs []float64) ([]float64, error) {
	if len(inputs) != m.Inputs {
		return nil, fmt.Errorf("%w: mismatch between input count (%d) and network inputs (%d)", dilemma.ErrValidation, len(inputs), m.Inputs)
	}

	// The matrices wrap the tensor storage read-only; nothing below writes to them.
	w1 := mat.NewDense(m.Hidden, m.Inputs, m.weights[Hidden1Weight].Data)
	b1 := mat.NewVecDense(m.Hidden, m.weights[Hidden1Bias].Data)
	w2 := mat.NewDense(m.Outputs, m.Hidden, m.weights[OutputWeight].Data)
	b2 := mat.NewVecDense(m.Outputs, m.weights[OutputBias].Data)

	x := mat.NewVecDense(m.Inputs, append([]float64(nil), inputs...))

	h := mat.NewVecDense(m.Hidden, nil)
	h.MulVec(w1, x)
	h.AddVec(h, b1)
	hidden := h.RawVector().Data
	for i, v := range hidden {
		hidden[i] = m.activation(v)
	}

	out := mat.NewVecDense(m.Outputs, nil)
	out.MulVec(w2, h)
	out.AddVec(out, b2)

	return append([]float64(nil), out.RawVector().Data...), nil
}

// Weights returns a deep copy of the parameters.
func (m *MLP) Weights() dilemma.Weights {
	return m.weights.Copy()
}

// SetWeights installs copies of w. Names and shapes must match the architecture.
func (m *MLP) SetWeights(w dilemma.Weights) error {
	if err := m.weights.CheckCompatible(w); err != nil {
		return err
	}
	m.weights = w.Copy()
	return nil
}

// Clone returns an independent copy of the network.
func (m *MLP) Clone() dilemma.Policy {
	c := *m
	c.weights = m.weights.Copy()
	return &c
}

// NewFactory returns a dilemma.PolicyFactory creating randomly initialized MLPs with
// the given architecture.
func NewFactory(inputs, hidden int, activation string) (dilemma.PolicyFactory, error) {
	if _, err := NewMLP(inputs, hidden, 2, activation); err != nil {
		return nil, err
	}
	return func(rng *rand.Rand) dilemma.Policy {
		m, _ := NewMLP(inputs, hidden, 2, activation)
		m.Randomize(rng)
		return m
	}, nil
}

// FactoryFromConfig builds the policy factory described by config.
func FactoryFromConfig(config *dilemma.Config) (dilemma.PolicyFactory, error) {
	return NewFactory(2*config.Simulation.HistoryWindow, config.Policy.HiddenSize, config.Policy.Activation)
}
