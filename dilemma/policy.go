package dilemma

import (
	"fmt"
	"math/rand"
	"sort"
)

// Tensor is a dense numeric array with an explicit shape.
// A rank 0 tensor (scalar) has an empty Shape and exactly one element in Data.
type Tensor struct {
	Shape []int
	Data  []float64
}

// NewTensor allocates a zero-filled tensor of the given shape.
func NewTensor(shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return &Tensor{
		Shape: append([]int(nil), shape...),
		Data:  make([]float64, n),
	}
}

// Scalar creates a rank 0 tensor holding v.
func Scalar(v float64) *Tensor {
	return &Tensor{Shape: []int{}, Data: []float64{v}}
}

// Rank returns the number of dimensions of the tensor.
func (t *Tensor) Rank() int {
	return len(t.Shape)
}

// Len returns the number of elements implied by the shape.
func (t *Tensor) Len() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Copy creates a deep copy of the tensor. The copy never shares storage with t.
func (t *Tensor) Copy() *Tensor {
	return &Tensor{
		Shape: append(t.Shape[:0:0], t.Shape...),
		Data:  append(t.Data[:0:0], t.Data...),
	}
}

// SameShape reports whether t and other have identical shapes.
func (t *Tensor) SameShape(other *Tensor) bool {
	if len(t.Shape) != len(other.Shape) {
		return false
	}
	for i := range t.Shape {
		if t.Shape[i] != other.Shape[i] {
			return false
		}
	}
	return true
}

// Weights maps parameter names (e.g. "fc1.weight") to tensors.
type Weights map[string]*Tensor

// Copy deep-copies every tensor.
func (w Weights) Copy() Weights {
	out := make(Weights, len(w))
	for name, t := range w {
		out[name] = t.Copy()
	}
	return out
}

// Names returns the parameter names in sorted order, so iteration that consumes
// randomness is reproducible for a fixed seed.
func (w Weights) Names() []string {
	names := make([]string, 0, len(w))
	for name := range w {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckCompatible verifies that other has exactly the same parameter names and shapes.
func (w Weights) CheckCompatible(other Weights) error {
	if len(w) != len(other) {
		return fmt.Errorf("%w: %d tensors vs %d", ErrShapeMismatch, len(w), len(other))
	}
	for name, t := range w {
		o, ok := other[name]
		if !ok {
			return fmt.Errorf("%w: tensor %q missing", ErrShapeMismatch, name)
		}
		if !t.SameShape(o) || len(t.Data) != len(o.Data) {
			return fmt.Errorf("%w: tensor %q has shape %v vs %v", ErrShapeMismatch, name, t.Shape, o.Shape)
		}
	}
	return nil
}

// Policy is the decision model owned by an agent: 6 history inputs in, 2 raw scores out.
// Implementations must not share weight storage between clones.
type Policy interface {
	// Forward evaluates the policy and returns the raw (unnormalized) output scores.
	Forward(inputs []float64) ([]float64, error)
	// Weights returns a deep copy of the named weight tensors.
	Weights() Weights
	// SetWeights replaces the weights with copies of w. Shapes must match.
	SetWeights(w Weights) error
	// Clone returns an independent policy with copied weights.
	Clone() Policy
}

// PolicyFactory creates a freshly initialized policy, drawing any random
// initialization from rng.
type PolicyFactory func(rng *rand.Rand) Policy

// Agent couples a stable name and index with the policy it owns.
type Agent struct {
	Name   string
	Index  int
	Policy Policy
}

// AgentName returns the canonical name for the agent at index i.
func AgentName(i int) string {
	return fmt.Sprintf("agent_%d", i)
}
