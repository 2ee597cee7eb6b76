package dilemma

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Softmax returns the normalized exponentials of scores.
// The maximum is subtracted first so large scores do not overflow.
func Softmax(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}
	out := make([]float64, len(scores))
	copy(out, scores)
	floats.AddConst(-floats.Max(out), out)
	for i, v := range out {
		out[i] = math.Exp(v)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}

// ArgMax returns the index of the largest value. Exact ties resolve to the
// lowest index, so a fixed set of weights always yields the same action.
func ArgMax(values []float64) int {
	return floats.MaxIdx(values)
}

// Decision is the outcome of evaluating a policy once.
type Decision struct {
	Action        Action
	Probabilities []float64
}

// Decide evaluates p on inputs, normalizes the two output scores and picks the arg-max.
func Decide(p Policy, inputs []float64) (Decision, error) {
	scores, err := p.Forward(inputs)
	if err != nil {
		return Decision{}, err
	}
	if len(scores) != 2 {
		return Decision{}, fmt.Errorf("%w: policy returned %d scores, expected 2", ErrShapeMismatch, len(scores))
	}
	probs := Softmax(scores)
	return Decision{
		Action:        Action(ArgMax(probs)),
		Probabilities: probs,
	}, nil
}
