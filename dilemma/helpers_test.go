package dilemma

import (
	"errors"
	"math/rand"
)

// fixedPolicy always prefers one action. Its weights are inert but take part in
// reproduction so the genetic operators can be observed.
type fixedPolicy struct {
	action  Action
	weights Weights
}

func newFixedPolicy(action Action, w Weights) *fixedPolicy {
	if w == nil {
		w = Weights{
			"layer.weight": {Shape: []int{2, 3}, Data: []float64{1, 2, 3, 4, 5, 6}},
			"layer.bias":   {Shape: []int{2}, Data: []float64{0.5, -0.5}},
			"temperature":  Scalar(1.5),
		}
	}
	return &fixedPolicy{action: action, weights: w}
}

func (p *fixedPolicy) Forward(inputs []float64) ([]float64, error) {
	if len(inputs) != 6 {
		return nil, errors.New("bad input length")
	}
	if p.action == Steal {
		return []float64{0, 1}, nil
	}
	return []float64{1, 0}, nil
}

func (p *fixedPolicy) Weights() Weights { return p.weights.Copy() }

func (p *fixedPolicy) SetWeights(w Weights) error {
	if err := p.weights.CheckCompatible(w); err != nil {
		return err
	}
	p.weights = w.Copy()
	return nil
}

func (p *fixedPolicy) Clone() Policy {
	return &fixedPolicy{action: p.action, weights: p.weights.Copy()}
}

// titForTat splits first, then repeats the opponent's last move, read from the
// history inputs (own moves first, opponent's last move at index 5).
type titForTat struct{ fixedPolicy }

func (p *titForTat) Forward(inputs []float64) ([]float64, error) {
	if inputs[5] == 1 {
		return []float64{0, 1}, nil
	}
	return []float64{1, 0}, nil
}

func (p *titForTat) Clone() Policy {
	return &titForTat{fixedPolicy{weights: p.weights.Copy()}}
}

// populationOf builds agent_0..agent_{n-1} with the given policies.
func populationOf(policies ...Policy) map[string]*Agent {
	pop := make(map[string]*Agent, len(policies))
	for i, p := range policies {
		pop[AgentName(i)] = &Agent{Name: AgentName(i), Index: i, Policy: p}
	}
	return pop
}

func fixedFactory(action Action) PolicyFactory {
	return func(*rand.Rand) Policy { return newFixedPolicy(action, nil) }
}

func testConfig() *Config {
	c := DefaultConfig()
	c.Simulation.Seed = 42
	return c
}
