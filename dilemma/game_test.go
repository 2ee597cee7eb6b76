package dilemma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(rounds int) *GameEngine {
	c := DefaultConfig()
	c.Simulation.RoundsPerPair = rounds
	return NewGameEngine(c)
}

func TestPlayBothSplit(t *testing.T) {
	pop := populationOf(newFixedPolicy(Split, nil), newFixedPolicy(Split, nil))
	log, err := newTestEngine(4).Play(pop, []Edge{{A: 0, B: 1}})
	require.NoError(t, err)

	h := log.Histories[PairKey{Lo: 0, Hi: 1}]
	require.NotNil(t, h)
	assert.Equal(t, []Action{Split, Split, Split, Split}, h.Lo)
	assert.Equal(t, []Action{Split, Split, Split, Split}, h.Hi)

	results := Aggregate(log, 4)
	for _, name := range []string{"agent_0", "agent_1"} {
		assert.Equal(t, []float64{3, 3, 3, 3}, results[name].Scores)
		assert.Equal(t, 12.0, results[name].Cumulative)
		assert.Equal(t, 0.0, results[name].Fitness)
	}
}

func TestPlaySplitAgainstSteal(t *testing.T) {
	pop := populationOf(newFixedPolicy(Split, nil), newFixedPolicy(Steal, nil))
	log, err := newTestEngine(4).Play(pop, []Edge{{A: 0, B: 1}})
	require.NoError(t, err)

	results := Aggregate(log, 4)
	assert.Equal(t, []float64{0, 0, 0, 0}, results["agent_0"].Scores)
	assert.Equal(t, []float64{5, 5, 5, 5}, results["agent_1"].Scores)
	assert.Equal(t, 0.0, results["agent_0"].Cumulative)
	assert.Equal(t, 20.0, results["agent_1"].Cumulative)
	assert.Equal(t, 0.0, results["agent_0"].Fitness)
	assert.Equal(t, 0.0, results["agent_1"].Fitness)
	assert.Equal(t, []Action{Steal, Steal, Steal, Steal}, log.Actions["agent_1"])
}

func TestPlayHistoryDrivesInputs(t *testing.T) {
	// Tit-for-tat against an always-steal agent: split once, then steal back.
	pop := populationOf(&titForTat{*newFixedPolicy(Split, nil)}, newFixedPolicy(Steal, nil))
	log, err := newTestEngine(4).Play(pop, []Edge{{A: 1, B: 0}})
	require.NoError(t, err)

	assert.Equal(t, []Action{Split, Steal, Steal, Steal}, log.Actions["agent_0"])
	assert.Equal(t, []float64{0, 1, 1, 1}, log.Scores["agent_0"])
	assert.Equal(t, []float64{5, 1, 1, 1}, log.Scores["agent_1"])
}

func TestPlayWarmupIsFirstPairing(t *testing.T) {
	// agent_0 plays agent_1 (splitter) first, then agent_2 (stealer).
	pop := populationOf(newFixedPolicy(Split, nil), newFixedPolicy(Split, nil), newFixedPolicy(Steal, nil))
	log, err := newTestEngine(2).Play(pop, []Edge{{A: 0, B: 1}, {A: 2, B: 0}})
	require.NoError(t, err)

	results := Aggregate(log, 2)
	assert.Equal(t, []float64{3, 3, 0, 0}, results["agent_0"].Scores)
	assert.Equal(t, 0.0, results["agent_0"].Fitness)
	assert.Equal(t, 6.0, results["agent_0"].Cumulative)
	assert.Equal(t, 0.0, results["agent_1"].Fitness)
	assert.Len(t, log.Histories, 2)
}

func TestPlayAgentWithoutEdges(t *testing.T) {
	pop := populationOf(newFixedPolicy(Split, nil), newFixedPolicy(Split, nil), newFixedPolicy(Split, nil))
	log, err := newTestEngine(4).Play(pop, []Edge{{A: 0, B: 1}})
	require.NoError(t, err)

	results := Aggregate(log, 4)
	assert.Empty(t, results["agent_2"].Actions)
	assert.Equal(t, 0.0, results["agent_2"].Fitness)
	assert.Equal(t, 0.0, results["agent_2"].Cumulative)
}

func TestPlayUnknownEndpoint(t *testing.T) {
	pop := populationOf(newFixedPolicy(Split, nil), newFixedPolicy(Split, nil))
	_, err := newTestEngine(4).Play(pop, []Edge{{A: 0, B: 1}, {A: 1, B: 5}})
	require.ErrorIs(t, err, ErrUnknownAgent)
}

func TestPlaySelfLoop(t *testing.T) {
	pop := populationOf(newFixedPolicy(Split, nil))
	_, err := newTestEngine(4).Play(pop, []Edge{{A: 0, B: 0}})
	require.ErrorIs(t, err, ErrValidation)
}

func TestDecideTieBreaksToSplit(t *testing.T) {
	d, err := Decide(&constPolicy{scores: []float64{0.7, 0.7}}, make([]float64, 6))
	require.NoError(t, err)
	assert.Equal(t, Split, d.Action)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, d.Probabilities, 1e-12)
}

func TestDecideRejectsWrongOutputCount(t *testing.T) {
	_, err := Decide(&constPolicy{scores: []float64{1, 2, 3}}, make([]float64, 6))
	require.ErrorIs(t, err, ErrShapeMismatch)
}

type constPolicy struct {
	fixedPolicy
	scores []float64
}

func (p *constPolicy) Forward([]float64) ([]float64, error) { return p.scores, nil }
