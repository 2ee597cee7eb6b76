package dilemma

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WarmupFitness is the mean payoff after dropping the first warmup entries of
// scores. Agents with no rounds beyond the warm-up get 0.
//
// The warm-up is taken from the per-agent chronological sequence, so it covers
// whichever pairing the agent played first in topology order.
func WarmupFitness(scores []float64, warmup int) float64 {
	if warmup < 0 {
		warmup = 0
	}
	if len(scores) <= warmup {
		return 0
	}
	return stat.Mean(scores[warmup:], nil)
}

// Cumulative is the sum of every payoff, warm-up included.
func Cumulative(scores []float64) float64 {
	return floats.Sum(scores)
}

// AgentResult is the per-agent outcome of one generation.
type AgentResult struct {
	Actions    []Action
	Scores     []float64
	Fitness    float64
	Cumulative float64
}

// Aggregate computes fitness and cumulative score for every agent in log.
func Aggregate(log *PlayLog, warmup int) map[string]AgentResult {
	results := make(map[string]AgentResult, len(log.Scores))
	for name, scores := range log.Scores {
		results[name] = AgentResult{
			Actions:    log.Actions[name],
			Scores:     scores,
			Fitness:    WarmupFitness(scores, warmup),
			Cumulative: Cumulative(scores),
		}
	}
	return results
}
