package dilemma

import "fmt"

// Action is a discrete move in the dilemma.
type Action int

const (
	// Split cooperates with the opponent.
	Split Action = 0
	// Steal defects against the opponent.
	Steal Action = 1
)

// String returns the move name used in exported logs.
func (a Action) String() string {
	switch a {
	case Split:
		return "split"
	case Steal:
		return "steal"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Valid reports whether a is one of the two legal moves.
func (a Action) Valid() bool {
	return a == Split || a == Steal
}

// PayoffMatrix maps a pair of actions to a pair of payoffs.
type PayoffMatrix struct {
	table [2][2][2]float64
}

// NewPayoffMatrix builds the matrix from the classic reward/sucker/temptation/punishment values.
func NewPayoffMatrix(c PayoffConfig) PayoffMatrix {
	var m PayoffMatrix
	m.table[Split][Split] = [2]float64{c.Reward, c.Reward}
	m.table[Split][Steal] = [2]float64{c.Sucker, c.Temptation}
	m.table[Steal][Split] = [2]float64{c.Temptation, c.Sucker}
	m.table[Steal][Steal] = [2]float64{c.Punishment, c.Punishment}
	return m
}

// DefaultPayoffs is the 3/0/5/1 matrix.
var DefaultPayoffs = NewPayoffMatrix(DefaultConfig().Payoff)

// Payoff returns the payoffs of the player choosing a and the player choosing b.
// Actions are constrained upstream, so anything outside {Split, Steal} panics.
func (m PayoffMatrix) Payoff(a, b Action) (float64, float64) {
	if !a.Valid() || !b.Valid() {
		panic(fmt.Sprintf("dilemma: invalid action pair (%d, %d)", a, b))
	}
	p := m.table[a][b]
	return p[0], p[1]
}
