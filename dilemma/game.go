package dilemma

import "fmt"

// GameEngine plays the iterated dilemma over every edge of a topology.
type GameEngine struct {
	Payoffs PayoffMatrix
	Rounds  int     // rounds played per edge
	Window  int     // moves per side fed to the policy
	Pad     float64 // input value used before Window moves exist
}

// NewGameEngine creates an engine from the simulation and payoff configuration.
func NewGameEngine(config *Config) *GameEngine {
	return &GameEngine{
		Payoffs: NewPayoffMatrix(config.Payoff),
		Rounds:  config.Simulation.RoundsPerPair,
		Window:  config.Simulation.HistoryWindow,
		Pad:     config.Simulation.HistoryPad,
	}
}

// PlayLog is everything recorded while playing one generation.
type PlayLog struct {
	Histories map[PairKey]*PairHistory
	Actions   map[string][]Action  // per agent, chronological over all its pairings
	Scores    map[string][]float64 // per agent, chronological over all its pairings
	Edges     []Edge               // edges in the order they were played
}

func newPlayLog(population map[string]*Agent, edges []Edge) *PlayLog {
	log := &PlayLog{
		Histories: make(map[PairKey]*PairHistory, len(edges)),
		Actions:   make(map[string][]Action, len(population)),
		Scores:    make(map[string][]float64, len(population)),
		Edges:     append([]Edge(nil), edges...),
	}
	for name := range population {
		log.Actions[name] = []Action{}
		log.Scores[name] = []float64{}
	}
	return log
}

// Play runs Rounds rounds for each edge in topology order and returns the
// generation's histories and per-agent logs. Every edge endpoint must be in the
// population; a missing endpoint fails the whole call before any round is played.
func (e *GameEngine) Play(population map[string]*Agent, edges []Edge) (*PlayLog, error) {
	if e.Rounds < 1 {
		return nil, fmt.Errorf("%w: rounds per pair must be at least 1, got %d", ErrValidation, e.Rounds)
	}

	byIndex := make(map[int]*Agent, len(population))
	for _, a := range population {
		byIndex[a.Index] = a
	}
	for i, edge := range edges {
		if edge.A == edge.B {
			return nil, fmt.Errorf("%w: edge %d %s is a self loop", ErrValidation, i, edge)
		}
		if _, ok := byIndex[edge.A]; !ok {
			return nil, fmt.Errorf("%w: edge %d %s references index %d", ErrUnknownAgent, i, edge, edge.A)
		}
		if _, ok := byIndex[edge.B]; !ok {
			return nil, fmt.Errorf("%w: edge %d %s references index %d", ErrUnknownAgent, i, edge, edge.B)
		}
	}

	log := newPlayLog(population, edges)
	for _, edge := range edges {
		key := edge.Canonical()
		history, ok := log.Histories[key]
		if !ok {
			history = NewPairHistory(key)
			log.Histories[key] = history
		}
		if err := e.playPair(log, history, byIndex[edge.A], byIndex[edge.B]); err != nil {
			return nil, fmt.Errorf("pair %s: %w", edge, err)
		}
	}
	return log, nil
}

// playPair plays the rounds of one pairing. Rounds are strictly sequential since
// each round's inputs read the moves recorded by the previous ones.
func (e *GameEngine) playPair(log *PlayLog, history *PairHistory, a, b *Agent) error {
	for round := 0; round < e.Rounds; round++ {
		inA := history.Inputs(a.Index, e.Window, e.Pad)
		inB := history.Inputs(b.Index, e.Window, e.Pad)

		decA, err := Decide(a.Policy, inA)
		if err != nil {
			return fmt.Errorf("round %d: %s: %w", round, a.Name, err)
		}
		decB, err := Decide(b.Policy, inB)
		if err != nil {
			return fmt.Errorf("round %d: %s: %w", round, b.Name, err)
		}

		history.Record(a.Index, decA.Action, decB.Action)

		payA, payB := e.Payoffs.Payoff(decA.Action, decB.Action)
		log.Actions[a.Name] = append(log.Actions[a.Name], decA.Action)
		log.Actions[b.Name] = append(log.Actions[b.Name], decB.Action)
		log.Scores[a.Name] = append(log.Scores[a.Name], payA)
		log.Scores[b.Name] = append(log.Scores[b.Name], payB)
	}
	return nil
}
