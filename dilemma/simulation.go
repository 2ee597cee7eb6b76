package dilemma

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

// TopologyProvider supplies the ordered edge list agents are paired by.
type TopologyProvider interface {
	Edges(ctx context.Context) ([]Edge, error)
}

// ResizableTopology is a TopologyProvider generating graphs over a configurable number
// of nodes. RegenerateTopology sizes it to the live population before asking for edges.
type ResizableTopology interface {
	TopologyProvider
	Resize(n int)
}

// Simulation holds the state of the evolutionary process: the live population,
// the pairing topology and the outcome of the latest generation.
//
// A Simulation is not safe for concurrent use. The game phase and the reproduction
// phase both read the population and must not overlap.
type Simulation struct {
	Config       *Config
	Population   map[string]*Agent // Current generation of agents (name -> agent)
	Edges        []Edge
	Game         *GameEngine
	Reproduction *Reproduction
	Generation   int
	Session      uuid.UUID // Changes every time the population is re-initialized
	Last         *GenerationResult

	factory PolicyFactory
	rng     *rand.Rand
	logger  *slog.Logger
}

// Option customizes a Simulation.
type Option func(*Simulation)

// WithRand sets the random source used for policy initialization and reproduction.
func WithRand(rng *rand.Rand) Option {
	return func(s *Simulation) { s.rng = rng }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulation) { s.logger = logger }
}

// NewSimulation creates an empty simulation. Call Init to create a population and
// SetTopology or RegenerateTopology to provide the edge set.
func NewSimulation(config *Config, factory PolicyFactory, opts ...Option) (*Simulation, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, fmt.Errorf("%w: policy factory is required", ErrValidation)
	}
	s := &Simulation{
		Config:     config,
		Population: make(map[string]*Agent),
		Game:       NewGameEngine(config),
		factory:    factory,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = NewRand(config.Simulation.Seed)
	}
	s.Reproduction = NewReproduction(&config.Reproduction, s.rng)
	return s, nil
}

// NewRand returns a seeded source. Seed 0 seeds from the clock.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Rand exposes the simulation's random source for collaborators such as topology generators.
func (s *Simulation) Rand() *rand.Rand {
	return s.rng
}

// Init replaces the population with n freshly initialized agents named agent_0..agent_{n-1}
// and clears the per-generation aggregates.
func (s *Simulation) Init(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: agent count must be positive, got %d", ErrValidation, n)
	}
	if limit := s.Config.Simulation.MaxAgents; n > limit {
		return fmt.Errorf("%w: agent count %d exceeds max_agents %d", ErrValidation, n, limit)
	}
	population := make(map[string]*Agent, n)
	for i := 0; i < n; i++ {
		name := AgentName(i)
		population[name] = &Agent{Name: name, Index: i, Policy: s.factory(s.rng)}
	}
	s.Population = population
	s.Generation = 0
	s.Last = nil
	s.Session = uuid.New()
	s.logger.Info("population initialized", "agents", n, "session", s.Session)
	return nil
}

// SetTopology replaces the edge set used by subsequent generations.
func (s *Simulation) SetTopology(edges []Edge) error {
	for i, e := range edges {
		if e.A < 0 || e.B < 0 {
			return fmt.Errorf("%w: edge %d %s has a negative index", ErrValidation, i, e)
		}
		if e.A == e.B {
			return fmt.Errorf("%w: edge %d %s is a self loop", ErrValidation, i, e)
		}
	}
	s.Edges = append([]Edge(nil), edges...)
	return nil
}

// RegenerateTopology asks provider for a fresh edge set and installs it.
// A ResizableTopology is first sized to the current population, if there is one.
func (s *Simulation) RegenerateTopology(ctx context.Context, provider TopologyProvider) ([]Edge, error) {
	if r, ok := provider.(ResizableTopology); ok && len(s.Population) > 0 {
		r.Resize(len(s.Population))
	}
	edges, err := provider.Edges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to regenerate topology: %w", err)
	}
	if err := s.SetTopology(edges); err != nil {
		return nil, err
	}
	s.logger.Info("topology regenerated", "edges", len(edges))
	return s.Edges, nil
}

// Infer evaluates a single agent on an input vector.
func (s *Simulation) Infer(name string, inputs []float64) (Decision, error) {
	agent, ok := s.Population[name]
	if !ok {
		return Decision{}, fmt.Errorf("%w: %q", ErrUnknownAgent, name)
	}
	if want := 2 * s.Config.Simulation.HistoryWindow; len(inputs) != want {
		return Decision{}, fmt.Errorf("%w: expected %d inputs, got %d", ErrValidation, want, len(inputs))
	}
	return Decide(agent.Policy, inputs)
}

// GenerationResult is the outcome of one generation of play.
type GenerationResult struct {
	Session    uuid.UUID
	Generation int
	Agents     map[string]AgentResult
	Histories  map[PairKey]*PairHistory
	Edges      []Edge
	Duration   time.Duration
}

// BestFitness returns the highest fitness in the generation, or 0 for an empty one.
func (r *GenerationResult) BestFitness() float64 {
	if len(r.Agents) == 0 {
		return 0
	}
	best := math.Inf(-1)
	for _, a := range r.Agents {
		best = math.Max(best, a.Fitness)
	}
	return best
}

// MeanFitness returns the mean fitness over all agents, or 0 for an empty generation.
func (r *GenerationResult) MeanFitness() float64 {
	if len(r.Agents) == 0 {
		return 0
	}
	values := make([]float64, 0, len(r.Agents))
	for _, a := range r.Agents {
		values = append(values, a.Fitness)
	}
	return stat.Mean(values, nil)
}

// RunGeneration plays every edge of the topology with the current population and
// computes fitness and cumulative scores from scratch. A failed generation leaves
// the simulation unchanged.
func (s *Simulation) RunGeneration() (*GenerationResult, error) {
	if len(s.Population) == 0 {
		return nil, ErrNoPopulation
	}
	if len(s.Edges) == 0 {
		return nil, ErrNoTopology
	}

	start := time.Now()
	generation := s.Generation + 1
	s.logger.Debug("generation started", "generation", generation, "agents", len(s.Population), "edges", len(s.Edges))

	log, err := s.Game.Play(s.Population, s.Edges)
	if err != nil {
		return nil, fmt.Errorf("generation %d failed: %w", generation, err)
	}

	result := &GenerationResult{
		Session:    s.Session,
		Generation: generation,
		Agents:     Aggregate(log, s.Config.Simulation.RoundsPerPair),
		Histories:  log.Histories,
		Edges:      log.Edges,
		Duration:   time.Since(start),
	}
	s.Generation = generation
	s.Last = result

	s.logger.Info("generation finished",
		"generation", generation,
		"best_fitness", result.BestFitness(),
		"mean_fitness", result.MeanFitness(),
		"duration", result.Duration)
	return result, nil
}

// ReproduceMutation replaces the population with mutated clones of survivors.
func (s *Simulation) ReproduceMutation(survivors []string) (*ReproductionResult, error) {
	if len(s.Population) == 0 {
		return nil, ErrNoPopulation
	}
	result, err := s.Reproduction.ReproduceMutation(s.Population, survivors)
	if err != nil {
		return nil, fmt.Errorf("mutation failed: %w", err)
	}
	s.replacePopulation(result, "mutation")
	return result, nil
}

// ReproduceCrossover replaces the population with crossover offspring of survivor pairs.
func (s *Simulation) ReproduceCrossover(survivors []string) (*ReproductionResult, error) {
	if len(s.Population) == 0 {
		return nil, ErrNoPopulation
	}
	result, err := s.Reproduction.ReproduceCrossover(s.Population, survivors)
	if err != nil {
		return nil, fmt.Errorf("crossover failed: %w", err)
	}
	for _, pair := range result.Skipped {
		s.logger.Warn("crossover pair skipped", "parent_a", pair[0], "parent_b", pair[1])
	}
	s.replacePopulation(result, "crossover")
	return result, nil
}

// replacePopulation swaps in a fully built population in one step.
func (s *Simulation) replacePopulation(result *ReproductionResult, mode string) {
	s.Population = result.Population
	s.Last = nil
	s.logger.Info("population replaced", "mode", mode, "offspring", len(result.Offspring), "skipped", len(result.Skipped))
}

// SelectTop returns the names of the k fittest agents of a generation, best first.
// Equal fitness is ordered by agent index.
func SelectTop(result *GenerationResult, k int) []string {
	names := make([]string, 0, len(result.Agents))
	for name := range result.Agents {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		fi, fj := result.Agents[names[i]].Fitness, result.Agents[names[j]].Fitness
		if fi != fj {
			return fi > fj
		}
		return agentIndex(names[i]) < agentIndex(names[j])
	})
	if k < len(names) {
		names = names[:k]
	}
	return names
}

// agentIndex parses the index out of a canonical agent name, or -1.
func agentIndex(name string) int {
	var i int
	if _, err := fmt.Sscanf(name, "agent_%d", &i); err != nil {
		return -1
	}
	return i
}
