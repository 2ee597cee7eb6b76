package dilemma

import (
	"fmt"
	"math/rand"
)

// Reproduction creates new populations from externally selected survivors, either by
// cloning with Gaussian mutation or by crossover followed by mutation.
//
// Every operator works on copies: offspring never alias a parent's weight storage,
// and the source population is never modified.
type Reproduction struct {
	Config *ReproductionConfig
	rng    *rand.Rand
}

// NewReproduction creates a reproduction manager drawing all randomness from rng.
func NewReproduction(config *ReproductionConfig, rng *rand.Rand) *Reproduction {
	return &Reproduction{
		Config: config,
		rng:    rng,
	}
}

// ReproductionResult describes the population produced by one reproduction call.
type ReproductionResult struct {
	Population map[string]*Agent
	Offspring  []string    // offspring names in creation order
	Skipped    [][2]string // crossover pairs dropped because a parent was missing
}

// MutateWeights returns a copy of w with N(0, sigma) noise added to every element.
// With sigma 0 the copy equals w exactly.
func MutateWeights(w Weights, sigma float64, rng *rand.Rand) Weights {
	out := w.Copy()
	for _, name := range out.Names() {
		data := out[name].Data
		for i := range data {
			data[i] += rng.NormFloat64() * sigma
		}
	}
	return out
}

// CrossoverWeights builds the weights of offspring number child of parents a and b.
// Scalar tensors are inherited whole, from a for even children and from b for odd ones.
// Other tensors are an element-wise mosaic chosen by a fair coin per element.
func CrossoverWeights(a, b Weights, child int, rng *rand.Rand) (Weights, error) {
	if err := a.CheckCompatible(b); err != nil {
		return nil, err
	}
	out := make(Weights, len(a))
	for _, name := range a.Names() {
		ta, tb := a[name], b[name]
		if ta.Rank() == 0 {
			if child%2 == 0 {
				out[name] = ta.Copy()
			} else {
				out[name] = tb.Copy()
			}
			continue
		}
		t := ta.Copy()
		for i := range t.Data {
			if rng.Float64() >= 0.5 {
				t.Data[i] = tb.Data[i]
			}
		}
		out[name] = t
	}
	return out, nil
}

// ReproduceMutation clones each survivor with Gaussian noise. The first
// LightSurvivors survivors use LightSigma, the rest HeavySigma.
// Fewer than Config.Survivors names is a validation error and an unknown name is a
// referential error; in both cases nothing is produced.
func (r *Reproduction) ReproduceMutation(population map[string]*Agent, survivors []string) (*ReproductionResult, error) {
	if len(survivors) < r.Config.Survivors {
		return nil, fmt.Errorf("%w: mutation needs at least %d survivors, got %d", ErrValidation, r.Config.Survivors, len(survivors))
	}
	parents, err := lookupAgents(population, survivors)
	if err != nil {
		return nil, err
	}

	counts := r.offspringCounts(len(population), len(parents))
	result := &ReproductionResult{Population: make(map[string]*Agent)}
	for i, parent := range parents {
		sigma := r.Config.HeavySigma
		if i < r.Config.LightSurvivors {
			sigma = r.Config.LightSigma
		}
		base := parent.Policy.Weights()
		for j := 0; j < counts[i]; j++ {
			child, err := r.spawn(result, parent.Policy, MutateWeights(base, sigma, r.rng))
			if err != nil {
				return nil, fmt.Errorf("mutating %s: %w", parent.Name, err)
			}
			result.Offspring = append(result.Offspring, child.Name)
		}
	}
	return result, nil
}

// offspringCounts returns how many children each survivor produces. Without a fixed
// per-survivor count the current population size is spread round-robin over survivors.
func (r *Reproduction) offspringCounts(popSize, survivors int) []int {
	counts := make([]int, survivors)
	if r.Config.OffspringPerSurvivor > 0 {
		for i := range counts {
			counts[i] = r.Config.OffspringPerSurvivor
		}
		return counts
	}
	for i := range counts {
		counts[i] = popSize / survivors
		if i < popSize%survivors {
			counts[i]++
		}
	}
	return counts
}

// ReproduceCrossover shuffles the survivors, pairs them up in order and lets every
// pair produce OffspringPerPair children. A trailing unpaired survivor is dropped.
// Pairs naming an agent that is not in the population are skipped and reported.
// The call fails when no pair could reproduce.
func (r *Reproduction) ReproduceCrossover(population map[string]*Agent, survivors []string) (*ReproductionResult, error) {
	if len(survivors) < 2 {
		return nil, fmt.Errorf("%w: crossover needs at least 2 survivors, got %d", ErrValidation, len(survivors))
	}

	shuffled := append([]string(nil), survivors...)
	r.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	result := &ReproductionResult{Population: make(map[string]*Agent)}
	for p := 0; p+1 < len(shuffled); p += 2 {
		nameA, nameB := shuffled[p], shuffled[p+1]
		a, okA := population[nameA]
		b, okB := population[nameB]
		if !okA || !okB {
			result.Skipped = append(result.Skipped, [2]string{nameA, nameB})
			continue
		}

		wa, wb := a.Policy.Weights(), b.Policy.Weights()
		for k := 0; k < r.Config.OffspringPerPair; k++ {
			mixed, err := CrossoverWeights(wa, wb, k, r.rng)
			if err != nil {
				return nil, fmt.Errorf("crossing %s with %s: %w", nameA, nameB, err)
			}
			sigma := r.Config.HeavySigma
			if k < r.Config.LightOffspring {
				sigma = r.Config.LightSigma
			}
			child, err := r.spawn(result, a.Policy, MutateWeights(mixed, sigma, r.rng))
			if err != nil {
				return nil, fmt.Errorf("crossing %s with %s: %w", nameA, nameB, err)
			}
			result.Offspring = append(result.Offspring, child.Name)
		}
	}

	if len(result.Offspring) == 0 {
		return nil, fmt.Errorf("%w: no survivor pair had both parents in the population", ErrUnknownAgent)
	}
	return result, nil
}

// spawn clones template, installs w and registers the child under the next free index.
func (r *Reproduction) spawn(result *ReproductionResult, template Policy, w Weights) (*Agent, error) {
	policy := template.Clone()
	if err := policy.SetWeights(w); err != nil {
		return nil, err
	}
	index := len(result.Population)
	child := &Agent{
		Name:   AgentName(index),
		Index:  index,
		Policy: policy,
	}
	result.Population[child.Name] = child
	return child, nil
}

// lookupAgents resolves names in order, failing on the first unknown one.
func lookupAgents(population map[string]*Agent, names []string) ([]*Agent, error) {
	agents := make([]*Agent, 0, len(names))
	for _, name := range names {
		a, ok := population[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAgent, name)
		}
		agents = append(agents, a)
	}
	return agents, nil
}
