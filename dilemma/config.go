package dilemma

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// Config stores the configuration parameters for a simulation run.
type Config struct {
	Simulation   SimulationConfig
	Payoff       PayoffConfig
	Reproduction ReproductionConfig
	Policy       PolicyConfig
	Topology     TopologyConfig
	Server       ServerConfig
}

// SimulationConfig holds parameters of the game phase.
type SimulationConfig struct {
	NumAgents     int     `ini:"num_agents"`
	MaxAgents     int     `ini:"max_agents"`      // Upper bound accepted by Init
	RoundsPerPair int     `ini:"rounds_per_pair"` // Also the warm-up length excluded from fitness
	HistoryWindow int     `ini:"history_window"`  // Moves per side fed to the policy
	HistoryPad    float64 `ini:"history_pad"`     // Value used before enough moves exist
	Seed          int64   `ini:"seed"`            // 0 seeds from the clock
}

// PayoffConfig holds the 2x2 payoff matrix in the classic R/S/T/P naming.
type PayoffConfig struct {
	Reward     float64 `ini:"reward"`     // both split
	Sucker     float64 `ini:"sucker"`     // split against steal
	Temptation float64 `ini:"temptation"` // steal against split
	Punishment float64 `ini:"punishment"` // both steal
}

// ReproductionConfig holds parameters of the genetic operators.
type ReproductionConfig struct {
	Survivors            int     `ini:"survivors"`              // Minimum survivors for mutation-only reproduction
	LightSurvivors       int     `ini:"light_survivors"`        // Leading survivors mutated with LightSigma
	LightSigma           float64 `ini:"light_sigma"`
	HeavySigma           float64 `ini:"heavy_sigma"`
	OffspringPerSurvivor int     `ini:"offspring_per_survivor"` // 0 keeps the population size
	OffspringPerPair     int     `ini:"offspring_per_pair"`
	LightOffspring       int     `ini:"light_offspring"` // Leading offspring of each crossover pair mutated lightly
}

// PolicyConfig holds the policy network architecture.
type PolicyConfig struct {
	HiddenSize int    `ini:"hidden_size"`
	Activation string `ini:"activation"` // Hidden layer activation, e.g. "relu"
}

// TopologyConfig holds parameters of the small-world pairing graph.
type TopologyConfig struct {
	KNN          int     `ini:"knn"`
	RewiringProb float64 `ini:"rewiring_prob"`
	EdgesFile    string  `ini:"edges_file"` // Optional JSON edge list used instead of generating one
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `ini:"addr"`
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() *Config {
	return &Config{
		Simulation: SimulationConfig{
			NumAgents:     400,
			MaxAgents:     100000,
			RoundsPerPair: 4,
			HistoryWindow: 3,
			HistoryPad:    0.5,
		},
		Payoff: PayoffConfig{
			Reward:     3,
			Sucker:     0,
			Temptation: 5,
			Punishment: 1,
		},
		Reproduction: ReproductionConfig{
			Survivors:        4,
			LightSurvivors:   2,
			LightSigma:       0.01,
			HeavySigma:       0.1,
			OffspringPerPair: 8,
			LightOffspring:   4,
		},
		Policy: PolicyConfig{
			HiddenSize: 16,
			Activation: "relu",
		},
		Topology: TopologyConfig{
			KNN:          4,
			RewiringProb: 0.3,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// LoadConfig loads configuration parameters from an INI file.
// Keys missing from the file keep their DefaultConfig values.
func LoadConfig(filePath string) (*Config, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	config := DefaultConfig()

	sections := []struct {
		name string
		dst  interface{}
	}{
		{"Simulation", &config.Simulation},
		{"Payoff", &config.Payoff},
		{"Reproduction", &config.Reproduction},
		{"Policy", &config.Policy},
		{"Topology", &config.Topology},
		{"Server", &config.Server},
	}
	for _, s := range sections {
		if !cfg.HasSection(s.name) {
			continue
		}
		if err := cfg.Section(s.name).StrictMapTo(s.dst); err != nil {
			return nil, fmt.Errorf("failed to map [%s] section: %w", s.name, err)
		}
	}

	config.Topology.EdgesFile = cleanIniString(config.Topology.EdgesFile)
	config.Server.Addr = cleanIniString(config.Server.Addr)
	config.Policy.Activation = strings.ToLower(cleanIniString(config.Policy.Activation))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration for values the simulation cannot run with.
func (c *Config) Validate() error {
	sim := c.Simulation
	if sim.NumAgents <= 0 {
		return fmt.Errorf("config error: num_agents must be positive")
	}
	if sim.MaxAgents < sim.NumAgents {
		return fmt.Errorf("config error: max_agents (%d) cannot be below num_agents (%d)", sim.MaxAgents, sim.NumAgents)
	}
	if sim.RoundsPerPair < 1 {
		return fmt.Errorf("config error: rounds_per_pair must be at least 1")
	}
	if sim.HistoryWindow < 1 {
		return fmt.Errorf("config error: history_window must be at least 1")
	}

	p := c.Payoff
	// Classic dilemma ordering: temptation > reward > punishment >= sucker.
	if !(p.Temptation > p.Reward && p.Reward > p.Punishment && p.Punishment >= p.Sucker) {
		return fmt.Errorf("config error: payoffs must satisfy temptation > reward > punishment >= sucker")
	}

	r := c.Reproduction
	if r.Survivors < 1 {
		return fmt.Errorf("config error: survivors must be positive")
	}
	if r.LightSurvivors < 0 || r.LightSurvivors > r.Survivors {
		return fmt.Errorf("config error: light_survivors must be between 0 and survivors")
	}
	if r.LightSigma < 0 || r.HeavySigma < 0 {
		return fmt.Errorf("config error: mutation sigmas cannot be negative")
	}
	if r.OffspringPerSurvivor < 0 {
		return fmt.Errorf("config error: offspring_per_survivor cannot be negative")
	}
	if r.OffspringPerPair < 1 {
		return fmt.Errorf("config error: offspring_per_pair must be positive")
	}
	if r.LightOffspring < 0 || r.LightOffspring > r.OffspringPerPair {
		return fmt.Errorf("config error: light_offspring must be between 0 and offspring_per_pair")
	}

	if c.Policy.HiddenSize <= 0 {
		return fmt.Errorf("config error: hidden_size must be positive")
	}
	if c.Policy.Activation == "" {
		return fmt.Errorf("config error: activation must be specified")
	}

	t := c.Topology
	if t.KNN < 2 {
		return fmt.Errorf("config error: knn must be at least 2")
	}
	if t.RewiringProb < 0 || t.RewiringProb > 1 {
		return fmt.Errorf("config error: rewiring_prob must be between 0 and 1")
	}
	return nil
}

// cleanIniString removes inline comments and trims whitespace from a string read from INI.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
