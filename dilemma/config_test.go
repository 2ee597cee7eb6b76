package dilemma

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dilemma-config")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[Simulation]
num_agents      = 50
rounds_per_pair = 6
seed            = 1234

[Reproduction]
heavy_sigma = 0.25

[Policy]
activation = Tanh   # inline comment

[Topology]
knn        = 6
edges_file = edges.json ; trailing comment
`)
	c, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 50, c.Simulation.NumAgents)
	assert.Equal(t, 6, c.Simulation.RoundsPerPair)
	assert.Equal(t, int64(1234), c.Simulation.Seed)
	assert.Equal(t, 3, c.Simulation.HistoryWindow)
	assert.Equal(t, 0.5, c.Simulation.HistoryPad)
	assert.Equal(t, 0.25, c.Reproduction.HeavySigma)
	assert.Equal(t, 0.01, c.Reproduction.LightSigma)
	assert.Equal(t, "tanh", c.Policy.Activation)
	assert.Equal(t, 6, c.Topology.KNN)
	assert.Equal(t, "edges.json", c.Topology.EdgesFile)
	assert.Equal(t, 3.0, c.Payoff.Reward)
	assert.Equal(t, ":8080", c.Server.Addr)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"rounds":   "[Simulation]\nrounds_per_pair = 0\n",
		"agents":   "[Simulation]\nnum_agents = -3\n",
		"payoffs":  "[Payoff]\ntemptation = 2\n",
		"light":    "[Reproduction]\nlight_offspring = 9\n",
		"sigma":    "[Reproduction]\nlight_sigma = -1\n",
		"knn":      "[Topology]\nknn = 1\n",
		"max":      "[Simulation]\nmax_agents = 10\n",
		"rewiring": "[Topology]\nrewiring_prob = 1.5\n",
		"hidden":   "[Policy]\nhidden_size = 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config error")
		})
	}
}

func TestLoadConfigRejectsMalformedNumber(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "[Simulation]\nnum_agents = many\n"))
	require.Error(t, err)
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}
