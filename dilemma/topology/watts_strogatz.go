// Package topology provides the pairing graphs agents play over.
package topology

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/blueskinlizard/EvoDilemma/dilemma"
)

// WattsStrogatz generates small-world graphs: a ring lattice where each node is joined
// to its K nearest neighbours (K/2 per side, so an odd K rounds down), after which every
// lattice edge is rewired to a random node with probability P. K == N yields the
// complete graph.
type WattsStrogatz struct {
	N    int
	K    int
	P    float64
	Rand *rand.Rand
}

// NewWattsStrogatz creates a generator for n nodes from the topology configuration.
func NewWattsStrogatz(n int, config dilemma.TopologyConfig, rng *rand.Rand) *WattsStrogatz {
	return &WattsStrogatz{N: n, K: config.KNN, P: config.RewiringProb, Rand: rng}
}

// graph is an undirected simple graph keeping neighbour insertion order, so the
// emitted edge order is reproducible.
type graph struct {
	adj   [][]int
	edges map[[2]int]bool
}

func newGraph(n int) *graph {
	return &graph{adj: make([][]int, n), edges: make(map[[2]int]bool)}
}

func edgeKey(u, v int) [2]int {
	if u > v {
		u, v = v, u
	}
	return [2]int{u, v}
}

func (g *graph) has(u, v int) bool {
	return g.edges[edgeKey(u, v)]
}

func (g *graph) add(u, v int) {
	if g.has(u, v) {
		return
	}
	g.edges[edgeKey(u, v)] = true
	g.adj[u] = append(g.adj[u], v)
	g.adj[v] = append(g.adj[v], u)
}

func (g *graph) remove(u, v int) {
	delete(g.edges, edgeKey(u, v))
	g.adj[u] = without(g.adj[u], v)
	g.adj[v] = without(g.adj[v], u)
}

func without(s []int, x int) []int {
	for i, v := range s {
		if v == x {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// list emits every edge once, walking nodes in order and their neighbours in insertion order.
func (g *graph) list() []dilemma.Edge {
	out := make([]dilemma.Edge, 0, len(g.edges))
	for u := range g.adj {
		for _, v := range g.adj[u] {
			if v < u {
				continue // already emitted from v
			}
			out = append(out, dilemma.Edge{A: u, B: v})
		}
	}
	return out
}

// Validate checks the generator parameters.
func (w *WattsStrogatz) Validate() error {
	if w.N <= 0 {
		return fmt.Errorf("%w: node count must be positive, got %d", dilemma.ErrValidation, w.N)
	}
	if w.K < 0 {
		return fmt.Errorf("%w: k cannot be negative, got %d", dilemma.ErrValidation, w.K)
	}
	if w.K > w.N {
		return fmt.Errorf("%w: k (%d) cannot exceed n (%d)", dilemma.ErrValidation, w.K, w.N)
	}
	if w.P < 0 || w.P > 1 {
		return fmt.Errorf("%w: rewiring probability must be in [0, 1], got %g", dilemma.ErrValidation, w.P)
	}
	if w.Rand == nil {
		return fmt.Errorf("%w: random source is required", dilemma.ErrValidation)
	}
	return nil
}

// Generate builds a new graph and returns its edges.
func (w *WattsStrogatz) Generate() ([]dilemma.Edge, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	g := newGraph(w.N)
	if w.K == w.N {
		for u := 0; u < w.N; u++ {
			for v := u + 1; v < w.N; v++ {
				g.add(u, v)
			}
		}
		return g.list(), nil
	}

	for j := 1; j <= w.K/2; j++ {
		for u := 0; u < w.N; u++ {
			g.add(u, (u+j)%w.N)
		}
	}

	for j := 1; j <= w.K/2; j++ {
		for u := 0; u < w.N; u++ {
			v := (u + j) % w.N
			if w.Rand.Float64() >= w.P {
				continue
			}
			// A node already joined to everyone has nowhere to rewire to.
			if len(g.adj[u]) >= w.N-1 {
				continue
			}
			target := w.Rand.Intn(w.N)
			for target == u || g.has(u, target) {
				target = w.Rand.Intn(w.N)
			}
			if !g.has(u, v) {
				continue
			}
			g.remove(u, v)
			g.add(u, target)
		}
	}
	return g.list(), nil
}

// Resize sets the node count of subsequently generated graphs.
func (w *WattsStrogatz) Resize(n int) {
	w.N = n
}

// Edges implements dilemma.TopologyProvider.
func (w *WattsStrogatz) Edges(ctx context.Context) ([]dilemma.Edge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return w.Generate()
}

// Static is a TopologyProvider returning a fixed edge list.
type Static []dilemma.Edge

// Edges implements dilemma.TopologyProvider.
func (s Static) Edges(ctx context.Context) ([]dilemma.Edge, error) {
	return append([]dilemma.Edge(nil), s...), nil
}
