// Package server exposes a Simulation over HTTP for the visualization client.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blueskinlizard/EvoDilemma/dilemma"
)

// Server serializes all access to one Simulation behind a mutex, so a generation
// never overlaps a reproduction call.
type Server struct {
	mu       sync.Mutex
	sim      *dilemma.Simulation
	provider dilemma.TopologyProvider
	metrics  *Metrics
	logger   *slog.Logger
	engine   *gin.Engine
}

// New builds the HTTP handler around sim. provider backs /regenerate_topology.
func New(sim *dilemma.Simulation, provider dilemma.TopologyProvider, reg *prometheus.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		sim:      sim,
		provider: provider,
		metrics:  NewMetrics(reg),
		logger:   logger,
		engine:   gin.New(),
	}
	s.engine.Use(gin.Recovery())

	s.engine.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	s.engine.POST("/models_init", s.handleInit)
	s.engine.POST("/forward", s.handleForward)
	s.engine.POST("/run_generation", s.handleRunGeneration)
	s.engine.POST("/mutate", s.handleMutate)
	s.engine.POST("/crossover", s.handleCrossover)
	s.engine.POST("/regenerate_topology", s.handleRegenerateTopology)
	s.engine.GET("/topology", s.handleTopology)
	return s
}

// Handler returns the http.Handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return s.engine.Run(addr)
}

type initRequest struct {
	NumAgents json.Number `json:"num_agents"`
}

func (s *Server) handleInit(c *gin.Context) {
	var req initRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, io.EOF) {
			badRequest(c, "No JSON data received")
			return
		}
		badRequest(c, "num_agents must be an integer")
		return
	}
	if req.NumAgents == "" {
		badRequest(c, "num_agents not provided")
		return
	}
	n, err := agentCount(req.NumAgents)
	if err != nil {
		badRequest(c, "num_agents must be an integer")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sim.Init(int(n)); err != nil {
		s.fail(c, err)
		return
	}
	s.metrics.PopulationSize.Set(float64(n))
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Initialized %d agents", n), "session": s.sim.Session})
}

// agentCount accepts integers and integral floats such as 5.0.
func agentCount(num json.Number) (int64, error) {
	if n, err := num.Int64(); err == nil {
		return n, nil
	}
	f, err := num.Float64()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	return int64(f), nil
}

type forwardRequest struct {
	AgentID string    `json:"agent_id"`
	Inputs  []float64 `json:"inputs"`
}

func (s *Server) handleForward(c *gin.Context) {
	var req forwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid inputs")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.sim.Infer(req.AgentID, req.Inputs)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"action": int(d.Action), "probabilities": d.Probabilities})
}

type agentResponse struct {
	Actions         []int     `json:"actions"`
	Scores          []float64 `json:"scores"`
	Fitness         float64   `json:"fitness"`
	CumulativeScore float64   `json:"cumulative_score"`
}

type historyResponse struct {
	Pair  [2]int   `json:"pair"`
	Moves [2][]int `json:"moves"`
}

type generationResponse struct {
	Session    string                   `json:"session"`
	Generation int                      `json:"generation"`
	Agents     map[string]agentResponse `json:"agents"`
	Histories  []historyResponse        `json:"histories"`
}

func (s *Server) handleRunGeneration(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := s.sim.RunGeneration()
	if err != nil {
		s.fail(c, err)
		return
	}
	s.metrics.observeGeneration(result)
	c.JSON(http.StatusOK, toGenerationResponse(result))
}

func toGenerationResponse(r *dilemma.GenerationResult) generationResponse {
	resp := generationResponse{
		Session:    r.Session.String(),
		Generation: r.Generation,
		Agents:     make(map[string]agentResponse, len(r.Agents)),
		Histories:  make([]historyResponse, 0, len(r.Histories)),
	}
	for name, a := range r.Agents {
		resp.Agents[name] = agentResponse{
			Actions:         actionInts(a.Actions),
			Scores:          a.Scores,
			Fitness:         a.Fitness,
			CumulativeScore: a.Cumulative,
		}
	}
	// Edge order, so the listing matches play order.
	seen := make(map[dilemma.PairKey]bool, len(r.Histories))
	for _, e := range r.Edges {
		key := e.Canonical()
		if seen[key] {
			continue
		}
		seen[key] = true
		h := r.Histories[key]
		resp.Histories = append(resp.Histories, historyResponse{
			Pair:  [2]int{key.Lo, key.Hi},
			Moves: [2][]int{actionInts(h.Lo), actionInts(h.Hi)},
		})
	}
	return resp
}

func actionInts(actions []dilemma.Action) []int {
	out := make([]int, len(actions))
	for i, a := range actions {
		out[i] = int(a)
	}
	return out
}

type reproduceRequest struct {
	Agents []string `json:"agents"`
}

func (s *Server) handleMutate(c *gin.Context) {
	s.reproduce(c, "mutation", s.sim.ReproduceMutation)
}

func (s *Server) handleCrossover(c *gin.Context) {
	s.reproduce(c, "crossover", s.sim.ReproduceCrossover)
}

func (s *Server) reproduce(c *gin.Context, mode string, op func([]string) (*dilemma.ReproductionResult, error)) {
	var req reproduceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Agents == nil {
		badRequest(c, "agents not provided")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := op(req.Agents)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.metrics.observeReproduction(mode, result)
	skipped := result.Skipped
	if skipped == nil {
		skipped = [][2]string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"count":     len(result.Offspring),
		"offspring": result.Offspring,
		"skipped":   skipped,
	})
}

func (s *Server) handleRegenerateTopology(c *gin.Context) {
	if s.provider == nil {
		s.fail(c, errors.New("no topology provider configured"))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	edges, err := s.sim.RegenerateTopology(c.Request.Context(), s.provider)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"edges": edgePairs(edges)})
}

func (s *Server) handleTopology(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"edges": edgePairs(s.sim.Edges)})
}

func edgePairs(edges []dilemma.Edge) [][2]int {
	out := make([][2]int, len(edges))
	for i, e := range edges {
		out[i] = [2]int{e.A, e.B}
	}
	return out
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// fail maps simulation errors to a status: caller mistakes are 400, the rest 500.
func (s *Server) fail(c *gin.Context, err error) {
	if dilemma.IsClientError(err) {
		badRequest(c, err.Error())
		return
	}
	s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
