package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/blueskinlizard/EvoDilemma/dilemma"
)

// Metrics tracks simulation progress for scraping.
type Metrics struct {
	Generations        prometheus.Counter
	Offspring          *prometheus.CounterVec
	SkippedPairs       prometheus.Counter
	PopulationSize     prometheus.Gauge
	BestFitness        prometheus.Gauge
	MeanFitness        prometheus.Gauge
	GenerationDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evodilemma_generations_total",
			Help: "Generations played.",
		}),
		Offspring: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evodilemma_offspring_total",
			Help: "Offspring created, by reproduction mode.",
		}, []string{"mode"}),
		SkippedPairs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evodilemma_skipped_pairs_total",
			Help: "Crossover pairs skipped because a parent was missing.",
		}),
		PopulationSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "evodilemma_population_size",
			Help: "Agents in the live population.",
		}),
		BestFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "evodilemma_best_fitness",
			Help: "Best warm-up excluded fitness of the latest generation.",
		}),
		MeanFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "evodilemma_mean_fitness",
			Help: "Mean warm-up excluded fitness of the latest generation.",
		}),
		GenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "evodilemma_generation_seconds",
			Help:    "Wall time of one generation of play.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	reg.MustRegister(m.Generations, m.Offspring, m.SkippedPairs, m.PopulationSize,
		m.BestFitness, m.MeanFitness, m.GenerationDuration)
	return m
}

func (m *Metrics) observeGeneration(r *dilemma.GenerationResult) {
	m.Generations.Inc()
	m.BestFitness.Set(r.BestFitness())
	m.MeanFitness.Set(r.MeanFitness())
	m.GenerationDuration.Observe(r.Duration.Seconds())
}

func (m *Metrics) observeReproduction(mode string, r *dilemma.ReproductionResult) {
	m.Offspring.WithLabelValues(mode).Add(float64(len(r.Offspring)))
	m.SkippedPairs.Add(float64(len(r.Skipped)))
	m.PopulationSize.Set(float64(len(r.Population)))
}
