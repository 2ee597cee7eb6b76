// Package dilemma runs populations of neural-network policies through the iterated
// Prisoner's Dilemma and evolves them with mutation and crossover.
//
// Agents are paired along the edges of a fixed topology. Each edge plays a number of
// rounds; in every round both agents see the last moves of the pairing, pick split or
// steal, and collect payoffs from the 3/0/5/1 matrix. An agent's fitness is its mean
// payoff once its first rounds_per_pair rounds (the warm-up) are dropped. Survivors
// chosen by the caller then seed the next population, either as mutated clones or as
// crossover offspring of shuffled survivor pairs.
//
// The policy network itself lives in the nn subpackage, pairing graphs in topology
// and the HTTP front in server.
//
// Basic usage:
//
//	config, err := dilemma.LoadConfig("path/to/config")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//	factory, err := nn.FactoryFromConfig(config)
//	if err != nil {
//		log.Fatalf("Error building policy factory: %v", err)
//	}
//	sim, err := dilemma.NewSimulation(config, factory)
//	if err != nil {
//		log.Fatalf("Error creating simulation: %v", err)
//	}
//	if err := sim.Init(config.Simulation.NumAgents); err != nil {
//		log.Fatalf("Error initializing population: %v", err)
//	}
//	ws := topology.NewWattsStrogatz(config.Simulation.NumAgents, config.Topology, sim.Rand())
//	if _, err := sim.RegenerateTopology(ctx, ws); err != nil {
//		log.Fatalf("Error building topology: %v", err)
//	}
//
//	for i := 0; i < 100; i++ {
//		result, err := sim.RunGeneration()
//		if err != nil {
//			log.Fatalf("Error running generation: %v", err)
//		}
//		if _, err := sim.ReproduceCrossover(dilemma.SelectTop(result, 100)); err != nil {
//			log.Fatalf("Error reproducing: %v", err)
//		}
//	}
package dilemma
