package main

import (
	"fmt"
	"time"

	"github.com/coder/quartz"

	"github.com/rook/blindsolver/internal/solver/mcts"
	"github.com/rook/blindsolver/internal/solver/registry"
	"github.com/rook/blindsolver/internal/solver/simulator"
	"github.com/rook/blindsolver/internal/solver/tuning"
)

// BenchCmd drives repeated MCTS searches against fresh hands to measure
// iteration throughput, a cheap proxy for whether a tuning change (or a
// faster machine) keeps the search within its real-time budget.
type BenchCmd struct {
	Hands   int           `kong:"default='20',help='Number of independent hands to search'"`
	Budget  time.Duration `kong:"default='1s',help='Search budget per hand'"`
	Seed    int64         `kong:"default='1',help='Base RNG seed; each hand increments it'"`
	Config  string        `kong:"help='Path to an HCL tuning file (optional)'"`
	Workers int           `kong:"default='1',help='Root-parallel tree count per hand (1 = single tree)'"`
}

func (c *BenchCmd) Run() error {
	loaded, err := tuning.Load(c.Config)
	if err != nil {
		return err
	}
	_, _, mctsCfg := tuning.Resolve(loaded)
	mctsCfg.Workers = c.Workers

	reg := registry.New()
	clock := quartz.NewReal()

	var totalIterations int
	start := time.Now()
	for i := 0; i < c.Hands; i++ {
		sim := simulator.New(c.Seed+int64(i), 8, 4, 3, 4, reg)
		if err := sim.StartBlind(); err != nil {
			return fmt.Errorf("hand %d: starting blind: %w", i, err)
		}

		deadline := tuning.NewDeadline(clock, c.Budget)
		action, ok, visits := mcts.RunParallel(sim, mctsCfg, deadline)
		if !ok {
			return fmt.Errorf("hand %d: no legal actions", i)
		}
		totalIterations += visits
		fmt.Printf("hand %d: %s %v (%d iterations)\n", i, action.Kind, action.Indices, visits)
	}

	elapsed := time.Since(start)
	fmt.Printf(
		"\n%d hands, %d total iterations in %s (%.0f iterations/sec)\n",
		c.Hands, totalIterations, elapsed, float64(totalIterations)/elapsed.Seconds(),
	)
	return nil
}
